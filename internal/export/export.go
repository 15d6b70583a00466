package export

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aumentovaneza/TapLink-sub001/internal/models"
	"github.com/aumentovaneza/TapLink-sub001/internal/payment"
	"github.com/aumentovaneza/TapLink-sub001/internal/service"
)

// SheetExporter собирает производственный лист для подтверждённого заказа.
// Отрисовка SVG живёт в отдельном компоненте; здесь только данные, которые
// он потребляет.
type SheetExporter struct {
	window time.Duration
}

func NewSheetExporter(window time.Duration) *SheetExporter {
	return &SheetExporter{window: window}
}

type designSheet struct {
	OrderID          string `json:"orderId"`
	TransactionID    string `json:"transactionId"`
	ProductType      string `json:"productType"`
	Quantity         int    `json:"quantity"`
	UseDefaultDesign bool   `json:"useDefaultDesign"`
	PrimaryColor     string `json:"primaryColor"`
	SecondaryColor   string `json:"secondaryColor"`
	PrimaryText      string `json:"primaryText"`
	SecondaryText    string `json:"secondaryText"`
	Icon             string `json:"icon"`
	ProfileID        string `json:"profileId,omitempty"`
}

func (e *SheetExporter) Render(ctx context.Context, o *models.HardwareOrder) (service.Artifact, error) {
	snap := payment.ReadSnapshot(o, e.window)
	sheet := designSheet{
		OrderID:          o.ID.String(),
		TransactionID:    snap.TransactionID,
		ProductType:      string(o.ProductType),
		Quantity:         o.Quantity,
		UseDefaultDesign: o.UseDefaultDesign,
		PrimaryColor:     o.PrimaryColor,
		SecondaryColor:   o.SecondaryColor,
		PrimaryText:      o.PrimaryText,
		SecondaryText:    o.SecondaryText,
		Icon:             o.Icon,
	}
	if o.ProfileID != nil {
		sheet.ProfileID = o.ProfileID.String()
	}

	data, err := json.MarshalIndent(sheet, "", "  ")
	if err != nil {
		return service.Artifact{}, err
	}
	return service.Artifact{
		FileName:    snap.TransactionID + "-manufacturing.json",
		ContentType: "application/json",
		Data:        data,
	}, nil
}
