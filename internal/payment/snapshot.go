package payment

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/aumentovaneza/TapLink-sub001/internal/models"
)

// Статус оплаты живёт внутри metadata.payment; значения совпадают с тем,
// что писала старая версия платформы, поэтому менять их нельзя.
type Status string

const (
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusConfirmed            Status = "confirmed"
	StatusExpired              Status = "expired"
	StatusCancelled            Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAwaitingConfirmation, StatusConfirmed, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Receipt — приложенное пользователем подтверждение перевода.
type Receipt struct {
	FileName   string    `json:"fileName"`
	Path       string    `json:"path"`
	MimeType   string    `json:"mimeType"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Snapshot — платёжная под-запись заказа.
type Snapshot struct {
	Status        Status     `json:"status"`
	TransactionID string     `json:"transactionId"`
	AmountDue     int64      `json:"amountDue"`
	Currency      string     `json:"currency"`
	CreatedAt     time.Time  `json:"createdAt"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	ConfirmedAt   *time.Time `json:"confirmedAt,omitempty"`
	ExpiredAt     *time.Time `json:"expiredAt,omitempty"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty"`
	Reference     string     `json:"reference,omitempty"`
	Receipt       *Receipt   `json:"receipt,omitempty"`
}

// Expired reports whether the payment window has lapsed. Only meaningful
// while still awaiting confirmation; any other status returns false.
func (s Snapshot) Expired(now time.Time) bool {
	return s.Status == StatusAwaitingConfirmation && !now.Before(s.ExpiresAt)
}

// Timeline — контрольные сроки производства, появляются после подтверждения.
type Timeline struct {
	ExpectedProcessingAt time.Time `json:"expectedProcessingAt"`
	ExpectedDoneAt       time.Time `json:"expectedDoneAt"`
	ExpectedSentAt       time.Time `json:"expectedSentAt"`
}

const (
	metaKeyPayment  = "payment"
	metaKeyTimeline = "timeline"
)

// ReadSnapshot decodes metadata.payment tolerantly: every missing or
// malformed field falls back to the freshly computed default for this order.
// Metadata may have been written by an older writer or partially overwritten
// by a concurrent update of a sibling key.
func ReadSnapshot(o *models.HardwareOrder, window time.Duration) Snapshot {
	snap := ComputeInitial(o.ID, o.ProductType, o.Quantity, o.CreatedAt, window)

	raw, ok := metaSection(o.Metadata, metaKeyPayment)
	if !ok {
		return snap
	}

	if s, ok := asString(raw["status"]); ok && Status(s).Valid() {
		snap.Status = Status(s)
	}
	if s, ok := asString(raw["transactionId"]); ok && s != "" {
		snap.TransactionID = s
	}
	if n, ok := asInt64(raw["amountDue"]); ok && n >= 0 {
		snap.AmountDue = n
	}
	if s, ok := asString(raw["currency"]); ok && s != "" {
		snap.Currency = s
	}
	if t, ok := asTime(raw["createdAt"]); ok {
		snap.CreatedAt = t
	}
	if t, ok := asTime(raw["expiresAt"]); ok {
		snap.ExpiresAt = t
	}
	snap.ConfirmedAt = asTimePtr(raw["confirmedAt"])
	snap.ExpiredAt = asTimePtr(raw["expiredAt"])
	snap.CancelledAt = asTimePtr(raw["cancelledAt"])
	if s, ok := asString(raw["reference"]); ok {
		snap.Reference = s
	}
	if rc, ok := raw["receipt"].(map[string]any); ok {
		r := &Receipt{}
		r.FileName, _ = asString(rc["fileName"])
		r.Path, _ = asString(rc["path"])
		r.MimeType, _ = asString(rc["mimeType"])
		r.Size, _ = asInt64(rc["size"])
		if t, ok := asTime(rc["uploadedAt"]); ok {
			r.UploadedAt = t
		}
		snap.Receipt = r
	}
	return snap
}

// WriteSnapshot merges the payment sub-record into the metadata bag without
// disturbing sibling keys (notably timeline).
func WriteSnapshot(meta json.RawMessage, snap Snapshot) (json.RawMessage, error) {
	return mergeSection(meta, metaKeyPayment, snap)
}

// ReadTimeline returns the fulfillment timeline if one has been written.
func ReadTimeline(o *models.HardwareOrder) (Timeline, bool) {
	raw, ok := metaSection(o.Metadata, metaKeyTimeline)
	if !ok {
		return Timeline{}, false
	}
	var tl Timeline
	n := 0
	if t, ok := asTime(raw["expectedProcessingAt"]); ok {
		tl.ExpectedProcessingAt = t
		n++
	}
	if t, ok := asTime(raw["expectedDoneAt"]); ok {
		tl.ExpectedDoneAt = t
		n++
	}
	if t, ok := asTime(raw["expectedSentAt"]); ok {
		tl.ExpectedSentAt = t
		n++
	}
	return tl, n > 0
}

func WriteTimeline(meta json.RawMessage, tl Timeline) (json.RawMessage, error) {
	return mergeSection(meta, metaKeyTimeline, tl)
}

func metaSection(meta json.RawMessage, key string) (map[string]any, bool) {
	if len(meta) == 0 {
		return nil, false
	}
	var bag map[string]any
	if err := json.Unmarshal(meta, &bag); err != nil {
		return nil, false
	}
	section, ok := bag[key].(map[string]any)
	return section, ok
}

func mergeSection(meta json.RawMessage, key string, v any) (json.RawMessage, error) {
	bag := map[string]any{}
	if len(meta) > 0 {
		// повреждённый bag не повод терять запись — начинаем с чистого
		_ = json.Unmarshal(meta, &bag)
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var section map[string]any
	if err := json.Unmarshal(encoded, &section); err != nil {
		return nil, err
	}
	bag[key] = section
	return json.Marshal(bag)
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		// старый writer иногда сохранял суммы строками
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	}
	return 0, false
}

func asTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
	}
	return t, err == nil
}

func asTimePtr(v any) *time.Time {
	if t, ok := asTime(v); ok {
		return &t
	}
	return nil
}
