package service

import (
	"errors"
	"fmt"
)

// Базовые виды ошибок; конкретные ошибки ниже заворачивают их через %w,
// транспортный слой классифицирует по errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrGone         = errors.New("gone")
	ErrUnavailable  = errors.New("unavailable")
)

var (
	ErrOrderNotFound       = fmt.Errorf("%w: order", ErrNotFound)
	ErrEmailInvalid        = fmt.Errorf("%w: contact email", ErrInvalidInput)
	ErrQuantityInvalid     = fmt.Errorf("%w: quantity must be >= 1", ErrInvalidInput)
	ErrProductInvalid      = fmt.Errorf("%w: unknown product type", ErrInvalidInput)
	ErrColorNotAvailable   = fmt.Errorf("%w: color not enabled or out of stock", ErrInvalidInput)
	ErrProfileNotOwned     = fmt.Errorf("%w: profile not owned by caller", ErrForbidden)
	ErrReceiptEmpty        = fmt.Errorf("%w: receipt file is empty", ErrInvalidInput)
	ErrReceiptTooLarge     = fmt.Errorf("%w: receipt file too large", ErrInvalidInput)
	ErrReceiptBadType      = fmt.Errorf("%w: unsupported receipt file type", ErrInvalidInput)
	ErrWrongState          = fmt.Errorf("%w: operation not legal in current state", ErrConflict)
	ErrAlreadyCancelled    = fmt.Errorf("%w: order already cancelled", ErrConflict)
	ErrPaymentNotConfirmed = fmt.Errorf("%w: payment not confirmed", ErrConflict)
	ErrPaymentUnavailable  = fmt.Errorf("%w: payment no longer available", ErrGone)
	ErrStorageFailed       = fmt.Errorf("%w: blob storage", ErrUnavailable)
	ErrStatusInvalid       = fmt.Errorf("%w: unknown order status", ErrInvalidInput)
)
