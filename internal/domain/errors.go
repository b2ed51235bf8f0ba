package domain

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNotFound             = errors.New("resource not found")
	ErrConflict             = errors.New("conflict")
	ErrStorageUnavailable   = errors.New("storage unavailable")
	ErrAuthenticationFailed = errors.New("callback authentication failed")
	ErrOrderNotFound        = errors.New("order not found")
	ErrAmountMismatch       = errors.New("incorrect amount")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrOrderAlreadyPaid     = errors.New("order already paid")
	ErrTransactionState     = errors.New("transaction state does not allow operation")
	ErrUnsupportedMethod    = errors.New("unsupported method")
	ErrInvalidEnvelope      = errors.New("invalid callback envelope")
)
