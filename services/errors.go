package services

import "errors"

// Stable error kinds returned by the service layer. Handlers branch on
// these with errors.Is; wrapped detail is for logs only.
var (
	// ErrNotFound - unknown gift or win id.
	ErrNotFound = errors.New("not found")
	// ErrOutOfStock - reserve against depleted inventory.
	ErrOutOfStock = errors.New("out of stock")
	// ErrAlreadyFulfilled - duplicate fulfillment signal.
	ErrAlreadyFulfilled = errors.New("already fulfilled")
	// ErrInvalidArgument - malformed admin input or out-of-range roll code.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTransient - store unavailable or timed out; safe for the caller
	// to retry because every operation is a single transaction.
	ErrTransient = errors.New("transient store error")
)
