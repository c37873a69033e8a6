package engine

import "errors"

// Expected per-ticker conditions. Callers skip the computation for that ticker.
var (
	ErrDivisionByZero   = errors.New("division by zero")
	ErrInsufficientData = errors.New("insufficient data")
)

// Caller errors.
var (
	ErrAnchorOutOfRange = errors.New("anchor out of range")
	ErrLengthMismatch   = errors.New("length mismatch")
	ErrInvalidWindow    = errors.New("invalid window")
)
