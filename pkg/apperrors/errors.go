package apperrors

import "errors"

var (
	ErrEmptyQuery      = errors.New("empty query")
	ErrRetryExhausted  = errors.New("retry budget exhausted")
	ErrUnknownDriver   = errors.New("unknown store driver")
	ErrUnsafeStatement = errors.New("statement rejected by safety screen")
)
