package worker

import "errors"

var (
	ErrInvalidSize = errors.New("worker pool size must be positive")
	ErrPoolClosed  = errors.New("worker pool is closed")
	ErrNilJob      = errors.New("job cannot be nil")
)
