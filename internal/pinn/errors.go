package pinn

import "errors"

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrInvalidConfig   = errors.New("invalid model configuration")
)
