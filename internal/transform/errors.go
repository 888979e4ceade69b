package transform

import "errors"

// Errors
var (
	ErrInvalidInput     = errors.New("invalid input image")
	ErrInvalidParameter = errors.New("invalid filter parameter")
)
