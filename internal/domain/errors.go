package domain

import "errors"

// Common domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicate         = errors.New("resource already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
)
