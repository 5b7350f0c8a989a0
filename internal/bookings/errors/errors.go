package errors

import "errors"

var (
	ErrNotFound      = errors.New("booking not found")
	ErrInvalidID     = errors.New("invalid booking ID")
	ErrItemNotFound  = errors.New("booking item not found")
	ErrDuplicateItem = errors.New("booking item already exists")
)
