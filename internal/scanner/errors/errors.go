package errors

import "errors"

var (
	ErrSessionNotFound = errors.New("scan session not found")
	ErrMissingItemID   = errors.New("missing item ID")
	ErrItemNotFound    = errors.New("item not found")
	ErrBookingNotFound = errors.New("booking not found")
)
