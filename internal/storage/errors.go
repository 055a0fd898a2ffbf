package storage

import "errors"

var (
	ErrBookingNotFound     = errors.New("booking not found")
	ErrTravelerNotFound    = errors.New("traveler not found")
	ErrGatewayNotFound     = errors.New("payment gateway not found")
	ErrSessionNotFound     = errors.New("payment session not found")
	ErrCatalogItemNotFound = errors.New("catalog item not found")
	ErrDuplicateReference  = errors.New("booking reference already exists")
	ErrInvalidTransition   = errors.New("invalid status transition")
)
