package service

import "errors"

var (
	ErrEmptyOrder      = errors.New("order has no priced items")
	ErrInvalidAmount   = errors.New("order total must be a positive amount")
	ErrOrderNotPayable = errors.New("order is not awaiting payment")
	ErrMissingField    = errors.New("missing required field")
	ErrInvalidSoupDay  = errors.New("invalid soup day")
)
