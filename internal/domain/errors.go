package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrItemNotFound = errors.New("item not found")
	ErrNoData       = errors.New("no data available")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
)
