package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrRateLimited       = errors.New("rate limited")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrPremiumRequired   = errors.New("premium subscription required")
	ErrInvalidRequest    = errors.New("invalid request parameters")
	ErrPortfolioLimit    = errors.New("portfolio limit reached")
	ErrUnsupportedRegion = errors.New("unsupported region")
)
