package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrRateLimited   = errors.New("rate limited")
	ErrInvalidIntent = errors.New("invalid order intent")
	ErrNotConfigured = errors.New("backend not configured")
)
