package service

import "errors"

var (
	ErrNotFound           = errors.New("not_found")
	ErrForbidden          = errors.New("forbidden")
	ErrEmptyMessage       = errors.New("message text is required")
	ErrNotParticipant     = errors.New("sender is not a participant in this conversation")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrOutOfStock         = errors.New("not enough stock")
)
