package domain

import "errors"

var (
	ErrDuplicateIdentifier = errors.New("identifier already registered")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrNoActiveSession     = errors.New("no active session")
	ErrUnknownTxType       = errors.New("unknown transaction type")
)
