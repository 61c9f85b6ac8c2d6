package domain

import "errors"

// Sentinel errors for the service layer. Handlers map these onto HTTP status
// codes; repositories translate driver errors (pgx.ErrNoRows etc.) into them.
var (
	ErrNotFound               = errors.New("entity not found")
	ErrUnauthorized           = errors.New("caller is not authorized")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrValidation             = errors.New("validation failed")
)
