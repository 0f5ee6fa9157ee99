package domain

import "errors"

// ErrValidation is the parent of every input validation failure; wrap it with
// fmt.Errorf("%w: ...") to carry the field-level reason.
var ErrValidation = errors.New("validation failed")

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrForbidden       = errors.New("forbidden")
	// ErrMalformedHash signals a stored password digest that is not a valid hash.
	ErrMalformedHash = errors.New("malformed password hash")
)
