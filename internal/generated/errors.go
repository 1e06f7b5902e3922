package generated

import "errors"

var (
	// ErrNotFound indicates a generated document was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates validation or bad input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden indicates the document belongs to another user.
	ErrForbidden = errors.New("forbidden")
)
