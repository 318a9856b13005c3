package rating

import "errors"

var (
	ErrInvalidFormula = errors.New("invalid rating formula")
	ErrMissingFormula = errors.New("rating formula not configured")
)
