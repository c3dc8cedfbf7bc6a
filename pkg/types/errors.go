package types

import "errors"

// Domain errors for type validation
var (
	ErrInvalidGarment = errors.New("invalid garment")
	ErrInvalidPatch   = errors.New("invalid garment patch")
)
