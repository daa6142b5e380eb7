package model

import "github.com/pkg/errors"

// Error kinds reported by the grid, the simulation and the snapshot codec.
// Callers match them with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")
	ErrFormatMismatch  = errors.New("format mismatch")
	ErrOutOfBounds     = errors.New("out of bounds")
)
