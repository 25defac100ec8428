package ggshot

import "errors"

// Error categories shared by all sub-packages. Concrete errors wrap one of
// these, so callers can classify failures with errors.Is.
var (
	// ErrInvalidArgument is returned for rejected input: a threshold outside
	// [0, 1], a golden path with a reserved suffix, an unknown result type.
	ErrInvalidArgument = errors.New("ggshot: invalid argument")

	// ErrInvalidState is returned when an operation is called out of order,
	// such as adding a GIF frame before Start or saving a released canvas.
	ErrInvalidState = errors.New("ggshot: invalid state")
)
