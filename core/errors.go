package core

import "errors"

var (
	// ErrInvalidSpeed indicates a launch speed that is not a finite positive value.
	ErrInvalidSpeed = errors.New("invalid speed")
	// ErrInvalidHeight indicates a launch height that is negative or not finite.
	ErrInvalidHeight = errors.New("invalid height")
	// ErrInvalidAngle indicates a launch angle outside [0, 90] degrees.
	ErrInvalidAngle = errors.New("invalid angle")
	// ErrRangeOverflow indicates a computed range or grid size beyond the configured bound.
	ErrRangeOverflow = errors.New("range overflow")
	// ErrDegenerateInput indicates an empty coordinate sequence where at least
	// one point is needed.
	ErrDegenerateInput = errors.New("degenerate input")
)
