// Package seatplan compiles declarative seat plan descriptions into explicit
// seat cells and freezes compiled plans onto buses.
package seatplan

import "errors"

// ErrInvalidLayout is returned when a plan description cannot be turned
// into a grid: an empty or malformed "L+R" layout, a non-positive grid
// size, a cell outside the grid or two cells on the same position.
var ErrInvalidLayout = errors.New("invalid seat layout")

// ErrInvalidCount is returned when the seat count is unusable, for example
// totalSeats < 1 or a plan without a single bookable cell.
var ErrInvalidCount = errors.New("invalid seat count")
