package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Direction represents a move direction.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

// Directions lists the four valid moves.
var Directions = []Direction{Left, Right, Up, Down}

// ErrInvalidDirection is returned by ParseDirection for unknown names.
var ErrInvalidDirection = errors.New("engine: invalid direction")

// String returns the lowercase name used on the wire.
func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// Valid reports whether d is one of the four moves.
func (d Direction) Valid() bool {
	return d >= Left && d <= Down
}

// ParseDirection maps "left", "right", "up" or "down" (any case) to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// MoveResult is the outcome of a single full-grid move.
type MoveResult struct {
	Grid   Grid
	Moved  bool
	Gained int
}

// ApplyMove slides the whole grid in the given direction.
// The input is never modified. When Moved is false the returned grid has the
// same content as the input and callers should discard it.
func ApplyMove(g Grid, dir Direction) MoveResult {
	res := transform(g, dir)
	if !res.Moved {
		res.Grid = g
	}
	return res
}
