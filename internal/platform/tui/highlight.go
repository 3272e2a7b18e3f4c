package tui

import "github.com/vovakirdan/t2048/internal/engine"

// Mark classifies a tile for highlighting after a move.
type Mark uint8

const (
	MarkNone   Mark = iota
	MarkNew         // cell was empty before the move
	MarkMerged      // cell doubled in place
)

// Marks holds one Mark per cell.
type Marks [engine.Size][engine.Size]Mark

// Classify compares the grid before and after a move. A tile on a cell that
// was empty is new; a tile worth exactly twice the previous occupant is a
// merge. Anything else is left unmarked.
func Classify(prev, cur engine.Grid) Marks {
	var m Marks
	for r := range engine.Size {
		for c := range engine.Size {
			v := cur[r][c]
			switch {
			case v == 0:
			case prev[r][c] == 0:
				m[r][c] = MarkNew
			case v == prev[r][c]*2:
				m[r][c] = MarkMerged
			}
		}
	}
	return m
}

// AllNew marks every occupied cell as new, used when a board appears
// without a previous position (new game, undo, resume).
func AllNew(g engine.Grid) Marks {
	return Classify(engine.Grid{}, g)
}
