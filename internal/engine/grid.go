// Package engine implements the 2048 grid transformation and merge rules.
// Everything here is pure: functions take grids by value and return new ones,
// so a caller's "before" grid is never touched by a move.
package engine

import (
	"strconv"
	"strings"
)

// Size is the board dimension.
const Size = 4

// Row is a single line of cells, head first.
type Row [Size]int

// Grid is the Size x Size board. 0 marks an empty cell.
type Grid [Size][Size]int

// Cell addresses a grid position.
type Cell struct {
	Row int
	Col int
}

// EmptyCells returns coordinates of all empty cells in row-major order.
func EmptyCells(g Grid) []Cell {
	var cells []Cell
	for r := range Size {
		for c := range Size {
			if g[r][c] == 0 {
				cells = append(cells, Cell{Row: r, Col: c})
			}
		}
	}
	return cells
}

// HasEmptyCell returns true if there's at least one empty cell.
func HasEmptyCell(g Grid) bool {
	for r := range Size {
		for c := range Size {
			if g[r][c] == 0 {
				return true
			}
		}
	}
	return false
}

// TileCount returns the number of non-empty cells.
func TileCount(g Grid) int {
	return Size*Size - len(EmptyCells(g))
}

// Sum returns the total of all cell values.
func Sum(g Grid) int {
	total := 0
	for r := range Size {
		for c := range Size {
			total += g[r][c]
		}
	}
	return total
}

// MaxTile returns the maximum tile value on the board.
func MaxTile(g Grid) int {
	maxVal := 0
	for r := range Size {
		for c := range Size {
			if g[r][c] > maxVal {
				maxVal = g[r][c]
			}
		}
	}
	return maxVal
}

// IsTileValue reports whether v may appear in a cell: 0 or a power of two >= 2.
func IsTileValue(v int) bool {
	if v == 0 {
		return true
	}
	return v >= 2 && v&(v-1) == 0
}

// FromRows converts a slice-of-slices matrix into a Grid.
// ok is false when the matrix is not Size x Size or holds an illegal value.
func FromRows(rows [][]int) (g Grid, ok bool) {
	if len(rows) != Size {
		return Grid{}, false
	}
	for r, row := range rows {
		if len(row) != Size {
			return Grid{}, false
		}
		for c, v := range row {
			if !IsTileValue(v) {
				return Grid{}, false
			}
			g[r][c] = v
		}
	}
	return g, true
}

// Rows converts the grid into a slice-of-slices matrix.
func (g Grid) Rows() [][]int {
	rows := make([][]int, Size)
	for r := range Size {
		rows[r] = append([]int(nil), g[r][:]...)
	}
	return rows
}

// String renders the grid as right-aligned columns, "." for empty cells.
func (g Grid) String() string {
	width := len(strconv.Itoa(MaxTile(g)))
	if width < 1 {
		width = 1
	}

	var sb strings.Builder
	for r := range Size {
		if r > 0 {
			sb.WriteByte('\n')
		}
		for c := range Size {
			if c > 0 {
				sb.WriteByte(' ')
			}
			cell := "."
			if g[r][c] != 0 {
				cell = strconv.Itoa(g[r][c])
			}
			sb.WriteString(strings.Repeat(" ", width-len(cell)))
			sb.WriteString(cell)
		}
	}
	return sb.String()
}
