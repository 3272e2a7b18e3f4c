package engine

// Rotate turns the grid 90 degrees clockwise.
// Applying it three times yields the counter-clockwise rotation.
func Rotate(g Grid) Grid {
	var rotated Grid
	for r := range Size {
		for c := range Size {
			rotated[c][Size-1-r] = g[r][c]
		}
	}
	return rotated
}

// rotateTimes applies Rotate n times.
func rotateTimes(g Grid, n int) Grid {
	for range n {
		g = Rotate(g)
	}
	return g
}

// Reverse returns the row in reverse order.
func Reverse(row Row) Row {
	var result Row
	for i := range Size {
		result[i] = row[Size-1-i]
	}
	return result
}

// reverseRows reverses every row of the grid.
func reverseRows(g Grid) Grid {
	for r := range Size {
		g[r] = Reverse(g[r])
	}
	return g
}

// moveLeft applies ReduceRow to each row.
func moveLeft(g Grid) MoveResult {
	var res MoveResult
	for r := range Size {
		row, gained, moved := ReduceRow(g[r])
		res.Grid[r] = row
		res.Gained += gained
		res.Moved = res.Moved || moved
	}
	return res
}

// transform expresses every direction as a left move on a reoriented grid.
// Right reverses rows around the reduction; Up and Down rotate the grid so
// the target edge faces left and rotate back afterwards.
func transform(g Grid, dir Direction) MoveResult {
	switch dir {
	case Left:
		return moveLeft(g)
	case Right:
		res := moveLeft(reverseRows(g))
		res.Grid = reverseRows(res.Grid)
		return res
	case Up:
		res := moveLeft(rotateTimes(g, 3))
		res.Grid = Rotate(res.Grid)
		return res
	case Down:
		res := moveLeft(Rotate(g))
		res.Grid = rotateTimes(res.Grid, 3)
		return res
	default:
		return MoveResult{Grid: g}
	}
}
