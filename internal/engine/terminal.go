package engine

// HasPossibleMerge returns true if any two adjacent tiles hold the same
// non-zero value.
func HasPossibleMerge(g Grid) bool {
	for r := range Size {
		for c := range Size {
			val := g[r][c]
			if val == 0 {
				continue
			}
			if c < Size-1 && g[r][c+1] == val {
				return true
			}
			if r < Size-1 && g[r+1][c] == val {
				return true
			}
		}
	}
	return false
}

// CanMove returns true if any move is possible. It is false only for a full
// grid with no adjacent equal pair, which is the sole game-over condition.
func CanMove(g Grid) bool {
	return HasEmptyCell(g) || HasPossibleMerge(g)
}
