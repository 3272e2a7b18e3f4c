package engine

// ReduceRow slides the non-empty cells of row toward index 0 and merges
// equal neighbours pairwise, left to right. A tile produced by a merge is
// never merged again in the same pass, so [2,2,2,2] becomes [4,4,0,0].
//
// gained is the sum of the merged values. moved compares the full-length
// output against the input cell by cell.
func ReduceRow(row Row) (out Row, gained int, moved bool) {
	var compact [Size]int
	n := 0
	for _, v := range row {
		if v != 0 {
			compact[n] = v
			n++
		}
	}

	writePos := 0
	for i := 0; i < n; i++ {
		if i+1 < n && compact[i] == compact[i+1] {
			merged := compact[i] * 2
			out[writePos] = merged
			gained += merged
			i++ // second tile of the pair is consumed
		} else {
			out[writePos] = compact[i]
		}
		writePos++
	}

	return out, gained, out != row
}
