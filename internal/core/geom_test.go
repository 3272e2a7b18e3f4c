package core

import "testing"

func TestRectContains(t *testing.T) {
	r := NewRect(10, 10, 20, 20)

	tests := []struct {
		name     string
		x, y     int
		expected bool
	}{
		{"center", 20, 20, true},
		{"top-left corner", 10, 10, true},
		{"bottom-right inside", 29, 29, true},
		{"right edge (exclusive)", 30, 20, false},
		{"bottom edge (exclusive)", 20, 30, false},
		{"left of rect", 5, 20, false},
		{"above rect", 20, 5, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Contains(tc.x, tc.y); got != tc.expected {
				t.Errorf("Contains(%d, %d) = %v, expected %v", tc.x, tc.y, got, tc.expected)
			}
		})
	}
}

func TestRectCenterIn(t *testing.T) {
	tests := []struct {
		name  string
		outer Rect
		w, h  int
		want  Rect
	}{
		{"fits", NewRect(0, 0, 80, 24), 21, 9, NewRect(29, 7, 21, 9)},
		{"offset outer", NewRect(5, 3, 10, 10), 4, 4, NewRect(8, 6, 4, 4)},
		{"too large", NewRect(0, 0, 10, 5), 21, 9, NewRect(0, 0, 21, 9)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.outer.CenterIn(tc.w, tc.h); got != tc.want {
				t.Errorf("CenterIn(%d, %d) = %+v, want %+v", tc.w, tc.h, got, tc.want)
			}
		})
	}
}

func TestRectEdges(t *testing.T) {
	r := NewRect(2, 3, 10, 4)
	if r.Right() != 12 || r.Bottom() != 7 {
		t.Errorf("Right/Bottom = %d/%d", r.Right(), r.Bottom())
	}
	if !r.Fits(10, 4) || r.Fits(11, 4) {
		t.Error("Fits() mismatch")
	}
}

func TestTileColor(t *testing.T) {
	tests := []struct {
		v    int
		want Color
	}{
		{0, ColorMuted},
		{2, ColorTileLow},
		{4, ColorTileLow},
		{8, ColorTileMid},
		{64, ColorTileMid},
		{128, ColorTileHigh},
		{1024, ColorTileHigh},
		{2048, ColorTileTop},
		{8192, ColorTileTop},
	}

	for _, tc := range tests {
		if got := TileColor(tc.v); got != tc.want {
			t.Errorf("TileColor(%d) = %v, want %v", tc.v, got, tc.want)
		}
	}
}

func TestActionIsMove(t *testing.T) {
	for _, a := range []Action{ActionUp, ActionDown, ActionLeft, ActionRight} {
		if !a.IsMove() {
			t.Errorf("%s should be a move", a)
		}
	}
	for _, a := range []Action{ActionNone, ActionUndo, ActionQuit, ActionLeaderboard} {
		if a.IsMove() {
			t.Errorf("%s should not be a move", a)
		}
	}
}
