package tui

import (
	"fmt"
	"strconv"

	"github.com/vovakirdan/t2048/internal/core"
	"github.com/vovakirdan/t2048/internal/engine"
	"github.com/vovakirdan/t2048/internal/session"
)

const (
	cellWidth  = 7 // Width of each cell (including left border)
	cellHeight = 2 // Height of each cell (including top border)
	hudHeight  = 3

	boardW = engine.Size*cellWidth + 1
	boardH = engine.Size*cellHeight + 1

	// MinWidth and MinHeight are the smallest screen the board fits in.
	MinWidth  = boardW
	MinHeight = hudHeight + boardH
)

// boardView is everything drawBoard needs for one frame.
type boardView struct {
	State   session.State
	Marks   Marks
	Best    int
	Status  string
	Overlay []string
}

// drawBoard renders the HUD, the grid and an optional overlay centered on dst.
func drawBoard(dst *core.Screen, v boardView) {
	dst.Clear()

	area := dst.Bounds()
	if !area.Fits(MinWidth, MinHeight) {
		drawTooSmall(dst)
		return
	}

	frame := area.CenterIn(boardW, hudHeight+boardH)
	board := core.NewRect(frame.X, frame.Y+hudHeight, boardW, boardH)

	drawHUD(dst, frame, v)
	drawGrid(dst, board, v.State.Grid, v.Marks)

	if len(v.Overlay) > 0 {
		drawOverlay(dst, board, v.Overlay...)
	}
}

func drawTooSmall(dst *core.Screen) {
	area := dst.Bounds()
	y := area.H / 2
	dst.DrawTextCentered(area, y, "Window too small", core.ColorAlert)
	dst.DrawTextCentered(area, y+1, "Please resize terminal", core.ColorMuted)
}

// drawHUD draws the title, score and best score above the board.
func drawHUD(dst *core.Screen, frame core.Rect, v boardView) {
	dst.DrawTextCentered(frame, frame.Y, "2048", core.ColorAccent)

	dst.DrawTextColor(frame.X, frame.Y+1, fmt.Sprintf("Score: %d", v.State.Score), core.ColorAccent)

	best := fmt.Sprintf("Best: %d", max(v.Best, v.State.Score))
	dst.DrawTextColor(frame.Right()-len(best), frame.Y+1, best, core.ColorMuted)

	if v.Status != "" {
		dst.DrawTextCentered(frame, frame.Y+2, v.Status, core.ColorMuted)
	}
}

// drawGrid draws the 4x4 grid lines and tiles.
func drawGrid(dst *core.Screen, board core.Rect, g engine.Grid, marks Marks) {
	const n = engine.Size

	for y := range n + 1 {
		for x := range n + 1 {
			px := board.X + x*cellWidth
			py := board.Y + y*cellHeight

			var corner rune
			switch {
			case y == 0 && x == 0:
				corner = '┌'
			case y == 0 && x == n:
				corner = '┐'
			case y == n && x == 0:
				corner = '└'
			case y == n && x == n:
				corner = '┘'
			case y == 0:
				corner = '┬'
			case y == n:
				corner = '┴'
			case x == 0:
				corner = '├'
			case x == n:
				corner = '┤'
			default:
				corner = '┼'
			}
			dst.SetCell(px, py, core.Cell{Rune: corner, Color: core.ColorFrame})

			if x < n {
				for i := 1; i < cellWidth; i++ {
					dst.SetCell(px+i, py, core.Cell{Rune: '─', Color: core.ColorFrame})
				}
			}
			if y < n {
				for i := 1; i < cellHeight; i++ {
					dst.SetCell(px, py+i, core.Cell{Rune: '│', Color: core.ColorFrame})
				}
			}
		}
	}

	for r := range n {
		for c := range n {
			drawTile(dst, board.X+c*cellWidth+1, board.Y+r*cellHeight+1, g[r][c], marks[r][c])
		}
	}
}

// drawTile draws one cell interior at (x, y).
func drawTile(dst *core.Screen, x, y, val int, mark Mark) {
	inner := cellWidth - 1

	color := core.TileColor(val)
	switch mark {
	case MarkNew:
		color = core.ColorNewTile
	case MarkMerged:
		color = core.ColorMergedTile
	}

	if val == 0 {
		dst.DrawTextColor(x+inner/2, y, "·", core.ColorMuted)
		return
	}

	if mark != MarkNone {
		dst.FillRect(core.NewRect(x, y, inner, 1), core.Cell{Rune: ' ', Color: color})
	}

	text := strconv.Itoa(val)
	pad := max(0, (inner-len(text)+1)/2)
	dst.DrawTextColor(x+pad, y, text, color)
}

// drawOverlay draws a boxed message centered on the board.
func drawOverlay(dst *core.Screen, board core.Rect, lines ...string) {
	maxLen := 0
	for _, line := range lines {
		maxLen = max(maxLen, len(line))
	}

	box := board.CenterIn(maxLen+4, len(lines)+2)
	dst.FillRect(box, core.Cell{Rune: ' '})
	dst.DrawBox(box, core.ColorAlert)

	for i, line := range lines {
		color := core.ColorDefault
		if i == 0 {
			color = core.ColorAlert
		}
		dst.DrawTextCentered(box, box.Y+1+i, line, color)
	}
}
