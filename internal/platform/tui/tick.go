// Package tui provides the Bubble Tea front end for t2048: the board view,
// the game-over dialog, the leaderboard and the SSH server hosting them.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// highlightDuration is how long new and merged tiles stay highlighted.
const highlightDuration = 250 * time.Millisecond

// fadeMsg clears highlights that belong to move seq.
type fadeMsg struct {
	seq int
}

// fadeCmd schedules the end of the highlight for move seq.
func fadeCmd(seq int) tea.Cmd {
	return tea.Tick(highlightDuration, func(time.Time) tea.Msg {
		return fadeMsg{seq: seq}
	})
}
