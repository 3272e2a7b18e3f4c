package core

// Action is a semantic player intent, abstracted from physical key presses.
type Action int

const (
	ActionNone        Action = iota
	ActionUp                 // W, K, Up arrow
	ActionDown               // S, J, Down arrow
	ActionLeft               // A, H, Left arrow
	ActionRight              // D, L, Right arrow
	ActionUndo               // U
	ActionNewGame            // N
	ActionLeaderboard        // Tab, B
	ActionClear              // C, only on the leaderboard
	ActionConfirm            // Enter
	ActionBack               // Esc
	ActionQuit               // Q, Ctrl+C
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionUp:
		return "Up"
	case ActionDown:
		return "Down"
	case ActionLeft:
		return "Left"
	case ActionRight:
		return "Right"
	case ActionUndo:
		return "Undo"
	case ActionNewGame:
		return "NewGame"
	case ActionLeaderboard:
		return "Leaderboard"
	case ActionClear:
		return "Clear"
	case ActionConfirm:
		return "Confirm"
	case ActionBack:
		return "Back"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}

// IsMove reports whether the action slides the board.
func (a Action) IsMove() bool {
	return a >= ActionUp && a <= ActionRight
}
