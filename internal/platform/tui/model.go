package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/t2048/internal/core"
	"github.com/vovakirdan/t2048/internal/engine"
	"github.com/vovakirdan/t2048/internal/session"
	"github.com/vovakirdan/t2048/internal/storage"
)

// Rows below the board reserved for the game-over dialog and the help bar.
const reservedRows = 5

type mode int

const (
	modePlay mode = iota
	modeGameOver
	modeLeaders
)

// Options configures a game screen.
type Options struct {
	Manager         *session.Manager
	Profile         string
	Leaders         Leaderboard // may be nil
	LeaderboardSize int
	DefaultName     string
	Width           int
	Height          int
}

// Model is the Bubble Tea model for one player's game screen.
type Model struct {
	opts   Options
	keys   KeyMap
	lkeys  LeadersKeyMap
	help   help.Model
	screen *core.Screen
	width  int
	height int

	mode     mode
	prevMode mode
	state    session.State
	marks    Marks
	seq      int
	best     int
	status   string

	nameInput  textinput.Model
	scoreSaved bool

	table   table.Model
	leaders []storage.Leader

	quitting bool
}

// NewModel creates a game screen showing the profile's current game.
func NewModel(opts Options) Model {
	if opts.LeaderboardSize <= 0 {
		opts.LeaderboardSize = storage.DefaultLeaderboardSize
	}
	if opts.DefaultName == "" {
		opts.DefaultName = "Player"
	}

	ti := textinput.New()
	ti.Placeholder = opts.DefaultName
	ti.CharLimit = 24
	ti.Width = 24
	ti.Prompt = "Name: "

	h := help.New()
	h.ShowAll = false

	m := Model{
		opts:      opts,
		keys:      DefaultKeyMap(),
		lkeys:     DefaultLeadersKeyMap(),
		help:      h,
		nameInput: ti,
	}
	m.resize(opts.Width, opts.Height)

	m.state = opts.Manager.State(opts.Profile)
	m.marks = AllNew(m.state.Grid)
	m.best = m.loadBest()
	return m
}

// Init starts the highlight fade for the initial board.
func (m Model) Init() tea.Cmd {
	return fadeCmd(m.seq)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case fadeMsg:
		if msg.seq == m.seq {
			m.marks = Marks{}
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeGameOver:
			return m.updateGameOver(msg)
		case modeLeaders:
			return m.updateLeaders(msg)
		default:
			return m.updatePlay(msg)
		}
	}

	if m.mode == modeGameOver && !m.scoreSaved {
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

// updatePlay handles keys on the board.
func (m Model) updatePlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.keys.Action(msg)
	if dir, ok := directionFor(action); ok {
		return m.move(dir)
	}

	switch action {
	case core.ActionQuit:
		m.quitting = true
		return m, tea.Quit
	case core.ActionUndo:
		return m.undo()
	case core.ActionNewGame:
		return m.newGame()
	case core.ActionLeaderboard:
		m.openLeaders()
	case core.ActionConfirm:
		if m.state.GameOver && !m.scoreSaved {
			cmd := m.openGameOver()
			return m, cmd
		}
	}
	return m, nil
}

// updateGameOver handles keys while the game-over dialog is open.
func (m Model) updateGameOver(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.mode = modePlay
		m.nameInput.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		if !m.scoreSaved {
			m.saveScore()
			return m, nil
		}
		return m.newGame()
	}

	if m.scoreSaved {
		switch m.keys.Action(msg) {
		case core.ActionQuit:
			m.quitting = true
			return m, tea.Quit
		case core.ActionNewGame:
			return m.newGame()
		case core.ActionLeaderboard:
			m.openLeaders()
		case core.ActionUndo:
			return m.undo()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

// updateLeaders handles keys on the leaderboard.
func (m Model) updateLeaders(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.lkeys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.lkeys.Back):
		m.mode = m.prevMode
		m.status = ""
		return m, nil
	case key.Matches(msg, m.lkeys.Clear):
		if m.opts.Leaders != nil {
			if err := m.opts.Leaders.ClearLeaders(); err != nil {
				m.status = "Could not clear the leaderboard"
			} else {
				m.status = "Leaderboard cleared"
				m.best = m.state.Score
			}
		}
		m.loadLeaders()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) move(dir engine.Direction) (tea.Model, tea.Cmd) {
	var applied bool
	var prev engine.Grid
	st, _ := m.opts.Manager.Do(m.opts.Profile, func(c *session.Controller) error {
		applied, _ = c.Move(dir)
		prev, _ = c.Previous()
		return nil
	})
	m.state = st
	if !applied {
		return m, nil
	}

	m.status = ""
	m.best = max(m.best, st.Score)
	m.seq++
	m.marks = Classify(prev, st.Grid)

	cmds := []tea.Cmd{fadeCmd(m.seq)}
	if st.GameOver {
		cmds = append(cmds, m.openGameOver())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) undo() (tea.Model, tea.Cmd) {
	var ok bool
	st, _ := m.opts.Manager.Do(m.opts.Profile, func(c *session.Controller) error {
		_, ok = c.Undo()
		return nil
	})
	m.state = st

	switch {
	case ok:
		m.status = "Move undone"
		m.mode = modePlay
		m.nameInput.Blur()
		m.seq++
		m.marks = AllNew(st.Grid)
		return m, fadeCmd(m.seq)
	case st.GameOver:
		m.status = "Undo is not available after game over"
	default:
		m.status = "Nothing to undo"
	}
	return m, nil
}

func (m Model) newGame() (tea.Model, tea.Cmd) {
	st, _ := m.opts.Manager.Do(m.opts.Profile, func(c *session.Controller) error {
		c.NewGame()
		return nil
	})
	m.state = st
	m.mode = modePlay
	m.status = ""
	m.scoreSaved = false
	m.nameInput.Blur()
	m.seq++
	m.marks = AllNew(st.Grid)
	return m, fadeCmd(m.seq)
}

// openGameOver shows the name entry dialog.
func (m *Model) openGameOver() tea.Cmd {
	m.mode = modeGameOver
	m.scoreSaved = false
	m.nameInput.Reset()
	return m.nameInput.Focus()
}

// saveScore records the finished game on the leaderboard.
func (m *Model) saveScore() {
	name := strings.TrimSpace(m.nameInput.Value())
	if name == "" {
		name = m.opts.DefaultName
	}

	m.scoreSaved = true
	m.nameInput.Blur()

	if m.opts.Leaders == nil {
		m.status = "No leaderboard available"
		return
	}
	if err := m.opts.Leaders.AddLeader(name, m.state.Score, m.opts.LeaderboardSize); err != nil {
		m.status = "Could not save your score"
		return
	}
	m.status = "Your score has been saved"
	m.best = max(m.best, m.state.Score)
}

func (m *Model) openLeaders() {
	if m.mode != modeLeaders {
		m.prevMode = m.mode
	}
	m.mode = modeLeaders
	m.status = ""
	m.loadLeaders()
}

func (m *Model) loadLeaders() {
	m.leaders = nil
	if m.opts.Leaders != nil {
		if leaders, err := m.opts.Leaders.Leaders(m.opts.LeaderboardSize); err == nil {
			m.leaders = leaders
		}
	}
	m.table.SetRows(leaderRows(m.leaders))
	m.table.GotoTop()
}

func (m Model) loadBest() int {
	if m.opts.Leaders == nil {
		return 0
	}
	best, err := m.opts.Leaders.HighScore()
	if err != nil {
		return 0
	}
	return best
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width

	boardRows := max(0, height-reservedRows)
	if m.screen == nil {
		m.screen = core.NewScreen(width, boardRows)
	} else {
		m.screen.Resize(width, boardRows)
	}

	m.table = newLeadersTable(width, height)
	m.table.SetRows(leaderRows(m.leaders))
}

// View renders the current screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	if m.mode == modeLeaders {
		return renderLeaders(m.table, m.leaders, m.width, m.status) +
			"\n" + centerText(helpStyle.Render(m.help.View(m.lkeys)), m.width)
	}

	view := boardView{
		State:  m.state,
		Marks:  m.marks,
		Best:   m.best,
		Status: m.status,
	}
	if m.state.GameOver {
		view.Overlay = []string{
			"GAME OVER",
			fmt.Sprintf("Score: %d", m.state.Score),
			fmt.Sprintf("Max tile: %d", engine.MaxTile(m.state.Grid)),
		}
		if m.mode == modePlay {
			view.Overlay = append(view.Overlay, "n: new game")
		}
	}
	drawBoard(m.screen, view)

	var b strings.Builder
	b.WriteString(RenderScreen(m.screen))
	b.WriteString("\n")
	if m.mode == modeGameOver {
		b.WriteString(centerText(m.dialogView(), m.width))
	}
	b.WriteString("\n")
	b.WriteString(centerText(helpStyle.Render(m.help.View(m.keys)), m.width))
	return b.String()
}

// dialogView renders the name entry below the board.
func (m Model) dialogView() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("9")).
		Padding(0, 1)

	if m.scoreSaved {
		return style.Render("enter/n: new game · tab: leaders · esc: close")
	}
	return style.Render(m.nameInput.View() + "\nenter: save · esc: close")
}

// Run starts a local game in the terminal.
func Run(opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
