package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/t2048/internal/storage"
)

// Leaderboard is the high score list the game screen reads and writes.
// *storage.Store satisfies it.
type Leaderboard interface {
	AddLeader(name string, score int, limit int) error
	Leaders(limit int) ([]storage.Leader, error)
	HighScore() (int, error)
	ClearLeaders() error
}

// LeadersKeyMap defines the key bindings of the leaderboard screen.
type LeadersKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Clear key.Binding
	Back  key.Binding
	Quit  key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k LeadersKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Clear, k.Back, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k LeadersKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Clear, k.Back, k.Quit}}
}

// DefaultLeadersKeyMap returns default key bindings.
func DefaultLeadersKeyMap() LeadersKeyMap {
	return LeadersKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "tab", "b"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// newLeadersTable creates the leaderboard table sized for the terminal.
func newLeadersTable(width, height int) table.Model {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Name", Width: 16},
		{Title: "Score", Width: 8},
		{Title: "Date", Width: 14},
	}

	// Give spare width to the name column
	if spare := width - 4 - 50; spare > 0 {
		columns[1].Width += min(spare, 16)
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(3, height-8)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// leaderRows converts leaderboard entries into table rows.
func leaderRows(leaders []storage.Leader) []table.Row {
	rows := make([]table.Row, len(leaders))
	for i, l := range leaders {
		rows[i] = table.Row{
			fmt.Sprintf("%d", i+1),
			l.Name,
			fmt.Sprintf("%d", l.Score),
			l.Date.Local().Format("Jan 02 15:04"),
		}
	}
	return rows
}

// renderLeaders renders the leaderboard screen body.
func renderLeaders(t table.Model, leaders []storage.Leader, width int, status string) string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229"))
	b.WriteString(centerText(titleStyle.Render("LEADERBOARD"), width))
	b.WriteString("\n\n")

	var content string
	if len(leaders) == 0 {
		content = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(2, 4).
			Render("No scores recorded yet.\nFinish a game to set a high score!")
	} else {
		content = t.View()
	}

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	b.WriteString(centerText(tableStyle.Render(content), width))

	if status != "" {
		b.WriteString("\n")
		b.WriteString(centerText(lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(status), width))
	}
	return b.String()
}

// centerText places a possibly multi-line block in the middle of width.
func centerText(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, s)
}
