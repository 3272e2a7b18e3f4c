package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/t2048/internal/engine"
	"github.com/vovakirdan/t2048/internal/session"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new game on the saved profile",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withSession(func(c *session.Controller) (string, error) {
			c.NewGame()
			return "New game started.", nil
		})
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <direction>",
	Short: "Play one move on the saved profile",
	Long: `Slide the saved board in a direction and print the result.

Directions: left, right, up, down

Examples:
  t2048 move left
  t2048 move up --profile work`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"left", "right", "up", "down"},
	RunE: func(_ *cobra.Command, args []string) error {
		dir, err := engine.ParseDirection(args[0])
		if err != nil {
			return err
		}
		return withSession(func(c *session.Controller) (string, error) {
			if !c.CanContinue() {
				return "Game over. Run 't2048 new' to start again.", nil
			}
			if applied, _ := c.Move(dir); !applied {
				return fmt.Sprintf("Moving %s does not change the board.", dir), nil
			}
			return "", nil
		})
	},
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Undo the last move on the saved profile",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withSession(func(c *session.Controller) (string, error) {
			return undoNote(c), nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved board",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withSession(func(c *session.Controller) (string, error) {
			return "", nil
		})
	},
}

// undoNote undoes the last move and describes the outcome.
func undoNote(c *session.Controller) string {
	st, ok := c.Undo()
	switch {
	case ok:
		return "Move undone."
	case st.GameOver:
		return "Undo is not available after game over."
	default:
		return "Nothing to undo."
	}
}

// withSession runs fn on the persisted profile and prints the board.
func withSession(fn func(c *session.Controller) (string, error)) error {
	a, err := setup(setupOptions{requireStore: true})
	if err != nil {
		return err
	}
	defer a.Close()

	var note string
	st, err := a.manager().Do(flagProfile, func(c *session.Controller) error {
		var fnErr error
		note, fnErr = fn(c)
		return fnErr
	})
	if err != nil {
		return err
	}

	if note != "" {
		fmt.Println(note)
		fmt.Println()
	}
	printState(os.Stdout, st)
	return nil
}

func printState(w io.Writer, st session.State) {
	fmt.Fprintln(w, st.Grid.String())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Score: %d\n", st.Score)
	if st.GameOver {
		fmt.Fprintln(w, "GAME OVER")
	}
}
