package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/t2048/internal/platform/tui"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play 2048 in the terminal",
	Long: `Start an interactive game. The game is saved after every move and
resumed the next time you play with the same profile.

Controls:
  Arrows/WASD/hjkl - Slide tiles
  U/Z              - Undo the last move
  N                - New game
  Tab/B            - Leaderboard
  Q/Ctrl+C         - Quit

Examples:
  t2048 play
  t2048 play --profile work
  t2048 play --seed 42 --db ./t2048.db`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func runPlay(_ *cobra.Command, _ []string) error {
	a, err := setup(setupOptions{quiet: true})
	if err != nil {
		return err
	}
	defer a.Close()

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	opts := tui.Options{
		Manager:         a.manager(),
		Profile:         flagProfile,
		LeaderboardSize: a.cfg.Leaderboard.Size,
		DefaultName:     a.cfg.Leaderboard.DefaultName,
		Width:           width,
		Height:          height,
	}
	if a.store != nil {
		opts.Leaders = a.store
	}
	return tui.Run(opts)
}
