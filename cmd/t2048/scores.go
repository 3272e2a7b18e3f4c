package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagClearScores bool

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show the leaderboard",
	Long: `Display the best recorded scores.

Examples:
  t2048 scores
  t2048 scores --clear`,
	Args: cobra.NoArgs,
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().BoolVar(&flagClearScores, "clear", false, "Remove every leaderboard entry")
}

func runScores(_ *cobra.Command, _ []string) error {
	a, err := setup(setupOptions{requireStore: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if flagClearScores {
		if err := a.store.ClearLeaders(); err != nil {
			return fmt.Errorf("cannot clear leaderboard: %w", err)
		}
		fmt.Println("Leaderboard cleared.")
		return nil
	}

	leaders, err := a.store.Leaders(a.cfg.Leaderboard.Size)
	if err != nil {
		return fmt.Errorf("cannot load leaderboard: %w", err)
	}

	fmt.Println("Leaderboard - 2048")
	fmt.Println()

	if len(leaders) == 0 {
		fmt.Println("No scores recorded yet.")
		fmt.Println()
		fmt.Println("Play 't2048 play' to set the first high score!")
		return nil
	}

	// Calculate name column width
	nameWidth := len("Name")
	for _, l := range leaders {
		if len(l.Name) > nameWidth {
			nameWidth = len(l.Name)
		}
	}

	fmt.Printf("  %-4s  %-*s  %-10s  %s\n", "Rank", nameWidth, "Name", "Score", "Date")
	fmt.Printf("  %-4s  %-*s  %-10s  %s\n", "----", nameWidth, "----", "-----", "----")
	for i, l := range leaders {
		fmt.Printf("  %-4d  %-*s  %-10d  %s\n", i+1, nameWidth, l.Name, l.Score, l.Date.Local().Format("2006-01-02 15:04"))
	}

	fmt.Println()
	fmt.Printf("Best: %d\n", leaders[0].Score)
	return nil
}
