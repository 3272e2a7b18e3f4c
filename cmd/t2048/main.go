// t2048 is the 2048 sliding-tile game for the terminal.
//
// Usage:
//
//	t2048 play               - Play in the terminal
//	t2048 new                - Start a new game on the saved profile
//	t2048 move <direction>   - Play one move (left, right, up, down)
//	t2048 undo               - Undo the last move
//	t2048 show               - Print the saved board
//	t2048 scores [--clear]   - Show or clear the leaderboard
//	t2048 serve              - Serve the game over SSH and HTTP
//	t2048 api                - Serve only the HTTP API
//	t2048 mcp                - Serve MCP tools over stdio
//
// Global flags:
//
//	--config <path>     - Configuration file (env T2048_CONFIG)
//	--db <path>         - Database path (env T2048_DB)
//	--seed <value>      - RNG seed for reproducible games
//	--profile <name>    - Game profile (default: local)
//	--log-level <level> - debug, info, warn or error
//	--log-file <path>   - Write logs to a file instead of stderr
package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/t2048/internal/config"
	"github.com/vovakirdan/t2048/internal/session"
	"github.com/vovakirdan/t2048/internal/storage"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagSeed     int64
	flagProfile  string
	flagLogLevel string
	flagLogFile  string
)

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "t2048",
	Short: "2048 - Slide and merge tiles in your terminal",
	Long: `t2048 is the 2048 sliding-tile game for the terminal.

Available commands:
  play     - Play interactively
  new      - Start a new game on the saved profile
  move     - Play one move on the saved profile
  undo     - Undo the last move on the saved profile
  show     - Print the saved board
  scores   - View or clear the leaderboard
  serve    - Start the SSH server and HTTP API
  api      - Start only the HTTP API
  mcp      - Serve MCP tools over stdio

Examples:
  t2048 play
  t2048 move left
  t2048 scores
  t2048 serve --ssh :2222 --http :8048`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", os.Getenv("T2048_CONFIG"), "Path to configuration YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", os.Getenv("T2048_DB"), "Path to the game database (default from config)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagProfile, "profile", session.DefaultProfile, "Game profile to play")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(mcpCmd)
}

// app holds what every command needs: config, logger and the store.
type app struct {
	cfg     config.Config
	logger  *log.Logger
	store   *storage.Store // nil when the database could not be opened
	logFile *os.File
}

type setupOptions struct {
	// requireStore fails setup when the database cannot be opened.
	requireStore bool
	// quiet discards logs unless --log-file is set; used while a TUI owns
	// the terminal.
	quiet bool
}

func setup(opts setupOptions) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}

	a := &app{cfg: cfg}

	var out io.Writer = os.Stderr
	switch {
	case flagLogFile != "":
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("cannot open log file: %w", err)
		}
		a.logFile = f
		out = f
	case opts.quiet:
		out = io.Discard
	}
	a.logger = newLogger(out, cfg.Log.Level)

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		if opts.requireStore {
			a.Close()
			return nil, fmt.Errorf("cannot open game database: %w", err)
		}
		a.logger.Warn("could not open game database, progress will not be saved", "path", cfg.Storage.DBPath, "error", err)
		if opts.quiet {
			fmt.Fprintf(os.Stderr, "Warning: could not open game database: %v\n", err)
		}
	} else {
		a.store = store
	}
	return a, nil
}

func newLogger(out io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          "t2048",
	})
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.Warn("unknown log level, using info", "level", level)
	}
	return logger
}

// manager builds a session manager persisting through the store, or in
// memory when there is none.
func (a *app) manager() *session.Manager {
	var kvFor func(string) session.KV
	if a.store != nil {
		kvFor = func(profile string) session.KV { return a.store.Slots(profile) }
	}
	m := session.NewManager(session.RulesFromConfig(a.cfg), kvFor, a.logger)
	if flagSeed != 0 {
		m.SetRandSource(func(string) *rand.Rand { return rand.New(rand.NewSource(flagSeed)) })
	}
	return m
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("cannot close database", "error", err)
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}
