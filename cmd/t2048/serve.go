package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/t2048/internal/api"
	"github.com/vovakirdan/t2048/internal/platform/tui"
	"github.com/vovakirdan/t2048/internal/session"
	"github.com/vovakirdan/t2048/internal/transport/mcp"
	"github.com/vovakirdan/t2048/internal/transport/websocket"
)

var (
	flagSSHAddr     string
	flagHTTPAddr    string
	flagHostKey     string
	flagIdleTimeout int
	flagOrigin      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SSH server and HTTP API",
	Long: `Start an SSH server for remote play together with the HTTP API.

Each SSH user plays their own saved game (profile "ssh:<user>").
All players share one leaderboard. The HTTP API exposes every profile,
pushes live updates over /ws and answers MCP requests on /mcp.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.t2048/host_key

Examples:
  t2048 serve                           # SSH on :23234, HTTP on :8048
  t2048 serve --ssh :2222 --http :9000
  t2048 serve --host-key ./my_host_key

Users can connect with:
  ssh localhost -p 23234`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start only the HTTP API",
	Long: `Start the HTTP API without the SSH server.

Examples:
  t2048 api
  t2048 api --http :9000
  curl -X POST localhost:8048/api/sessions/me/move -d '{"direction":"left"}'`,
	Args: cobra.NoArgs,
	RunE: runAPI,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (default from config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 0, "Idle timeout in minutes before disconnecting (default from config)")
	for _, c := range []*cobra.Command{serveCmd, apiCmd} {
		c.Flags().StringVar(&flagHTTPAddr, "http", "", "HTTP API address (default from config)")
		c.Flags().StringVar(&flagOrigin, "allow-origin", "*", "Access-Control-Allow-Origin for the API")
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	return serve(true)
}

func runAPI(_ *cobra.Command, _ []string) error {
	return serve(false)
}

func serve(withSSH bool) error {
	a, err := setup(setupOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	manager := a.manager()

	hub := websocket.NewHub(a.logger.WithPrefix("t2048-ws"))
	go hub.Run(ctx)
	manager.OnChange(hub.BroadcastState)

	opts := api.Options{
		Manager:         manager,
		Hub:             hub,
		LeaderboardSize: a.cfg.Leaderboard.Size,
		DefaultName:     a.cfg.Leaderboard.DefaultName,
		AllowedOrigin:   flagOrigin,
		Logger:          a.logger.WithPrefix("t2048-http"),
	}
	mcpOpts := mcp.Options{
		LeaderboardSize: a.cfg.Leaderboard.Size,
		Logger:          a.logger.WithPrefix("t2048-mcp"),
	}
	var mcpServer *mcp.Server
	if a.store != nil {
		opts.Leaders = a.store
		mcpServer = mcp.NewServer(manager, a.store, mcpOpts)
	} else {
		mcpServer = mcp.NewServer(manager, nil, mcpOpts)
	}
	opts.MCP = mcpServer.Handler()

	httpAddr := a.cfg.Server.HTTPAddr
	if flagHTTPAddr != "" {
		httpAddr = flagHTTPAddr
	}
	apiServer := api.New(opts)

	errCh := make(chan error, 2)
	running := 1
	go func() { errCh <- apiServer.ListenAndServe(ctx, httpAddr) }()

	if withSSH {
		sshServer, err := newSSHServer(a, manager)
		if err != nil {
			return err
		}
		running++
		go func() { errCh <- sshServer.Serve(ctx) }()
		fmt.Printf("SSH server on %s (connect with: ssh localhost -p <port>)\n", sshServer.Addr())
	}
	fmt.Printf("HTTP API on %s\n", httpAddr)
	fmt.Println("Press Ctrl+C to stop")

	// The first failure stops everything else.
	var firstErr error
	for i := 0; i < running; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	return firstErr
}

func newSSHServer(a *app, manager *session.Manager) (*tui.SSHServer, error) {
	cfg := tui.DefaultSSHServerConfig()
	cfg.Address = a.cfg.Server.SSHAddr
	cfg.HostKeyPath = a.cfg.Server.HostKeyPath
	cfg.IdleTimeout = time.Duration(a.cfg.Server.IdleTimeoutMinutes) * time.Minute
	cfg.LeaderboardSize = a.cfg.Leaderboard.Size
	cfg.DefaultName = a.cfg.Leaderboard.DefaultName

	if flagSSHAddr != "" {
		cfg.Address = flagSSHAddr
	}
	if flagHostKey != "" {
		cfg.HostKeyPath = flagHostKey
	}
	if flagIdleTimeout > 0 {
		cfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	}

	var leaders tui.Leaderboard
	if a.store != nil {
		leaders = a.store
	}
	server, err := tui.NewSSHServer(cfg, manager, leaders, a.logger.WithPrefix("t2048-ssh"))
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}
	return server, nil
}
