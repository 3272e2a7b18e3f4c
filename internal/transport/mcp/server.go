// Package mcp exposes 2048 games as Model Context Protocol tools so an
// agent can read the board and play moves.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vovakirdan/t2048/internal/engine"
	"github.com/vovakirdan/t2048/internal/session"
	"github.com/vovakirdan/t2048/internal/storage"
)

// DefaultProfile is used when a tool call names no profile.
const DefaultProfile = "mcp"

// Leaderboard is the read side of the score table.
type Leaderboard interface {
	Leaders(limit int) ([]storage.Leader, error)
}

// Options configures a Server.
type Options struct {
	Profile         string
	LeaderboardSize int
	Logger          *log.Logger
}

// Server owns an MCP server bound to a session manager.
type Server struct {
	manager   *session.Manager
	leaders   Leaderboard
	profile   string
	limit     int
	logger    *log.Logger
	mcpServer *server.MCPServer
}

// NewServer registers the game tools. leaders may be nil.
func NewServer(manager *session.Manager, leaders Leaderboard, opts Options) *Server {
	if opts.Profile == "" {
		opts.Profile = DefaultProfile
	}
	if opts.LeaderboardSize <= 0 {
		opts.LeaderboardSize = storage.DefaultLeaderboardSize
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	s := &Server{
		manager: manager,
		leaders: leaders,
		profile: opts.Profile,
		limit:   opts.LeaderboardSize,
		logger:  opts.Logger,
	}
	s.mcpServer = server.NewMCPServer(
		"t2048",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`2048 - MCP Interface

Slide the tiles of a 4x4 board. Equal tiles that collide merge into their
sum and the sum is added to the score. A new tile spawns after every move
that changed the board. The game is over when no move can change the board.

AVAILABLE TOOLS:
- game_state: Show the board, score and whether the game is over
- move: Slide the board up, down, left or right
- bulk_move: Play several moves in order
- undo: Restore the position before the last move
- new_game: Start over with a fresh board
- leaderboard: List the best recorded scores

Every game tool takes an optional 'profile' to keep separate games apart.`),
	)
	s.registerTools()
	return s
}

// ServeStdio serves the tools over stdin/stdout until EOF.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Handler answers single JSON-RPC messages posted over HTTP.
func (s *Server) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := s.mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		data, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(data)
	}
}

var profileProperty = map[string]interface{}{
	"type":        "string",
	"description": "Game profile (optional, defaults to " + DefaultProfile + ")",
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, score and game-over flag",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"profile": profileProperty,
			},
		},
	}, s.handleGameState)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Slide every tile in a direction",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"profile": profileProperty,
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to slide",
				},
			},
			Required: []string{"direction"},
		},
	}, s.handleMove)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: "Play several moves in order, stopping when the game ends",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"profile": profileProperty,
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{"up", "down", "left", "right"},
					},
					"description": "Array of moves",
				},
			},
			Required: []string{"moves"},
		},
	}, s.handleBulkMove)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "undo",
		Description: "Restore the position before the last move",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"profile": profileProperty,
			},
		},
	}, s.handleUndo)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "new_game",
		Description: "Discard the current game and start a fresh board",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"profile": profileProperty,
			},
		},
	}, s.handleNewGame)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "leaderboard",
		Description: "List the best recorded scores",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of entries (optional)",
				},
			},
		},
	}, s.handleLeaderboard)
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

func (s *Server) profileArg(args map[string]interface{}) string {
	if p, _ := args["profile"].(string); strings.TrimSpace(p) != "" {
		return strings.TrimSpace(p)
	}
	return s.profile
}

func (s *Server) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profile := s.profileArg(arguments(request))
	st := s.manager.State(profile)
	return mcp.NewToolResultText(formatState(profile, st)), nil
}

func (s *Server) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	raw, _ := args["direction"].(string)
	dir, err := engine.ParseDirection(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	profile := s.profileArg(args)
	var applied bool
	st, _ := s.manager.Do(profile, func(c *session.Controller) error {
		applied, _ = c.Move(dir)
		return nil
	})
	s.logger.Debug("mcp move", "profile", profile, "direction", dir, "applied", applied)

	var b strings.Builder
	if applied {
		fmt.Fprintf(&b, "Moved %s.\n", dir)
	} else {
		fmt.Fprintf(&b, "Move %s did not change the board.\n", dir)
	}
	b.WriteString(formatState(profile, st))
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	rawMoves, ok := args["moves"].([]interface{})
	if !ok || len(rawMoves) == 0 {
		return mcp.NewToolResultError("moves must be a non-empty array"), nil
	}

	dirs := make([]engine.Direction, 0, len(rawMoves))
	for i, m := range rawMoves {
		name, _ := m.(string)
		dir, err := engine.ParseDirection(name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("move %d: %v", i+1, err)), nil
		}
		dirs = append(dirs, dir)
	}

	profile := s.profileArg(args)
	var b strings.Builder
	st, _ := s.manager.Do(profile, func(c *session.Controller) error {
		for i, dir := range dirs {
			if !c.CanContinue() {
				fmt.Fprintf(&b, "Stopped before move %d: game over.\n", i+1)
				break
			}
			applied, _ := c.Move(dir)
			if applied {
				fmt.Fprintf(&b, "%d. %s\n", i+1, dir)
			} else {
				fmt.Fprintf(&b, "%d. %s (no change)\n", i+1, dir)
			}
		}
		return nil
	})
	b.WriteString(formatState(profile, st))
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleUndo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profile := s.profileArg(arguments(request))
	var undone bool
	st, _ := s.manager.Do(profile, func(c *session.Controller) error {
		_, undone = c.Undo()
		return nil
	})

	var msg string
	switch {
	case undone:
		msg = "Move undone.\n"
	case st.GameOver:
		msg = "Undo is not available after game over.\n"
	default:
		msg = "Nothing to undo.\n"
	}
	return mcp.NewToolResultText(msg + formatState(profile, st)), nil
}

func (s *Server) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profile := s.profileArg(arguments(request))
	st, _ := s.manager.Do(profile, func(c *session.Controller) error {
		c.NewGame()
		return nil
	})
	return mcp.NewToolResultText("New game started.\n" + formatState(profile, st)), nil
}

func (s *Server) handleLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.leaders == nil {
		return mcp.NewToolResultError("no leaderboard available"), nil
	}

	limit := s.limit
	if v, ok := arguments(request)["limit"].(float64); ok && int(v) > 0 {
		limit = int(v)
	}

	leaders, err := s.leaders.Leaders(limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(leaders) == 0 {
		return mcp.NewToolResultText("No scores yet."), nil
	}

	var b strings.Builder
	b.WriteString("Leaderboard:\n")
	for i, l := range leaders {
		fmt.Fprintf(&b, "%2d. %-24s %8d  %s\n", i+1, l.Name, l.Score, l.Date.Format("2006-01-02"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func formatState(profile string, st session.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Profile: %s\n", profile)
	fmt.Fprintf(&b, "Score: %d\n", st.Score)
	fmt.Fprintf(&b, "Max tile: %d\n", engine.MaxTile(st.Grid))
	if st.GameOver {
		b.WriteString("Game over: yes\n")
	} else {
		b.WriteString("Game over: no\n")
	}
	b.WriteString("\n")
	b.WriteString(st.Grid.String())
	return b.String()
}
