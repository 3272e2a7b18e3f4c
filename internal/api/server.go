// Package api serves 2048 games over HTTP.
//
// Routes:
//   - GET  /health
//   - GET  /api/sessions/{profile}/state
//   - POST /api/sessions/{profile}/new
//   - POST /api/sessions/{profile}/move   {"direction":"left"}
//   - POST /api/sessions/{profile}/undo
//   - GET, POST, DELETE /api/leaders
//   - GET  /ws?profile=NAME  (live state updates, when a hub is configured)
//   - POST /mcp              (MCP JSON-RPC, when configured)
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vovakirdan/t2048/internal/engine"
	"github.com/vovakirdan/t2048/internal/session"
	"github.com/vovakirdan/t2048/internal/storage"
	"github.com/vovakirdan/t2048/internal/transport/websocket"
)

// Leaderboard is the score table the API reads and writes.
type Leaderboard interface {
	AddLeader(name string, score int, limit int) error
	Leaders(limit int) ([]storage.Leader, error)
	ClearLeaders() error
}

// Options configures a Server. Leaders, Hub and MCP are optional.
type Options struct {
	Manager         *session.Manager
	Leaders         Leaderboard
	Hub             *websocket.Hub
	MCP             http.Handler
	LeaderboardSize int
	DefaultName     string
	AllowedOrigin   string
	Logger          *log.Logger
}

// Server bundles the router and the game manager.
type Server struct {
	r       *chi.Mux
	manager *session.Manager
	leaders Leaderboard
	hub     *websocket.Hub
	size    int
	name    string
	logger  *log.Logger
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	if opts.LeaderboardSize <= 0 {
		opts.LeaderboardSize = storage.DefaultLeaderboardSize
	}
	if opts.DefaultName == "" {
		opts.DefaultName = "Player"
	}
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	s := &Server{
		r:       chi.NewRouter(),
		manager: opts.Manager,
		leaders: opts.Leaders,
		hub:     opts.Hub,
		size:    opts.LeaderboardSize,
		name:    opts.DefaultName,
		logger:  opts.Logger,
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(s.requestLogger)
	s.r.Use(cors(opts.AllowedOrigin))

	// Long-lived and protocol endpoints stay outside the JSON group.
	if s.hub != nil {
		s.r.Get("/ws", s.handleWS)
	}
	if opts.MCP != nil {
		s.r.Handle("/mcp", opts.MCP)
	}

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"t2048","endpoints":["/health","/api/sessions/{profile}/state","/api/leaders","/ws","/mcp"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		r.Route("/api", func(r chi.Router) {
			r.Get("/sessions", s.handleProfiles)
			r.Route("/sessions/{profile}", func(r chi.Router) {
				r.Get("/state", s.handleState)
				r.Post("/new", s.handleNewGame)
				r.Post("/move", s.handleMove)
				r.Post("/undo", s.handleUndo)
			})

			r.Get("/leaders", s.handleLeaders)
			r.Post("/leaders", s.handleAddLeader)
			r.Delete("/leaders", s.handleClearLeaders)
		})
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()))
	})
}

// ------------------------------ GAME ---------------------------------------

// stateRes is the common game payload.
type stateRes struct {
	Profile     string        `json:"profile"`
	State       session.State `json:"state"`
	CanContinue bool          `json:"canContinue"`
}

func newStateRes(profile string, st session.State) stateRes {
	return stateRes{Profile: profile, State: st, CanContinue: engine.CanMove(st.Grid)}
}

func profileParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "profile"))
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"profiles": s.manager.Profiles()})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	profile := profileParam(r)
	writeJSON(w, http.StatusOK, newStateRes(profile, s.manager.State(profile)))
}

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	profile := profileParam(r)
	st, _ := s.manager.Do(profile, func(c *session.Controller) error {
		c.NewGame()
		return nil
	})
	writeJSON(w, http.StatusOK, newStateRes(profile, st))
}

type moveReq struct {
	Direction string `json:"direction"`
}

type moveRes struct {
	stateRes
	Applied bool `json:"applied"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	dir, err := engine.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_direction")
		return
	}

	profile := profileParam(r)
	var applied bool
	st, _ := s.manager.Do(profile, func(c *session.Controller) error {
		applied, _ = c.Move(dir)
		return nil
	})
	writeJSON(w, http.StatusOK, moveRes{stateRes: newStateRes(profile, st), Applied: applied})
}

type undoRes struct {
	stateRes
	Undone bool `json:"undone"`
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	profile := profileParam(r)
	var undone bool
	st, _ := s.manager.Do(profile, func(c *session.Controller) error {
		_, undone = c.Undo()
		return nil
	})
	writeJSON(w, http.StatusOK, undoRes{stateRes: newStateRes(profile, st), Undone: undone})
}

// --------------------------- LEADERBOARD -----------------------------------

type addLeaderReq struct {
	Name  string `json:"name"`
	Score *int   `json:"score"`
}

type leadersRes struct {
	Leaders []storage.Leader `json:"leaders"`
}

func (s *Server) handleLeaders(w http.ResponseWriter, r *http.Request) {
	if s.leaders == nil {
		writeError(w, http.StatusServiceUnavailable, "no_leaderboard")
		return
	}
	limit := s.size
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_limit")
			return
		}
		limit = n
	}
	s.writeLeaders(w, http.StatusOK, limit)
}

func (s *Server) handleAddLeader(w http.ResponseWriter, r *http.Request) {
	if s.leaders == nil {
		writeError(w, http.StatusServiceUnavailable, "no_leaderboard")
		return
	}
	var req addLeaderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if req.Score == nil || *req.Score < 0 {
		writeError(w, http.StatusBadRequest, "bad_score")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = s.name
	}

	if err := s.leaders.AddLeader(name, *req.Score, s.size); err != nil {
		s.logger.Error("cannot save score", "name", name, "score", *req.Score, "error", err)
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	s.writeLeaders(w, http.StatusCreated, s.size)
}

func (s *Server) handleClearLeaders(w http.ResponseWriter, r *http.Request) {
	if s.leaders == nil {
		writeError(w, http.StatusServiceUnavailable, "no_leaderboard")
		return
	}
	if err := s.leaders.ClearLeaders(); err != nil {
		s.logger.Error("cannot clear leaderboard", "error", err)
		writeError(w, http.StatusInternalServerError, "clear_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeLeaders(w http.ResponseWriter, status, limit int) {
	leaders, err := s.leaders.Leaders(limit)
	if err != nil {
		s.logger.Error("cannot load leaderboard", "error", err)
		writeError(w, http.StatusInternalServerError, "load_failed")
		return
	}
	if leaders == nil {
		leaders = []storage.Leader{}
	}
	writeJSON(w, status, leadersRes{Leaders: leaders})
}

// ---------------------------- WEBSOCKET ------------------------------------

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	profile := strings.TrimSpace(r.URL.Query().Get("profile"))
	if profile == "" {
		profile = session.DefaultProfile
	}
	st := s.manager.State(profile)
	s.hub.ServeWS(w, r, profile, &st)
}

// ------------------------------ helpers ------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
