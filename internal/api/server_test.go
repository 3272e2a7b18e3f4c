package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	gorillaws "github.com/gorilla/websocket"

	"github.com/vovakirdan/t2048/internal/engine"
	"github.com/vovakirdan/t2048/internal/session"
	"github.com/vovakirdan/t2048/internal/storage"
	"github.com/vovakirdan/t2048/internal/transport/websocket"
)

type fakeLeaders struct {
	leaders []storage.Leader
	added   []storage.Leader
	err     error
	limit   int
	cleared bool
}

func (f *fakeLeaders) AddLeader(name string, score int, limit int) error {
	if f.err != nil {
		return f.err
	}
	f.limit = limit
	l := storage.Leader{Name: name, Score: score, Date: time.Now()}
	f.added = append(f.added, l)
	f.leaders = append(f.leaders, l)
	return nil
}

func (f *fakeLeaders) Leaders(limit int) ([]storage.Leader, error) {
	f.limit = limit
	return f.leaders, f.err
}

func (f *fakeLeaders) ClearLeaders() error {
	f.cleared = true
	f.leaders = nil
	return f.err
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// newTestManager returns a manager where profile "p1" resumes grid.
func newTestManager(t *testing.T, grid engine.Grid) *session.Manager {
	t.Helper()
	seeded := session.NewMemoryKV()
	data, err := session.State{Grid: grid}.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := seeded.Put(session.StateSlot, data); err != nil {
		t.Fatalf("seed: %v", err)
	}
	m := session.NewManager(session.DefaultRules(), func(profile string) session.KV {
		if profile == "p1" {
			return seeded
		}
		return session.NewMemoryKV()
	}, quietLogger())
	m.SetRandSource(func(string) *rand.Rand { return rand.New(rand.NewSource(1)) })
	return m
}

func newTestServer(t *testing.T, leaders Leaderboard) *Server {
	t.Helper()
	return New(Options{
		Manager:         newTestManager(t, engine.Grid{{2, 2, 0, 0}}),
		Leaders:         leaders,
		LeaderboardSize: 5,
		DefaultName:     "Anon",
		Logger:          quietLogger(),
	})
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

type gameBody struct {
	Profile     string        `json:"profile"`
	State       session.State `json:"state"`
	CanContinue bool          `json:"canContinue"`
	Applied     bool          `json:"applied"`
	Undone      bool          `json:"undone"`
	Error       string        `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) gameBody {
	t.Helper()
	var b gameBody
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return b
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || rec.Body.String() != `{"ok":true}` {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":"not_found"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestGetState(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/api/sessions/p1/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	b := decode(t, rec)
	if b.Profile != "p1" || b.State.Grid[0][0] != 2 || b.State.Score != 0 || !b.CanContinue {
		t.Errorf("state = %+v", b)
	}
	if !strings.Contains(rec.Body.String(), `"gameOver":false`) {
		t.Errorf("state should use the persisted shape: %s", rec.Body.String())
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantApplied bool
		wantScore   int
		wantError   string
	}{
		{"merge", `{"direction":"left"}`, http.StatusOK, true, 4, ""},
		{"no change", `{"direction":"up"}`, http.StatusOK, false, 0, ""},
		{"invalid direction", `{"direction":"diagonal"}`, http.StatusBadRequest, false, 0, "invalid_direction"},
		{"bad json", `{`, http.StatusBadRequest, false, 0, "bad_json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			rec := do(t, s, http.MethodPost, "/api/sessions/p1/move", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantError != "" {
				var e struct {
					Error string `json:"error"`
				}
				_ = json.Unmarshal(rec.Body.Bytes(), &e)
				if e.Error != tt.wantError {
					t.Errorf("error = %q, want %q", e.Error, tt.wantError)
				}
				return
			}
			b := decode(t, rec)
			if b.Applied != tt.wantApplied || b.State.Score != tt.wantScore {
				t.Errorf("applied=%v score=%d, want %v %d", b.Applied, b.State.Score, tt.wantApplied, tt.wantScore)
			}
		})
	}
}

func TestUndo(t *testing.T) {
	s := newTestServer(t, nil)

	b := decode(t, do(t, s, http.MethodPost, "/api/sessions/p1/undo", ""))
	if b.Undone {
		t.Error("undo without a move should report undone=false")
	}

	do(t, s, http.MethodPost, "/api/sessions/p1/move", `{"direction":"left"}`)
	b = decode(t, do(t, s, http.MethodPost, "/api/sessions/p1/undo", ""))
	if !b.Undone || b.State.Score != 0 || b.State.Grid[0][0] != 2 || b.State.Grid[0][1] != 2 {
		t.Errorf("undo = %+v", b)
	}
}

func TestNewGameAndProfiles(t *testing.T) {
	s := newTestServer(t, nil)

	b := decode(t, do(t, s, http.MethodPost, "/api/sessions/fresh/new", ""))
	if b.Profile != "fresh" || b.State.Score != 0 {
		t.Errorf("new game = %+v", b)
	}
	if n := engine.TileCount(b.State.Grid); n < 2 || n > 3 {
		t.Errorf("tile count = %d", n)
	}

	rec := do(t, s, http.MethodGet, "/api/sessions", "")
	var res struct {
		Profiles []string `json:"profiles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Profiles) != 1 || res.Profiles[0] != "fresh" {
		t.Errorf("profiles = %v", res.Profiles)
	}
}

func TestLeaders(t *testing.T) {
	leaders := &fakeLeaders{}
	s := newTestServer(t, leaders)

	rec := do(t, s, http.MethodGet, "/api/leaders", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"leaders":[]`) {
		t.Errorf("empty leaders = %d %s", rec.Code, rec.Body.String())
	}
	if leaders.limit != 5 {
		t.Errorf("default limit = %d, want 5", leaders.limit)
	}

	rec = do(t, s, http.MethodPost, "/api/leaders", `{"name":"  ","score":128}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d (%s)", rec.Code, rec.Body.String())
	}
	if len(leaders.added) != 1 || leaders.added[0].Name != "Anon" || leaders.added[0].Score != 128 {
		t.Errorf("added = %+v", leaders.added)
	}

	do(t, s, http.MethodGet, "/api/leaders?limit=2", "")
	if leaders.limit != 2 {
		t.Errorf("limit = %d, want 2", leaders.limit)
	}

	rec = do(t, s, http.MethodDelete, "/api/leaders", "")
	if rec.Code != http.StatusNoContent || !leaders.cleared {
		t.Errorf("clear = %d cleared=%v", rec.Code, leaders.cleared)
	}
}

func TestLeadersRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad limit", http.MethodGet, "/api/leaders?limit=x", "", http.StatusBadRequest},
		{"zero limit", http.MethodGet, "/api/leaders?limit=0", "", http.StatusBadRequest},
		{"missing score", http.MethodPost, "/api/leaders", `{"name":"a"}`, http.StatusBadRequest},
		{"negative score", http.MethodPost, "/api/leaders", `{"name":"a","score":-1}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/leaders", `nope`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeLeaders{})
			if rec := do(t, s, tt.method, tt.path, tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLeadersUnavailable(t *testing.T) {
	s := newTestServer(t, nil)
	if rec := do(t, s, http.MethodGet, "/api/leaders", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	s = newTestServer(t, &fakeLeaders{err: errors.New("db down")})
	if rec := do(t, s, http.MethodPost, "/api/leaders", `{"score":4}`); rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s, http.MethodOptions, "/api/sessions/p1/move", "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestWebsocketReceivesMoves(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := newTestManager(t, engine.Grid{{2, 2, 0, 0}})
	hub := websocket.NewHub(quietLogger())
	go hub.Run(ctx)
	manager.OnChange(hub.BroadcastState)

	s := New(Options{Manager: manager, Hub: hub, Logger: quietLogger()})
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?profile=p1"
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	messages := make(chan websocket.Message, 16)
	go func() {
		defer close(messages)
		for {
			var msg websocket.Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			messages <- msg
		}
	}()

	select {
	case msg := <-messages:
		if msg.State == nil || msg.State.Grid[0][0] != 2 {
			t.Fatalf("initial message = %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial state")
	}

	// The client registers asynchronously; the undo of a fresh game is a
	// no-op that still notifies, so repeat it until a broadcast arrives.
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case <-ticker.C:
			do(t, s, http.MethodPost, "/api/sessions/p1/undo", "")
		case msg, ok := <-messages:
			if !ok {
				t.Fatal("connection closed")
			}
			if msg.Event == websocket.EventStateUpdate && msg.Profile == "p1" {
				return
			}
		case <-deadline:
			t.Fatal("no broadcast received")
		}
	}
}

func TestMCPRouteMounted(t *testing.T) {
	called := false
	s := New(Options{
		Manager: newTestManager(t, engine.Grid{}),
		MCP: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		}),
		Logger: quietLogger(),
	})
	do(t, s, http.MethodPost, "/mcp", `{}`)
	if !called {
		t.Error("MCP handler not mounted at /mcp")
	}
}
