package session

import (
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/t2048/internal/engine"
)

type failingKV struct{}

func (failingKV) Put(string, []byte) error   { return errors.New("disk full") }
func (failingKV) Get(string) ([]byte, error) { return nil, errors.New("disk gone") }

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestController(rules Rules, kv KV, seed int64) *Controller {
	return NewController(rules, kv, rand.New(rand.NewSource(seed)), quietLogger())
}

// nearlyStuck leaves a single gap after a left move; whatever spawns there
// has no equal neighbour.
var nearlyStuck = engine.Grid{
	{2, 4, 2, 4},
	{4, 2, 4, 2},
	{2, 4, 2, 32},
	{8, 16, 0, 8},
}

func TestNewGameInitialTiles(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		kv := NewMemoryKV()
		c := newTestController(DefaultRules(), kv, seed)
		st := c.NewGame()

		n := engine.TileCount(st.Grid)
		if n < 2 || n > 3 {
			t.Fatalf("seed %d: %d initial tiles, want 2 or 3", seed, n)
		}
		for _, row := range st.Grid {
			for _, v := range row {
				if v != 0 && v != 2 && v != 4 {
					t.Fatalf("seed %d: unexpected initial tile %d", seed, v)
				}
			}
		}
		if st.Score != 0 || st.GameOver {
			t.Errorf("seed %d: new game state = %+v", seed, st)
		}
		if !c.HasUndo() {
			t.Errorf("seed %d: new game should set the undo snapshot", seed)
		}
		if _, err := kv.Get(StateSlot); err != nil {
			t.Errorf("seed %d: state slot not written: %v", seed, err)
		}
		if _, err := kv.Get(UndoSlot); err != nil {
			t.Errorf("seed %d: undo slot not written: %v", seed, err)
		}
	}
}

func TestNewGameDeterministic(t *testing.T) {
	a := newTestController(DefaultRules(), nil, 7).NewGame()
	b := newTestController(DefaultRules(), nil, 7).NewGame()
	if a != b {
		t.Errorf("same seed produced different games:\n%v\n%v", a.Grid, b.Grid)
	}
}

func TestMoveMergesScoresAndSpawns(t *testing.T) {
	c := newTestController(DefaultRules(), nil, 1)
	c.state = State{Grid: engine.Grid{{2, 2, 0, 0}}}

	applied, st := c.Move(engine.Left)
	if !applied {
		t.Fatal("expected move to apply")
	}
	if st.Score != 4 {
		t.Errorf("Score = %d, want 4", st.Score)
	}
	if st.Grid[0][0] != 4 {
		t.Errorf("merged tile = %d, want 4", st.Grid[0][0])
	}
	if n := engine.TileCount(st.Grid); n != 2 && n != 3 {
		t.Errorf("tile count after move = %d, want 2 or 3", n)
	}
	if st.GameOver {
		t.Error("game should not be over")
	}

	prev, ok := c.Previous()
	if !ok || prev != (engine.Grid{{2, 2, 0, 0}}) {
		t.Errorf("Previous() = %v, %v", prev, ok)
	}
}

func TestExtraSpawnProbability(t *testing.T) {
	tests := []struct {
		name  string
		prob  float64
		tiles int
	}{
		{"never", 0, 2},
		{"always", 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultRules()
			rules.ExtraSpawnProb = tt.prob
			c := newTestController(rules, nil, 3)
			c.state = State{Grid: engine.Grid{{2, 2, 0, 0}}}

			_, st := c.Move(engine.Left)
			if n := engine.TileCount(st.Grid); n != tt.tiles {
				t.Errorf("tile count = %d, want %d", n, tt.tiles)
			}
		})
	}
}

func TestNoOpMove(t *testing.T) {
	tests := []struct {
		name     string
		every    bool
		wantUndo bool
	}{
		{"snapshot only applied moves", false, false},
		{"snapshot every attempt", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultRules()
			rules.SnapshotEveryAttempt = tt.every
			kv := NewMemoryKV()
			c := newTestController(rules, kv, 1)
			start := State{Grid: engine.Grid{{2, 0, 0, 0}}, Score: 12}
			c.state = start

			applied, st := c.Move(engine.Left)
			if applied {
				t.Error("left on a left-packed row should not apply")
			}
			if st != start {
				t.Errorf("state changed on no-op: %+v", st)
			}
			if c.HasUndo() != tt.wantUndo {
				t.Errorf("HasUndo() = %v, want %v", c.HasUndo(), tt.wantUndo)
			}
			if _, err := kv.Get(StateSlot); err == nil {
				t.Error("no-op move should not persist state")
			}
		})
	}
}

func TestMoveRejected(t *testing.T) {
	tests := []struct {
		name  string
		state State
		dir   engine.Direction
	}{
		{"invalid direction", State{Grid: engine.Grid{{2, 2, 0, 0}}}, engine.Direction(42)},
		{"game over", State{Grid: engine.Grid{{2, 2, 0, 0}}, GameOver: true}, engine.Left},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultRules()
			rules.SnapshotEveryAttempt = true
			c := newTestController(rules, nil, 1)
			c.state = tt.state

			applied, st := c.Move(tt.dir)
			if applied {
				t.Error("move should be rejected")
			}
			if st != tt.state {
				t.Errorf("state changed: %+v", st)
			}
			if c.HasUndo() {
				t.Error("rejected move must not take a snapshot")
			}
		})
	}
}

func TestMoveDetectsGameOver(t *testing.T) {
	c := newTestController(DefaultRules(), nil, 5)
	c.state = State{Grid: nearlyStuck}

	applied, st := c.Move(engine.Left)
	if !applied {
		t.Fatal("expected move to apply")
	}
	if !st.GameOver {
		t.Fatalf("expected game over, grid:\n%v", st.Grid)
	}
	if c.CanContinue() {
		t.Error("CanContinue() should be false on a stuck board")
	}
	if applied, _ := c.Move(engine.Right); applied {
		t.Error("moves after game over should be rejected")
	}
}

func TestUndoAfterGameOver(t *testing.T) {
	tests := []struct {
		name   string
		allow  bool
		wantOK bool
	}{
		{"blocked by default", false, false},
		{"allowed when configured", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultRules()
			rules.AllowUndoAfterGameOver = tt.allow
			c := newTestController(rules, nil, 5)
			c.state = State{Grid: nearlyStuck}
			c.Move(engine.Left)

			st, ok := c.Undo()
			if ok != tt.wantOK {
				t.Fatalf("Undo() ok = %v, want %v", ok, tt.wantOK)
			}
			if tt.wantOK {
				if st.Grid != nearlyStuck || st.GameOver {
					t.Errorf("undo restored %+v", st)
				}
			} else if !st.GameOver {
				t.Error("blocked undo should leave the game over")
			}
		})
	}
}

func TestUndoRestoresSnapshot(t *testing.T) {
	kv := NewMemoryKV()
	c := newTestController(DefaultRules(), kv, 9)
	before := State{Grid: engine.Grid{{2, 2, 4, 0}, {0, 4, 0, 0}}, Score: 20}
	c.state = before

	if applied, _ := c.Move(engine.Left); !applied {
		t.Fatal("expected move to apply")
	}

	st, ok := c.Undo()
	if !ok || st != before {
		t.Fatalf("Undo() = %+v, %v; want %+v", st, ok, before)
	}

	// The snapshot survives, so a second undo lands on the same position.
	st, ok = c.Undo()
	if !ok || st != before {
		t.Errorf("second Undo() = %+v, %v", st, ok)
	}

	saved, err := LoadState(kv, StateSlot)
	if err != nil || saved != before {
		t.Errorf("persisted state after undo = %+v, %v", saved, err)
	}
	if _, ok := c.Previous(); ok {
		t.Error("Previous() should be cleared by undo")
	}
}

func TestUndoWithoutSnapshot(t *testing.T) {
	c := newTestController(DefaultRules(), nil, 1)
	if _, ok := c.Undo(); ok {
		t.Error("Undo() without a snapshot should fail")
	}
}

func TestRestoreResumesSavedGame(t *testing.T) {
	kv := NewMemoryKV()
	first := newTestController(DefaultRules(), kv, 11)
	first.NewGame()
	first.state = State{Grid: engine.Grid{{2, 2, 0, 0}}, Score: 8}
	first.Move(engine.Left)
	want := first.State()

	second := newTestController(DefaultRules(), kv, 99)
	if !second.Restore() {
		t.Fatal("Restore() should resume the saved game")
	}
	if second.State() != want {
		t.Errorf("restored %+v, want %+v", second.State(), want)
	}
	if !second.HasUndo() {
		t.Error("restored controller should pick up the undo slot")
	}
	if st, ok := second.Undo(); !ok || st.Score != 8 {
		t.Errorf("Undo() after restore = %+v, %v", st, ok)
	}
}

func TestRestoreDerivesGameOverFromGrid(t *testing.T) {
	stuck := engine.Grid{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 2, 4},
		{4, 2, 4, 2},
	}
	open := engine.Grid{{2, 2, 0, 0}}

	tests := []struct {
		name     string
		state    string
		grid     engine.Grid
		gameOver bool
	}{
		{"stuck saved as playing", `{"grid":[[2,4,2,4],[4,2,4,2],[2,4,2,4],[4,2,4,2]],"score":10,"gameOver":false}`, stuck, true},
		{"playable saved as over", `{"grid":[[2,2,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0]],"score":10,"gameOver":true}`, open, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := NewMemoryKV()
			kv.Put(StateSlot, []byte(tt.state))
			kv.Put(UndoSlot, []byte(tt.state))

			c := newTestController(DefaultRules(), kv, 1)
			if !c.Restore() {
				t.Fatal("Restore() should resume the saved game")
			}
			st := c.State()
			if st.Grid != tt.grid || st.Score != 10 {
				t.Fatalf("restored %+v", st)
			}
			if st.GameOver != tt.gameOver || c.CanContinue() == tt.gameOver {
				t.Errorf("gameOver = %v, canContinue = %v; want gameOver %v", st.GameOver, c.CanContinue(), tt.gameOver)
			}

			if c.undo == nil || c.undo.GameOver != tt.gameOver {
				t.Errorf("undo snapshot = %+v, want gameOver %v", c.undo, tt.gameOver)
			}
		})
	}
}

func TestRestoredStuckGameRejectsMoves(t *testing.T) {
	kv := NewMemoryKV()
	kv.Put(StateSlot, []byte(`{"grid":[[2,4,2,4],[4,2,4,2],[2,4,2,4],[4,2,4,2]],"score":10,"gameOver":false}`))

	c := newTestController(DefaultRules(), kv, 1)
	c.Restore()
	for _, d := range engine.Directions {
		if applied, st := c.Move(d); applied || !st.GameOver {
			t.Errorf("Move(%v) = %v, gameOver %v; want rejected on a finished game", d, applied, st.GameOver)
		}
	}
}

func TestRestoreFallsBackToNewGame(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing", ""},
		{"not json", "{{{"},
		{"no grid", `{"score":5,"gameOver":false}`},
		{"wrong size", `{"grid":[[2,2],[2,2]],"score":0,"gameOver":false}`},
		{"short row", `{"grid":[[2,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0]],"score":0,"gameOver":false}`},
		{"bad tile", `{"grid":[[3,0,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0]],"score":0,"gameOver":false}`},
		{"negative tile", `{"grid":[[-2,0,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0]],"score":0,"gameOver":false}`},
		{"negative score", `{"grid":[[2,0,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0]],"score":-1,"gameOver":false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := NewMemoryKV()
			if tt.payload != "" {
				kv.Put(StateSlot, []byte(tt.payload))
			}

			if _, err := LoadState(kv, StateSlot); !errors.Is(err, ErrNoSavedState) {
				t.Errorf("LoadState() error = %v, want ErrNoSavedState", err)
			}

			c := newTestController(DefaultRules(), kv, 2)
			if c.Restore() {
				t.Fatal("Restore() should not resume an unusable state")
			}
			st := c.State()
			if st.Score != 0 || st.GameOver {
				t.Errorf("fallback state = %+v", st)
			}
			if n := engine.TileCount(st.Grid); n < 2 || n > 3 {
				t.Errorf("fallback game has %d tiles", n)
			}
		})
	}
}

func TestPersistenceFailureIsSwallowed(t *testing.T) {
	c := newTestController(DefaultRules(), failingKV{}, 4)
	if c.Restore() {
		t.Fatal("failing store cannot resume a game")
	}

	c.state = State{Grid: engine.Grid{{2, 2, 0, 0}}}
	applied, st := c.Move(engine.Left)
	if !applied || st.Score != 4 {
		t.Errorf("Move() with failing store = %v, %+v", applied, st)
	}
	if _, ok := c.Undo(); !ok {
		t.Error("undo should work from memory when the store fails")
	}
}

func TestStateJSONShape(t *testing.T) {
	st := State{Grid: engine.Grid{{2, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 4, 0}}, Score: 16, GameOver: true}
	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	want := `{"grid":[[2,0,0,0],[0,0,0,0],[0,0,4,0],[0,0,0,0]],"score":16,"gameOver":true}`
	if string(data) != want {
		t.Errorf("json = %s\nwant %s", data, want)
	}

	var back State
	if err := json.Unmarshal(data, &back); err != nil || back != st {
		t.Errorf("Unmarshal() = %+v, %v", back, err)
	}
}
