package session

import (
	"encoding/json"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/t2048/internal/config"
	"github.com/vovakirdan/t2048/internal/engine"
)

// Rules are the tunable parameters of a game.
type Rules struct {
	Spawn4Prob      float64
	ExtraSpawnProb  float64
	InitialTilesMin int
	InitialTilesMax int

	// SnapshotEveryAttempt captures the undo snapshot before every move
	// attempt instead of only before moves that change the grid.
	SnapshotEveryAttempt bool
	// AllowUndoAfterGameOver lets Undo leave the game-over state.
	AllowUndoAfterGameOver bool
}

// DefaultRules returns the classic 2048 parameters.
func DefaultRules() Rules {
	return RulesFromConfig(config.Default())
}

// RulesFromConfig extracts game rules from the loaded configuration.
func RulesFromConfig(cfg config.Config) Rules {
	return Rules{
		Spawn4Prob:             cfg.Rules.Spawn4Prob,
		ExtraSpawnProb:         cfg.Rules.ExtraSpawnProb,
		InitialTilesMin:        cfg.Rules.InitialTilesMin,
		InitialTilesMax:        cfg.Rules.InitialTilesMax,
		SnapshotEveryAttempt:   cfg.Undo.SnapshotEveryAttempt,
		AllowUndoAfterGameOver: cfg.Undo.AllowAfterGameOver,
	}
}

// Controller runs one game. It is not safe for concurrent use; see Manager.
type Controller struct {
	rules   Rules
	kv      KV
	spawner *engine.Spawner
	logger  *log.Logger

	state State
	undo  *State

	// grid before the last applied move; nil after new game, undo or restore
	prev *engine.Grid
}

// NewController creates a controller with an empty board. Call NewGame or
// Restore before playing. A nil kv keeps state in memory only, a nil rng is
// seeded from the clock.
func NewController(rules Rules, kv KV, rng *rand.Rand, logger *log.Logger) *Controller {
	if kv == nil {
		kv = NewMemoryKV()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = log.Default()
	}
	if rules.InitialTilesMin < 1 {
		rules.InitialTilesMin = 1
	}
	if rules.InitialTilesMax < rules.InitialTilesMin {
		rules.InitialTilesMax = rules.InitialTilesMin
	}
	return &Controller{
		rules:   rules,
		kv:      kv,
		spawner: engine.NewSpawner(rng, rules.Spawn4Prob),
		logger:  logger,
	}
}

// NewGame resets the board with the initial tiles and score 0. The fresh
// position becomes the undo snapshot.
func (c *Controller) NewGame() State {
	span := c.rules.InitialTilesMax - c.rules.InitialTilesMin + 1
	tiles := c.rules.InitialTilesMin + c.spawner.Intn(span)

	grid := c.spawner.Spawn(engine.Grid{}, tiles)
	c.state = State{Grid: grid, GameOver: !engine.CanMove(grid)}
	c.prev = nil

	c.snapshot()
	c.save()
	return c.state
}

// Move applies a direction. It reports whether the grid changed; rejected
// and no-op moves leave the state as it was.
func (c *Controller) Move(d engine.Direction) (applied bool, st State) {
	if !d.Valid() || c.state.GameOver {
		return false, c.state
	}

	res := engine.ApplyMove(c.state.Grid, d)
	if c.rules.SnapshotEveryAttempt || res.Moved {
		c.snapshot()
	}
	if !res.Moved {
		return false, c.state
	}

	count := 1
	if c.spawner.Float64() < c.rules.ExtraSpawnProb {
		count = 2
	}
	before := c.state.Grid
	grid := c.spawner.Spawn(res.Grid, count)

	c.state = State{
		Grid:     grid,
		Score:    c.state.Score + res.Gained,
		GameOver: !engine.CanMove(grid),
	}
	c.prev = &before
	c.save()

	if c.state.GameOver {
		c.logger.Debug("game over", "score", c.state.Score, "max_tile", engine.MaxTile(grid))
	}
	return true, c.state
}

// Undo restores the snapshot. The snapshot is kept, so undoing twice lands
// on the same position.
func (c *Controller) Undo() (st State, ok bool) {
	if c.state.GameOver && !c.rules.AllowUndoAfterGameOver {
		return c.state, false
	}
	if c.undo == nil {
		return c.state, false
	}
	c.state = settle(*c.undo)
	c.prev = nil
	c.save()
	return c.state, true
}

// CanContinue reports whether any move can still change the board.
func (c *Controller) CanContinue() bool {
	return engine.CanMove(c.state.Grid)
}

// State returns a copy of the current position.
func (c *Controller) State() State {
	return c.state
}

// HasUndo reports whether an undo snapshot is available.
func (c *Controller) HasUndo() bool {
	return c.undo != nil
}

// Previous returns the grid as it was before the last applied move.
func (c *Controller) Previous() (engine.Grid, bool) {
	if c.prev == nil {
		return engine.Grid{}, false
	}
	return *c.prev, true
}

// Restore resumes the persisted game, or starts a new one when nothing
// usable is stored. It reports whether a saved game was resumed.
func (c *Controller) Restore() bool {
	st, err := LoadState(c.kv, StateSlot)
	if err != nil {
		c.logger.Debug("starting new game", "reason", err)
		c.NewGame()
		return false
	}

	c.state = settle(st)
	c.prev = nil
	c.undo = nil
	if u, err := LoadState(c.kv, UndoSlot); err == nil {
		u = settle(u)
		c.undo = &u
	}
	return true
}

// settle derives GameOver from the grid; a stored flag may disagree with it.
func settle(st State) State {
	st.GameOver = !engine.CanMove(st.Grid)
	return st
}

func (c *Controller) snapshot() {
	st := c.state
	c.undo = &st
	c.put(UndoSlot, st)
}

func (c *Controller) save() {
	c.put(StateSlot, c.state)
}

// put persists st under key. Failures are logged and otherwise ignored:
// the in-memory state stays authoritative.
func (c *Controller) put(key string, st State) {
	data, err := json.Marshal(st)
	if err != nil {
		c.logger.Warn("cannot encode state", "slot", key, "error", err)
		return
	}
	if err := c.kv.Put(key, data); err != nil {
		c.logger.Warn("cannot persist state", "slot", key, "error", err)
	}
}
