package main

import (
	"bytes"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/t2048/internal/engine"
	"github.com/vovakirdan/t2048/internal/session"
)

func TestPrintState(t *testing.T) {
	tests := []struct {
		name     string
		state    session.State
		want     []string
		gameOver bool
	}{
		{
			name:  "in progress",
			state: session.State{Grid: engine.Grid{{2, 4, 0, 0}}, Score: 12},
			want:  []string{"Score: 12"},
		},
		{
			name:     "game over",
			state:    session.State{Grid: engine.Grid{{2, 4}}, Score: 8, GameOver: true},
			want:     []string{"Score: 8", "GAME OVER"},
			gameOver: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printState(&buf, tt.state)
			out := buf.String()

			if !strings.HasPrefix(out, tt.state.Grid.String()) {
				t.Errorf("output should start with the board:\n%s", out)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			if !tt.gameOver && strings.Contains(out, "GAME OVER") {
				t.Errorf("unexpected game over line:\n%s", out)
			}
		})
	}
}

func TestNewLoggerLevel(t *testing.T) {
	tests := []struct {
		level string
		want  log.Level
	}{
		{"debug", log.DebugLevel},
		{"warn", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"bogus", log.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := newLogger(io.Discard, tt.level).GetLevel(); got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}

var stuckState = `{"grid":[[2,4,2,4],[4,2,4,2],[2,4,2,4],[4,2,4,2]],"score":10,"gameOver":false}`

func TestUndoNote(t *testing.T) {
	tests := []struct {
		name  string
		saved string
		move  bool
		want  string
	}{
		{"nothing to undo", `{"grid":[[2,2,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0]],"score":0,"gameOver":false}`, false, "Nothing to undo."},
		{"after a move", `{"grid":[[2,2,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0]],"score":0,"gameOver":false}`, true, "Move undone."},
		{"game over", stuckState, false, "Undo is not available after game over."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := session.NewMemoryKV()
			kv.Put(session.StateSlot, []byte(tt.saved))
			c := session.NewController(session.DefaultRules(), kv, rand.New(rand.NewSource(1)), log.New(io.Discard))
			c.Restore()
			if tt.move {
				c.Move(engine.Left)
			}
			if got := undoNote(c); got != tt.want {
				t.Errorf("undoNote() = %q, want %q", got, tt.want)
			}
		})
	}
}
