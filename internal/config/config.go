// Package config provides YAML-based configuration loading for t2048.
package config

import "fmt"

// Config contains all tunable settings.
type Config struct {
	Rules       RulesConfig       `yaml:"rules"`
	Undo        UndoConfig        `yaml:"undo"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	Storage     StorageConfig     `yaml:"storage"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

// RulesConfig defines tile spawning parameters.
type RulesConfig struct {
	Spawn4Prob      float64 `yaml:"spawn_four_probability"`
	ExtraSpawnProb  float64 `yaml:"extra_spawn_probability"`
	InitialTilesMin int     `yaml:"initial_tiles_min"`
	InitialTilesMax int     `yaml:"initial_tiles_max"`
}

// UndoConfig controls the single-slot undo buffer.
type UndoConfig struct {
	// SnapshotEveryAttempt captures the undo snapshot before every move
	// attempt, including attempts that turn out to be no-ops.
	SnapshotEveryAttempt bool `yaml:"snapshot_every_attempt"`
	// AllowAfterGameOver lets undo leave the game-over state.
	AllowAfterGameOver bool `yaml:"allow_after_game_over"`
}

// LeaderboardConfig defines the persisted high score list.
type LeaderboardConfig struct {
	Size        int    `yaml:"size"`
	DefaultName string `yaml:"default_name"`
}

// StorageConfig defines where state is persisted.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// ServerConfig defines the network surfaces.
type ServerConfig struct {
	SSHAddr            string `yaml:"ssh_addr"`
	HTTPAddr           string `yaml:"http_addr"`
	HostKeyPath        string `yaml:"host_key_path"`
	IdleTimeoutMinutes int    `yaml:"idle_timeout_minutes"`
}

// LogConfig defines logging output.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Validate checks that the values are usable.
func (c Config) Validate() error {
	if c.Rules.Spawn4Prob < 0 || c.Rules.Spawn4Prob > 1 {
		return fmt.Errorf("config: spawn_four_probability %v out of range [0,1]", c.Rules.Spawn4Prob)
	}
	if c.Rules.ExtraSpawnProb < 0 || c.Rules.ExtraSpawnProb > 1 {
		return fmt.Errorf("config: extra_spawn_probability %v out of range [0,1]", c.Rules.ExtraSpawnProb)
	}
	if c.Rules.InitialTilesMin < 1 {
		return fmt.Errorf("config: initial_tiles_min must be at least 1, got %d", c.Rules.InitialTilesMin)
	}
	if c.Rules.InitialTilesMin > c.Rules.InitialTilesMax {
		return fmt.Errorf("config: initial_tiles_min %d exceeds initial_tiles_max %d",
			c.Rules.InitialTilesMin, c.Rules.InitialTilesMax)
	}
	if c.Leaderboard.Size < 1 {
		return fmt.Errorf("config: leaderboard size must be at least 1, got %d", c.Leaderboard.Size)
	}
	return nil
}
