package config

import (
	_ "embed"
)

//go:embed defaults/t2048.yaml
var defaultYAML []byte

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Rules: RulesConfig{
			Spawn4Prob:      0.10,
			ExtraSpawnProb:  0.25,
			InitialTilesMin: 2,
			InitialTilesMax: 3,
		},
		Undo: UndoConfig{
			SnapshotEveryAttempt: false,
			AllowAfterGameOver:   false,
		},
		Leaderboard: LeaderboardConfig{
			Size:        10,
			DefaultName: "Player",
		},
		Storage: StorageConfig{
			DBPath: "~/.t2048/t2048.db",
		},
		Server: ServerConfig{
			SSHAddr:            ":23234",
			HTTPAddr:           ":8048",
			IdleTimeoutMinutes: 30,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
