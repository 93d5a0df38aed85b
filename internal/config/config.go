// Package config loads the YAML configuration shared by the server and CLI
// commands. A missing file yields defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	ListenAddr string          `yaml:"listen_addr"`
	DBPath     string          `yaml:"db_path"`
	Benchmark  BenchmarkConfig `yaml:"benchmark"`
	Playback   PlaybackConfig  `yaml:"playback"`
}

// BenchmarkConfig controls server-side benchmark batches.
type BenchmarkConfig struct {
	NumGames  int   `yaml:"num_games"`
	StartSeed int64 `yaml:"start_seed"`
	MaxFrames int   `yaml:"max_frames"`
	Workers   int   `yaml:"workers"`
}

// PlaybackConfig controls live playback pacing.
type PlaybackConfig struct {
	TickMs int `yaml:"tick_ms"`
}

func defaults() Config {
	return Config{
		ListenAddr: ":8080",
		DBPath:     "arena.db",
		Benchmark: BenchmarkConfig{
			NumGames:  10,
			StartSeed: 1,
			MaxFrames: 1000,
			Workers:   0, // GOMAXPROCS
		},
		Playback: PlaybackConfig{
			TickMs: 100,
		},
	}
}

// Load reads the config at path, applying defaults for absent fields. An
// empty path returns pure defaults.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	d := defaults()
	if strings.TrimSpace(c.ListenAddr) == "" {
		c.ListenAddr = d.ListenAddr
	}
	if strings.TrimSpace(c.DBPath) == "" {
		c.DBPath = d.DBPath
	}
	if c.Benchmark.NumGames <= 0 {
		c.Benchmark.NumGames = d.Benchmark.NumGames
	}
	if c.Benchmark.StartSeed <= 0 {
		c.Benchmark.StartSeed = d.Benchmark.StartSeed
	}
	if c.Benchmark.MaxFrames <= 0 {
		c.Benchmark.MaxFrames = d.Benchmark.MaxFrames
	}
	if c.Benchmark.Workers < 0 {
		c.Benchmark.Workers = 0
	}
	if c.Playback.TickMs <= 0 {
		c.Playback.TickMs = d.Playback.TickMs
	}
}
