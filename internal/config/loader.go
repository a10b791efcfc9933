package config

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if COGBRIDGE_CONFIG is set
//  3. env (prefix COGBRIDGE_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("COGBRIDGE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: COGBRIDGE_ADDR, COGBRIDGE_QUEUE_SIZE, ...
	// Map env keys like COGBRIDGE_QUEUE_SIZE -> queue_size (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("COGBRIDGE_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "cogbridge_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	// Basic validation
	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.EventLogDir == "" {
		return nil, errors.New("event_log_dir must not be empty")
	}
	if cfg.FlushThreshold < 1 {
		return nil, errors.New("flush_threshold must be positive")
	}
	if cfg.SnapshotWindowS < 1 {
		return nil, errors.New("snapshot_window_s must be positive")
	}
	if cfg.ResonanceThreshold < 0 || cfg.ResonanceThreshold > 1 {
		return nil, errors.New("resonance_threshold must be in [0,1]")
	}
	return &cfg, nil
}
