// Package repository persists snapshots, patterns and resonances in
// SQLite so the dashboard survives restarts.
package repository

import (
	"context"

	"github.com/cogbridge/cogbridge/internal/domain/model"
)

// Counts summarizes stored row counts per kind.
type Counts struct {
	Snapshots  int64 `json:"snapshots"`
	Patterns   int64 `json:"patterns"`
	Resonances int64 `json:"resonances"`
}

// Store is the persistence contract for analysis results. Writes are
// advisory telemetry: callers log failures and move on.
type Store interface {
	SaveSnapshot(ctx context.Context, s model.MetricSnapshot) error
	RecentSnapshots(ctx context.Context, limit int) ([]model.MetricSnapshot, error)

	SavePattern(ctx context.Context, p model.Pattern) error
	PatternsByScale(ctx context.Context, scale model.TimeScale, limit int) ([]model.Pattern, error)

	SaveResonance(ctx context.Context, r model.Resonance) error
	RecentResonances(ctx context.Context, limit int) ([]model.Resonance, error)

	Counts(ctx context.Context) (Counts, error)

	Close() error
}
