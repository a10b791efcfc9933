package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // sqlite driver

	"github.com/cogbridge/cogbridge/internal/domain/model"
	"github.com/cogbridge/cogbridge/pkg/metrics"
)

//go:embed schema.sql
var schema string

const defaultReadLimit = 100

// SQLiteStore implements Store on a single SQLite file in WAL mode.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite store at path and applies the
// embedded schema.
func Open(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}
	dsn := filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=foreign_keys(ON)" +
		"&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenStore, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrOpenStore, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrApplySchema, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// SaveSnapshot inserts one metric snapshot.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap model.MetricSnapshot) error {
	start := time.Now()
	scores, err := json.Marshal(snap.Scores)
	if err != nil {
		return fmt.Errorf("%w: encode scores: %v", ErrWriteStore, err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO snapshots (
		   session_id, timestamp, window_start, window_end, event_count,
		   scores, memory_score, executive_score, language_score,
		   perception_score, cognitive_load
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.SessionID,
		toMillis(snap.Timestamp),
		toMillis(snap.WindowStart),
		toMillis(snap.WindowEnd),
		snap.EventCount,
		string(scores),
		snap.MemoryScore,
		snap.ExecutiveScore,
		snap.LanguageScore,
		snap.PerceptionScore,
		snap.CognitiveLoad,
	)
	if err != nil {
		metrics.RecordStoreWriteError()
		return fmt.Errorf("%w: snapshot: %v", ErrWriteStore, err)
	}
	metrics.RecordStoreWrite()
	metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	return nil
}

// RecentSnapshots returns up to limit snapshots, newest first.
func (s *SQLiteStore) RecentSnapshots(ctx context.Context, limit int) ([]model.MetricSnapshot, error) {
	if limit <= 0 {
		limit = defaultReadLimit
	}
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT session_id, timestamp, window_start, window_end, event_count,
		        scores, memory_score, executive_score, language_score,
		        perception_score, cognitive_load
		   FROM snapshots
		  ORDER BY timestamp DESC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: snapshots: %v", ErrReadStore, err)
	}
	defer rows.Close()

	snapshots := make([]model.MetricSnapshot, 0, limit)
	for rows.Next() {
		var snap model.MetricSnapshot
		var ts, windowStart, windowEnd int64
		var scores string
		if err := rows.Scan(
			&snap.SessionID, &ts, &windowStart, &windowEnd, &snap.EventCount,
			&scores, &snap.MemoryScore, &snap.ExecutiveScore, &snap.LanguageScore,
			&snap.PerceptionScore, &snap.CognitiveLoad,
		); err != nil {
			return nil, fmt.Errorf("%w: snapshots: %v", ErrReadStore, err)
		}
		snap.Timestamp = fromMillis(ts)
		snap.WindowStart = fromMillis(windowStart)
		snap.WindowEnd = fromMillis(windowEnd)
		if err := json.Unmarshal([]byte(scores), &snap.Scores); err != nil {
			return nil, fmt.Errorf("%w: decode scores: %v", ErrReadStore, err)
		}
		snapshots = append(snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: snapshots: %v", ErrReadStore, err)
	}
	return snapshots, nil
}

// SavePattern inserts one classified pattern.
func (s *SQLiteStore) SavePattern(ctx context.Context, p model.Pattern) error {
	start := time.Now()
	encoded, err := json.Marshal(p.Metrics)
	if err != nil {
		return fmt.Errorf("%w: encode metrics: %v", ErrWriteStore, err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO patterns (
		   id, scale, start_time, end_time, type, confidence, metrics
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		string(p.Scale),
		toMillis(p.StartTime),
		toMillis(p.EndTime),
		p.Type,
		p.Confidence,
		string(encoded),
	)
	if err != nil {
		metrics.RecordStoreWriteError()
		return fmt.Errorf("%w: pattern: %v", ErrWriteStore, err)
	}
	metrics.RecordStoreWrite()
	metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	return nil
}

// PatternsByScale returns up to limit patterns of one scale, newest
// first.
func (s *SQLiteStore) PatternsByScale(ctx context.Context, scale model.TimeScale, limit int) ([]model.Pattern, error) {
	if limit <= 0 {
		limit = defaultReadLimit
	}
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, scale, start_time, end_time, type, confidence, metrics
		   FROM patterns
		  WHERE scale = ?
		  ORDER BY start_time DESC
		  LIMIT ?`,
		string(scale),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: patterns: %v", ErrReadStore, err)
	}
	defer rows.Close()

	patterns := make([]model.Pattern, 0, limit)
	for rows.Next() {
		var p model.Pattern
		var scaleStr, encoded string
		var startTime, endTime int64
		if err := rows.Scan(&p.ID, &scaleStr, &startTime, &endTime, &p.Type, &p.Confidence, &encoded); err != nil {
			return nil, fmt.Errorf("%w: patterns: %v", ErrReadStore, err)
		}
		p.Scale = model.TimeScale(scaleStr)
		p.StartTime = fromMillis(startTime)
		p.EndTime = fromMillis(endTime)
		if err := json.Unmarshal([]byte(encoded), &p.Metrics); err != nil {
			return nil, fmt.Errorf("%w: decode metrics: %v", ErrReadStore, err)
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: patterns: %v", ErrReadStore, err)
	}
	return patterns, nil
}

// SaveResonance inserts one detected resonance.
func (s *SQLiteStore) SaveResonance(ctx context.Context, r model.Resonance) error {
	start := time.Now()
	types, err := json.Marshal(r.PatternTypes)
	if err != nil {
		return fmt.Errorf("%w: encode pattern types: %v", ErrWriteStore, err)
	}
	encoded, err := json.Marshal(r.Metrics)
	if err != nil {
		return fmt.Errorf("%w: encode metrics: %v", ErrWriteStore, err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO resonances (
		   id, type, strength, start_time, end_time, pattern_types, metrics
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		string(r.Type),
		r.Strength,
		toMillis(r.StartTime),
		toMillis(r.EndTime),
		string(types),
		string(encoded),
	)
	if err != nil {
		metrics.RecordStoreWriteError()
		return fmt.Errorf("%w: resonance: %v", ErrWriteStore, err)
	}
	metrics.RecordStoreWrite()
	metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	return nil
}

// RecentResonances returns up to limit resonances, newest first.
func (s *SQLiteStore) RecentResonances(ctx context.Context, limit int) ([]model.Resonance, error) {
	if limit <= 0 {
		limit = defaultReadLimit
	}
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, type, strength, start_time, end_time, pattern_types, metrics
		   FROM resonances
		  ORDER BY start_time DESC
		  LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: resonances: %v", ErrReadStore, err)
	}
	defer rows.Close()

	resonances := make([]model.Resonance, 0, limit)
	for rows.Next() {
		var r model.Resonance
		var typeStr, types, encoded string
		var startTime, endTime int64
		if err := rows.Scan(&r.ID, &typeStr, &r.Strength, &startTime, &endTime, &types, &encoded); err != nil {
			return nil, fmt.Errorf("%w: resonances: %v", ErrReadStore, err)
		}
		r.Type = model.ResonanceType(typeStr)
		r.StartTime = fromMillis(startTime)
		r.EndTime = fromMillis(endTime)
		if err := json.Unmarshal([]byte(types), &r.PatternTypes); err != nil {
			return nil, fmt.Errorf("%w: decode pattern types: %v", ErrReadStore, err)
		}
		if err := json.Unmarshal([]byte(encoded), &r.Metrics); err != nil {
			return nil, fmt.Errorf("%w: decode metrics: %v", ErrReadStore, err)
		}
		resonances = append(resonances, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: resonances: %v", ErrReadStore, err)
	}
	return resonances, nil
}

// Counts reports stored row counts per kind.
func (s *SQLiteStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	row := s.db.QueryRowContext(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM snapshots),
		   (SELECT COUNT(*) FROM patterns),
		   (SELECT COUNT(*) FROM resonances)`)
	if err := row.Scan(&c.Snapshots, &c.Patterns, &c.Resonances); err != nil {
		return Counts{}, fmt.Errorf("%w: counts: %v", ErrReadStore, err)
	}
	return c, nil
}

var _ Store = (*SQLiteStore)(nil)
