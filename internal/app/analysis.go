package service

import (
	"context"
	"time"

	"github.com/cogbridge/cogbridge/internal/domain/extract"
	"github.com/cogbridge/cogbridge/internal/domain/model"
	"github.com/cogbridge/cogbridge/internal/domain/pattern"
	"github.com/cogbridge/cogbridge/internal/domain/types"
	"github.com/cogbridge/cogbridge/pkg/logger"
	"github.com/cogbridge/cogbridge/pkg/metrics"
)

// Pattern retention horizons per scale.
const (
	microRetention = 30 * time.Minute
	mesoRetention  = 6 * time.Hour
	macroRetention = 7 * 24 * time.Hour
)

const (
	// maxConsecutiveErrors stops an analysis loop for good. Isolated
	// persistence failures are logged and absorbed; a run of them means
	// the store is gone and analysis output has nowhere to land.
	maxConsecutiveErrors = 3

	// resonanceDepth is how many trailing micro patterns feed detection.
	resonanceDepth = 10

	// resonanceKeep bounds the in-memory resonance history.
	resonanceKeep = 50

	// Broadcast payload bounds.
	broadcastPatterns   = 15
	broadcastResonances = 10
)

// liveUpdate is the frame pushed to dashboard sockets.
type liveUpdate struct {
	Snapshot   *types.Snapshot   `json:"snapshot,omitempty"`
	Patterns   []types.Pattern   `json:"patterns,omitempty"`
	Resonances []types.Resonance `json:"resonances,omitempty"`
}

// runLoops launches the analysis tickers. Callers hold s.mu.
func (s *Service) runLoops(ctx context.Context) {
	s.wg.Add(4)
	go s.loop(ctx, "micro", s.microInterval, s.microTick)
	go s.loop(ctx, "meso", s.mesoInterval, s.mesoTick)
	go s.loop(ctx, "macro", s.macroInterval, s.macroTick)
	go s.broadcastLoop(ctx)
}

// loop drives one analysis cadence. Tick errors are logged and tolerated
// until maxConsecutiveErrors in a row, which stops the whole service.
func (s *Service) loop(ctx context.Context, name string, interval time.Duration, tick func(context.Context) error) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	consecutive := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := tick(ctx); err != nil {
				consecutive++
				metrics.RecordErrorByComponent("analysis", name)
				s.logger.Error(ctx, "analysis tick failed",
					logger.String("loop", name),
					logger.Int("consecutive", consecutive),
					logger.Error(err),
				)
				if consecutive >= maxConsecutiveErrors {
					s.logger.Error(ctx, "analysis loop giving up, stopping service",
						logger.String("loop", name),
					)
					go s.Stop()
					return
				}
				continue
			}
			consecutive = 0
		}
	}
}

// microTick computes a metric snapshot over the trailing event window,
// classifies micro patterns from events not yet analyzed, and runs
// resonance detection over the trailing pattern sequence.
func (s *Service) microTick(ctx context.Context) error {
	now := time.Now()
	events := s.window.Recent(s.snapshotWindow)
	if len(events) == 0 {
		return nil
	}

	extractStart := time.Now()
	snap := extract.Snapshot(s.sessionID, events, now.Add(-s.snapshotWindow), now)
	metrics.RecordExtractLatency(float64(time.Since(extractStart).Milliseconds()))
	metrics.RecordSnapshotComputed()
	metrics.UpdateCognitiveLoad(snap.CognitiveLoad)

	s.mu.Lock()
	s.lastSnapshot = &snap
	mark := s.microMark
	s.mu.Unlock()

	// Classify only events newer than the last analyzed timestamp so a
	// burst is patterned exactly once as the window slides.
	fresh := make([]model.RawEvent, 0, len(events))
	maxTS := mark
	for _, e := range events {
		if e.Timestamp.After(mark) {
			fresh = append(fresh, e)
			if e.Timestamp.After(maxTS) {
				maxTS = e.Timestamp
			}
		}
	}

	newPatterns := pattern.Micro(fresh)
	for i := range newPatterns {
		newPatterns[i].Metrics[extract.KeyCognitiveLoad] = snap.CognitiveLoad
		metrics.RecordPatternClassified(newPatterns[i].Type, string(newPatterns[i].Scale))
	}

	s.mu.Lock()
	s.microMark = maxTS
	s.microPatterns = append(s.microPatterns, newPatterns...)
	s.microPatterns = prunePatterns(s.microPatterns, now.Add(-microRetention))
	s.pendingMeso = append(s.pendingMeso, newPatterns...)
	trailing := tailPatterns(s.microPatterns, resonanceDepth)
	s.mu.Unlock()

	var firstErr error
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		s.logger.Error(ctx, "failed to persist snapshot", logger.Error(err))
		firstErr = err
	}
	for _, p := range newPatterns {
		if err := s.store.SavePattern(ctx, p); err != nil {
			s.logger.Error(ctx, "failed to persist pattern",
				logger.String("patternID", p.ID),
				logger.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if len(newPatterns) > 0 {
		if res, ok := s.analyzer.Detect(trailing); ok {
			metrics.RecordResonanceDetected(string(res.Type))
			s.logger.Info(ctx, "resonance detected",
				logger.String("type", string(res.Type)),
				logger.Float64("strength", res.Strength),
			)
			s.mu.Lock()
			s.resonances = append(s.resonances, res)
			if len(s.resonances) > resonanceKeep {
				s.resonances = s.resonances[len(s.resonances)-resonanceKeep:]
			}
			s.mu.Unlock()
			if err := s.store.SaveResonance(ctx, res); err != nil {
				s.logger.Error(ctx, "failed to persist resonance", logger.Error(err))
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}

	return firstErr
}

// mesoTick folds micro patterns accumulated since the last tick into
// meso scale patterns.
func (s *Service) mesoTick(ctx context.Context) error {
	now := time.Now()

	s.mu.Lock()
	pending := s.pendingMeso
	s.pendingMeso = nil
	s.mesoPatterns = prunePatterns(s.mesoPatterns, now.Add(-mesoRetention))
	s.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	meso := pattern.Meso(pending)
	for _, p := range meso {
		metrics.RecordPatternClassified(p.Type, string(p.Scale))
	}

	s.mu.Lock()
	s.mesoPatterns = append(s.mesoPatterns, meso...)
	s.pendingMacro = append(s.pendingMacro, meso...)
	s.mu.Unlock()

	return s.savePatterns(ctx, meso)
}

// macroTick folds meso patterns accumulated since the last tick into
// macro scale patterns and prunes the stale end of in-memory state.
func (s *Service) macroTick(ctx context.Context) error {
	now := time.Now()
	s.window.Prune()

	s.mu.Lock()
	pending := s.pendingMacro
	s.pendingMacro = nil
	s.macroPatterns = prunePatterns(s.macroPatterns, now.Add(-macroRetention))
	s.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	macro := pattern.Macro(pending)
	for _, p := range macro {
		metrics.RecordPatternClassified(p.Type, string(p.Scale))
	}

	s.mu.Lock()
	s.macroPatterns = append(s.macroPatterns, macro...)
	s.mu.Unlock()

	return s.savePatterns(ctx, macro)
}

func (s *Service) savePatterns(ctx context.Context, patterns []model.Pattern) error {
	var firstErr error
	for _, p := range patterns {
		if err := s.store.SavePattern(ctx, p); err != nil {
			s.logger.Error(ctx, "failed to persist pattern",
				logger.String("patternID", p.ID),
				logger.String("scale", string(p.Scale)),
				logger.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// broadcastLoop pushes the current analysis state to dashboard sockets.
func (s *Service) broadcastLoop(ctx context.Context) {
	defer s.wg.Done()

	if s.broadcaster == nil {
		return
	}

	ticker := time.NewTicker(s.broadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if update, ok := s.buildUpdate(); ok {
				s.broadcaster.Broadcast(update)
			}
		}
	}
}

func (s *Service) buildUpdate() (liveUpdate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastSnapshot == nil {
		return liveUpdate{}, false
	}

	snap := snapshotView(*s.lastSnapshot)
	update := liveUpdate{Snapshot: &snap}

	for _, p := range tailPatterns(s.microPatterns, broadcastPatterns) {
		update.Patterns = append(update.Patterns, patternView(p))
	}
	start := 0
	if len(s.resonances) > broadcastResonances {
		start = len(s.resonances) - broadcastResonances
	}
	for _, r := range s.resonances[start:] {
		update.Resonances = append(update.Resonances, resonanceView(r))
	}

	return update, true
}

// prunePatterns drops patterns whose window ended before cutoff.
func prunePatterns(patterns []model.Pattern, cutoff time.Time) []model.Pattern {
	kept := patterns[:0]
	for _, p := range patterns {
		if p.EndTime.After(cutoff) {
			kept = append(kept, p)
		}
	}
	return kept
}

// tailPatterns copies the last n patterns.
func tailPatterns(patterns []model.Pattern, n int) []model.Pattern {
	if len(patterns) > n {
		patterns = patterns[len(patterns)-n:]
	}
	out := make([]model.Pattern, len(patterns))
	copy(out, patterns)
	return out
}
