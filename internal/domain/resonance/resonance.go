// Package resonance detects higher-order structure in sequences of
// classified patterns: sustained learning, insight, integration or
// innovation episodes.
package resonance

import (
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/cogbridge/cogbridge/internal/domain/extract"
	"github.com/cogbridge/cogbridge/internal/domain/model"
	"github.com/cogbridge/cogbridge/internal/domain/stat"
)

// Resonance metric key names.
const (
	KeyLoadTrend          = "load_trend"
	KeyFocusStability     = "focus_stability"
	KeyPatternCoherence   = "pattern_coherence"
	KeyRhythmRegularity   = "rhythm_regularity"
	KeyEmergencePotential = "emergence_potential"
)

// Emergence factor weights.
const (
	weightDiversity  = 0.3
	weightComplexity = 0.2
	weightStability  = 0.2
	weightNovelty    = 0.3
)

const (
	defaultThreshold = 0.6
	historyDepth     = 10
	minPatterns      = 2
)

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithThreshold sets the minimum strength at which a resonance is
// emitted. Values outside (0, 1] are ignored.
func WithThreshold(threshold float64) Option {
	return func(a *Analyzer) {
		if threshold > 0 && threshold <= 1 {
			a.threshold = threshold
		}
	}
}

// Analyzer detects resonances and remembers recent ones so novelty can
// be judged against them. Safe for concurrent use.
type Analyzer struct {
	mu        sync.Mutex
	threshold float64
	history   [][]string // pattern type sequences of recent resonances
}

// NewAnalyzer creates an Analyzer with the default emission threshold.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{threshold: defaultThreshold}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Detect analyzes a pattern sequence and returns a resonance when the
// classified strength clears the threshold. Fewer than two patterns
// never resonate. Input order does not matter; patterns are sorted by
// start time before analysis.
func (a *Analyzer) Detect(patterns []model.Pattern) (model.Resonance, bool) {
	if len(patterns) < minPatterns {
		return model.Resonance{}, false
	}

	sorted := make([]model.Pattern, len(patterns))
	copy(sorted, patterns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	a.mu.Lock()
	defer a.mu.Unlock()

	metrics := a.resonanceMetrics(sorted)
	resType, strength := classify(metrics)
	if strength <= a.threshold {
		return model.Resonance{}, false
	}

	types := patternTypes(sorted)
	a.history = append(a.history, types)
	if len(a.history) > historyDepth {
		a.history = a.history[len(a.history)-historyDepth:]
	}

	return model.Resonance{
		ID:           uuid.New().String(),
		Type:         resType,
		Strength:     strength,
		StartTime:    sorted[0].StartTime,
		EndTime:      sorted[len(sorted)-1].EndTime,
		PatternTypes: types,
		Metrics:      metrics,
	}, true
}

func (a *Analyzer) resonanceMetrics(patterns []model.Pattern) map[string]float64 {
	metrics := make(map[string]float64, 5)

	times := make([]float64, len(patterns))
	loads := make([]float64, len(patterns))
	focus := make([]float64, len(patterns))
	for i, p := range patterns {
		times[i] = p.StartTime.Sub(patterns[0].StartTime).Seconds()
		loads[i] = p.Metrics[extract.KeyCognitiveLoad]
		focus[i] = p.Metrics[extract.KeyAvgFocusDuration]
	}

	metrics[KeyLoadTrend] = stat.Slope(times, loads)
	metrics[KeyFocusStability] = stat.StdDev(focus)

	types := patternTypes(patterns)
	metrics[KeyPatternCoherence] = float64(uniqueCount(types)) / float64(len(types))

	intervals := make([]float64, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		intervals = append(intervals, times[i]-times[i-1])
	}
	if len(intervals) > 0 {
		metrics[KeyRhythmRegularity] = 1 / (1 + stat.StdDev(intervals))
	} else {
		metrics[KeyRhythmRegularity] = 0
	}

	metrics[KeyEmergencePotential] = weightDiversity*metrics[KeyPatternCoherence] +
		weightComplexity*transitionComplexity(types) +
		weightStability*metricStability(patterns) +
		weightNovelty*a.novelty(types)
	return metrics
}

// transitionComplexity is the normalized entropy of transitions between
// consecutive pattern types.
func transitionComplexity(types []string) float64 {
	if len(types) < 2 {
		return 0
	}
	transitions := make(map[[2]string]int)
	for i := 0; i < len(types)-1; i++ {
		transitions[[2]string{types[i], types[i+1]}]++
	}
	total := float64(len(types) - 1)
	var entropy float64
	for _, count := range transitions {
		p := float64(count) / total
		entropy -= p * math.Log2(p)
	}
	maxEntropy := math.Log2(float64(len(transitions)))
	if maxEntropy == 0 {
		return 0
	}
	return entropy / maxEntropy
}

// metricStability averages the inverse dispersion of the core typing
// metrics across the sequence.
func metricStability(patterns []model.Pattern) float64 {
	keys := []string{extract.KeyTypingSpeed, extract.KeyErrorRate, extract.KeyFocusSwitches}
	stabilities := make([]float64, 0, len(keys))
	for _, key := range keys {
		values := make([]float64, len(patterns))
		for i, p := range patterns {
			values[i] = p.Metrics[key]
		}
		stabilities = append(stabilities, 1/(1+stat.StdDev(values)))
	}
	return stat.Mean(stabilities)
}

// novelty is the inverse of the maximum similarity between the current
// type sequence and recent resonance history. No history means maximal
// novelty. Caller holds a.mu.
func (a *Analyzer) novelty(types []string) float64 {
	if len(a.history) == 0 {
		return 1
	}
	var maxSim float64
	for _, past := range a.history {
		if sim := sequenceSimilarity(types, past); sim > maxSim {
			maxSim = sim
		}
	}
	return 1 - maxSim
}

// sequenceSimilarity maps Levenshtein distance between type sequences
// onto [0, 1], where 1 is identical.
func sequenceSimilarity(a, b []string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(maxLen)
}

func levenshtein(a, b []string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func patternTypes(patterns []model.Pattern) []string {
	types := make([]string, len(patterns))
	for i, p := range patterns {
		types[i] = p.Type
	}
	return types
}

func uniqueCount(types []string) int {
	seen := make(map[string]struct{}, len(types))
	for _, t := range types {
		seen[t] = struct{}{}
	}
	return len(seen)
}
