// Package pattern classifies windows of activity metrics into named
// behavioral patterns across three time scales.
package pattern

import (
	"time"

	"github.com/google/uuid"

	"github.com/cogbridge/cogbridge/internal/domain/extract"
	"github.com/cogbridge/cogbridge/internal/domain/model"
)

// Grouping windows per scale.
const (
	microWindow = time.Minute
	mesoWindow  = time.Hour
	macroWindow = 24 * time.Hour
)

// Pattern type names.
const (
	TypeFlowState      = "flow_state"
	TypeLearningMoment = "learning_moment"
	TypeConfusionState = "confusion_state"
)

// criterion is a single metric predicate and the confidence it
// contributes when matched.
type criterion struct {
	match  func(float64) bool
	weight float64
}

// rule is a named pattern with its weighted criteria. Rules are kept
// sorted by name so classification is deterministic.
type rule struct {
	name     string
	criteria map[string]criterion
}

// rules holds the micro classification table, name-ascending.
var rules = []rule{
	{
		name: TypeConfusionState,
		criteria: map[string]criterion{
			extract.KeyTypingSpeed:   {func(x float64) bool { return x < 0.5 }, 0.2},
			extract.KeyErrorRate:     {func(x float64) bool { return x > 0.3 }, 0.3},
			extract.KeyPauseRatio:    {func(x float64) bool { return x > 0.4 }, 0.2},
			extract.KeyFocusSwitches: {func(x float64) bool { return x > 5 }, 0.3},
		},
	},
	{
		name: TypeFlowState,
		criteria: map[string]criterion{
			extract.KeyTypingSpeed:   {func(x float64) bool { return x > 2.0 }, 0.3},
			extract.KeyErrorRate:     {func(x float64) bool { return x < 0.1 }, 0.2},
			extract.KeyPauseRatio:    {func(x float64) bool { return x < 0.2 }, 0.2},
			extract.KeyFocusSwitches: {func(x float64) bool { return x < 2 }, 0.3},
		},
	},
	{
		name: TypeLearningMoment,
		criteria: map[string]criterion{
			extract.KeyTypingSpeed:   {func(x float64) bool { return x > 0.5 && x < 2.0 }, 0.2},
			extract.KeyErrorRate:     {func(x float64) bool { return x > 0.1 && x < 0.3 }, 0.3},
			extract.KeyPauseRatio:    {func(x float64) bool { return x > 0.2 && x < 0.4 }, 0.3},
			extract.KeyFocusSwitches: {func(x float64) bool { return x > 2 && x < 5 }, 0.2},
		},
	},
}

// Classify scores every rule against the metrics and returns the
// best-matching pattern name with the summed weight of its matched
// criteria as confidence. Ties go to the lexically smaller name.
func Classify(metrics map[string]float64) (string, float64) {
	bestName := rules[0].name
	bestConfidence := 0.0
	for i, r := range rules {
		var confidence float64
		for key, c := range r.criteria {
			if v, ok := metrics[key]; ok && c.match(v) {
				confidence += c.weight
			}
		}
		if i == 0 || confidence > bestConfidence {
			bestName = r.name
			bestConfidence = confidence
		}
	}
	return bestName, bestConfidence
}

// Micro groups raw events into windows split on gaps longer than one
// minute and classifies each window. Empty input yields no patterns.
func Micro(events []model.RawEvent) []model.Pattern {
	var patterns []model.Pattern
	var window []model.RawEvent
	var last time.Time

	flush := func() {
		if p, ok := microPattern(window); ok {
			patterns = append(patterns, p)
		}
		window = window[:0]
	}
	for _, e := range events {
		if !last.IsZero() && e.Timestamp.Sub(last) > microWindow {
			flush()
		}
		window = append(window, e)
		last = e.Timestamp
	}
	flush()
	return patterns
}

func microPattern(events []model.RawEvent) (model.Pattern, bool) {
	if len(events) == 0 {
		return model.Pattern{}, false
	}
	start, end := events[0].Timestamp, events[0].Timestamp
	for _, e := range events[1:] {
		if e.Timestamp.Before(start) {
			start = e.Timestamp
		}
		if e.Timestamp.After(end) {
			end = e.Timestamp
		}
	}

	metrics := extract.Micro(events)
	name, confidence := Classify(metrics)
	return model.Pattern{
		ID:         uuid.New().String(),
		Scale:      model.ScaleMicro,
		StartTime:  start,
		EndTime:    end,
		Type:       name,
		Confidence: confidence,
		Metrics:    metrics,
	}, true
}

// Meso groups micro patterns into hour-scale windows and classifies
// each window over the mean of its children's metrics.
func Meso(micro []model.Pattern) []model.Pattern {
	return regroup(micro, mesoWindow, model.ScaleMeso)
}

// Macro groups meso patterns into day-scale windows.
func Macro(meso []model.Pattern) []model.Pattern {
	return regroup(meso, macroWindow, model.ScaleMacro)
}

func regroup(children []model.Pattern, window time.Duration, scale model.TimeScale) []model.Pattern {
	var patterns []model.Pattern
	var group []model.Pattern

	flush := func() {
		if p, ok := aggregate(group, scale); ok {
			patterns = append(patterns, p)
		}
		group = group[:0]
	}
	for _, child := range children {
		if len(group) > 0 && child.StartTime.Sub(group[len(group)-1].StartTime) > window {
			flush()
		}
		group = append(group, child)
	}
	flush()
	return patterns
}

// aggregate averages the children's metrics and reclassifies the result.
// Averaged metrics keep their per-second units, so the micro rule table
// applies unchanged.
func aggregate(children []model.Pattern, scale model.TimeScale) (model.Pattern, bool) {
	if len(children) == 0 {
		return model.Pattern{}, false
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	start, end := children[0].StartTime, children[0].EndTime
	for _, c := range children {
		for k, v := range c.Metrics {
			sums[k] += v
			counts[k]++
		}
		if c.StartTime.Before(start) {
			start = c.StartTime
		}
		if c.EndTime.After(end) {
			end = c.EndTime
		}
	}
	metrics := make(map[string]float64, len(sums))
	for k, sum := range sums {
		metrics[k] = sum / float64(counts[k])
	}

	name, confidence := Classify(metrics)
	return model.Pattern{
		ID:         uuid.New().String(),
		Scale:      scale,
		StartTime:  start,
		EndTime:    end,
		Type:       name,
		Confidence: confidence,
		Metrics:    metrics,
	}, true
}
