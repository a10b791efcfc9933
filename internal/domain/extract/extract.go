// Package extract computes named metric scores from windows of raw
// interaction events. Extractors are pure functions: same events in,
// same scores out, no shared state.
package extract

import (
	"time"

	"github.com/cogbridge/cogbridge/internal/domain/model"
)

// Metric key names shared with the pattern and resonance layers.
const (
	KeyMemoryScore     = "memory_score"
	KeyExecutiveScore  = "executive_score"
	KeyLanguageScore   = "language_score"
	KeyPerceptionScore = "perception_score"
	KeyCognitiveLoad   = "cognitive_load"

	KeyTypingSpeed      = "typing_speed"
	KeyErrorRate        = "error_rate"
	KeyPauseRatio       = "pause_ratio"
	KeyFocusSwitches    = "focus_switches"
	KeyAvgFocusDuration = "avg_focus_duration"
)

// Snapshot computes the full metric snapshot for a window of events.
// Empty input yields a snapshot with zeroed scores and all keys present.
func Snapshot(sessionID string, events []model.RawEvent, start, end time.Time) model.MetricSnapshot {
	mem := Memory(events)
	exe := Executive(events)
	lang := Language(events)
	perc := Perception(events)

	scores := make(map[string]float64, len(mem)+len(exe)+len(lang)+len(perc)+1)
	for _, m := range []map[string]float64{mem, exe, lang, perc} {
		for k, v := range m {
			scores[k] = v
		}
	}

	// Overall load is the mean of the four domain scores.
	load := (mem[KeyMemoryScore] + exe[KeyExecutiveScore] +
		lang[KeyLanguageScore] + perc[KeyPerceptionScore]) / 4
	scores[KeyCognitiveLoad] = load

	return model.MetricSnapshot{
		SessionID:       sessionID,
		Timestamp:       time.Now().UTC(),
		WindowStart:     start,
		WindowEnd:       end,
		EventCount:      len(events),
		Scores:          scores,
		MemoryScore:     mem[KeyMemoryScore],
		ExecutiveScore:  exe[KeyExecutiveScore],
		LanguageScore:   lang[KeyLanguageScore],
		PerceptionScore: perc[KeyPerceptionScore],
		CognitiveLoad:   load,
	}
}

// Micro computes the short-window metrics used by the micro pattern
// classifier: typing speed, error rate, pause ratio, focus switches and
// average focus duration.
func Micro(events []model.RawEvent) map[string]float64 {
	var typing, focus []model.RawEvent
	for _, e := range events {
		switch e.Type {
		case model.EventKeyboard:
			typing = append(typing, e)
		case model.EventMouse, model.EventWindowSwitch:
			focus = append(focus, e)
		}
	}

	out := Typing(typing)
	for k, v := range Focus(focus) {
		out[k] = v
	}
	return out
}
