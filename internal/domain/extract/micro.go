package extract

import (
	"github.com/cogbridge/cogbridge/internal/domain/model"
	"github.com/cogbridge/cogbridge/internal/domain/stat"
)

// pauseThresholdSeconds is the gap between keystrokes treated as a pause.
const pauseThresholdSeconds = 1.0

// Typing computes short-window keyboard metrics: characters per second,
// correction rate and the fraction of the window spent in pauses.
func Typing(events []model.RawEvent) map[string]float64 {
	metrics := map[string]float64{
		KeyTypingSpeed: 0,
		KeyErrorRate:   0,
		KeyPauseRatio:  0,
	}
	if len(events) == 0 {
		return metrics
	}

	duration := events[len(events)-1].Timestamp.Sub(events[0].Timestamp).Seconds()

	var chars float64
	for _, e := range events {
		if e.KeyAction == model.KeyDown {
			chars++
		}
	}
	if duration > 0 {
		metrics[KeyTypingSpeed] = chars / duration
	}

	var errors float64
	for _, e := range events {
		if e.Key == keyBackspace || e.Key == keyDelete {
			errors++
		}
	}
	if chars > 0 {
		metrics[KeyErrorRate] = errors / chars
	}

	var paused float64
	for i := 1; i < len(events); i++ {
		if gap := events[i].Timestamp.Sub(events[i-1].Timestamp).Seconds(); gap > pauseThresholdSeconds {
			paused += gap
		}
	}
	if duration > 0 {
		metrics[KeyPauseRatio] = paused / duration
	}
	return metrics
}

// Focus computes short-window attention metrics from mouse and
// window-switch events: the number of focus changes and the mean time
// spent on a window between changes.
func Focus(events []model.RawEvent) map[string]float64 {
	metrics := map[string]float64{
		KeyFocusSwitches:    0,
		KeyAvgFocusDuration: 0,
	}
	if len(events) == 0 {
		return metrics
	}

	var switchIdx []int
	for i := 1; i < len(events); i++ {
		if events[i].Window.Title != events[i-1].Window.Title {
			switchIdx = append(switchIdx, i)
		}
	}

	durations := make([]float64, 0, len(switchIdx)+1)
	last := 0
	for _, idx := range append(switchIdx, len(events)-1) {
		durations = append(durations, events[idx].Timestamp.Sub(events[last].Timestamp).Seconds())
		last = idx
	}

	metrics[KeyFocusSwitches] = float64(len(switchIdx))
	metrics[KeyAvgFocusDuration] = stat.Mean(durations)
	return metrics
}
