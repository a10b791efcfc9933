package extract

import (
	"math"

	"github.com/cogbridge/cogbridge/internal/domain/model"
)

// Executive metric key names.
const (
	KeyTaskSwitchingFrequency = "task_switching_frequency"
	KeyMultitaskingScore      = "multitasking_score"
)

// Normalization constants for the executive domain.
const (
	maxParallelWindows   = 5.0  // distinct windows considered full multitasking
	maxSwitchesPerMinute = 10.0 // switch rate considered fully fragmented
)

// Executive scores the executive-function domain from window switching:
// a moderate number of parallel windows raises the score, a high switch
// rate lowers it.
func Executive(events []model.RawEvent) map[string]float64 {
	metrics := map[string]float64{
		KeyTaskSwitchingFrequency: 0,
		KeyMultitaskingScore:      0,
		KeyExecutiveScore:         0,
	}

	var switches []model.RawEvent
	for _, e := range events {
		if e.Type == model.EventWindowSwitch {
			switches = append(switches, e)
		}
	}
	if len(switches) > 1 {
		span := switches[len(switches)-1].Timestamp.Sub(switches[0].Timestamp).Seconds()
		if span > 0 {
			metrics[KeyTaskSwitchingFrequency] = float64(len(switches)) / (span / 60)
		}
	}

	parallel := make(map[string]struct{})
	for _, e := range events {
		if e.Window.Title != "" {
			parallel[e.Window.Title] = struct{}{}
		}
	}
	metrics[KeyMultitaskingScore] = math.Min(float64(len(parallel))/maxParallelWindows, 1)

	metrics[KeyExecutiveScore] = (metrics[KeyMultitaskingScore] +
		(1 - math.Min(metrics[KeyTaskSwitchingFrequency]/maxSwitchesPerMinute, 1))) / 2
	return metrics
}
