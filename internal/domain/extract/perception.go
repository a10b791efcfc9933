package extract

import (
	"math"

	"github.com/cogbridge/cogbridge/internal/domain/model"
	"github.com/cogbridge/cogbridge/internal/domain/stat"
)

// Perception metric key names.
const (
	KeyMousePrecision     = "mouse_precision"
	KeyClickAccuracy      = "click_accuracy"
	KeyMovementSmoothness = "movement_smoothness"
)

// Normalization constants for the perception domain.
const (
	precisionStdDevScale = 100.0 // px stddev of move distances considered fully imprecise
	smoothnessMaxScale   = 500.0 // px single jump considered fully jerky
	misclickRadius       = 20.0  // px from recent moves beyond which a click is a misclick
	recentMoveCount      = 5     // moves a click is compared against
)

// Perception scores the perception/action domain from mouse movement
// regularity and click placement relative to recent movement.
func Perception(events []model.RawEvent) map[string]float64 {
	metrics := map[string]float64{
		KeyMousePrecision:     0,
		KeyClickAccuracy:      0,
		KeyMovementSmoothness: 0,
		KeyPerceptionScore:    0,
	}

	var moves, clicks []model.RawEvent
	for _, e := range events {
		if e.Type != model.EventMouse {
			continue
		}
		switch e.MouseAction {
		case model.MouseMove:
			moves = append(moves, e)
		case model.MouseClick:
			clicks = append(clicks, e)
		}
	}

	if len(moves) > 1 {
		distances := make([]float64, 0, len(moves)-1)
		for i := 1; i < len(moves); i++ {
			distances = append(distances, math.Hypot(moves[i].X-moves[i-1].X, moves[i].Y-moves[i-1].Y))
		}
		metrics[KeyMousePrecision] = 1 - math.Min(stat.StdDev(distances)/precisionStdDevScale, 1)
		metrics[KeyMovementSmoothness] = 1 - math.Min(stat.Max(distances)/smoothnessMaxScale, 1)
	}

	if len(clicks) > 0 && len(moves) > 0 {
		recent := moves
		if len(recent) > recentMoveCount {
			recent = recent[len(recent)-recentMoveCount:]
		}
		var misclicks float64
		for _, c := range clicks {
			miss := true
			for _, m := range recent {
				if math.Hypot(c.X-m.X, c.Y-m.Y) <= misclickRadius {
					miss = false
					break
				}
			}
			if miss {
				misclicks++
			}
		}
		metrics[KeyClickAccuracy] = 1 - misclicks/float64(len(clicks))
	}

	metrics[KeyPerceptionScore] = (metrics[KeyMousePrecision] +
		metrics[KeyClickAccuracy] +
		metrics[KeyMovementSmoothness]) / 3
	return metrics
}
