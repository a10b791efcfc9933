package pattern_test

import (
	"testing"
	"time"

	"github.com/cogbridge/cogbridge/internal/domain/extract"
	"github.com/cogbridge/cogbridge/internal/domain/model"
	"github.com/cogbridge/cogbridge/internal/domain/pattern"
	"github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	convey.Convey("Given the micro pattern classifier", t, func() {
		convey.Convey("When metrics show fast, clean, focused typing", func() {
			name, confidence := pattern.Classify(map[string]float64{
				extract.KeyTypingSpeed:   3.0,
				extract.KeyErrorRate:     0.05,
				extract.KeyPauseRatio:    0.1,
				extract.KeyFocusSwitches: 0,
			})

			convey.Convey("Then flow state matches with full confidence", func() {
				convey.So(name, convey.ShouldEqual, pattern.TypeFlowState)
				convey.So(confidence, convey.ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		convey.Convey("When metrics show moderate speed with frequent corrections", func() {
			name, confidence := pattern.Classify(map[string]float64{
				extract.KeyTypingSpeed:   1.0,
				extract.KeyErrorRate:     0.2,
				extract.KeyPauseRatio:    0.3,
				extract.KeyFocusSwitches: 3,
			})

			convey.Convey("Then a learning moment is detected", func() {
				convey.So(name, convey.ShouldEqual, pattern.TypeLearningMoment)
				convey.So(confidence, convey.ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		convey.Convey("When metrics show stalling and heavy switching", func() {
			name, confidence := pattern.Classify(map[string]float64{
				extract.KeyTypingSpeed:   0.1,
				extract.KeyErrorRate:     0.5,
				extract.KeyPauseRatio:    0.6,
				extract.KeyFocusSwitches: 8,
			})

			convey.Convey("Then a confusion state is detected", func() {
				convey.So(name, convey.ShouldEqual, pattern.TypeConfusionState)
				convey.So(confidence, convey.ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		convey.Convey("When no rule matches anything", func() {
			// typing_speed 2.0 sits exactly on the flow/learning boundary and
			// matches neither; the other metrics match no rule either.
			name, confidence := pattern.Classify(map[string]float64{
				extract.KeyTypingSpeed:   2.0,
				extract.KeyErrorRate:     0.1,
				extract.KeyPauseRatio:    0.2,
				extract.KeyFocusSwitches: 2,
			})

			convey.Convey("Then the tie resolves to the lexically smallest name", func() {
				convey.So(name, convey.ShouldEqual, pattern.TypeConfusionState)
				convey.So(confidence, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When classifying the same metrics repeatedly", func() {
			metrics := map[string]float64{
				extract.KeyTypingSpeed:   0.1,
				extract.KeyErrorRate:     0.05,
				extract.KeyPauseRatio:    0.5,
				extract.KeyFocusSwitches: 1,
			}
			firstName, firstConfidence := pattern.Classify(metrics)

			convey.Convey("Then the result never changes", func() {
				for i := 0; i < 50; i++ {
					name, confidence := pattern.Classify(metrics)
					convey.So(name, convey.ShouldEqual, firstName)
					convey.So(confidence, convey.ShouldEqual, firstConfidence)
				}
			})
		})
	})
}

func TestMicro(t *testing.T) {
	convey.Convey("Given the micro pattern analyzer", t, func() {
		base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

		convey.Convey("When events are empty", func() {
			convey.So(pattern.Micro(nil), convey.ShouldBeEmpty)
		})

		convey.Convey("When two bursts are separated by a long gap", func() {
			var events []model.RawEvent
			for i := 0; i < 10; i++ {
				events = append(events, keyEvent(base.Add(time.Duration(i)*200*time.Millisecond)))
			}
			// Second burst starts five minutes later.
			for i := 0; i < 10; i++ {
				events = append(events, keyEvent(base.Add(5*time.Minute+time.Duration(i)*200*time.Millisecond)))
			}

			patterns := pattern.Micro(events)

			convey.Convey("Then each burst yields its own pattern", func() {
				convey.So(patterns, convey.ShouldHaveLength, 2)
				convey.So(patterns[0].Scale, convey.ShouldEqual, model.ScaleMicro)
				convey.So(patterns[0].ID, convey.ShouldNotBeEmpty)
				convey.So(patterns[0].EndTime.Before(patterns[1].StartTime), convey.ShouldBeTrue)
				convey.So(patterns[0].Metrics, convey.ShouldContainKey, extract.KeyTypingSpeed)
			})
		})

		convey.Convey("When a single burst of fast clean typing arrives", func() {
			var events []model.RawEvent
			for i := 0; i < 30; i++ {
				events = append(events, keyEvent(base.Add(time.Duration(i)*100*time.Millisecond)))
			}

			patterns := pattern.Micro(events)

			convey.Convey("Then it classifies as flow state", func() {
				convey.So(patterns, convey.ShouldHaveLength, 1)
				convey.So(patterns[0].Type, convey.ShouldEqual, pattern.TypeFlowState)
				convey.So(patterns[0].Confidence, convey.ShouldBeGreaterThan, 0.5)
			})
		})
	})
}

func TestMesoMacro(t *testing.T) {
	convey.Convey("Given the meso and macro analyzers", t, func() {
		base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

		micro := func(start time.Time, speed float64) model.Pattern {
			return model.Pattern{
				ID:        "m",
				Scale:     model.ScaleMicro,
				StartTime: start,
				EndTime:   start.Add(time.Minute),
				Type:      pattern.TypeFlowState,
				Metrics: map[string]float64{
					extract.KeyTypingSpeed:   speed,
					extract.KeyErrorRate:     0.05,
					extract.KeyPauseRatio:    0.1,
					extract.KeyFocusSwitches: 1,
				},
			}
		}

		convey.Convey("When micro patterns span two separate hours", func() {
			patterns := pattern.Meso([]model.Pattern{
				micro(base, 3.0),
				micro(base.Add(10*time.Minute), 2.5),
				micro(base.Add(3*time.Hour), 2.8),
			})

			convey.Convey("Then two meso patterns emerge with averaged metrics", func() {
				convey.So(patterns, convey.ShouldHaveLength, 2)
				convey.So(patterns[0].Scale, convey.ShouldEqual, model.ScaleMeso)
				convey.So(patterns[0].Metrics[extract.KeyTypingSpeed], convey.ShouldAlmostEqual, 2.75, 1e-9)
				convey.So(patterns[0].StartTime, convey.ShouldEqual, base)
				convey.So(patterns[0].Type, convey.ShouldEqual, pattern.TypeFlowState)
			})
		})

		convey.Convey("When meso patterns are regrouped into days", func() {
			meso := pattern.Meso([]model.Pattern{micro(base, 3.0)})
			macro := pattern.Macro(meso)

			convey.Convey("Then a macro pattern covers them", func() {
				convey.So(macro, convey.ShouldHaveLength, 1)
				convey.So(macro[0].Scale, convey.ShouldEqual, model.ScaleMacro)
			})
		})

		convey.Convey("When there are no children", func() {
			convey.So(pattern.Meso(nil), convey.ShouldBeEmpty)
			convey.So(pattern.Macro(nil), convey.ShouldBeEmpty)
		})
	})
}

func keyEvent(ts time.Time) model.RawEvent {
	return model.RawEvent{
		Type:      model.EventKeyboard,
		Timestamp: ts,
		Key:       "a",
		KeyAction: model.KeyDown,
	}
}
