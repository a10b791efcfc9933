package extract_test

import (
	"testing"
	"time"

	"github.com/cogbridge/cogbridge/internal/domain/extract"
	"github.com/cogbridge/cogbridge/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestMemory(t *testing.T) {
	convey.Convey("Given the memory extractor", t, func() {
		base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

		convey.Convey("When the window is empty", func() {
			m := extract.Memory(nil)

			convey.Convey("Then all keys are present and zero", func() {
				convey.So(m[extract.KeyIncorrectFolderAttempts], convey.ShouldEqual, 0)
				convey.So(m[extract.KeyRepeatedAccessCount], convey.ShouldEqual, 0)
				convey.So(m[extract.KeyMemoryScore], convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When navigation is clean", func() {
			events := []model.RawEvent{
				fileEvent(base, "/work"),
				fileEvent(base.Add(time.Second), "/work"),
				fileEvent(base.Add(2*time.Second), "/work"),
			}
			m := extract.Memory(events)

			convey.Convey("Then repeated access dominates the penalty", func() {
				convey.So(m[extract.KeyIncorrectFolderAttempts], convey.ShouldEqual, 0)
				convey.So(m[extract.KeyRepeatedAccessCount], convey.ShouldEqual, 2)
				convey.So(m[extract.KeyMemoryScore], convey.ShouldAlmostEqual, 1.0/3.0, 1e-9)
			})
		})

		convey.Convey("When every access changes folder", func() {
			events := []model.RawEvent{
				fileEvent(base, "/a"),
				fileEvent(base.Add(time.Second), "/b"),
				fileEvent(base.Add(2*time.Second), "/c"),
				fileEvent(base.Add(3*time.Second), "/d"),
			}
			m := extract.Memory(events)

			convey.Convey("Then the score floors at zero", func() {
				convey.So(m[extract.KeyIncorrectFolderAttempts], convey.ShouldEqual, 3)
				convey.So(m[extract.KeyMemoryScore], convey.ShouldBeGreaterThanOrEqualTo, 0)
			})
		})
	})
}

func TestExecutive(t *testing.T) {
	convey.Convey("Given the executive extractor", t, func() {
		base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

		convey.Convey("When the window is empty", func() {
			m := extract.Executive(nil)

			convey.Convey("Then the score is the neutral midpoint", func() {
				convey.So(m[extract.KeyTaskSwitchingFrequency], convey.ShouldEqual, 0)
				convey.So(m[extract.KeyMultitaskingScore], convey.ShouldEqual, 0)
				convey.So(m[extract.KeyExecutiveScore], convey.ShouldEqual, 0.5)
			})
		})

		convey.Convey("When five distinct windows appear with moderate switching", func() {
			var events []model.RawEvent
			for i := 0; i < 5; i++ {
				e := switchEvent(base.Add(time.Duration(i)*time.Minute))
				e.Window.Title = []string{"editor", "browser", "terminal", "mail", "chat"}[i]
				events = append(events, e)
			}
			m := extract.Executive(events)

			convey.Convey("Then multitasking saturates", func() {
				convey.So(m[extract.KeyMultitaskingScore], convey.ShouldEqual, 1)
				// 5 switches over 4 minutes = 1.25/min.
				convey.So(m[extract.KeyTaskSwitchingFrequency], convey.ShouldAlmostEqual, 1.25, 1e-9)
				convey.So(m[extract.KeyExecutiveScore], convey.ShouldBeBetweenOrEqual, 0, 1)
			})
		})
	})
}

func TestLanguage(t *testing.T) {
	convey.Convey("Given the language extractor", t, func() {
		base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

		convey.Convey("When the window is empty", func() {
			m := extract.Language(nil)

			convey.Convey("Then the score reflects zero speed and perfect accuracy", func() {
				convey.So(m[extract.KeyTypingSpeedWPM], convey.ShouldEqual, 0)
				convey.So(m[extract.KeyErrorCorrectionRate], convey.ShouldEqual, 0)
				convey.So(m[extract.KeyLanguageScore], convey.ShouldAlmostEqual, 1.0/3.0, 1e-9)
			})
		})

		convey.Convey("When typing 'go' then a backspace over one minute", func() {
			events := []model.RawEvent{
				keyEvent(base, "g"),
				keyEvent(base.Add(20*time.Second), "o"),
				keyEvent(base.Add(40*time.Second), "space"),
				keyEvent(base.Add(60*time.Second), "backspace"),
			}
			m := extract.Language(events)

			convey.Convey("Then WPM, error rate and vocabulary are computed", func() {
				// 4 keystrokes / 5 chars-per-word over 1 minute.
				convey.So(m[extract.KeyTypingSpeedWPM], convey.ShouldAlmostEqual, 0.8, 1e-9)
				convey.So(m[extract.KeyErrorCorrectionRate], convey.ShouldAlmostEqual, 0.25, 1e-9)
				// One distinct word "go", mean length 2, normalized by 10.
				convey.So(m[extract.KeyVocabularyComplexity], convey.ShouldAlmostEqual, 0.2, 1e-9)
				convey.So(m[extract.KeyLanguageScore], convey.ShouldBeBetweenOrEqual, 0, 1)
			})
		})
	})
}

func TestPerception(t *testing.T) {
	convey.Convey("Given the perception extractor", t, func() {
		base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

		convey.Convey("When the window is empty", func() {
			m := extract.Perception(nil)

			convey.Convey("Then all keys are present and zero", func() {
				convey.So(m[extract.KeyMousePrecision], convey.ShouldEqual, 0)
				convey.So(m[extract.KeyClickAccuracy], convey.ShouldEqual, 0)
				convey.So(m[extract.KeyMovementSmoothness], convey.ShouldEqual, 0)
				convey.So(m[extract.KeyPerceptionScore], convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When movement is perfectly regular", func() {
			events := []model.RawEvent{
				moveEvent(base, 0, 0),
				moveEvent(base.Add(time.Second), 10, 0),
				moveEvent(base.Add(2*time.Second), 20, 0),
				moveEvent(base.Add(3*time.Second), 30, 0),
			}
			m := extract.Perception(events)

			convey.Convey("Then precision is perfect and smoothness high", func() {
				convey.So(m[extract.KeyMousePrecision], convey.ShouldEqual, 1)
				convey.So(m[extract.KeyMovementSmoothness], convey.ShouldAlmostEqual, 1-10.0/500.0, 1e-9)
			})
		})

		convey.Convey("When a click lands far from all recent movement", func() {
			events := []model.RawEvent{
				moveEvent(base, 0, 0),
				moveEvent(base.Add(time.Second), 10, 0),
				clickEvent(base.Add(2*time.Second), 500, 500),
				clickEvent(base.Add(3*time.Second), 10, 5),
			}
			m := extract.Perception(events)

			convey.Convey("Then half the clicks are misclicks", func() {
				convey.So(m[extract.KeyClickAccuracy], convey.ShouldAlmostEqual, 0.5, 1e-9)
			})
		})
	})
}

func TestMicro(t *testing.T) {
	convey.Convey("Given the micro-window extractor", t, func() {
		base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

		convey.Convey("When the window is empty", func() {
			m := extract.Micro(nil)

			convey.Convey("Then all five keys are present and zero", func() {
				for _, key := range []string{
					extract.KeyTypingSpeed,
					extract.KeyErrorRate,
					extract.KeyPauseRatio,
					extract.KeyFocusSwitches,
					extract.KeyAvgFocusDuration,
				} {
					convey.So(m, convey.ShouldContainKey, key)
					convey.So(m[key], convey.ShouldEqual, 0)
				}
			})
		})

		convey.Convey("When typing steadily with one long pause", func() {
			events := []model.RawEvent{
				keyEvent(base, "a"),
				keyEvent(base.Add(200*time.Millisecond), "b"),
				keyEvent(base.Add(400*time.Millisecond), "c"),
				keyEvent(base.Add(2400*time.Millisecond), "d"), // 2s pause
			}
			m := extract.Micro(events)

			convey.Convey("Then speed and pause ratio reflect the gap", func() {
				// 4 key-downs over 2.4s.
				convey.So(m[extract.KeyTypingSpeed], convey.ShouldAlmostEqual, 4/2.4, 1e-9)
				convey.So(m[extract.KeyPauseRatio], convey.ShouldAlmostEqual, 2/2.4, 1e-9)
				convey.So(m[extract.KeyErrorRate], convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When focus moves across two windows", func() {
			a := moveEvent(base, 0, 0)
			a.Window.Title = "editor"
			b := moveEvent(base.Add(10*time.Second), 5, 5)
			b.Window.Title = "editor"
			c := moveEvent(base.Add(20*time.Second), 9, 9)
			c.Window.Title = "browser"
			m := extract.Micro([]model.RawEvent{a, b, c})

			convey.Convey("Then one switch is counted", func() {
				convey.So(m[extract.KeyFocusSwitches], convey.ShouldEqual, 1)
				convey.So(m[extract.KeyAvgFocusDuration], convey.ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestSnapshot(t *testing.T) {
	convey.Convey("Given the snapshot builder", t, func() {
		base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

		convey.Convey("When computing a snapshot over mixed activity", func() {
			events := []model.RawEvent{
				keyEvent(base, "h"),
				keyEvent(base.Add(time.Second), "i"),
				moveEvent(base.Add(2*time.Second), 10, 10),
				moveEvent(base.Add(3*time.Second), 20, 10),
				fileEvent(base.Add(4*time.Second), "/work"),
			}
			snap := extract.Snapshot("sess-1", events, base, base.Add(time.Minute))

			convey.Convey("Then the composite is the mean of the four domains", func() {
				convey.So(snap.SessionID, convey.ShouldEqual, "sess-1")
				convey.So(snap.EventCount, convey.ShouldEqual, 5)
				want := (snap.MemoryScore + snap.ExecutiveScore + snap.LanguageScore + snap.PerceptionScore) / 4
				convey.So(snap.CognitiveLoad, convey.ShouldAlmostEqual, want, 1e-9)
				convey.So(snap.Scores[extract.KeyCognitiveLoad], convey.ShouldAlmostEqual, want, 1e-9)
			})

			convey.Convey("Then every domain score key is present", func() {
				for _, key := range []string{
					extract.KeyMemoryScore,
					extract.KeyExecutiveScore,
					extract.KeyLanguageScore,
					extract.KeyPerceptionScore,
				} {
					convey.So(snap.Scores, convey.ShouldContainKey, key)
				}
			})
		})

		convey.Convey("When computing a snapshot over no events", func() {
			snap := extract.Snapshot("sess-1", nil, base, base.Add(time.Minute))

			convey.Convey("Then scores take their neutral values", func() {
				convey.So(snap.EventCount, convey.ShouldEqual, 0)
				convey.So(snap.MemoryScore, convey.ShouldEqual, 0)
				convey.So(snap.ExecutiveScore, convey.ShouldEqual, 0.5)
				convey.So(snap.LanguageScore, convey.ShouldAlmostEqual, 1.0/3.0, 1e-9)
				convey.So(snap.PerceptionScore, convey.ShouldEqual, 0)
			})
		})
	})
}

func keyEvent(ts time.Time, key string) model.RawEvent {
	return model.RawEvent{
		Type:      model.EventKeyboard,
		Timestamp: ts,
		Key:       key,
		KeyAction: model.KeyDown,
	}
}

func moveEvent(ts time.Time, x, y float64) model.RawEvent {
	return model.RawEvent{
		Type:        model.EventMouse,
		Timestamp:   ts,
		MouseAction: model.MouseMove,
		X:           x,
		Y:           y,
	}
}

func clickEvent(ts time.Time, x, y float64) model.RawEvent {
	return model.RawEvent{
		Type:        model.EventMouse,
		Timestamp:   ts,
		MouseAction: model.MouseClick,
		X:           x,
		Y:           y,
		Button:      "left",
	}
}

func fileEvent(ts time.Time, path string) model.RawEvent {
	return model.RawEvent{
		Type:      model.EventFileAccess,
		Timestamp: ts,
		Path:      path,
	}
}

func switchEvent(ts time.Time) model.RawEvent {
	return model.RawEvent{
		Type:      model.EventWindowSwitch,
		Timestamp: ts,
	}
}
