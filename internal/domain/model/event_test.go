package model_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	model "github.com/cogbridge/cogbridge/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestRawEventWire(t *testing.T) {
	convey.Convey("Given a keyboard event", t, func() {
		e := model.RawEvent{
			ID:        "event-123",
			SessionID: "session-456",
			Type:      model.EventKeyboard,
			Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
			Window:    model.WindowInfo{Title: "editor", Application: "code", PID: 42},
			Key:       "a",
			KeyAction: model.KeyDown,
		}

		convey.Convey("When marshaled to JSON", func() {
			data, err := json.Marshal(e)
			convey.So(err, convey.ShouldBeNil)
			s := string(data)

			convey.Convey("Then it carries only the keyboard payload", func() {
				convey.So(s, convey.ShouldContainSubstring, `"key":"a"`)
				convey.So(s, convey.ShouldContainSubstring, `"key_action":"down"`)
				convey.So(s, convey.ShouldNotContainSubstring, "mouse_action")
				convey.So(s, convey.ShouldNotContainSubstring, "from_window")
				convey.So(s, convey.ShouldNotContainSubstring, `"path"`)
			})

			convey.Convey("Then it decodes back to the same event", func() {
				var got model.RawEvent
				convey.So(json.Unmarshal(data, &got), convey.ShouldBeNil)
				convey.So(got.ID, convey.ShouldEqual, e.ID)
				convey.So(got.Type, convey.ShouldEqual, model.EventKeyboard)
				convey.So(got.Timestamp.Equal(e.Timestamp), convey.ShouldBeTrue)
				convey.So(got.Window.PID, convey.ShouldEqual, 42)
			})
		})
	})

	convey.Convey("Given a mouse event", t, func() {
		e := model.RawEvent{
			ID:          "event-789",
			SessionID:   "session-456",
			Type:        model.EventMouse,
			Timestamp:   time.Now().UTC(),
			MouseAction: model.MouseClick,
			X:           120,
			Y:           340,
			Button:      "left",
		}

		convey.Convey("When marshaled to JSON", func() {
			data, err := json.Marshal(e)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then keyboard and file fields stay absent", func() {
				s := string(data)
				convey.So(s, convey.ShouldContainSubstring, `"mouse_action":"click"`)
				convey.So(s, convey.ShouldNotContainSubstring, "key_action")
				convey.So(s, convey.ShouldNotContainSubstring, `"path"`)
			})
		})
	})
}

func TestTimeScales(t *testing.T) {
	convey.Convey("Given the pattern time scales", t, func() {
		convey.Convey("Then they match the wire values read endpoints accept", func() {
			convey.So(string(model.ScaleMicro), convey.ShouldEqual, "micro")
			convey.So(string(model.ScaleMeso), convey.ShouldEqual, "meso")
			convey.So(string(model.ScaleMacro), convey.ShouldEqual, "macro")
		})
	})
}

func TestResonanceDuration(t *testing.T) {
	convey.Convey("Given a resonance with a known span", t, func() {
		start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		r := model.Resonance{
			Type:      model.ResonanceLearning,
			StartTime: start,
			EndTime:   start.Add(90 * time.Second),
		}

		convey.Convey("Then Duration reports it in seconds", func() {
			convey.So(r.Duration(), convey.ShouldEqual, 90.0)
		})

		convey.Convey("Then a zero-span resonance has zero duration", func() {
			r.EndTime = r.StartTime
			convey.So(r.Duration(), convey.ShouldEqual, 0.0)
		})
	})
}

func TestEventTypeConstants(t *testing.T) {
	convey.Convey("Given the raw event types", t, func() {
		types := []model.EventType{
			model.EventKeyboard,
			model.EventMouse,
			model.EventWindowSwitch,
			model.EventFileAccess,
		}

		convey.Convey("Then each has a distinct lowercase wire value", func() {
			seen := make(map[model.EventType]bool, len(types))
			for _, et := range types {
				convey.So(seen[et], convey.ShouldBeFalse)
				seen[et] = true
				convey.So(string(et), convey.ShouldEqual, strings.ToLower(string(et)))
			}
		})
	})
}
