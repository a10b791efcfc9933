package simulate_test

import (
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/cogbridge/cogbridge/internal/domain/model"
	"github.com/cogbridge/cogbridge/internal/simulate"
)

func TestGenerateEvents(t *testing.T) {
	convey.Convey("Given a simulation config", t, func() {
		cfg := &simulate.Config{
			NumEvents: 500,
			Seed:      42,
			Duration:  5 * time.Minute,
		}

		convey.Convey("It generates exactly the requested number of events", func() {
			events := simulate.GenerateEvents(cfg)
			convey.So(events, convey.ShouldHaveLength, 500)
		})

		convey.Convey("Events carry unique ids and a shared session", func() {
			events := simulate.GenerateEvents(cfg)
			ids := make(map[string]bool, len(events))
			for _, e := range events {
				convey.So(ids[e.ID], convey.ShouldBeFalse)
				ids[e.ID] = true
				convey.So(e.SessionID, convey.ShouldEqual, events[0].SessionID)
			}
		})

		convey.Convey("Timestamps are non-decreasing and span the duration", func() {
			events := simulate.GenerateEvents(cfg)
			for i := 1; i < len(events); i++ {
				convey.So(events[i].Timestamp.Before(events[i-1].Timestamp), convey.ShouldBeFalse)
			}
			span := events[len(events)-1].Timestamp.Sub(events[0].Timestamp)
			convey.So(span, convey.ShouldBeLessThanOrEqualTo, cfg.Duration+time.Second)
		})

		convey.Convey("The mix contains every event type", func() {
			events := simulate.GenerateEvents(cfg)
			seen := make(map[model.EventType]int)
			for _, e := range events {
				seen[e.Type]++
			}
			convey.So(seen, convey.ShouldContainKey, model.EventKeyboard)
			convey.So(seen, convey.ShouldContainKey, model.EventMouse)
			convey.So(seen, convey.ShouldContainKey, model.EventWindowSwitch)
			convey.So(seen, convey.ShouldContainKey, model.EventFileAccess)
		})

		convey.Convey("Keyboard events dominate the mix", func() {
			events := simulate.GenerateEvents(cfg)
			keyboard := 0
			for _, e := range events {
				if e.Type == model.EventKeyboard {
					keyboard++
				}
			}
			convey.So(keyboard, convey.ShouldBeGreaterThan, len(events)/3)
		})
	})
}
