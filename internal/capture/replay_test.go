package capture_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cogbridge/cogbridge/internal/capture"
	"github.com/cogbridge/cogbridge/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestReplaySource(t *testing.T) {
	convey.Convey("Given a recorded session file", t, func() {
		base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
		writeSession := func(t *testing.T, lines []string) string {
			t.Helper()
			path := filepath.Join(t.TempDir(), "session.jsonl")
			var data []byte
			for _, l := range lines {
				data = append(data, l...)
				data = append(data, '\n')
			}
			if err := os.WriteFile(path, data, 0o600); err != nil {
				t.Fatalf("write session file: %v", err)
			}
			return path
		}
		eventLine := func(id string, ts time.Time) string {
			b, _ := json.Marshal(model.RawEvent{
				ID: id, SessionID: "sess",
				Type: model.EventKeyboard, Timestamp: ts,
				Key: "a", KeyAction: model.KeyDown,
			})
			return string(b)
		}

		convey.Convey("When replayed without pacing", func() {
			path := writeSession(t, []string{
				eventLine("1", base),
				eventLine("2", base.Add(time.Hour)),
				eventLine("3", base.Add(2*time.Hour)),
			})
			src := capture.NewReplaySource(path)

			convey.Convey("Then all events stream immediately in order", func() {
				var got []model.RawEvent
				for e := range src.Events(context.Background()) {
					got = append(got, e)
				}
				convey.So(src.Err(), convey.ShouldBeNil)
				convey.So(got, convey.ShouldHaveLength, 3)
				convey.So(got[0].ID, convey.ShouldEqual, "1")
				convey.So(got[2].ID, convey.ShouldEqual, "3")
			})
		})

		convey.Convey("When the file contains malformed lines", func() {
			path := writeSession(t, []string{
				eventLine("1", base),
				"{not json",
				eventLine("2", base.Add(time.Second)),
			})
			src := capture.NewReplaySource(path)

			convey.Convey("Then bad lines are skipped", func() {
				var got []model.RawEvent
				for e := range src.Events(context.Background()) {
					got = append(got, e)
				}
				convey.So(src.Err(), convey.ShouldBeNil)
				convey.So(got, convey.ShouldHaveLength, 2)
			})
		})

		convey.Convey("When the file does not exist", func() {
			src := capture.NewReplaySource(filepath.Join(t.TempDir(), "missing.jsonl"))

			convey.Convey("Then the channel closes and Err reports the cause", func() {
				ch := src.Events(context.Background())
				_, ok := <-ch
				convey.So(ok, convey.ShouldBeFalse)
				convey.So(src.Err(), convey.ShouldWrap, capture.ErrOpenReplay)
			})
		})

		convey.Convey("When the consumer cancels mid-replay", func() {
			path := writeSession(t, []string{
				eventLine("1", base),
				eventLine("2", base.Add(time.Second)),
			})
			src := capture.NewReplaySource(path)
			ctx, cancel := context.WithCancel(context.Background())

			ch := src.Events(ctx)
			<-ch
			cancel()

			convey.Convey("Then the stream shuts down", func() {
				deadline := time.After(2 * time.Second)
				for {
					select {
					case _, ok := <-ch:
						if !ok {
							return
						}
					case <-deadline:
						t.Fatal("replay channel never closed")
					}
				}
			})
		})
	})
}
