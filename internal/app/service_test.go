package service_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	service "github.com/cogbridge/cogbridge/internal/app"
	"github.com/cogbridge/cogbridge/internal/domain/model"
	"github.com/cogbridge/cogbridge/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type recordingBroadcaster struct {
	mu      sync.Mutex
	updates []any
}

func (b *recordingBroadcaster) Broadcast(v any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, v)
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.updates)
}

func newTestService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	base := []service.Option{
		service.WithEventLogDir(t.TempDir()),
		service.WithDBPath(filepath.Join(t.TempDir(), "monitor.db")),
		service.WithWorkerCount(2),
		service.WithAnalysisIntervals(50*time.Millisecond, 200*time.Millisecond, 400*time.Millisecond),
		service.WithBroadcastInterval(50 * time.Millisecond),
	}
	return service.New(append(base, opts...)...)
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func keyEvent(id string, ts time.Time, key string) model.RawEvent {
	return model.RawEvent{
		ID:        id,
		SessionID: "client-session",
		Type:      model.EventKeyboard,
		Timestamp: ts,
		Window:    model.WindowInfo{Title: "editor", Application: "editor"},
		Key:       key,
		KeyAction: model.KeyDown,
	}
}

func TestServiceNew(t *testing.T) {
	convey.Convey("Given a new service with default options", t, func() {
		svc := service.New()
		convey.So(svc, convey.ShouldNotBeNil)
	})

	convey.Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithDedupeSize(25_000),
			service.WithResonanceThreshold(0.7),
			service.WithSnapshotWindow(30*time.Second),
		)
		convey.So(svc, convey.ShouldNotBeNil)
	})
}

func TestServiceLifecycle(t *testing.T) {
	convey.Convey("Given a service with temp storage", t, func() {
		svc := newTestService(t)
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		convey.Convey("Start brings the service up", func() {
			convey.So(svc.Start(ctx), convey.ShouldBeNil)

			stats := svc.GetStats()
			convey.So(stats["started"], convey.ShouldEqual, true)
			convey.So(stats["sessionID"], convey.ShouldNotBeEmpty)

			convey.Convey("Starting twice is a no-op", func() {
				convey.So(svc.Start(ctx), convey.ShouldBeNil)
			})

			convey.Convey("Stop brings it down and is idempotent", func() {
				svc.Stop()
				svc.Stop()
				stats := svc.GetStats()
				convey.So(stats["started"], convey.ShouldEqual, false)
			})
		})

		convey.Convey("A bad store path fails startup", func() {
			broken := service.New(
				service.WithEventLogDir(t.TempDir()),
				service.WithDBPath(filepath.Join(t.TempDir(), "missing", "nested", "monitor.db")),
			)
			convey.So(broken.Start(ctx), convey.ShouldNotBeNil)
		})
	})
}

func TestServiceDeduplication(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		svc := newTestService(t)
		defer svc.Stop()
		ctx := context.Background()
		convey.So(svc.Start(ctx), convey.ShouldBeNil)

		convey.Convey("An id is seen only after it is recorded", func() {
			convey.So(svc.SeenAndRecord(ctx, "evt-1"), convey.ShouldBeFalse)
			convey.So(svc.SeenAndRecord(ctx, "evt-1"), convey.ShouldBeTrue)
			convey.So(svc.Size(), convey.ShouldEqual, 1)

			convey.Convey("Unrecord makes it fresh again", func() {
				svc.Unrecord(ctx, "evt-1")
				convey.So(svc.SeenAndRecord(ctx, "evt-1"), convey.ShouldBeFalse)
			})
		})
	})
}

func TestServiceAnalysisPipeline(t *testing.T) {
	convey.Convey("Given a started service receiving keyboard activity", t, func() {
		broadcaster := &recordingBroadcaster{}
		svc := newTestService(t, service.WithBroadcaster(broadcaster))
		defer svc.Stop()
		ctx := context.Background()
		convey.So(svc.Start(ctx), convey.ShouldBeNil)

		base := time.Now().Add(-3 * time.Second)
		for i := 0; i < 30; i++ {
			e := keyEvent(fmt.Sprintf("evt-%d", i), base.Add(time.Duration(i)*100*time.Millisecond), "a")
			convey.So(svc.Enqueue(ctx, e), convey.ShouldBeTrue)
		}

		convey.Convey("A metric snapshot appears within a few ticks", func() {
			ok := waitFor(5*time.Second, func() bool {
				snap, ok := svc.LatestSnapshot(ctx)
				return ok && snap.EventCount == 30
			})
			convey.So(ok, convey.ShouldBeTrue)

			snap, _ := svc.LatestSnapshot(ctx)
			convey.So(snap.EventCount, convey.ShouldEqual, 30)
			convey.So(snap.CognitiveLoad, convey.ShouldBeBetweenOrEqual, 0, 1)
			convey.So(snap.Scores, convey.ShouldContainKey, "language_score")

			convey.Convey("Snapshots are persisted", func() {
				snaps, err := svc.RecentSnapshots(ctx, 10)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(snaps), convey.ShouldBeGreaterThanOrEqualTo, 1)
			})

			convey.Convey("Micro patterns are classified and persisted", func() {
				ok := waitFor(5*time.Second, func() bool {
					patterns, err := svc.PatternsByScale(ctx, "micro", 10)
					return err == nil && len(patterns) > 0
				})
				convey.So(ok, convey.ShouldBeTrue)

				patterns, err := svc.PatternsByScale(ctx, "micro", 10)
				convey.So(err, convey.ShouldBeNil)
				convey.So(patterns[0].Scale, convey.ShouldEqual, "micro")
				convey.So(patterns[0].Type, convey.ShouldBeIn,
					"flow_state", "learning_moment", "confusion_state")
			})

			convey.Convey("Live updates reach the broadcaster", func() {
				ok := waitFor(5*time.Second, func() bool {
					return broadcaster.count() > 0
				})
				convey.So(ok, convey.ShouldBeTrue)
			})

			convey.Convey("Stats reflect the running pipeline", func() {
				stats := svc.GetStats()
				convey.So(stats["windowEvents"], convey.ShouldEqual, 30)
				convey.So(stats["storedSnapshots"], convey.ShouldBeGreaterThanOrEqualTo, int64(1))
			})
		})
	})
}

func TestServiceReadsBeforeActivity(t *testing.T) {
	convey.Convey("Given a started service with no events", t, func() {
		svc := newTestService(t)
		defer svc.Stop()
		ctx := context.Background()
		convey.So(svc.Start(ctx), convey.ShouldBeNil)

		convey.Convey("There is no latest snapshot", func() {
			_, ok := svc.LatestSnapshot(ctx)
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Read endpoints return empty results", func() {
			snaps, err := svc.RecentSnapshots(ctx, 10)
			convey.So(err, convey.ShouldBeNil)
			convey.So(snaps, convey.ShouldBeEmpty)

			patterns, err := svc.PatternsByScale(ctx, "meso", 10)
			convey.So(err, convey.ShouldBeNil)
			convey.So(patterns, convey.ShouldBeEmpty)

			resonances, err := svc.RecentResonances(ctx, 10)
			convey.So(err, convey.ShouldBeNil)
			convey.So(resonances, convey.ShouldBeEmpty)
		})
	})
}
