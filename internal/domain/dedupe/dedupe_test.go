package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/cogbridge/cogbridge/internal/domain/dedupe"
	"github.com/smartystreets/goconvey/convey"
)

func TestDeduper(t *testing.T) {
	convey.Convey("Given a bounded deduper", t, func() {
		ctx := context.Background()

		convey.Convey("When the same ID is recorded twice", func() {
			d := dedupe.NewDeduper()

			convey.Convey("Then the second record reports it as seen", func() {
				convey.So(d.SeenAndRecord(ctx, "evt-1"), convey.ShouldBeFalse)
				convey.So(d.SeenAndRecord(ctx, "evt-1"), convey.ShouldBeTrue)
				convey.So(d.Size(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When an ID is unrecorded", func() {
			d := dedupe.NewDeduper()
			d.SeenAndRecord(ctx, "evt-1")
			d.Unrecord(ctx, "evt-1")

			convey.Convey("Then it can be recorded again", func() {
				convey.So(d.Size(), convey.ShouldEqual, 0)
				convey.So(d.SeenAndRecord(ctx, "evt-1"), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the bound is exceeded", func() {
			d := dedupe.NewDeduper(dedupe.WithMaxSize(3))
			for i := 0; i < 4; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("evt-%d", i))
			}

			convey.Convey("Then the oldest ID is evicted", func() {
				convey.So(d.Size(), convey.ShouldEqual, 3)
				convey.So(d.SeenAndRecord(ctx, "evt-0"), convey.ShouldBeFalse) // evicted, looks new
				convey.So(d.SeenAndRecord(ctx, "evt-3"), convey.ShouldBeTrue)  // still remembered
			})
		})

		convey.Convey("When recorded from many goroutines", func() {
			d := dedupe.NewDeduper()
			var wg sync.WaitGroup
			var dupes int64
			var mu sync.Mutex
			for g := 0; g < 8; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < 100; i++ {
						if d.SeenAndRecord(ctx, fmt.Sprintf("evt-%d", i)) {
							mu.Lock()
							dupes++
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()

			convey.Convey("Then each ID is recorded exactly once", func() {
				convey.So(d.Size(), convey.ShouldEqual, 100)
				convey.So(dupes, convey.ShouldEqual, 700)
			})
		})
	})

	convey.Convey("Given an unbounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewDeduper(dedupe.WithMaxSize(0))

		convey.Convey("When many IDs are recorded", func() {
			for i := 0; i < 1000; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("evt-%d", i))
			}

			convey.Convey("Then nothing is evicted", func() {
				convey.So(d.Size(), convey.ShouldEqual, 1000)
				convey.So(d.SeenAndRecord(ctx, "evt-0"), convey.ShouldBeTrue)
			})
		})
	})
}
