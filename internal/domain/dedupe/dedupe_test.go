package dedupe_test

import (
	"context"
	"sync"
	"testing"

	dedupe "github.com/okian/hltjet/internal/domain/dedupe"
	"github.com/okian/hltjet/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func key(event uint64) model.EventKey {
	return model.EventKey{Run: 1, Lumi: 1, Event: event}
}

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When an event is recorded for the first time", func() {
			seen := d.SeenAndRecord(ctx, key(1))

			Convey("Then it is reported as new", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the same event is submitted twice", func() {
			d.SeenAndRecord(ctx, key(1))
			seen := d.SeenAndRecord(ctx, key(1))

			Convey("Then the second submission is a duplicate", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When events differ only by run", func() {
			a := model.EventKey{Run: 1, Lumi: 7, Event: 42}
			b := model.EventKey{Run: 2, Lumi: 7, Event: 42}
			So(d.SeenAndRecord(ctx, a), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, b), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 2)
		})

		Convey("When an event is unrecorded", func() {
			d.SeenAndRecord(ctx, key(1))
			d.Unrecord(ctx, key(1))

			Convey("Then it can be accepted again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, key(1)), ShouldBeFalse)
			})

			Convey("And unrecording an unknown key is a no-op", func() {
				So(func() { d.Unrecord(ctx, key(99)) }, ShouldNotPanic)
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})
}

func TestDeduperEviction(t *testing.T) {
	ctx := context.Background()

	Convey("Given a deduper bounded to three keys", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := uint64(1); i <= 3; i++ {
			d.SeenAndRecord(ctx, key(i))
		}

		Convey("When a fourth key arrives", func() {
			So(d.SeenAndRecord(ctx, key(4)), ShouldBeFalse)

			Convey("Then the oldest key is forgotten", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, key(2)), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, key(3)), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, key(4)), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, key(1)), ShouldBeFalse)
			})
		})

		Convey("When a key in the middle is unrecorded", func() {
			d.Unrecord(ctx, key(2))
			So(d.Size(), ShouldEqual, 2)

			Convey("Then new keys still evict in arrival order", func() {
				d.SeenAndRecord(ctx, key(4)) // replaces 1
				d.SeenAndRecord(ctx, key(5)) // takes the freed slot
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, key(3)), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, key(4)), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, key(5)), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		const n = 1000
		for i := uint64(0); i < n; i++ {
			So(d.SeenAndRecord(ctx, key(i)), ShouldBeFalse)
		}
		So(d.Size(), ShouldEqual, int64(n))
		So(d.SeenAndRecord(ctx, key(0)), ShouldBeTrue)

		d.Unrecord(ctx, key(0))
		So(d.Size(), ShouldEqual, int64(n-1))
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const goroutines = 10
		const perGoroutine = 100

		Convey("When goroutines record distinct events concurrently", func() {
			var wg sync.WaitGroup
			for g := 0; g < goroutines; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for j := 0; j < perGoroutine; j++ {
						d.SeenAndRecord(context.Background(), model.EventKey{Run: uint32(g), Event: uint64(j)})
					}
				}(g)
			}
			wg.Wait()

			Convey("Then every event is recorded once", func() {
				So(d.Size(), ShouldEqual, int64(goroutines*perGoroutine))
			})
		})

		Convey("When goroutines race on the same event", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for g := 0; g < goroutines; g++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if !d.SeenAndRecord(context.Background(), key(7)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one of them wins", func() {
				So(fresh, ShouldEqual, 1)
			})
		})
	})
}
