package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/hltjet/internal/adapters/mq/queue"
	worker "github.com/okian/hltjet/internal/adapters/mq/worker"
	model "github.com/okian/hltjet/internal/domain/model"
	logging "github.com/okian/hltjet/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 16)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

func (mq *mockQueue) add(event uint64) {
	mq.jobs <- queue.Job{
		IngestID: "id",
		Event:    &model.Event{EventKey: model.EventKey{Run: 1, Lumi: 2, Event: event}},
		Accepted: time.Now(),
	}
}

type mockProcessor struct {
	fail map[uint64]error
}

func (p *mockProcessor) Process(_ context.Context, ev *model.Event) (*model.Products, error) {
	if err := p.fail[ev.Event]; err != nil {
		return nil, err
	}
	out := model.NewProducts(ev.EventKey)
	out.PutFloats("timing", []float32{1})
	return out, nil
}

type mockStore struct {
	mu   sync.Mutex
	puts []model.EventKey
	err  error
}

func (s *mockStore) Put(_ context.Context, p *model.Products) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.puts = append(s.puts, p.EventKey)
	return nil
}

func (s *mockStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.puts)
}

func init() {
	_ = logging.Init()
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		q := newMockQueue()
		proc := &mockProcessor{fail: map[uint64]error{}}
		store := &mockStore{}
		w := worker.NewInMemoryWorker(q, proc, store, worker.WithName("test-worker"))
		ctx := context.Background()

		convey.Convey("When events are queued and the queue is closed", func() {
			q.add(1)
			q.add(2)
			_ = q.Close()
			w.Run(ctx)

			convey.Convey("Then every event's products are stored in order", func() {
				convey.So(store.puts, convey.ShouldResemble, []model.EventKey{
					{Run: 1, Lumi: 2, Event: 1},
					{Run: 1, Lumi: 2, Event: 2},
				})
			})
		})

		convey.Convey("When the processor fails on one event", func() {
			proc.fail[1] = errors.New("missing collection")
			q.add(1)
			q.add(2)
			_ = q.Close()
			w.Run(ctx)

			convey.Convey("Then the worker keeps going with the next one", func() {
				convey.So(store.count(), convey.ShouldEqual, 1)
				convey.So(store.puts[0].Event, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When a job carries no event", func() {
			q.jobs <- queue.Job{IngestID: "empty"}
			_ = q.Close()
			w.Run(ctx)
			convey.So(store.count(), convey.ShouldEqual, 0)
		})

		convey.Convey("When Shutdown is called on an idle worker", func() {
			go w.Run(ctx)
			sctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()

			convey.Convey("Then it returns promptly and a second call is harmless", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the run context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			done := make(chan struct{})
			go func() {
				w.Run(cctx)
				close(done)
			}()
			cancel()

			convey.Convey("Then Run returns", func() {
				select {
				case <-done:
				case <-time.After(time.Second):
					t.Fatal("worker did not stop")
				}
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of four workers", t, func() {
		q := newMockQueue()
		proc := &mockProcessor{fail: map[uint64]error{3: errors.New("boom")}}
		store := &mockStore{}
		p := worker.NewPool(4, q, proc, store)
		convey.So(p.Size(), convey.ShouldEqual, 4)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p.Start(ctx)

		convey.Convey("When events are queued and the pool shuts down", func() {
			for i := uint64(0); i < 10; i++ {
				q.add(i)
			}
			err := p.Shutdown(context.Background())

			convey.Convey("Then the queue is drained before the workers exit", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(store.count(), convey.ShouldEqual, 9)
				convey.So(p.Processed(), convey.ShouldEqual, 9)
				convey.So(p.Failed(), convey.ShouldEqual, 1)
				convey.So(p.Active(), convey.ShouldEqual, 0)
			})
		})
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		p := worker.NewPool(0, newMockQueue(), &mockProcessor{}, &mockStore{})
		convey.So(p.Size(), convey.ShouldBeGreaterThan, 0)
	})
}
