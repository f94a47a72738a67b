// Package worker runs queued events through the producer chain and stores
// the resulting products.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/hltjet/internal/adapters/mq/queue"
	"github.com/okian/hltjet/internal/domain/model"
	"github.com/okian/hltjet/pkg/logger"
	"github.com/okian/hltjet/pkg/metrics"
)

const (
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Processor runs every producer on one event.
type Processor interface {
	Process(ctx context.Context, ev *model.Event) (*model.Products, error)
}

// Store keeps the products of processed events.
type Store interface {
	Put(ctx context.Context, p *model.Products) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until stopped.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// counters are shared by every worker of a pool.
type counters struct {
	processed atomic.Int64
	failed    atomic.Int64
	active    atomic.Int64
	window    atomic.Int64
}

// InMemoryWorker implements Worker for processing jobs.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	store     Store
	name      string
	counters  *counters

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(q Queue, processor Processor, store Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		processor: processor,
		store:     store,
		name:      "worker",
		counters:  &counters{},
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop. It returns when ctx is cancelled, Shutdown is
// called, or the queue is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Error(ctx, "error processing event",
					logger.String("ingest_id", j.IngestID),
					logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) error {
	w.counters.active.Add(1)
	defer w.counters.active.Add(-1)
	if !j.Accepted.IsZero() {
		defer func() {
			metrics.RecordWorkerProcessingLatency(float64(time.Since(j.Accepted).Microseconds()) / 1000)
		}()
	}

	if j.Event == nil {
		w.counters.failed.Add(1)
		metrics.RecordWorkerError()
		return ErrNilEvent
	}

	products, err := w.processor.Process(ctx, j.Event)
	if err != nil {
		w.counters.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "producer_error")
		metrics.RecordErrorByType("producer_error", "high")
		return fmt.Errorf("process event %s: %w", j.Event.EventKey, err)
	}

	if err := w.store.Put(ctx, products); err != nil {
		w.counters.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("store products %s: %w", j.Event.EventKey, err)
	}

	w.counters.processed.Add(1)
	w.counters.window.Add(1)
	metrics.RecordEventProcessed()
	w.logger.Debug(ctx, "event processed",
		logger.String("ingest_id", j.IngestID),
		logger.Stringer("event", j.Event.EventKey),
		logger.Int("products", products.Len()))
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers  []*InMemoryWorker
	queue    Queue
	counters *counters

	shutdown chan struct{}
	lastTick time.Time

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. Zero or less means one
// worker per CPU.
func NewPool(workerCount int, q Queue, processor Processor, store Store) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		counters: &counters{},
		shutdown: make(chan struct{}),
		lastTick: time.Now(),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, processor, store,
			WithName("worker-"+strconv.Itoa(i)),
			withCounters(p.counters),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(workerCount)
	metrics.UpdateWorkerMessagesPerSecond(0.0)

	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of events fully processed and stored.
func (p *Pool) Processed() int64 { return p.counters.processed.Load() }

// Failed returns the number of events that could not be processed.
func (p *Pool) Failed() int64 { return p.counters.failed.Load() }

// Active returns the number of workers busy with an event.
func (p *Pool) Active() int64 { return p.counters.active.Load() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

func (p *Pool) updateMetrics() {
	now := time.Now()
	if dt := now.Sub(p.lastTick).Seconds(); dt > 0 {
		metrics.UpdateWorkerMessagesPerSecond(float64(p.counters.window.Swap(0)) / dt)
	}
	p.lastTick = now

	active := int(p.counters.active.Load())
	metrics.UpdateWorkerActiveCount(active)
	metrics.UpdateWorkerIdleCount(len(p.workers) - active)
}

// Shutdown closes the queue when it supports it, lets the workers drain it
// and waits for them to exit.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	select {
	case <-p.shutdown:
	default:
		close(p.shutdown)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		return fmt.Errorf("worker pool: %w", shutdownCtx.Err())
	}
	return nil
}
