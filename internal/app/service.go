// Package service hosts the jet producers: it accepts readout events, runs
// them through the producer chain on a worker pool and keeps the products.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/hltjet/internal/adapters/mq/queue"
	"github.com/okian/hltjet/internal/adapters/mq/worker"
	"github.com/okian/hltjet/internal/adapters/repository"
	"github.com/okian/hltjet/internal/config"
	"github.com/okian/hltjet/internal/domain/dedupe"
	"github.com/okian/hltjet/internal/domain/geometry"
	"github.com/okian/hltjet/internal/domain/model"
	"github.com/okian/hltjet/pkg/logger"
	"github.com/okian/hltjet/pkg/metrics"
)

// Service implements the API dependencies for the producer host.
type Service struct {
	mu sync.RWMutex

	// Core components
	deduper    dedupe.Deduper
	eventQueue *queue.InMemoryQueue
	workerPool *worker.Pool
	products   *repository.ProductStore
	geometry   *geometry.Cached
	chain      *Chain

	// Configuration
	workerCount       int
	queueSize         int
	dedupeSize        int
	productCapacity   int
	productTTL        time.Duration
	geometryCacheSize int
	geometrySource    geometry.Lookup
	timingCfg         config.Timing
	ditauCfg          config.DiTau

	started   bool
	startedAt time.Time
	cancel    context.CancelFunc

	logger logger.Logger
}

// New constructs a Service. Defaults match config.New.
func New(opts ...Option) *Service {
	defaults := config.New()
	s := &Service{
		workerCount:       runtime.NumCPU(),
		queueSize:         defaults.EventQueueSize,
		dedupeSize:        defaults.DedupeSize,
		productCapacity:   defaults.ProductCapacity,
		productTTL:        defaults.ProductTTL(),
		geometryCacheSize: defaults.GeometryCacheSize,
		geometrySource:    geometry.Ideal{},
		timingCfg:         defaults.Timing,
		ditauCfg:          defaults.DiTau,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the components and starts the worker pool. The pool lives
// until Stop, independent of ctx.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting producer service...")

	s.geometry = geometry.NewCached(s.geometrySource, geometry.WithCacheSize(s.geometryCacheSize))
	chain, err := NewChain(s.logger.Named("chain"),
		NewTimingProducer(s.timingCfg, s.geometry),
		NewDiTauProducer(s.ditauCfg, s.logger.Named("ditau")),
	)
	if err != nil {
		return fmt.Errorf("build producers: %w", err)
	}
	s.chain = chain

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.products = repository.NewProductStore(
		repository.WithCapacity(s.productCapacity),
		repository.WithTTL(s.productTTL),
	)
	s.eventQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.workerPool = worker.NewPool(s.workerCount, s.eventQueue, s.chain, s.products)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.workerPool.Start(runCtx)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "producer service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Any("producers", s.chain.Labels()),
		logger.Bool("barrel_jets", s.timingCfg.BarrelJets),
		logger.Bool("endcap_jets", s.timingCfg.EndcapJets),
	)
	return nil
}

// Stop closes the queue, waits for the workers to drain it and releases
// the pool.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping producer service...")

	err := s.workerPool.Shutdown(ctx)
	s.cancel()
	s.started = false

	s.logger.Info(ctx, "producer service stopped",
		logger.Uint64("processed", uint64(s.workerPool.Processed())),
		logger.Uint64("failed", uint64(s.workerPool.Failed())))
	return err
}

// SeenAndRecord implements dedupe.Deduper and counts duplicates.
func (s *Service) SeenAndRecord(ctx context.Context, key model.EventKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deduper == nil {
		return false
	}
	seen := s.deduper.SeenAndRecord(ctx, key)
	if seen {
		metrics.RecordEventDuplicate()
	}
	return seen
}

// Unrecord implements dedupe.Deduper.
func (s *Service) Unrecord(ctx context.Context, key model.EventKey) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deduper != nil {
		s.deduper.Unrecord(ctx, key)
	}
}

// Size implements dedupe.Deduper.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits an event for asynchronous processing and returns its
// ingest id. A full queue yields queue.ErrFull.
func (s *Service) Enqueue(ctx context.Context, ev *model.Event) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return "", ErrNotStarted
	}
	if ev == nil {
		return "", ErrInvalidEvent
	}

	id := uuid.NewString()
	err := s.eventQueue.Enqueue(ctx, queue.Job{IngestID: id, Event: ev, Accepted: time.Now()})
	if err != nil {
		s.logger.Debug(ctx, "enqueue rejected",
			logger.Stringer("event", ev.EventKey),
			logger.Error(err))
		return "", err
	}
	s.logger.Debug(ctx, "event accepted",
		logger.String("ingest_id", id),
		logger.Stringer("event", ev.EventKey))
	return id, nil
}

// Products returns the stored products of an event.
func (s *Service) Products(ctx context.Context, key model.EventKey) (*model.Products, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.products == nil {
		return nil, ErrNotStarted
	}
	return s.products.Get(ctx, key)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if s.chain != nil {
		stats["producers"] = s.chain.Labels()
	}
	if s.started {
		hits, misses := s.geometry.Stats()
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
		stats["queueLength"] = s.eventQueue.Len(ctx)
		stats["eventsProcessed"] = s.workerPool.Processed()
		stats["eventsFailed"] = s.workerPool.Failed()
		stats["workersActive"] = s.workerPool.Active()
		stats["productsStored"] = s.products.Count(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
		stats["geometryCacheHits"] = hits
		stats["geometryCacheMisses"] = misses

		metrics.UpdateQueueSize(s.eventQueue.Len(ctx))
		metrics.UpdateProductsStored(s.products.Count(ctx))
	}
	return stats
}
