package service

import (
	"time"

	"github.com/okian/hltjet/internal/config"
	"github.com/okian/hltjet/internal/domain/geometry"
	"github.com/okian/hltjet/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig applies every service setting of cfg.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		for _, opt := range []Option{
			WithWorkerCount(cfg.WorkerCount),
			WithQueueSize(cfg.EventQueueSize),
			WithDedupeSize(cfg.DedupeSize),
			WithProductStore(cfg.ProductCapacity, cfg.ProductTTL()),
			WithGeometryCacheSize(cfg.GeometryCacheSize),
			WithTiming(cfg.Timing),
			WithDiTau(cfg.DiTau),
		} {
			opt(s)
		}
	}
}

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many event keys are remembered. Zero or less
// remembers all of them.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		s.dedupeSize = size
	}
}

// WithProductStore bounds the product store by size and age.
func WithProductStore(capacity int, ttl time.Duration) Option {
	return func(s *Service) {
		if capacity > 0 {
			s.productCapacity = capacity
		}
		if ttl >= 0 {
			s.productTTL = ttl
		}
	}
}

// WithGeometry replaces the ideal detector geometry.
func WithGeometry(g geometry.Lookup) Option {
	return func(s *Service) {
		if g != nil {
			s.geometrySource = g
		}
	}
}

// WithGeometryCacheSize bounds the memoised cell positions.
func WithGeometryCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.geometryCacheSize = size
		}
	}
}

// WithTiming configures the jet timing producer.
func WithTiming(cfg config.Timing) Option {
	return func(s *Service) {
		s.timingCfg = cfg
	}
}

// WithDiTau configures the di-tau cross cleaning producer.
func WithDiTau(cfg config.DiTau) Option {
	return func(s *Service) {
		s.ditauCfg = cfg
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
