package eventgen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/hltjet/internal/domain/model"
	"github.com/okian/hltjet/pkg/logger"
)

func (c *Config) validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: empty base url", ErrInvalidConfig)
	case c.NumEvents <= 0:
		return fmt.Errorf("%w: events must be positive", ErrInvalidConfig)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.Settle <= 0:
		return fmt.Errorf("%w: settle must be positive", ErrInvalidConfig)
	}
	return nil
}

// Run generates, submits and verifies cfg.NumEvents events. Violated
// invariants are reported in the stats and yield ErrViolations.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := logger.Get().Named("eventgen")
	stats := &Stats{StreamID: uuid.NewString(), StartTime: time.Now()}

	log.Info(ctx, "starting event generator",
		logger.String("stream", stats.StreamID),
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("events", cfg.NumEvents),
		logger.Int("workers", cfg.Workers),
		logger.Uint64("seed", cfg.Seed))

	client := NewClient(cfg.BaseURL, cfg.Timeout, cfg.Attempts)
	if err := client.Health(ctx); err != nil {
		return stats, err
	}

	events := NewGenerator(cfg.Run, cfg.Seed, cfg.Labels).Generate(cfg.NumEvents)
	stats.EventsGenerated = len(events)
	if cfg.OutputFile != "" {
		if err := SaveEvents(cfg.OutputFile, events); err != nil {
			log.Warn(ctx, "failed to save events to file", logger.Error(err))
		}
	}

	accepted, err := submit(ctx, cfg, client, events, stats)
	if err != nil {
		return stats, err
	}
	log.Info(ctx, "events submitted",
		logger.Int("accepted", stats.EventsAccepted),
		logger.Int("duplicate", stats.EventsDuplicate),
		logger.Int("failed", stats.EventsFailed),
		logger.Duration("took", stats.SubmitDuration))

	if err := verify(ctx, cfg, client, accepted, stats); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	if cfg.Verbose {
		for _, v := range stats.Violations {
			log.Warn(ctx, "invariant violated", logger.String("violation", v.String()))
		}
	}
	if len(stats.Violations) > 0 {
		return stats, fmt.Errorf("%w: %d", ErrViolations, len(stats.Violations))
	}
	return stats, nil
}

// submit posts the events with at most cfg.Workers requests in flight and
// returns the events the service accepted.
func submit(ctx context.Context, cfg *Config, client *Client, events []*model.Event, stats *Stats) ([]*model.Event, error) {
	start := time.Now()
	var (
		acceptedN, duplicate, failed atomic.Int64
		accepted                     = make([]bool, len(events))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, ev := range events {
		g.Go(func() error {
			ack, err := client.PostEvent(gctx, ev)
			switch {
			case err != nil:
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed.Add(1)
				logger.Get().Debug(gctx, "event rejected",
					logger.Stringer("event", ev.EventKey),
					logger.Error(err))
			case ack.Duplicate:
				duplicate.Add(1)
			default:
				acceptedN.Add(1)
				accepted[i] = true
			}
			return nil
		})
	}
	err := g.Wait()

	stats.EventsSubmitted = int(acceptedN.Load() + duplicate.Load() + failed.Load())
	stats.EventsAccepted = int(acceptedN.Load())
	stats.EventsDuplicate = int(duplicate.Load())
	stats.EventsFailed = int(failed.Load())
	stats.SubmitDuration = time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("submit events: %w", err)
	}

	out := make([]*model.Event, 0, len(events))
	for i, ev := range events {
		if accepted[i] {
			out = append(out, ev)
		}
	}
	return out, nil
}

// verify fetches the products of every accepted event and checks them.
func verify(ctx context.Context, cfg *Config, client *Client, events []*model.Event, stats *Stats) error {
	start := time.Now()
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, ev := range events {
		g.Go(func() error {
			p, err := client.Products(gctx, ev.EventKey, cfg.Settle)
			if err != nil {
				if errors.Is(err, context.Canceled) && gctx.Err() != nil {
					return gctx.Err()
				}
				mu.Lock()
				stats.ProductsMissing++
				mu.Unlock()
				logger.Get().Debug(gctx, "products unavailable",
					logger.Stringer("event", ev.EventKey),
					logger.Error(err))
				return nil
			}

			sum, violations := Verify(ev, p, cfg.Labels)
			mu.Lock()
			defer mu.Unlock()
			stats.ProductsFetched++
			stats.JetsTimed += sum.Timed
			stats.JetsUntimed += sum.Untimed
			stats.JetsKept += sum.Kept
			stats.Violations = append(stats.Violations, violations...)
			return nil
		})
	}
	err := g.Wait()
	stats.VerifiedDuration = time.Since(start)
	if err != nil {
		return fmt.Errorf("verify products: %w", err)
	}
	return nil
}
