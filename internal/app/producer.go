package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/hltjet/internal/domain/model"
	"github.com/okian/hltjet/pkg/logger"
	"github.com/okian/hltjet/pkg/metrics"
)

// Producer adds products for one event. Implementations hold no per-event
// state, so one instance serves every worker.
type Producer interface {
	Label() string
	Produce(ctx context.Context, ev *model.Event, out *model.Products) error
}

// Chain runs producers in order and collects their products.
type Chain struct {
	producers []Producer
	logger    logger.Logger
}

// NewChain creates a chain. Labels must be unique.
func NewChain(l logger.Logger, producers ...Producer) (*Chain, error) {
	seen := make(map[string]struct{}, len(producers))
	for _, p := range producers {
		if _, dup := seen[p.Label()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, p.Label())
		}
		seen[p.Label()] = struct{}{}
	}
	return &Chain{producers: producers, logger: l}, nil
}

// Labels returns the producer labels in execution order.
func (c *Chain) Labels() []string {
	out := make([]string, len(c.producers))
	for i, p := range c.producers {
		out[i] = p.Label()
	}
	return out
}

// Process implements worker.Processor. The first failing producer aborts
// the event.
func (c *Chain) Process(ctx context.Context, ev *model.Event) (*model.Products, error) {
	out := model.NewProducts(ev.EventKey)
	for _, p := range c.producers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		err := p.Produce(ctx, ev, out)
		metrics.RecordProducerLatency(p.Label(), float64(time.Since(start).Microseconds())/1000)
		if err != nil {
			metrics.RecordEventFailed(p.Label())
			c.logger.Warn(ctx, "producer failed",
				logger.String("producer", p.Label()),
				logger.Stringer("event", ev.EventKey),
				logger.Error(err))
			return nil, fmt.Errorf("%s: %w", p.Label(), err)
		}
	}
	return out, nil
}
