// Package engine runs statistics computations and publishes their results.
//
// Every trigger is stamped with a sequence number. A finished run replaces the
// published snapshot only if no newer run has been published in the meantime, so
// readers always see one complete report and the last trigger wins.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tradestat/internal/analytics"
	apperrors "tradestat/internal/errors"
	"tradestat/internal/logging"
	"tradestat/internal/models"
)

// Publication is a published computation run.
type Publication struct {
	RunID       uuid.UUID        `json:"run_id"`
	Sequence    uint64           `json:"sequence"`
	PublishedAt time.Time        `json:"published_at"`
	Report      analytics.Report `json:"report"`
}

// Consumer receives every publication, in sequence order, once.
type Consumer interface {
	OnPublish(ctx context.Context, pub *Publication) error
}

// ConsumerFunc adapts a function to the Consumer interface.
type ConsumerFunc func(ctx context.Context, pub *Publication) error

// OnPublish calls f.
func (f ConsumerFunc) OnPublish(ctx context.Context, pub *Publication) error {
	return f(ctx, pub)
}

// Config holds engine configuration.
type Config struct {
	Options analytics.Options
	// SubscriberBufferSize is the size of each subscriber channel.
	SubscriberBufferSize int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		Options:              analytics.DefaultOptions(),
		SubscriberBufferSize: 8,
	}
}

// Engine computes reports and distributes them to subscribers and consumers.
type Engine struct {
	config Config
	logger zerolog.Logger

	seq    atomic.Uint64
	latest atomic.Pointer[Publication]

	// publishMu orders publication with notification.
	publishMu sync.Mutex

	mu          sync.RWMutex
	subscribers []*subscriber
	consumers   []Consumer
	closed      bool

	runs       atomic.Uint64
	published  atomic.Uint64
	superseded atomic.Uint64
	dropped    atomic.Uint64
}

type subscriber struct {
	ch      chan *Publication
	dropped int
}

// Metrics contains engine counters.
type Metrics struct {
	Runs        uint64
	Published   uint64
	Superseded  uint64
	Dropped     uint64
	Subscribers int
}

// New creates an engine.
func New(config Config, logger zerolog.Logger) *Engine {
	if config.SubscriberBufferSize <= 0 {
		config.SubscriberBufferSize = DefaultConfig().SubscriberBufferSize
	}
	return &Engine{
		config: config,
		logger: logging.WithOperation(logger, "engine"),
	}
}

// Options returns the analytics options used for every run.
func (e *Engine) Options() analytics.Options {
	return e.config.Options
}

// Recompute runs the full pipeline over trades and publishes the result.
// It returns the publication and whether it became the latest one; a run
// overtaken by a newer trigger is discarded and reported as not published.
func (e *Engine) Recompute(ctx context.Context, trades []models.RawTrade) (*Publication, bool) {
	seq := e.seq.Add(1)
	runID := uuid.New()
	logger := logging.WithRun(e.logger, runID.String(), seq)
	e.runs.Add(1)

	start := time.Now()
	report := analytics.Assemble(trades, e.config.Options)
	duration := time.Since(start)

	for _, f := range report.Faults {
		logging.LogFault(logger, f.Index, f.Pair, f.Kind, f.Message)
	}
	for _, cond := range report.Conditions() {
		if errors.Is(cond, apperrors.ErrEmptyInputSet) {
			logger.Info().Msg("No trades supplied; publishing empty snapshot")
			continue
		}
		logger.Debug().Err(cond).Msg("Partition has no trades")
	}

	pub := &Publication{
		RunID:       runID,
		Sequence:    seq,
		PublishedAt: time.Now().UTC(),
		Report:      report,
	}

	// consumers log through the run logger
	ctx = logging.WithLogger(ctx, logger)
	if !e.publish(ctx, pub) {
		e.superseded.Add(1)
		logger.Warn().
			Uint64("latest_seq", e.latest.Load().Sequence).
			Msg("Run superseded by a newer trigger; discarding")
		return pub, false
	}

	all := report.Snapshot.General.All
	logging.LogRun(logger, report.Snapshot.TradeCount, len(report.Faults), all.Pips.Net, all.ValuePips.Net, duration)
	return pub, true
}

// Latest returns the most recently published run, or nil before the first run.
func (e *Engine) Latest() *Publication {
	return e.latest.Load()
}

func (e *Engine) publish(ctx context.Context, pub *Publication) bool {
	e.publishMu.Lock()
	defer e.publishMu.Unlock()

	for {
		cur := e.latest.Load()
		if cur != nil && cur.Sequence >= pub.Sequence {
			return false
		}
		if e.latest.CompareAndSwap(cur, pub) {
			break
		}
	}

	e.published.Add(1)
	e.broadcast(pub)
	e.notifyConsumers(ctx, pub)
	return true
}

// Subscribe returns a channel that receives each publication. Slow subscribers
// miss publications instead of blocking the engine.
func (e *Engine) Subscribe() <-chan *Publication {
	ch := make(chan *Publication, e.config.SubscriberBufferSize)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		close(ch)
		return ch
	}
	e.subscribers = append(e.subscribers, &subscriber{ch: ch})
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (e *Engine) Unsubscribe(ch <-chan *Publication) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, sub := range e.subscribers {
		if sub.ch == ch {
			close(sub.ch)
			e.subscribers = append(e.subscribers[:i], e.subscribers[i+1:]...)
			return
		}
	}
}

func (e *Engine) broadcast(pub *Publication) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, sub := range e.subscribers {
		select {
		case sub.ch <- pub:
		default:
			sub.dropped++
			e.dropped.Add(1)
			e.logger.Debug().Int("dropped", sub.dropped).Msg("Slow subscriber skipped")
		}
	}
}

// RegisterConsumer adds a consumer notified synchronously on every publication.
func (e *Engine) RegisterConsumer(c Consumer) {
	e.mu.Lock()
	e.consumers = append(e.consumers, c)
	e.mu.Unlock()
}

func (e *Engine) notifyConsumers(ctx context.Context, pub *Publication) {
	e.mu.RLock()
	consumers := make([]Consumer, len(e.consumers))
	copy(consumers, e.consumers)
	e.mu.RUnlock()

	for _, c := range consumers {
		if err := c.OnPublish(ctx, pub); err != nil {
			e.logger.Error().Err(err).
				Str("run_id", pub.RunID.String()).
				Msg("Consumer failed to handle publication")
		}
	}
}

// Close closes all subscriber channels.
func (e *Engine) Close() {
	e.publishMu.Lock()
	defer e.publishMu.Unlock()
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	for _, sub := range e.subscribers {
		close(sub.ch)
	}
	e.subscribers = nil
}

// Metrics returns engine counters.
func (e *Engine) Metrics() Metrics {
	e.mu.RLock()
	subs := len(e.subscribers)
	e.mu.RUnlock()

	return Metrics{
		Runs:        e.runs.Load(),
		Published:   e.published.Load(),
		Superseded:  e.superseded.Load(),
		Dropped:     e.dropped.Load(),
		Subscribers: subs,
	}
}
