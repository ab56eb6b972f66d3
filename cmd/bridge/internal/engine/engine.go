// Package engine drains the event queue and maintains per-symbol aggregated
// state. It is the only writer of InstrumentState: processing is one event at
// a time on a single goroutine, so state access needs no locking.
package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/metrics"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/queue"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/routing"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/serialize"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/sink"
	"github.com/faroukBakari/tws-redis-bridge/pkg/models"
)

type Engine struct {
	queue   *queue.Queue
	routes  *routing.Table
	sink    sink.Sink
	logger  *zap.Logger
	metrics *metrics.Metrics

	prefix       string
	pollInterval time.Duration

	// Consumer-owned; touched only from the Run goroutine.
	states map[string]*models.InstrumentState

	// Mirror of len(states), readable from other goroutines.
	instruments atomic.Int64
}

func New(q *queue.Queue, routes *routing.Table, s sink.Sink, m *metrics.Metrics, logger *zap.Logger, prefix string, pollInterval time.Duration) *Engine {
	if pollInterval <= 0 {
		pollInterval = time.Millisecond
	}
	return &Engine{
		queue:        q,
		routes:       routes,
		sink:         s,
		logger:       logger,
		metrics:      m,
		prefix:       prefix,
		pollInterval: pollInterval,
		states:       make(map[string]*models.InstrumentState),
	}
}

// Run polls the queue until the context is cancelled. When the queue is
// empty it yields for the poll interval instead of spinning. Events still
// queued at cancellation are dropped.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("Aggregation engine started",
		zap.String("channel_prefix", e.prefix),
		zap.Duration("poll_interval", e.pollInterval))

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Aggregation engine stopped", zap.Int("undrained", e.queue.Len()))
			return
		default:
		}

		ev, ok := e.queue.TryDequeue()
		if !ok {
			select {
			case <-ctx.Done():
			case <-time.After(e.pollInterval):
			}
			continue
		}

		e.Process(ctx, ev)
	}
}

// Process handles one dequeued event. Exported for the Run loop and tests;
// must only ever be called from a single goroutine.
func (e *Engine) Process(ctx context.Context, ev models.TickEvent) {
	inst, ok := e.routes.Lookup(ev.InstrumentID)
	if !ok {
		// Data-quality defect: an event arrived for an id nothing subscribed.
		e.metrics.IncRoutingMiss()
		e.logger.Warn("Routing miss, dropping event",
			zap.Int64("id", ev.InstrumentID),
			zap.String("kind", ev.Kind.String()))
		return
	}

	// Bars bypass aggregation entirely: they are complete on arrival and
	// published on their own channel namespace.
	if ev.Kind == models.KindBar {
		payload, err := serialize.Bar(inst.Symbol, ev)
		if err != nil {
			e.logger.Error("Bar serialization failed", zap.Error(err), zap.String("symbol", inst.Symbol))
			return
		}
		if e.publish(ctx, e.barChannel(inst.Symbol), payload) {
			e.metrics.IncBarPublished()
		}
		return
	}

	state, exists := e.states[inst.Symbol]
	if !exists {
		state = &models.InstrumentState{
			Symbol:       inst.Symbol,
			InstrumentID: ev.InstrumentID,
			Exchange:     inst.Exchange,
		}
		e.states[inst.Symbol] = state
		e.instruments.Store(int64(len(e.states)))
	}

	switch ev.Kind {
	case models.KindQuote:
		state.ApplyQuote(ev)
	case models.KindTrade:
		state.ApplyTrade(ev)
	}

	// Publish only complete snapshots; every update after the state first
	// becomes ready re-emits the full state.
	if !state.EmitReady() {
		return
	}

	payload, err := serialize.Tick(state)
	if err != nil {
		e.logger.Error("Snapshot serialization failed", zap.Error(err), zap.String("symbol", inst.Symbol))
		return
	}
	if e.publish(ctx, e.tickChannel(inst.Symbol), payload) {
		e.metrics.IncTickPublished()
		e.logger.Debug("Published snapshot",
			zap.String("symbol", inst.Symbol),
			zap.Float64("bid", state.BidPrice),
			zap.Float64("ask", state.AskPrice),
			zap.Float64("last", state.LastPrice))
	}
}

// publish reports success. Sink failures are logged and counted, never
// propagated: the next successful emission carries the full current state.
func (e *Engine) publish(ctx context.Context, channel, payload string) bool {
	if _, err := e.sink.Publish(ctx, channel, payload); err != nil {
		e.metrics.IncPublishFailure()
		e.logger.Error("Publish failed", zap.Error(err), zap.String("channel", channel))
		return false
	}
	return true
}

func (e *Engine) tickChannel(symbol string) string {
	return fmt.Sprintf("%s:TICKS:%s", e.prefix, symbol)
}

func (e *Engine) barChannel(symbol string) string {
	return fmt.Sprintf("%s:BARS:%s", e.prefix, symbol)
}

// InstrumentCount reports how many symbols hold aggregated state. Safe to
// call from any goroutine; used by diagnostics and tests.
func (e *Engine) InstrumentCount() int {
	return int(e.instruments.Load())
}
