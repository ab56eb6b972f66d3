// Package bridge wires the feed, the aggregation engine and the sink into one
// supervised pipeline.
package bridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/engine"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/feed"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/metrics"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/sink"
)

// ErrFeedDisconnected is returned when the upstream feed drops while the
// pipeline is supposed to be running.
var ErrFeedDisconnected = errors.New("feed disconnected")

// Supervisor owns the pipeline lifecycle. It is the only place that reacts to
// sink health (publish paths never reconnect on their own) and to feed
// connection-state changes.
type Supervisor struct {
	feed    feed.Client
	engine  *engine.Engine
	sink    sink.Sink
	metrics *metrics.Metrics
	logger  *zap.Logger
	states  <-chan bool

	pingInterval  time.Duration
	statsInterval time.Duration
}

func NewSupervisor(fc feed.Client, eng *engine.Engine, s sink.Sink, m *metrics.Metrics,
	states <-chan bool, pingInterval, statsInterval time.Duration, logger *zap.Logger) *Supervisor {
	return &Supervisor{
		feed:          fc,
		engine:        eng,
		sink:          s,
		metrics:       m,
		logger:        logger,
		states:        states,
		pingInterval:  pingInterval,
		statsInterval: statsInterval,
	}
}

// Run blocks until the context is cancelled or the feed drops. Shutdown is
// cooperative; events still queued when the engine stops are dropped.
func (s *Supervisor) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.engine.Run(runCtx)
	}()

	if err := s.feed.Start(runCtx); err != nil {
		cancel()
		wg.Wait()
		return err
	}

	pingTicker := time.NewTicker(s.pingInterval)
	defer pingTicker.Stop()
	statsTicker := time.NewTicker(s.statsInterval)
	defer statsTicker.Stop()

	var runErr error

loop:
	for {
		select {
		case <-ctx.Done():
			break loop

		case connected := <-s.states:
			if connected {
				continue
			}
			// The feed owns reconnection of its own transport; a drop that
			// reaches here is terminal for this run.
			s.logger.Error("Feed disconnected, stopping pipeline")
			runErr = ErrFeedDisconnected
			break loop

		case <-pingTicker.C:
			if err := s.sink.Ping(runCtx); err == nil {
				continue
			} else {
				s.logger.Warn("Sink ping failed", zap.Error(err))
			}
			if err := s.sink.Reconnect(runCtx); err != nil {
				s.logger.Error("Sink reconnect failed", zap.Error(err))
				continue
			}
			s.metrics.IncSinkReconnect()
			s.logger.Info("Sink reconnected")

		case <-statsTicker.C:
			s.logStats()
		}
	}

	s.logger.Info("Stopping feed...")
	if err := s.feed.Stop(); err != nil {
		s.logger.Warn("Feed stop error", zap.Error(err))
	}

	cancel()
	wg.Wait()
	s.logStats()
	return runErr
}

func (s *Supervisor) logStats() {
	snap := s.metrics.Snapshot()
	s.logger.Info("Pipeline stats",
		zap.Uint64("enqueued", snap.Enqueued),
		zap.Uint64("queue_drops", snap.QueueDrops),
		zap.Uint64("routing_misses", snap.RoutingMisses),
		zap.Uint64("ticks_published", snap.TicksPublished),
		zap.Uint64("bars_published", snap.BarsPublished),
		zap.Uint64("publish_failures", snap.PublishFailures),
		zap.Uint64("sink_reconnects", snap.SinkReconnects),
		zap.Int("instruments", s.engine.InstrumentCount()))
}
