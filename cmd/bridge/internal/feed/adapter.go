package feed

import (
	"go.uber.org/zap"

	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/metrics"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/queue"
	"github.com/faroukBakari/tws-redis-bridge/pkg/models"
)

// QueueAdapter implements Handler by normalizing callbacks into TickEvents
// and handing them to the bounded queue. Every path through it is
// non-blocking; a full queue means the event is dropped and counted.
type QueueAdapter struct {
	queue   *queue.Queue
	metrics *metrics.Metrics
	logger  *zap.Logger
	states  chan bool
}

var _ Handler = (*QueueAdapter)(nil)

func NewQueueAdapter(q *queue.Queue, m *metrics.Metrics, logger *zap.Logger) *QueueAdapter {
	return &QueueAdapter{
		queue:   q,
		metrics: m,
		logger:  logger,
		states:  make(chan bool, 8),
	}
}

// States delivers connection-state changes for the supervisor to observe.
func (a *QueueAdapter) States() <-chan bool { return a.states }

func (a *QueueAdapter) OnQuote(id, ts int64, bid, ask float64, bidSize, askSize int64) {
	a.enqueue(models.QuoteEvent(id, ts, bid, ask, bidSize, askSize))
}

func (a *QueueAdapter) OnTrade(id, ts int64, last float64, size int64, pastLimit bool) {
	a.enqueue(models.TradeEvent(id, ts, last, size, pastLimit))
}

func (a *QueueAdapter) OnBar(id, ts int64, open, high, low, closePx float64, volume int64, wap float64, count int64) {
	a.enqueue(models.BarEvent(id, ts, open, high, low, closePx, volume, wap, count))
}

func (a *QueueAdapter) enqueue(e models.TickEvent) {
	if !a.queue.TryEnqueue(e) {
		a.metrics.IncQueueDrop()
		a.logger.Warn("Queue full, dropping event",
			zap.Int64("id", e.InstrumentID),
			zap.String("kind", e.Kind.String()))
		return
	}
	a.metrics.IncEnqueued()
}

func (a *QueueAdapter) OnConnectionState(connected bool) {
	a.logger.Info("Feed connection state changed", zap.Bool("connected", connected))
	for {
		select {
		case a.states <- connected:
			return
		default:
		}
		// Buffer holds only stale transitions at this point; evict the
		// oldest so the newest state always lands. A disconnect must never
		// be lost, the supervisor acts on it.
		select {
		case <-a.states:
		default:
		}
	}
}

func (a *QueueAdapter) OnError(code int, msg string) {
	if IsInfoCode(code) {
		a.logger.Info("Feed notice", zap.Int("code", code), zap.String("msg", msg))
		return
	}
	a.logger.Warn("Feed error", zap.Int("code", code), zap.String("msg", msg))
}
