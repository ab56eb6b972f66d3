package feed

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// for deterministic testing
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// for deterministic values
type Rand interface {
	Intn(n int) int
	Float64() float64
}

type RealClock struct{}

func (RealClock) Now() time.Time        { return time.Now() }
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

type RealRand struct{ *rand.Rand }

func (r RealRand) Intn(n int) int   { return r.Rand.Intn(n) }
func (r RealRand) Float64() float64 { return r.Rand.Float64() }

// The simulator offsets trade-stream ids from quote-stream ids the same way
// the real feed does.
const tradeIDOffset = 10000

type simInstrument struct {
	symbol string
	ids    SubscriptionIDs
	price  float64
}

// SimFeed is an in-process synthetic market-data source for local runs and
// tests. It emits quotes, trades and the occasional bar for the subscribed
// symbols on its own goroutine, like a real feed would.
type SimFeed struct {
	handler   Handler
	registrar Registrar
	clock     Clock
	rand      Rand
	interval  time.Duration
	logger    *zap.Logger

	mu          sync.Mutex
	instruments []*simInstrument
	nextID      int64
	stop        chan struct{}
	done        chan struct{}
	running     bool
	ticks       int
}

var _ Client = (*SimFeed)(nil)

func NewSimFeed(handler Handler, registrar Registrar, clock Clock, rnd Rand, interval time.Duration, logger *zap.Logger) *SimFeed {
	return &SimFeed{
		handler:   handler,
		registrar: registrar,
		clock:     clock,
		rand:      rnd,
		interval:  interval,
		logger:    logger,
		nextID:    1001,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Subscribe assigns quote and trade ids for the symbol and registers both
// before returning.
func (s *SimFeed) Subscribe(_ context.Context, symbol string) (SubscriptionIDs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return SubscriptionIDs{}, fmt.Errorf("subscribe %s: feed already started", symbol)
	}

	ids := SubscriptionIDs{QuoteID: s.nextID, TradeID: s.nextID + tradeIDOffset}
	s.nextID++

	s.registrar.Register(ids.QuoteID, symbol, "SMART")
	s.registrar.Register(ids.TradeID, symbol, "SMART")

	s.instruments = append(s.instruments, &simInstrument{
		symbol: symbol,
		ids:    ids,
		price:  50 + s.rand.Float64()*400,
	})

	s.logger.Info("Subscribed",
		zap.String("symbol", symbol),
		zap.Int64("quote_id", ids.QuoteID),
		zap.Int64("trade_id", ids.TradeID))
	return ids, nil
}

func (s *SimFeed) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	if len(s.instruments) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("no subscriptions")
	}
	s.running = true
	s.mu.Unlock()

	s.handler.OnConnectionState(true)
	go s.run(ctx)
	return nil
}

func (s *SimFeed) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	return nil
}

func (s *SimFeed) run(ctx context.Context) {
	defer close(s.done)
	defer s.handler.OnConnectionState(false)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		default:
		}

		s.emitOne()
		s.clock.Sleep(s.interval)
	}
}

func (s *SimFeed) emitOne() {
	s.mu.Lock()
	inst := s.instruments[s.rand.Intn(len(s.instruments))]
	s.ticks++
	tick := s.ticks
	s.mu.Unlock()

	now := s.clock.Now().UnixMilli()
	drift := (s.rand.Float64() - 0.5) * inst.price * 0.002
	inst.price += drift

	spread := inst.price * 0.0005
	bid := inst.price - spread
	ask := inst.price + spread

	switch {
	case tick%50 == 0:
		// Occasional 5-second bar, like the real-time bar subscription
		s.handler.OnBar(inst.ids.QuoteID, now,
			inst.price-drift, inst.price+spread, inst.price-spread, inst.price,
			int64(s.rand.Intn(100000)), inst.price, int64(s.rand.Intn(500)))
	case tick%2 == 0:
		s.handler.OnTrade(inst.ids.TradeID, now, inst.price, int64(1+s.rand.Intn(500)), false)
	default:
		s.handler.OnQuote(inst.ids.QuoteID, now, bid, ask,
			int64(1+s.rand.Intn(1000)), int64(1+s.rand.Intn(1000)))
	}
}
