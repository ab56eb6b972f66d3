package feedsim

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/faroukBakari/tws-redis-bridge/pkg/models"
)

// Generator produces a synthetic quote/trade/bar stream for a fixed ticker
// set. Prices random-walk around the configured base prices.
type Generator struct {
	logger     *zap.Logger
	emitter    Emitter
	tickers    []string
	basePrices map[string]float64
	rand       Rand
	clock      Clock
	interval   time.Duration

	prices map[string]float64
	ticks  int
}

func NewGenerator(
	logger *zap.Logger,
	emitter Emitter,
	tickers []string,
	basePrices map[string]float64,
	rnd Rand,
	clock Clock,
	interval time.Duration,
) *Generator {
	prices := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		if base, ok := basePrices[t]; ok {
			prices[t] = base
		} else {
			prices[t] = 100.0
		}
	}
	return &Generator{
		logger:     logger,
		emitter:    emitter,
		tickers:    tickers,
		basePrices: basePrices,
		rand:       rnd,
		clock:      clock,
		interval:   interval,
		prices:     prices,
	}
}

func (g *Generator) Run(ctx context.Context) {
	g.logger.Info("Feed simulator started", zap.Strings("tickers", g.tickers))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			symbol := g.tickers[g.rand.Intn(len(g.tickers))]
			frame := g.nextFrame(symbol)

			if err := g.emitter.Emit(ctx, symbol, frame); err != nil {
				g.logger.Error("Emit error", zap.Error(err), zap.String("symbol", symbol))
			}

			g.clock.Sleep(g.interval)
		}
	}
}

func (g *Generator) nextFrame(symbol string) models.FeedFrame {
	g.ticks++
	now := g.clock.Now().UnixMilli()

	price := g.prices[symbol]
	drift := (g.rand.Float64()*10 - 5) * 0.01 * price / 100
	price += drift
	g.prices[symbol] = price

	spread := price * 0.0005

	switch {
	case g.ticks%50 == 0:
		return models.FeedFrame{
			Type:   models.FrameBar,
			Symbol: symbol,
			TS:     now,
			Open:   price - drift,
			High:   price + spread,
			Low:    price - spread,
			Close:  price,
			Volume: int64(g.rand.Intn(100000)),
			WAP:    price,
			Count:  int64(g.rand.Intn(500)),
		}
	case g.ticks%2 == 0:
		return models.FeedFrame{
			Type:     models.FrameTrade,
			Symbol:   symbol,
			TS:       now,
			Last:     price,
			LastSize: int64(1 + g.rand.Intn(500)),
		}
	default:
		return models.FeedFrame{
			Type:    models.FrameQuote,
			Symbol:  symbol,
			TS:      now,
			Bid:     price - spread,
			Ask:     price + spread,
			BidSize: int64(1 + g.rand.Intn(1000)),
			AskSize: int64(1 + g.rand.Intn(1000)),
		}
	}
}
