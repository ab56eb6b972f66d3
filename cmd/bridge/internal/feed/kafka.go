package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/faroukBakari/tws-redis-bridge/pkg/models"
)

// KafkaReader abstracts the input stream
type KafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaFeed consumes feed frames from a Kafka topic. Messages are keyed by
// symbol; ids are assigned locally at subscribe time, so the routing table is
// always populated before the first message for a symbol is dispatched.
// Frames for symbols that were never subscribed are skipped.
type KafkaFeed struct {
	reader    KafkaReader
	handler   Handler
	registrar Registrar
	logger    *zap.Logger

	mu      sync.Mutex
	ids     map[string]SubscriptionIDs
	nextID  int64
	running bool
	done    chan struct{}
}

var _ Client = (*KafkaFeed)(nil)

func NewKafkaFeed(reader KafkaReader, handler Handler, registrar Registrar, logger *zap.Logger) *KafkaFeed {
	return &KafkaFeed{
		reader:    reader,
		handler:   handler,
		registrar: registrar,
		logger:    logger,
		ids:       make(map[string]SubscriptionIDs),
		nextID:    1001,
		done:      make(chan struct{}),
	}
}

func (k *KafkaFeed) Subscribe(_ context.Context, symbol string) (SubscriptionIDs, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.running {
		return SubscriptionIDs{}, fmt.Errorf("subscribe %s: feed already started", symbol)
	}
	if ids, ok := k.ids[symbol]; ok {
		return ids, nil
	}

	ids := SubscriptionIDs{QuoteID: k.nextID, TradeID: k.nextID + tradeIDOffset}
	k.nextID++
	k.ids[symbol] = ids

	k.registrar.Register(ids.QuoteID, symbol, "SMART")
	k.registrar.Register(ids.TradeID, symbol, "SMART")

	k.logger.Info("Subscribed",
		zap.String("symbol", symbol),
		zap.Int64("quote_id", ids.QuoteID),
		zap.Int64("trade_id", ids.TradeID))
	return ids, nil
}

func (k *KafkaFeed) Start(ctx context.Context) error {
	k.mu.Lock()
	if k.running {
		k.mu.Unlock()
		return nil
	}
	if len(k.ids) == 0 {
		k.mu.Unlock()
		return fmt.Errorf("no subscriptions")
	}
	k.running = true
	k.mu.Unlock()

	k.handler.OnConnectionState(true)
	go k.readLoop(ctx)
	return nil
}

func (k *KafkaFeed) Stop() error {
	k.mu.Lock()
	running := k.running
	k.running = false
	k.mu.Unlock()

	err := k.reader.Close()
	if running {
		<-k.done
	}
	return err
}

func (k *KafkaFeed) readLoop(ctx context.Context) {
	defer close(k.done)
	defer k.handler.OnConnectionState(false)

	for {
		m, err := k.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			k.logger.Warn("Kafka read ended", zap.Error(err))
			return
		}

		var frame models.FeedFrame
		if err := json.Unmarshal(m.Value, &frame); err != nil {
			k.logger.Error("Bad feed frame", zap.Error(err), zap.String("key", string(m.Key)))
			continue
		}

		k.mu.Lock()
		ids, ok := k.ids[string(m.Key)]
		k.mu.Unlock()
		if !ok {
			continue
		}

		switch frame.Type {
		case models.FrameQuote:
			k.handler.OnQuote(ids.QuoteID, frame.TS, frame.Bid, frame.Ask, frame.BidSize, frame.AskSize)
		case models.FrameTrade:
			k.handler.OnTrade(ids.TradeID, frame.TS, frame.Last, frame.LastSize, frame.PastLimit)
		case models.FrameBar:
			k.handler.OnBar(ids.QuoteID, frame.TS, frame.Open, frame.High, frame.Low, frame.Close,
				frame.Volume, frame.WAP, frame.Count)
		case models.FrameError:
			k.handler.OnError(frame.Code, frame.Message)
		default:
		}
	}
}
