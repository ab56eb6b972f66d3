package feed_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/feed"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/routing"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/testutils"
	"github.com/faroukBakari/tws-redis-bridge/pkg/models"
)

func frameMessage(t *testing.T, symbol string, frame models.FeedFrame) kafka.Message {
	t.Helper()
	b, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	return kafka.Message{Key: []byte(symbol), Value: b}
}

func waitForCalls(handler *testutils.RecordingHandler, kind string, n int) []testutils.RecordedCallback {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if calls := handler.CallsOfKind(kind); len(calls) >= n {
			return calls
		}
		time.Sleep(time.Millisecond)
	}
	return handler.CallsOfKind(kind)
}

func TestKafkaFeed_DispatchesBySymbolKey(t *testing.T) {
	msgs := []kafka.Message{
		frameMessage(t, "AAPL", models.FeedFrame{Type: models.FrameQuote, TS: 1000, Bid: 171.55, Ask: 171.57, BidSize: 100, AskSize: 200}),
		frameMessage(t, "AAPL", models.FeedFrame{Type: models.FrameTrade, TS: 1500, Last: 171.56, LastSize: 50}),
		frameMessage(t, "MSFT", models.FeedFrame{Type: models.FrameQuote, TS: 1600, Bid: 400, Ask: 400.1}), // never subscribed
	}

	reader := &testutils.MockKafkaReader{Messages: msgs}
	handler := &testutils.RecordingHandler{}
	routes := routing.NewTable()
	kf := feed.NewKafkaFeed(reader, handler, routes, zap.NewNop())

	ids, err := kf.Subscribe(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	if err := kf.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer kf.Stop()

	quotes := waitForCalls(handler, "quote", 1)
	trades := waitForCalls(handler, "trade", 1)

	if len(quotes) != 1 || quotes[0].ID != ids.QuoteID {
		t.Errorf("expected one quote for %d, got %+v", ids.QuoteID, quotes)
	}
	if len(trades) != 1 || trades[0].ID != ids.TradeID {
		t.Errorf("expected one trade for %d, got %+v", ids.TradeID, trades)
	}
}

func TestKafkaFeed_SubscribeIdempotent(t *testing.T) {
	kf := feed.NewKafkaFeed(&testutils.MockKafkaReader{}, &testutils.RecordingHandler{}, routing.NewTable(), zap.NewNop())

	a, _ := kf.Subscribe(context.Background(), "AAPL")
	b, _ := kf.Subscribe(context.Background(), "AAPL")
	if a != b {
		t.Errorf("re-subscribing the same symbol should return the same ids: %+v vs %+v", a, b)
	}
}

func TestKafkaFeed_BadFrameSkipped(t *testing.T) {
	msgs := []kafka.Message{
		{Key: []byte("AAPL"), Value: []byte("{broken-json")},
		frameMessage(t, "AAPL", models.FeedFrame{Type: models.FrameTrade, TS: 1500, Last: 171.56, LastSize: 50}),
	}

	handler := &testutils.RecordingHandler{}
	kf := feed.NewKafkaFeed(&testutils.MockKafkaReader{Messages: msgs}, handler, routing.NewTable(), zap.NewNop())
	kf.Subscribe(context.Background(), "AAPL")

	if err := kf.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer kf.Stop()

	trades := waitForCalls(handler, "trade", 1)
	if len(trades) != 1 {
		t.Errorf("valid frame after a bad one should still dispatch, got %d trades", len(trades))
	}
}
