package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/feed"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/routing"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/testutils"
	"github.com/faroukBakari/tws-redis-bridge/pkg/models"
)

var upgrader = websocket.Upgrader{}

// fakeFeedServer speaks just enough of the feed protocol for one client:
// hello, subscribe acks, then the scripted frames.
func fakeFeedServer(t *testing.T, frames []models.FeedFrame) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.WriteJSON(models.FeedFrame{Type: models.FrameHello, Session: "test-session"})

		nextID := int64(1001)
		for {
			var req models.FeedRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if req.Action != models.ActionSubscribe {
				continue
			}
			conn.WriteJSON(models.FeedFrame{
				Type:     models.FrameSubscribed,
				Symbol:   req.Symbol,
				QuoteID:  nextID,
				TradeID:  nextID + 10000,
				Exchange: "SMART",
			})
			nextID++
			if req.Symbol == "GO" {
				// Last subscription in the test script: stream the frames
				for _, f := range frames {
					conn.WriteJSON(f)
				}
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSFeed_SubscribeAndStream(t *testing.T) {
	frames := []models.FeedFrame{
		{Type: models.FrameQuote, ID: 1001, TS: 1000, Bid: 171.55, Ask: 171.57, BidSize: 100, AskSize: 200},
		{Type: models.FrameTrade, ID: 11001, TS: 1500, Last: 171.56, LastSize: 50},
		{Type: "unknown-frame"},
		{Type: models.FrameError, Code: 2104, Message: "market data farm ok"},
	}
	srv := fakeFeedServer(t, frames)
	defer srv.Close()

	handler := &testutils.RecordingHandler{}
	routes := routing.NewTable()
	w := feed.NewWSFeed(wsURL(srv), handler, routes, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Connect(ctx); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	ids, err := w.Subscribe(ctx, "AAPL")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if inst, ok := routes.Lookup(ids.QuoteID); !ok || inst.Symbol != "AAPL" {
		t.Fatalf("routing not populated before Subscribe returned: %+v ok=%v", inst, ok)
	}

	// "GO" triggers the scripted stream server-side
	if _, err := w.Subscribe(ctx, "GO"); err != nil {
		t.Fatalf("subscribe GO failed: %v", err)
	}

	if err := w.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	quotes := waitForCalls(handler, "quote", 1)
	trades := waitForCalls(handler, "trade", 1)
	errs := waitForCalls(handler, "error", 1)

	if len(quotes) != 1 || quotes[0].ID != 1001 {
		t.Errorf("unexpected quotes: %+v", quotes)
	}
	if len(trades) != 1 || trades[0].ID != 11001 {
		t.Errorf("unexpected trades: %+v", trades)
	}
	if len(errs) != 1 || errs[0].Code != 2104 {
		t.Errorf("error frame not dispatched: %+v", errs)
	}

	// Server closed after streaming; the read pump must surface a disconnect
	states := waitForCalls(handler, "state", 2)
	if len(states) < 2 || states[len(states)-1].Connected {
		t.Errorf("expected terminal disconnect state, got %+v", states)
	}

	w.Stop()
}

func TestWSFeed_SubscribeBeforeConnect(t *testing.T) {
	w := feed.NewWSFeed("ws://localhost:0", &testutils.RecordingHandler{}, routing.NewTable(), zap.NewNop())
	if _, err := w.Subscribe(context.Background(), "AAPL"); err == nil {
		t.Error("subscribe before connect should fail")
	}
}
