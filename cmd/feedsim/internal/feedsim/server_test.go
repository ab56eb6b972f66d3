package feedsim_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/faroukBakari/tws-redis-bridge/cmd/feedsim/internal/feedsim"
	"github.com/faroukBakari/tws-redis-bridge/pkg/models"
)

func dialTestServer(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return conn
}

func TestWSServer_HandshakeAndFanout(t *testing.T) {
	wsrv := feedsim.NewWSServer(zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(wsrv.HandleWS))
	defer srv.Close()

	conn := dialTestServer(t, srv)
	defer conn.Close()

	var hello models.FeedFrame
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Type != models.FrameHello || hello.Session != wsrv.Session() {
		t.Fatalf("bad hello frame: %+v", hello)
	}

	if err := conn.WriteJSON(models.FeedRequest{Action: models.ActionSubscribe, Symbol: "AAPL"}); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}
	var ack models.FeedFrame
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read ack: %v", err)
	}
	if ack.Type != models.FrameSubscribed || ack.Symbol != "AAPL" {
		t.Fatalf("bad subscribe ack: %+v", ack)
	}
	if ack.TradeID != ack.QuoteID+10000 {
		t.Errorf("trade id should be offset from quote id: %+v", ack)
	}

	// A trade for a subscribed symbol arrives with the client's trade id
	wsrv.Emit(context.Background(), "AAPL",
		models.FeedFrame{Type: models.FrameTrade, TS: 1500, Last: 171.56, LastSize: 50})

	var trade models.FeedFrame
	if err := conn.ReadJSON(&trade); err != nil {
		t.Fatalf("read trade: %v", err)
	}
	if trade.Type != models.FrameTrade || trade.ID != ack.TradeID {
		t.Errorf("trade not stamped with trade id: %+v", trade)
	}

	// Frames for unsubscribed symbols are not delivered; the next frame the
	// client sees is the MSFT-free quote for AAPL.
	wsrv.Emit(context.Background(), "MSFT",
		models.FeedFrame{Type: models.FrameQuote, TS: 1600, Bid: 400, Ask: 400.1})
	wsrv.Emit(context.Background(), "AAPL",
		models.FeedFrame{Type: models.FrameQuote, TS: 1700, Bid: 171.55, Ask: 171.57})

	var quote models.FeedFrame
	if err := conn.ReadJSON(&quote); err != nil {
		t.Fatalf("read quote: %v", err)
	}
	if quote.TS != 1700 || quote.ID != ack.QuoteID {
		t.Errorf("expected the AAPL quote with quote id, got %+v", quote)
	}
}
