package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/faroukBakari/tws-redis-bridge/pkg/models"
)

const subscribeTimeout = 10 * time.Second

// WSFeed consumes the websocket feed protocol. The subscribe handshake is
// synchronous: the routing table is populated from the ack frame before
// Subscribe returns. Frame types the bridge does not consume are ignored.
type WSFeed struct {
	url       string
	handler   Handler
	registrar Registrar
	logger    *zap.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	running bool
	done    chan struct{}
}

var _ Client = (*WSFeed)(nil)

func NewWSFeed(url string, handler Handler, registrar Registrar, logger *zap.Logger) *WSFeed {
	return &WSFeed{
		url:       url,
		handler:   handler,
		registrar: registrar,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Connect dials the feed and consumes the hello frame.
func (w *WSFeed) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("dial feed %s: %w", w.url, err)
	}

	conn.SetReadDeadline(time.Now().Add(subscribeTimeout))
	var hello models.FeedFrame
	if err := conn.ReadJSON(&hello); err != nil {
		conn.Close()
		return fmt.Errorf("read hello: %w", err)
	}
	if hello.Type != models.FrameHello {
		conn.Close()
		return fmt.Errorf("expected hello frame, got %q", hello.Type)
	}
	conn.SetReadDeadline(time.Time{})

	w.logger.Info("Connected to feed",
		zap.String("url", w.url),
		zap.String("session", hello.Session))

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()
	return nil
}

// Subscribe requests the symbol and blocks until the feed acks it. Data
// frames for earlier subscriptions that arrive in between are dispatched
// normally, not discarded.
func (w *WSFeed) Subscribe(_ context.Context, symbol string) (SubscriptionIDs, error) {
	w.mu.Lock()
	conn := w.conn
	running := w.running
	w.mu.Unlock()

	if conn == nil {
		return SubscriptionIDs{}, fmt.Errorf("subscribe %s: not connected", symbol)
	}
	if running {
		return SubscriptionIDs{}, fmt.Errorf("subscribe %s: feed already started", symbol)
	}

	req := models.FeedRequest{Action: models.ActionSubscribe, Symbol: symbol}
	if err := conn.WriteJSON(req); err != nil {
		return SubscriptionIDs{}, fmt.Errorf("subscribe %s: %w", symbol, err)
	}

	deadline := time.Now().Add(subscribeTimeout)
	conn.SetReadDeadline(deadline)
	defer conn.SetReadDeadline(time.Time{})

	for {
		var frame models.FeedFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return SubscriptionIDs{}, fmt.Errorf("subscribe %s: %w", symbol, err)
		}

		if frame.Type == models.FrameSubscribed && frame.Symbol == symbol {
			ids := SubscriptionIDs{QuoteID: frame.QuoteID, TradeID: frame.TradeID}
			w.registrar.Register(ids.QuoteID, symbol, frame.Exchange)
			w.registrar.Register(ids.TradeID, symbol, frame.Exchange)
			w.logger.Info("Subscribed",
				zap.String("symbol", symbol),
				zap.Int64("quote_id", ids.QuoteID),
				zap.Int64("trade_id", ids.TradeID))
			return ids, nil
		}

		w.dispatch(frame)
	}
}

// Start hands the connection over to the read pump.
func (w *WSFeed) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.conn == nil {
		w.mu.Unlock()
		return fmt.Errorf("not connected")
	}
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	conn := w.conn
	w.mu.Unlock()

	w.handler.OnConnectionState(true)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go w.readPump(conn)
	return nil
}

func (w *WSFeed) Stop() error {
	w.mu.Lock()
	conn := w.conn
	running := w.running
	w.conn = nil
	w.running = false
	w.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if running {
		<-w.done
	}
	return nil
}

func (w *WSFeed) readPump(conn *websocket.Conn) {
	defer close(w.done)
	defer w.handler.OnConnectionState(false)

	for {
		var frame models.FeedFrame
		if err := conn.ReadJSON(&frame); err != nil {
			w.logger.Warn("Feed read ended", zap.Error(err))
			return
		}
		w.dispatch(frame)
	}
}

func (w *WSFeed) dispatch(frame models.FeedFrame) {
	switch frame.Type {
	case models.FrameQuote:
		w.handler.OnQuote(frame.ID, frame.TS, frame.Bid, frame.Ask, frame.BidSize, frame.AskSize)
	case models.FrameTrade:
		w.handler.OnTrade(frame.ID, frame.TS, frame.Last, frame.LastSize, frame.PastLimit)
	case models.FrameBar:
		w.handler.OnBar(frame.ID, frame.TS, frame.Open, frame.High, frame.Low, frame.Close,
			frame.Volume, frame.WAP, frame.Count)
	case models.FrameError:
		w.handler.OnError(frame.Code, frame.Message)
	default:
		// The feed emits many frame types this pipeline has no use for.
	}
}
