package feedsim

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/faroukBakari/tws-redis-bridge/pkg/models"
)

const tradeIDOffset = 10000

// WSServer serves the websocket side of the feed protocol: hello on connect,
// subscribe acks with assigned ids, then per-subscription frame fan-out.
type WSServer struct {
	logger   *zap.Logger
	session  string
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]bool
}

type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu     sync.Mutex
	subs   map[string]models.FeedFrame // symbol -> subscribed ack (holds the ids)
	nextID int64
}

func NewWSServer(logger *zap.Logger) *WSServer {
	return &WSServer{
		logger:  logger,
		session: uuid.NewString(),
		clients: make(map[*wsClient]bool),
	}
}

// Session returns the server's session id, announced in every hello frame.
func (s *WSServer) Session() string { return s.session }

// HandleWS upgrades the connection and runs its subscribe loop.
func (s *WSServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Upgrade failed", zap.Error(err))
		return
	}

	c := &wsClient{
		conn:   conn,
		subs:   make(map[string]models.FeedFrame),
		nextID: 1001,
	}

	c.send(models.FeedFrame{Type: models.FrameHello, Session: s.session})

	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()

	s.logger.Info("Feed client connected", zap.String("remote", conn.RemoteAddr().String()))
	go s.readLoop(c)
}

func (s *WSServer) readLoop(c *wsClient) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		c.conn.Close()
		s.logger.Info("Feed client disconnected", zap.String("remote", c.conn.RemoteAddr().String()))
	}()

	for {
		var req models.FeedRequest
		if err := c.conn.ReadJSON(&req); err != nil {
			return
		}
		if req.Action != models.ActionSubscribe || req.Symbol == "" {
			continue
		}

		c.mu.Lock()
		ack, ok := c.subs[req.Symbol]
		if !ok {
			ack = models.FeedFrame{
				Type:     models.FrameSubscribed,
				Symbol:   req.Symbol,
				QuoteID:  c.nextID,
				TradeID:  c.nextID + tradeIDOffset,
				Exchange: "SMART",
			}
			c.nextID++
			c.subs[req.Symbol] = ack
		}
		c.mu.Unlock()

		c.send(ack)
	}
}

// Emit fans a frame out to every client subscribed to the symbol, stamping
// each client's own ids onto it. Clients that cannot keep up get dropped by
// the write error path, not buffered.
func (s *WSServer) Emit(_ context.Context, symbol string, frame models.FeedFrame) error {
	s.mu.Lock()
	clients := make([]*wsClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.mu.Lock()
		ack, ok := c.subs[symbol]
		c.mu.Unlock()
		if !ok {
			continue
		}

		out := frame
		out.Symbol = ""
		switch frame.Type {
		case models.FrameTrade:
			out.ID = ack.TradeID
		default:
			out.ID = ack.QuoteID
		}

		if err := c.send(out); err != nil {
			c.conn.Close()
		}
	}
	return nil
}

func (c *wsClient) send(frame models.FeedFrame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(frame)
}
