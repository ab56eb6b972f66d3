package testutils

import (
	"context"
	"sync"

	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/feed"
)

// StubFeedClient is a feed.Client whose lifecycle the test controls directly.
type StubFeedClient struct {
	Mu         sync.Mutex
	StartErr   error
	Started    bool
	Stopped    bool
	Subscribed []string
	nextID     int64
}

func (s *StubFeedClient) Subscribe(_ context.Context, symbol string) (feed.SubscriptionIDs, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.nextID == 0 {
		s.nextID = 1001
	}
	ids := feed.SubscriptionIDs{QuoteID: s.nextID, TradeID: s.nextID + 10000}
	s.nextID++
	s.Subscribed = append(s.Subscribed, symbol)
	return ids, nil
}

func (s *StubFeedClient) Start(_ context.Context) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.StartErr != nil {
		return s.StartErr
	}
	s.Started = true
	return nil
}

func (s *StubFeedClient) Stop() error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.Stopped = true
	return nil
}
