// Package feed adapts the upstream market-data source to the bridge. The
// vendor API exposes close to a hundred notification hooks; Handler is the
// narrow slice of it this pipeline actually consumes. Everything else the
// transport delivers is mapped to a no-op by the individual feed clients.
package feed

import "context"

// Handler receives normalized feed callbacks. Implementations must never
// block: callbacks run on the feed's own delivery goroutine.
type Handler interface {
	OnQuote(id, ts int64, bid, ask float64, bidSize, askSize int64)
	OnTrade(id, ts int64, last float64, size int64, pastLimit bool)
	OnBar(id, ts int64, open, high, low, closePx float64, volume int64, wap float64, count int64)
	OnConnectionState(connected bool)
	OnError(code int, msg string)
}

// SubscriptionIDs are the feed-assigned ids for one symbol. The feed assigns
// separate ids for the quote and trade streams of the same instrument.
type SubscriptionIDs struct {
	QuoteID int64
	TradeID int64
}

// Registrar is where new subscriptions record their id → symbol mapping.
// Subscribe implementations must register before returning, so every id is
// resolvable by the time its first event can arrive.
type Registrar interface {
	Register(id int64, symbol, exchange string)
}

// Client is a market-data source. Subscribe is synchronous; Start begins
// callback delivery and must be called after all initial subscriptions.
type Client interface {
	Subscribe(ctx context.Context, symbol string) (SubscriptionIDs, error)
	Start(ctx context.Context) error
	Stop() error
}

// Informational feed notices that are expected during a healthy session
// (market-data farm status codes). Everything else is a real error.
var infoCodes = map[int]bool{
	2104: true,
	2106: true,
	2158: true,
}

// IsInfoCode reports whether a feed error code is merely informational.
func IsInfoCode(code int) bool {
	return infoCodes[code]
}
