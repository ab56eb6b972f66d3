package models

// TickKind selects which payload variant of a TickEvent is populated.
type TickKind int

const (
	KindQuote TickKind = iota
	KindTrade
	KindBar
)

func (k TickKind) String() string {
	switch k {
	case KindQuote:
		return "quote"
	case KindTrade:
		return "trade"
	case KindBar:
		return "bar"
	default:
		return "unknown"
	}
}

// TickEvent is the normalized unit passed from the feed callbacks to the
// aggregation loop. Exactly one payload variant is meaningful, selected by
// Kind; fields of the other variants must not be read.
type TickEvent struct {
	InstrumentID int64
	Kind         TickKind
	Timestamp    int64 // unix ms, feed-supplied

	// Quote variant
	BidPrice float64
	AskPrice float64
	BidSize  int64
	AskSize  int64

	// Trade variant
	LastPrice float64
	LastSize  int64
	PastLimit bool

	// Bar variant
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	WAP        float64
	TradeCount int64
}

// QuoteEvent builds a quote-variant event.
func QuoteEvent(id, ts int64, bid, ask float64, bidSize, askSize int64) TickEvent {
	return TickEvent{
		InstrumentID: id,
		Kind:         KindQuote,
		Timestamp:    ts,
		BidPrice:     bid,
		AskPrice:     ask,
		BidSize:      bidSize,
		AskSize:      askSize,
	}
}

// TradeEvent builds a trade-variant event.
func TradeEvent(id, ts int64, last float64, size int64, pastLimit bool) TickEvent {
	return TickEvent{
		InstrumentID: id,
		Kind:         KindTrade,
		Timestamp:    ts,
		LastPrice:    last,
		LastSize:     size,
		PastLimit:    pastLimit,
	}
}

// BarEvent builds a bar-variant event.
func BarEvent(id, ts int64, open, high, low, closePx float64, volume int64, wap float64, count int64) TickEvent {
	return TickEvent{
		InstrumentID: id,
		Kind:         KindBar,
		Timestamp:    ts,
		Open:         open,
		High:         high,
		Low:          low,
		Close:        closePx,
		Volume:       volume,
		WAP:          wap,
		TradeCount:   count,
	}
}
