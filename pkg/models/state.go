package models

// InstrumentState is the aggregated view of one symbol, built up from partial
// quote and trade updates. Only the aggregation loop mutates it.
type InstrumentState struct {
	Symbol       string
	InstrumentID int64
	Exchange     string

	// Quote half
	BidPrice       float64
	AskPrice       float64
	BidSize        int64
	AskSize        int64
	QuoteTimestamp int64
	HasQuote       bool

	// Trade half
	LastPrice      float64
	LastSize       int64
	PastLimit      bool
	TradeTimestamp int64
	HasTrade       bool
}

// ApplyQuote overwrites the quote half. The trade half is left untouched.
// HasQuote is monotone: once set it never reverts. The quote-stream id is the
// canonical instrument id; stamping it here keeps the published conId stable
// no matter which half arrived first.
func (s *InstrumentState) ApplyQuote(e TickEvent) {
	s.InstrumentID = e.InstrumentID
	s.BidPrice = e.BidPrice
	s.AskPrice = e.AskPrice
	s.BidSize = e.BidSize
	s.AskSize = e.AskSize
	s.QuoteTimestamp = e.Timestamp
	s.HasQuote = true
}

// ApplyTrade overwrites the trade half. The quote half is left untouched.
func (s *InstrumentState) ApplyTrade(e TickEvent) {
	s.LastPrice = e.LastPrice
	s.LastSize = e.LastSize
	s.PastLimit = e.PastLimit
	s.TradeTimestamp = e.Timestamp
	s.HasTrade = true
}

// EmitReady reports whether both halves have been populated at least once.
// A ready state stays ready; later updates re-trigger emission, they never
// un-ready it.
func (s *InstrumentState) EmitReady() bool {
	return s.HasQuote && s.HasTrade
}

// Timestamp returns the overall snapshot timestamp, the most recent of the
// two halves.
func (s *InstrumentState) Timestamp() int64 {
	if s.QuoteTimestamp > s.TradeTimestamp {
		return s.QuoteTimestamp
	}
	return s.TradeTimestamp
}
