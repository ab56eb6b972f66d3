package models

// Frame types exchanged with the feed endpoint. Consumers ignore frame types
// they do not recognize.
const (
	FrameHello      = "hello"
	FrameSubscribed = "subscribed"
	FrameQuote      = "quote"
	FrameTrade      = "trade"
	FrameBar        = "bar"
	FrameError      = "error"
)

const ActionSubscribe = "subscribe"

// FeedRequest is a client → feed command.
type FeedRequest struct {
	Action string `json:"action"`
	Symbol string `json:"symbol"`
}

// FeedFrame is a feed → client message. Which fields are meaningful depends
// on Type; the rest are zero.
type FeedFrame struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol,omitempty"`
	ID     int64  `json:"id,omitempty"`
	TS     int64  `json:"ts,omitempty"` // unix ms

	// hello
	Session string `json:"session,omitempty"`

	// subscribed
	QuoteID  int64  `json:"quoteId,omitempty"`
	TradeID  int64  `json:"tradeId,omitempty"`
	Exchange string `json:"exchange,omitempty"`

	// quote
	Bid     float64 `json:"bid,omitempty"`
	Ask     float64 `json:"ask,omitempty"`
	BidSize int64   `json:"bidSize,omitempty"`
	AskSize int64   `json:"askSize,omitempty"`

	// trade
	Last      float64 `json:"last,omitempty"`
	LastSize  int64   `json:"lastSize,omitempty"`
	PastLimit bool    `json:"pastLimit,omitempty"`

	// bar
	Open   float64 `json:"open,omitempty"`
	High   float64 `json:"high,omitempty"`
	Low    float64 `json:"low,omitempty"`
	Close  float64 `json:"close,omitempty"`
	Volume int64   `json:"volume,omitempty"`
	WAP    float64 `json:"wap,omitempty"`
	Count  int64   `json:"count,omitempty"`

	// error
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
