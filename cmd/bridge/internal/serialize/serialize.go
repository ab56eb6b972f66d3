// Package serialize maps aggregated instrument state and bar events onto the
// canonical JSON payloads published downstream. The mapping is pure: the same
// input always yields byte-identical output.
package serialize

import (
	"encoding/json"
	"time"

	"github.com/faroukBakari/tws-redis-bridge/pkg/models"
)

// TickPayload is the wire schema for aggregated quote/trade snapshots.
type TickPayload struct {
	Instrument string      `json:"instrument"`
	ConID      int64       `json:"conId"`
	Timestamp  int64       `json:"timestamp"` // max(quote, trade), unix ms
	Price      PriceBlock  `json:"price"`
	Size       SizeBlock   `json:"size"`
	Timestamps Timestamps  `json:"timestamps"`
	Exchange   string      `json:"exchange"`
	TickAttrib AttribBlock `json:"tickAttrib"`
}

type PriceBlock struct {
	Bid  float64 `json:"bid"`
	Ask  float64 `json:"ask"`
	Last float64 `json:"last"`
}

type SizeBlock struct {
	Bid  int64 `json:"bid"`
	Ask  int64 `json:"ask"`
	Last int64 `json:"last"`
}

type Timestamps struct {
	Quote int64 `json:"quote"`
	Trade int64 `json:"trade"`
}

type AttribBlock struct {
	PastLimit bool `json:"pastLimit"`
}

// BarPayload is the wire schema for bar events. Bars are structurally distinct
// from tick snapshots and never share fields with them.
type BarPayload struct {
	Symbol     string  `json:"symbol"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	Volume     int64   `json:"volume"`
	WAP        float64 `json:"wap"`
	TradeCount int64   `json:"count"`
	Timestamp  int64   `json:"timestamp"`
}

// Tick serializes a complete instrument snapshot.
func Tick(s *models.InstrumentState) (string, error) {
	p := TickPayload{
		Instrument: s.Symbol,
		ConID:      s.InstrumentID,
		Timestamp:  s.Timestamp(),
		Price:      PriceBlock{Bid: s.BidPrice, Ask: s.AskPrice, Last: s.LastPrice},
		Size:       SizeBlock{Bid: s.BidSize, Ask: s.AskSize, Last: s.LastSize},
		Timestamps: Timestamps{Quote: s.QuoteTimestamp, Trade: s.TradeTimestamp},
		Exchange:   s.Exchange,
		TickAttrib: AttribBlock{PastLimit: s.PastLimit},
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Bar serializes a bar event for the given symbol.
func Bar(symbol string, e models.TickEvent) (string, error) {
	p := BarPayload{
		Symbol:     symbol,
		Open:       e.Open,
		High:       e.High,
		Low:        e.Low,
		Close:      e.Close,
		Volume:     e.Volume,
		WAP:        e.WAP,
		TradeCount: e.TradeCount,
		Timestamp:  e.Timestamp,
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FormatTimestamp renders a unix-ms timestamp as an ISO-8601 UTC string with
// millisecond precision, e.g. "2023-11-14T22:13:20.000Z". The canonical
// payload fields stay raw epoch-ms; this is for human-readable surfaces only.
func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}
