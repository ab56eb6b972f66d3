package models_test

import (
	"testing"

	"github.com/faroukBakari/tws-redis-bridge/pkg/models"
)

func TestInstrumentState_MergeMonotonicity(t *testing.T) {
	s := &models.InstrumentState{Symbol: "AAPL", InstrumentID: 1001}

	if s.EmitReady() {
		t.Fatal("fresh state must not be emit-ready")
	}

	s.ApplyQuote(models.QuoteEvent(1001, 1000, 171.55, 171.57, 100, 200))
	if !s.HasQuote || s.HasTrade {
		t.Fatalf("after quote: hasQuote=%v hasTrade=%v", s.HasQuote, s.HasTrade)
	}
	if s.EmitReady() {
		t.Fatal("quote-only state must not be emit-ready")
	}

	s.ApplyTrade(models.TradeEvent(11001, 1500, 171.56, 50, false))
	if !s.EmitReady() {
		t.Fatal("state with both halves must be emit-ready")
	}

	// No sequence of further events can un-ready the state
	for i := int64(0); i < 100; i++ {
		if i%2 == 0 {
			s.ApplyQuote(models.QuoteEvent(1001, 2000+i, 171.0, 171.1, 1, 1))
		} else {
			s.ApplyTrade(models.TradeEvent(11001, 2000+i, 171.05, 1, false))
		}
		if !s.HasQuote || !s.HasTrade || !s.EmitReady() {
			t.Fatalf("state reverted to incomplete at update %d", i)
		}
	}
}

func TestInstrumentState_HalvesIndependent(t *testing.T) {
	s := &models.InstrumentState{Symbol: "AAPL"}
	s.ApplyQuote(models.QuoteEvent(1001, 1000, 171.55, 171.57, 100, 200))
	s.ApplyTrade(models.TradeEvent(11001, 1500, 171.56, 50, true))

	s.ApplyQuote(models.QuoteEvent(1001, 2000, 172.00, 172.02, 10, 20))

	if s.LastPrice != 171.56 || s.LastSize != 50 || !s.PastLimit || s.TradeTimestamp != 1500 {
		t.Errorf("quote update must not touch the trade half: %+v", s)
	}
	if s.BidPrice != 172.00 || s.QuoteTimestamp != 2000 {
		t.Errorf("quote half not overwritten: %+v", s)
	}
}

func TestInstrumentState_QuoteStampsCanonicalID(t *testing.T) {
	s := &models.InstrumentState{Symbol: "AAPL", InstrumentID: 11001}

	s.ApplyTrade(models.TradeEvent(11001, 1000, 171.56, 50, false))
	s.ApplyQuote(models.QuoteEvent(1001, 1500, 171.55, 171.57, 100, 200))
	if s.InstrumentID != 1001 {
		t.Errorf("quote id should become the canonical id, got %d", s.InstrumentID)
	}

	// Later trades must not displace it
	s.ApplyTrade(models.TradeEvent(11001, 2000, 171.58, 25, false))
	if s.InstrumentID != 1001 {
		t.Errorf("trade update displaced the canonical id: %d", s.InstrumentID)
	}
}

func TestInstrumentState_Timestamp(t *testing.T) {
	s := &models.InstrumentState{QuoteTimestamp: 1000, TradeTimestamp: 1500}
	if s.Timestamp() != 1500 {
		t.Errorf("expected 1500, got %d", s.Timestamp())
	}
	s.QuoteTimestamp = 2000
	if s.Timestamp() != 2000 {
		t.Errorf("expected 2000, got %d", s.Timestamp())
	}
}
