package routing_test

import (
	"testing"

	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/routing"
)

func TestTable_RegisterLookup(t *testing.T) {
	tbl := routing.NewTable()
	tbl.Register(1001, "AAPL", "NASDAQ")
	tbl.Register(11001, "AAPL", "NASDAQ") // second tick-type id, same symbol

	inst, ok := tbl.Lookup(1001)
	if !ok || inst.Symbol != "AAPL" {
		t.Errorf("expected AAPL for 1001, got %+v ok=%v", inst, ok)
	}

	inst, ok = tbl.Lookup(11001)
	if !ok || inst.Symbol != "AAPL" {
		t.Errorf("expected AAPL for 11001, got %+v ok=%v", inst, ok)
	}

	if tbl.Size() != 2 {
		t.Errorf("expected 2 entries, got %d", tbl.Size())
	}
}

func TestTable_UnknownID(t *testing.T) {
	tbl := routing.NewTable()
	if _, ok := tbl.Lookup(9999); ok {
		t.Error("lookup of unregistered id should fail")
	}
}
