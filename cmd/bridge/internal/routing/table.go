package routing

import "sync"

// Instrument is what a feed-assigned id resolves to.
type Instrument struct {
	Symbol   string
	Exchange string
}

// Table maps feed-assigned instrument ids to symbols. Entries are written at
// subscribe time, before any event for that id can arrive, and read from the
// aggregation loop. Several ids may map to the same symbol (the feed assigns
// separate ids per tick type).
type Table struct {
	mu      sync.RWMutex
	entries map[int64]Instrument
}

func NewTable() *Table {
	return &Table{entries: make(map[int64]Instrument)}
}

// Register records an id → symbol mapping. Re-registering an id overwrites it.
func (t *Table) Register(id int64, symbol, exchange string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[id] = Instrument{Symbol: symbol, Exchange: exchange}
}

// Lookup resolves an id. The second return is false for unknown ids; the
// caller treats that as a routing miss, not a crash condition.
func (t *Table) Lookup(id int64) (Instrument, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	inst, ok := t.entries[id]
	return inst, ok
}

// Size returns the number of registered ids.
func (t *Table) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
