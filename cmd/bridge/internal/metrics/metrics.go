package metrics

import "sync/atomic"

// Metrics collects lightweight pipeline counters. Every counter is atomic so
// the feed callback side and the aggregation loop can bump them without locks.
type Metrics struct {
	enqueued        atomic.Uint64
	queueDrops      atomic.Uint64
	routingMisses   atomic.Uint64
	ticksPublished  atomic.Uint64
	barsPublished   atomic.Uint64
	publishFailures atomic.Uint64
	sinkReconnects  atomic.Uint64
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	Enqueued        uint64
	QueueDrops      uint64
	RoutingMisses   uint64
	TicksPublished  uint64
	BarsPublished   uint64
	PublishFailures uint64
	SinkReconnects  uint64
}

func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) IncEnqueued()       { m.enqueued.Add(1) }
func (m *Metrics) IncQueueDrop()      { m.queueDrops.Add(1) }
func (m *Metrics) IncRoutingMiss()    { m.routingMisses.Add(1) }
func (m *Metrics) IncTickPublished()  { m.ticksPublished.Add(1) }
func (m *Metrics) IncBarPublished()   { m.barsPublished.Add(1) }
func (m *Metrics) IncPublishFailure() { m.publishFailures.Add(1) }
func (m *Metrics) IncSinkReconnect()  { m.sinkReconnects.Add(1) }

// Snapshot captures the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Enqueued:        m.enqueued.Load(),
		QueueDrops:      m.queueDrops.Load(),
		RoutingMisses:   m.routingMisses.Load(),
		TicksPublished:  m.ticksPublished.Load(),
		BarsPublished:   m.barsPublished.Load(),
		PublishFailures: m.publishFailures.Load(),
		SinkReconnects:  m.sinkReconnects.Load(),
	}
}
