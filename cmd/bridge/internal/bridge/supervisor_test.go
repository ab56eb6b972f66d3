package bridge_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/bridge"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/engine"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/metrics"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/queue"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/routing"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/testutils"
)

func newSupervisor(fc *testutils.StubFeedClient, mockSink *testutils.MockSink, states chan bool) *bridge.Supervisor {
	m := metrics.New()
	eng := engine.New(queue.New(10), routing.NewTable(), mockSink, m, zap.NewNop(), "TWS", time.Millisecond)
	return bridge.NewSupervisor(fc, eng, mockSink, m, states,
		10*time.Millisecond, time.Hour, zap.NewNop())
}

func TestSupervisor_StopsOnContextCancel(t *testing.T) {
	fc := &testutils.StubFeedClient{}
	sup := newSupervisor(fc, &testutils.MockSink{}, make(chan bool, 1))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := sup.Run(ctx); err != nil {
		t.Errorf("cancelled run should return nil, got %v", err)
	}
	if !fc.Started || !fc.Stopped {
		t.Errorf("feed lifecycle not driven: started=%v stopped=%v", fc.Started, fc.Stopped)
	}
}

func TestSupervisor_FeedDisconnectIsTerminal(t *testing.T) {
	fc := &testutils.StubFeedClient{}
	states := make(chan bool, 2)
	sup := newSupervisor(fc, &testutils.MockSink{}, states)

	states <- true
	states <- false

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := sup.Run(ctx)
	if !errors.Is(err, bridge.ErrFeedDisconnected) {
		t.Errorf("expected ErrFeedDisconnected, got %v", err)
	}
	if !fc.Stopped {
		t.Error("feed should be stopped on disconnect")
	}
}

func TestSupervisor_ReconnectsUnhealthySink(t *testing.T) {
	fc := &testutils.StubFeedClient{}
	mockSink := &testutils.MockSink{PingErr: errors.New("connection reset")}
	sup := newSupervisor(fc, mockSink, make(chan bool, 1))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	sup.Run(ctx)

	mockSink.Mu.Lock()
	defer mockSink.Mu.Unlock()
	if mockSink.Reconnects == 0 {
		t.Error("supervisor should reconnect a sink whose ping fails")
	}
}

func TestSupervisor_FeedStartFailure(t *testing.T) {
	fc := &testutils.StubFeedClient{StartErr: errors.New("connection refused")}
	sup := newSupervisor(fc, &testutils.MockSink{}, make(chan bool, 1))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := sup.Run(ctx); err == nil {
		t.Error("run should fail when the feed cannot start")
	}
}
