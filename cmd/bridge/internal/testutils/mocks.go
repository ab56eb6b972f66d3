package testutils

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// PublishedMessage is one recorded Publish call.
type PublishedMessage struct {
	Channel string
	Payload string
}

// MockSink records publishes and can be scripted to fail the first N calls.
type MockSink struct {
	Mu         sync.Mutex
	Messages   []PublishedMessage
	FailNext   int // fail this many Publish calls before succeeding
	PingErr    error
	Reconnects int
	Closed     bool
	Subs       int64 // subscriber count returned on success
}

func (m *MockSink) Publish(_ context.Context, channel, payload string) (int64, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.FailNext > 0 {
		m.FailNext--
		return 0, errors.New("sink unavailable")
	}
	m.Messages = append(m.Messages, PublishedMessage{Channel: channel, Payload: payload})
	return m.Subs, nil
}

func (m *MockSink) Ping(_ context.Context) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.PingErr
}

func (m *MockSink) Reconnect(_ context.Context) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Reconnects++
	m.PingErr = nil
	return nil
}

func (m *MockSink) Close() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
	return nil
}

// MessageCount returns the number of successful publishes.
func (m *MockSink) MessageCount() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.Messages)
}

// MockRedisClient satisfies sink.RedisClient without a server.
type MockRedisClient struct {
	Mu        sync.Mutex
	Published []PublishedMessage
	PingFails bool
	Closed    bool
}

func (m *MockRedisClient) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	cmd := redis.NewIntCmd(ctx)
	if m.Closed {
		cmd.SetErr(errors.New("client closed"))
		return cmd
	}
	payload, _ := message.(string)
	m.Published = append(m.Published, PublishedMessage{Channel: channel, Payload: payload})
	cmd.SetVal(1)
	return cmd
}

func (m *MockRedisClient) Ping(ctx context.Context) *redis.StatusCmd {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	cmd := redis.NewStatusCmd(ctx)
	if m.PingFails || m.Closed {
		cmd.SetErr(errors.New("connection refused"))
		return cmd
	}
	cmd.SetVal("PONG")
	return cmd
}

func (m *MockRedisClient) Close() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
	return nil
}

// RecordedCallback is one handler invocation captured by RecordingHandler.
type RecordedCallback struct {
	Kind string // "quote", "trade", "bar", "state", "error"
	ID   int64
	TS   int64
	Code int
	Msg  string

	Connected bool
}

// RecordingHandler captures feed.Handler callbacks for assertions.
type RecordingHandler struct {
	Mu    sync.Mutex
	Calls []RecordedCallback
}

func (r *RecordingHandler) OnQuote(id, ts int64, bid, ask float64, bidSize, askSize int64) {
	r.record(RecordedCallback{Kind: "quote", ID: id, TS: ts})
}

func (r *RecordingHandler) OnTrade(id, ts int64, last float64, size int64, pastLimit bool) {
	r.record(RecordedCallback{Kind: "trade", ID: id, TS: ts})
}

func (r *RecordingHandler) OnBar(id, ts int64, open, high, low, closePx float64, volume int64, wap float64, count int64) {
	r.record(RecordedCallback{Kind: "bar", ID: id, TS: ts})
}

func (r *RecordingHandler) OnConnectionState(connected bool) {
	r.record(RecordedCallback{Kind: "state", Connected: connected})
}

func (r *RecordingHandler) OnError(code int, msg string) {
	r.record(RecordedCallback{Kind: "error", Code: code, Msg: msg})
}

func (r *RecordingHandler) record(c RecordedCallback) {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	r.Calls = append(r.Calls, c)
}

// CallsOfKind returns the recorded callbacks of one kind.
func (r *RecordingHandler) CallsOfKind(kind string) []RecordedCallback {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	var out []RecordedCallback
	for _, c := range r.Calls {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// MockKafkaReader replays a fixed message slice, then reports end of stream.
type MockKafkaReader struct {
	Messages []kafka.Message
	Index    int
	Mu       sync.Mutex
	Closed   bool
}

func (m *MockKafkaReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	if m.Closed {
		return kafka.Message{}, io.EOF
	}
	if m.Index >= len(m.Messages) {
		return kafka.Message{}, context.DeadlineExceeded
	}

	msg := m.Messages[m.Index]
	m.Index++
	return msg, nil
}

func (m *MockKafkaReader) Close() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
	return nil
}

// MockClock advances instantly on Sleep for deterministic feed tests.
type MockClock struct {
	Mu          sync.Mutex
	CurrentTime time.Time
}

func (m *MockClock) Now() time.Time {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.CurrentTime
}

func (m *MockClock) Sleep(d time.Duration) {
	m.Mu.Lock()
	m.CurrentTime = m.CurrentTime.Add(d)
	m.Mu.Unlock()
	// Yield so loops driven by MockClock stay preemptible.
	time.Sleep(time.Microsecond)
}

// MockRand returns fixed values.
type MockRand struct {
	ValInt   int
	ValFloat float64
}

func (m *MockRand) Intn(n int) int {
	if m.ValInt >= n {
		return n - 1
	}
	return m.ValInt
}

func (m *MockRand) Float64() float64 { return m.ValFloat }
