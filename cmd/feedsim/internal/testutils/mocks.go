package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/faroukBakari/tws-redis-bridge/cmd/feedsim/internal/feedsim"
	"github.com/faroukBakari/tws-redis-bridge/pkg/models"
)

// EmittedFrame is one recorded Emit call.
type EmittedFrame struct {
	Symbol string
	Frame  models.FeedFrame
}

type MockEmitter struct {
	Mu     sync.Mutex
	Frames []EmittedFrame
}

func (m *MockEmitter) Emit(_ context.Context, symbol string, frame models.FeedFrame) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Frames = append(m.Frames, EmittedFrame{Symbol: symbol, Frame: frame})
	return nil
}

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
	time.Sleep(time.Microsecond)
}

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

type MockKafkaWriter struct {
	Mu       sync.Mutex
	Messages []kafka.Message
	Closed   bool
}

func (m *MockKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockKafkaWriter) Close() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
	return nil
}

type MockKafkaConn struct {
	Mu            sync.Mutex
	CreatedTopics []string
}

func (m *MockKafkaConn) Controller() (kafka.Broker, error) {
	return kafka.Broker{Host: "localhost", Port: 9092}, nil
}

func (m *MockKafkaConn) Close() error { return nil }

func (m *MockKafkaConn) CreateTopics(topics ...kafka.TopicConfig) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	for _, t := range topics {
		m.CreatedTopics = append(m.CreatedTopics, t.Topic)
	}
	return nil
}

type MockKafkaDialer struct {
	ConnSpy *MockKafkaConn
}

func (m *MockKafkaDialer) DialContext(_ context.Context, _, _ string) (feedsim.KafkaConn, error) {
	if m.ConnSpy == nil {
		m.ConnSpy = &MockKafkaConn{}
	}
	return m.ConnSpy, nil
}
