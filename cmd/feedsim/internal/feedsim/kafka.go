package feedsim

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/faroukBakari/tws-redis-bridge/pkg/models"
)

// KafkaEmitter writes feed frames to a topic, keyed by symbol so the bridge's
// Kafka source can route them and per-symbol order is preserved.
type KafkaEmitter struct {
	writer KafkaWriter
}

func NewKafkaEmitter(writer KafkaWriter) *KafkaEmitter {
	return &KafkaEmitter{writer: writer}
}

func (k *KafkaEmitter) Emit(ctx context.Context, symbol string, frame models.FeedFrame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(symbol),
		Value: payload,
	})
}

func (k *KafkaEmitter) Close() error { return k.writer.Close() }

// TopicCreator ensures the feed topic exists before the generator starts.
type TopicCreator struct {
	logger *zap.Logger
	dialer KafkaDialer
}

func NewTopicCreator(logger *zap.Logger, dialer KafkaDialer) *TopicCreator {
	return &TopicCreator{logger: logger, dialer: dialer}
}

func (tc *TopicCreator) Create(ctx context.Context, broker, topic string) error {
	conn, err := tc.dialer.DialContext(ctx, "tcp", broker)
	if err != nil {
		return fmt.Errorf("dial kafka %s: %w", broker, err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("resolve controller: %w", err)
	}

	ctrlConn, err := tc.dialer.DialContext(ctx, "tcp",
		net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer ctrlConn.Close()

	err = ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}

	tc.logger.Info("Kafka topic ready", zap.String("topic", topic))
	return nil
}
