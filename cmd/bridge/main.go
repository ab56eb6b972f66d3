package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/bridge"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/engine"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/feed"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/metrics"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/queue"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/routing"
	"github.com/faroukBakari/tws-redis-bridge/cmd/bridge/internal/sink"
	"github.com/faroukBakari/tws-redis-bridge/pkg/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := config.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Connecting to Redis", zap.String("addr", cfg.Redis.Addr))
	redisSink, err := sink.NewRedisSink(ctx, sink.NewRedisDialer(cfg.Redis), logger)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisSink.Close()

	m := metrics.New()
	q := queue.New(cfg.Queue.Capacity)
	routes := routing.NewTable()
	adapter := feed.NewQueueAdapter(q, m, logger)

	client, err := buildFeed(ctx, cfg, adapter, routes, logger)
	if err != nil {
		logger.Fatal("Failed to set up feed", zap.Error(err))
	}

	for _, symbol := range cfg.Feed.Symbols {
		if _, err := client.Subscribe(ctx, symbol); err != nil {
			logger.Fatal("Subscription failed", zap.String("symbol", symbol), zap.Error(err))
		}
	}

	eng := engine.New(q, routes, redisSink, m, logger, cfg.Engine.ChannelPrefix, cfg.Engine.PollInterval)
	sup := bridge.NewSupervisor(client, eng, redisSink, m, adapter.States(),
		cfg.Health.PingInterval, cfg.Health.StatsInterval, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()

	logger.Info("Bridge started",
		zap.String("feed_mode", cfg.Feed.Mode),
		zap.Strings("symbols", cfg.Feed.Symbols),
		zap.Int("queue_capacity", cfg.Queue.Capacity))

	if err := sup.Run(ctx); err != nil {
		logger.Error("Pipeline stopped", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Bridge exited cleanly")
}

func buildFeed(ctx context.Context, cfg *config.Config, handler feed.Handler, routes *routing.Table, logger *zap.Logger) (feed.Client, error) {
	switch cfg.Feed.Mode {
	case "sim":
		rnd := feed.RealRand{Rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
		return feed.NewSimFeed(handler, routes, feed.RealClock{}, rnd, cfg.Sim.TickInterval, logger), nil

	case "ws":
		w := feed.NewWSFeed(cfg.Feed.URL, handler, routes, logger)
		if err := w.Connect(ctx); err != nil {
			return nil, err
		}
		return w, nil

	case "kafka":
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:           cfg.Kafka.Brokers,
			Topic:             cfg.Kafka.Topic,
			GroupID:           cfg.Kafka.GroupID,
			MinBytes:          200,
			MaxBytes:          10e6,
			MaxWait:           200 * time.Millisecond,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    10 * time.Second,
		})
		return feed.NewKafkaFeed(reader, handler, routes, logger), nil

	default:
		return nil, fmt.Errorf("unknown feed mode %q", cfg.Feed.Mode)
	}
}
