package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/faroukBakari/tws-redis-bridge/cmd/feedsim/internal/feedsim"
	"github.com/faroukBakari/tws-redis-bridge/pkg/config"
)

var basePrices = map[string]float64{
	"AAPL": 171.50,
	"SPY":  450.00,
	"TSLA": 240.00,
	"GOOG": 140.00,
	"AMZN": 145.00,
}

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

	rnd := feedsim.RealRand{Rand: rand.New(rand.NewSource(time.Now().UnixNano()))}

	var emitter feedsim.Emitter
	var srv *http.Server

	switch cfg.Sim.Output {
	case "ws":
		wsrv := feedsim.NewWSServer(logger)
		mux := http.NewServeMux()
		mux.HandleFunc("/feed", wsrv.HandleWS)
		srv = &http.Server{Addr: cfg.Sim.ListenAddr, Handler: mux}

		go func() {
			logger.Info("Feed server listening",
				zap.String("addr", cfg.Sim.ListenAddr),
				zap.String("session", wsrv.Session()))
			if err := srv.ListenAndServe(); err != http.ErrServerClosed {
				logger.Fatal("HTTP Error", zap.Error(err))
			}
		}()
		emitter = wsrv

	case "kafka":
		tc := feedsim.NewTopicCreator(logger, &feedsim.RealKafkaDialer{Dialer: kafka.DefaultDialer})
		if err := tc.Create(ctx, cfg.Kafka.Brokers[0], cfg.Kafka.Topic); err != nil {
			logger.Fatal("Topic creation failed", zap.Error(err))
		}

		writer := &kafka.Writer{
			Addr:         kafka.TCP(cfg.Kafka.Brokers...),
			Topic:        cfg.Kafka.Topic,
			Balancer:     &kafka.Hash{}, // symbol key -> stable partition, preserves per-symbol order
			BatchTimeout: 10 * time.Millisecond,
		}
		ke := feedsim.NewKafkaEmitter(writer)
		defer ke.Close()
		emitter = ke

	default:
		logger.Fatal("Unknown sim output", zap.String("output", cfg.Sim.Output))
	}

	gen := feedsim.NewGenerator(logger, emitter, cfg.Feed.Symbols, basePrices,
		rnd, feedsim.RealClock{}, cfg.Sim.TickInterval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, stopping simulator...")
		cancel()
	}()

	gen.Run(ctx)

	if srv != nil {
		srv.Shutdown(context.Background())
	}
	logger.Info("Simulator exited cleanly")
}
