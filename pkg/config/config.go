package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the bridge and the feed simulator.
type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Logger LoggerConfig `mapstructure:"logger"`
	Feed   FeedConfig   `mapstructure:"feed"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
	Queue  QueueConfig  `mapstructure:"queue"`
	Engine EngineConfig `mapstructure:"engine"`
	Health HealthConfig `mapstructure:"health"`
	Sim    SimConfig    `mapstructure:"sim"`
}

type AppConfig struct {
	Env string `mapstructure:"env"` // e.g., "local", "prod"
}

type LoggerConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// FeedConfig selects and addresses the upstream market-data source.
type FeedConfig struct {
	Mode    string   `mapstructure:"mode"` // "sim", "ws", "kafka"
	URL     string   `mapstructure:"url"`  // websocket feed endpoint
	Symbols []string `mapstructure:"symbols"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type QueueConfig struct {
	Capacity int `mapstructure:"capacity"`
}

type EngineConfig struct {
	ChannelPrefix string        `mapstructure:"channel_prefix"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
}

type HealthConfig struct {
	PingInterval  time.Duration `mapstructure:"ping_interval"`
	StatsInterval time.Duration `mapstructure:"stats_interval"`
}

type SimConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	ListenAddr   string        `mapstructure:"listen_addr"` // feedsim websocket listen address
	Output       string        `mapstructure:"output"`      // "ws" or "kafka"
}

// LoadConfig reads configuration from .env file, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Load .env into the process environment first (if it exists)
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, relying on System Env Vars")
	}

	v.SetDefault("app.env", "local")
	v.SetDefault("logger.level", "info")

	v.SetDefault("feed.mode", "sim")
	v.SetDefault("feed.url", "ws://localhost:7497/feed")
	v.SetDefault("feed.symbols", []string{"AAPL", "SPY", "TSLA"})

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "market_ticks")
	v.SetDefault("kafka.group_id", "tws-bridge-group")

	v.SetDefault("queue.capacity", 10000)

	v.SetDefault("engine.channel_prefix", "TWS")
	v.SetDefault("engine.poll_interval", 1*time.Millisecond)

	v.SetDefault("health.ping_interval", 5*time.Second)
	v.SetDefault("health.stats_interval", 30*time.Second)

	v.SetDefault("sim.tick_interval", 100*time.Millisecond)
	v.SetDefault("sim.listen_addr", ":7497")
	v.SetDefault("sim.output", "ws")

	// Map dot-notation keys to underscore env vars (e.g. "redis.addr" -> "REDIS_ADDR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Viper needs explicit binds to map flat env vars onto nested structs
	bindEnv(v, "app.env", "logger.level")
	bindEnv(v, "feed.mode", "feed.url", "feed.symbols")
	bindEnv(v, "redis.addr", "redis.password", "redis.db")
	bindEnv(v, "kafka.brokers", "kafka.topic", "kafka.group_id")
	bindEnv(v, "queue.capacity")
	bindEnv(v, "engine.channel_prefix", "engine.poll_interval")
	bindEnv(v, "health.ping_interval", "health.stats_interval")
	bindEnv(v, "sim.tick_interval", "sim.listen_addr", "sim.output")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %v", err)
	}

	if cfg.Queue.Capacity <= 0 {
		return nil, fmt.Errorf("queue capacity must be positive, got %d", cfg.Queue.Capacity)
	}
	if len(cfg.Feed.Symbols) == 0 {
		return nil, fmt.Errorf("feed symbols cannot be empty")
	}
	switch cfg.Feed.Mode {
	case "sim", "ws", "kafka":
	default:
		return nil, fmt.Errorf("unknown feed mode %q", cfg.Feed.Mode)
	}
	if cfg.Feed.Mode == "kafka" && len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers cannot be empty")
	}

	return &cfg, nil
}

// bindEnv is a helper to bind multiple keys at once
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("Could not bind env var for key %s: %v", key, err)
		}
	}
}
