package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joripage/matchcore/pkg/eventbus"
	postgres_wrapper "github.com/joripage/matchcore/pkg/infra/postgres"
	redis_wrapper "github.com/joripage/matchcore/pkg/infra/redis"
	"github.com/joripage/matchcore/pkg/orderbook"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	ServiceName string                           `yaml:"service_name"`
	LogLevel    string                           `yaml:"log_level"`
	Engine      EngineConfig                     `yaml:"engine"`
	Kafka       KafkaConfig                      `yaml:"kafka"`
	Redis       *redis_wrapper.RedisConfig       `yaml:"redis"`
	JournalDB   *postgres_wrapper.PostgresConfig `yaml:"journal_db"`
}

type EngineConfig struct {
	Symbols       []string `yaml:"symbols"`
	AutoCreate    bool     `yaml:"auto_create"`
	SnapshotDepth int      `yaml:"snapshot_depth"`
}

type KafkaConfig struct {
	Brokers        []string `yaml:"brokers"`
	OrderTopic     string   `yaml:"order_topic"`
	TradeTopic     string   `yaml:"trade_topic"`
	ReportTopic    string   `yaml:"report_topic"`
	EngineGroup    string   `yaml:"engine_group"`
	JournalGroup   string   `yaml:"journal_group"`
	JournalWorkers int      `yaml:"journal_workers"`
	MaxRetries     int      `yaml:"max_retries"`
	DLQTopic       string   `yaml:"dlq_topic"`
	BatchSize      int      `yaml:"batch_size"`
	BatchTimeoutMs int      `yaml:"batch_timeout_ms"`
}

func (c *AppConfig) setDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "matchcore"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Engine.SnapshotDepth <= 0 {
		c.Engine.SnapshotDepth = 10
	}
	if c.Kafka.OrderTopic == "" {
		c.Kafka.OrderTopic = "orders"
	}
	if c.Kafka.TradeTopic == "" {
		c.Kafka.TradeTopic = "trades"
	}
	if c.Kafka.EngineGroup == "" {
		c.Kafka.EngineGroup = c.ServiceName + "-engine"
	}
	if c.Kafka.JournalGroup == "" {
		c.Kafka.JournalGroup = c.ServiceName + "-journal"
	}
	if c.Kafka.JournalWorkers <= 0 {
		c.Kafka.JournalWorkers = 1
	}
}

// ManagerConfig is the book manager setup for the engine.
func (c *AppConfig) ManagerConfig() *orderbook.OrderBookManagerConfig {
	return &orderbook.OrderBookManagerConfig{
		Symbols:    c.Engine.Symbols,
		AutoCreate: c.Engine.AutoCreate,
	}
}

// EngineConsumer reads order commands. One worker keeps commands of a
// partition in order, and a failed batch is never retried because matching has
// already changed the books.
func (c *AppConfig) EngineConsumer() eventbus.ConsumerConfig {
	return eventbus.ConsumerConfig{
		Brokers:      c.Kafka.Brokers,
		GroupID:      c.Kafka.EngineGroup,
		Topic:        c.Kafka.OrderTopic,
		WorkerCount:  1,
		MaxRetries:   0,
		DLQTopic:     c.Kafka.DLQTopic,
		BatchSize:    c.Kafka.BatchSize,
		BatchTimeout: time.Duration(c.Kafka.BatchTimeoutMs) * time.Millisecond,
	}
}

// JournalConsumer reads trade events for the journal worker.
func (c *AppConfig) JournalConsumer() eventbus.ConsumerConfig {
	return eventbus.ConsumerConfig{
		Brokers:      c.Kafka.Brokers,
		GroupID:      c.Kafka.JournalGroup,
		Topic:        c.Kafka.TradeTopic,
		WorkerCount:  c.Kafka.JournalWorkers,
		MaxRetries:   c.Kafka.MaxRetries,
		DLQTopic:     c.Kafka.DLQTopic,
		BatchSize:    c.Kafka.BatchSize,
		BatchTimeout: time.Duration(c.Kafka.BatchTimeoutMs) * time.Millisecond,
	}
}

// Load load config from file and environment variables.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	sugar := zap.S().With("func", "config.Load", "filePath", filePath)
	sugar.Debug("Load config...")

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, fmt.Errorf("read config %q: %w", filePath, err)
	}
	return Parse(configBytes)
}

// Parse expands ${VAR} references in raw, decodes it and fills defaults.
func Parse(raw []byte) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.setDefaults()

	zap.S().Debugf("config: %+v", cfg)
	return cfg, nil
}
