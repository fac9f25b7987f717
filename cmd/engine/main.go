package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	"github.com/joripage/matchcore/config"
	"github.com/joripage/matchcore/pkg/depthcache"
	"github.com/joripage/matchcore/pkg/eventbus"
	"github.com/joripage/matchcore/pkg/gateway"
	redis_wrapper "github.com/joripage/matchcore/pkg/infra/redis"
	"github.com/joripage/matchcore/pkg/logging"
	"github.com/joripage/matchcore/pkg/orderbook"
	"go.uber.org/zap"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}
	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel)).With(zap.String("service", cfg.ServiceName))
	defer logger.ReplaceGlobals()()
	defer logger.Sync() // nolint

	configBytes, err := json.MarshalIndent(cfg, "", "   ")
	if err != nil {
		zap.S().Warnf("could not convert config to JSON: %v", err)
	} else {
		zap.S().Debugf("load config %s", string(configBytes))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager := orderbook.NewOrderBookManager(cfg.ManagerConfig(), logger)

	var depth gateway.DepthPublisher
	if cfg.Redis != nil && cfg.Redis.ConnectionURL != "" {
		client, err := redis_wrapper.InitRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal(ctx, "init redis", zap.Error(err))
		}
		defer client.Close() // nolint
		depth = depthcache.NewStore(client, cfg.Redis.DepthTTL())
	}

	producer := eventbus.NewProducer(eventbus.ProducerConfig{Brokers: cfg.Kafka.Brokers})
	defer producer.Close(context.Background()) // nolint

	gw := gateway.New(gateway.Config{
		TradeTopic:    cfg.Kafka.TradeTopic,
		ReportTopic:   cfg.Kafka.ReportTopic,
		SnapshotDepth: cfg.Engine.SnapshotDepth,
	}, manager, producer, depth, logger)

	consumer, err := eventbus.NewConsumerGroup(cfg.EngineConsumer())
	if err != nil {
		logger.Fatal(ctx, "init consumer", zap.Error(err))
	}
	defer consumer.Close() // nolint

	logger.Info(ctx, "engine started",
		zap.Strings("symbols", manager.Symbols()),
		zap.String("order_topic", cfg.Kafka.OrderTopic))
	if err := consumer.Run(ctx, gw.HandleBatch); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(ctx, "engine stopped", zap.Error(err))
	}
}
