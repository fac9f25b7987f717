package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	"github.com/joripage/matchcore/config"
	"github.com/joripage/matchcore/pkg/eventbus"
	"github.com/joripage/matchcore/pkg/infra"
	"github.com/joripage/matchcore/pkg/journal"
	"github.com/joripage/matchcore/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	var configFile string
	var migrationSource string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.StringVar(&migrationSource, "migration-source", "file://migration/sql", "Migration source URL")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}
	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel))
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

	db, err := infra.GetMigrateTool().ConnectAndMigrate(cfg.JournalDB, migrationSource)
	if err != nil {
		zap.S().Fatalf("init journal db: %v", err)
	}

	handler := journal.NewHandler(journal.NewTradeSQLRepo(db))

	consumer, err := eventbus.NewConsumerGroup(cfg.JournalConsumer())
	if err != nil {
		zap.S().Fatalf("init consumer: %v", err)
	}
	defer consumer.Close() // nolint

	zap.S().Infow("journal worker started", "topic", cfg.Kafka.TradeTopic, "group", cfg.Kafka.JournalGroup)
	if err := consumer.Run(ctx, handler.HandleBatch); err != nil && !errors.Is(err, context.Canceled) {
		zap.S().Errorf("journal worker stopped: %v", err)
	}
}
