package main

import (
	"flag"

	"github.com/joripage/matchcore/config"
	"github.com/joripage/matchcore/pkg/infra"
	"github.com/joripage/matchcore/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	var configFile string
	var source string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.StringVar(&source, "source", "file://migration/sql", "Migration source URL")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}
	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel))
	defer logger.ReplaceGlobals()()
	defer logger.Sync() // nolint

	if cfg.JournalDB == nil || cfg.JournalDB.MigrationConnURL == "" {
		zap.S().Fatal("journal_db.migration_conn_url is required")
	}

	if err := infra.GetMigrateTool().Migrate(source, cfg.JournalDB.MigrationConnURL); err != nil {
		zap.S().Fatalf("migrate: %v", err)
	}
}
