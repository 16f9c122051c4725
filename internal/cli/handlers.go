package cli

import (
	"context"
	"time"

	"github.com/thamizhaiorg/tarsilvers-sub000/internal/config"
	"github.com/thamizhaiorg/tarsilvers-sub000/internal/engine"
	"github.com/thamizhaiorg/tarsilvers-sub000/internal/store"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/database"
	"github.com/thamizhaiorg/tarsilvers-sub000/pkg/logger"
)

// buildRunner wires a fully configured engine against the live document
// store. The returned cleanup closes the store connection.
func buildRunner() (*engine.Runner, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	if cfg.LogFile != "" {
		if err := logger.InitLogger(cfg.LogFile); err != nil {
			return nil, nil, err
		}
	}

	registry, rules, err := config.LoadSchema(cfg.SchemaFile)
	if err != nil {
		return nil, nil, err
	}

	client, err := database.ConnectMongo(cfg.MongoConnString)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
		logger.Close()
	}

	st := store.NewMongo(client, cfg.MongoDatabase)
	return engine.New(st, registry, rules), cleanup, nil
}
