package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"

	"github.com/gobeaver/streamurl/cache"
	"github.com/gobeaver/streamurl/database"
	"github.com/gobeaver/streamurl/filekit"
	"github.com/gobeaver/streamurl/history"
	"github.com/gobeaver/streamurl/metrics"
)

// services are the collaborators shared by serve and the history commands.
type services struct {
	db           *database.Database
	repo         history.Repository
	metrics      *metrics.Metrics
	recorder     *history.Recorder
	exporter     *history.Exporter
	exportDriver string

	closers []func() error
}

func (s *services) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openServices opens the database, migrates it and builds the history
// stack on top. The caller must Close the result.
func openServices(ctx context.Context, dataDir, historySecret string, log logr.Logger) (_ *services, err error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &services{}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	dbCfg, err := database.GetConfig()
	if err != nil {
		return nil, err
	}
	s.db, err = database.Open(ctx, *dbCfg, dataDir, log.WithName("database"))
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, s.db.Close)

	var (
		storeOpts  []history.StoreOption
		cachedOpts []history.CachedOption
	)
	if historySecret != "" {
		sealer, err := history.NewSecretSealer(historySecret)
		if err != nil {
			return nil, err
		}
		storeOpts = append(storeOpts, history.WithSealer(sealer))
		cachedOpts = append(cachedOpts, history.WithCacheSealer(sealer))
	}
	store := history.NewStore(s.db.GORM(), storeOpts...)
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}

	s.repo = store
	cacheCfg, err := cache.GetConfig()
	if err != nil {
		return nil, err
	}
	c, err := cache.New(ctx, *cacheCfg)
	if err != nil {
		return nil, err
	}
	if c != nil {
		s.closers = append(s.closers, c.Close)
		if cacheCfg.Driver == "redis" {
			c = cache.NewBreaker(c, 3, 30*time.Second)
		}
		s.repo = history.NewCached(store, c, cacheCfg.DefaultTTL, log, cachedOpts...)
		log.Info("history cache enabled", "driver", cacheCfg.Driver, "ttl", cacheCfg.DefaultTTL.String())
	}

	s.metrics = metrics.New()
	s.metrics.RegisterDB(s.db.SQL())
	s.recorder = history.NewRecorder(nil, s.repo, history.WithMetrics(s.metrics), history.WithLogger(log.WithName("history")))

	exportCfg, err := filekit.GetConfig()
	if err != nil {
		return nil, err
	}
	if exportCfg.LocalBasePath == "" {
		exportCfg.LocalBasePath = filepath.Join(dataDir, "exports")
	}
	fs, err := filekit.New(ctx, *exportCfg)
	if err != nil {
		return nil, err
	}
	s.exporter = history.NewExporter(s.repo, fs, s.metrics)
	s.exportDriver = exportCfg.Driver
	return s, nil
}
