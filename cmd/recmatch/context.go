package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"recmatch/internal/cachestore"
	"recmatch/internal/catalog"
	"recmatch/internal/config"
	"recmatch/internal/logging"
	"recmatch/internal/lookup"
	"recmatch/internal/reconcile"
	"recmatch/internal/verifycache"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		logger, logErr := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "recmatch.log")},
		})
		if logErr != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger, nil
}

// openCatalog resolves the lookup backend: an explicit --catalog flag wins,
// then the configured catalog path.
func (c *commandContext) openCatalog(flagPath string) (lookup.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	path := strings.TrimSpace(flagPath)
	if path == "" {
		path = cfg.Paths.CatalogPath
	}
	if path == "" {
		return nil, errors.New("no catalog configured: pass --catalog or set paths.catalog_path")
	}
	return catalog.Load(path)
}

// openCache opens the durable outcome cache guarded by a file lock so two
// recmatch processes never share one sqlite database. The returned cleanup
// releases the lock and closes the store; it is safe to call when the cache
// is disabled.
func (c *commandContext) openCache() (*verifycache.Cache, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Cache.Enabled {
		return verifycache.New(nil, verifycache.WithLogger(logger)), func() {}, nil
	}

	lock := flock.New(cfg.Cache.Path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, nil, fmt.Errorf("acquire cache lock: %w", err)
	}
	if !ok {
		return nil, nil, errors.New("another recmatch process is using the outcome cache")
	}

	store, err := cachestore.Open(cfg.Cache.Path, cachestore.WithMaxEntries(cfg.Cache.MaxEntries))
	if err != nil {
		_ = lock.Unlock()
		return nil, nil, fmt.Errorf("open outcome cache: %w", err)
	}

	cleanup := func() {
		_ = store.Close()
		_ = lock.Unlock()
	}
	return verifycache.New(store, verifycache.WithLogger(logger)), cleanup, nil
}

// newReconciler wires a reconciler from configuration. The cleanup must be
// called when the reconciler is no longer needed.
func (c *commandContext) newReconciler(catalogPath string) (*reconcile.Reconciler, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	svc, err := c.openCatalog(catalogPath)
	if err != nil {
		return nil, nil, err
	}
	cache, cleanup, err := c.openCache()
	if err != nil {
		return nil, nil, err
	}

	r := reconcile.New(svc,
		reconcile.WithCache(cache),
		reconcile.WithPolicy(cfg.Policy()),
		reconcile.WithRetryConfig(cfg.RetryConfig()),
		reconcile.WithLogger(logger),
	)
	return r, cleanup, nil
}
