package providers

import (
	"log/slog"
	"os"

	"github.com/samber/do/v2"

	"github.com/notedapp/noted-server/internal/cache"
	"github.com/notedapp/noted-server/internal/config"
	"github.com/notedapp/noted-server/internal/logger"
	"github.com/notedapp/noted-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(cfg.Data.BasePath, 0o750); err != nil {
		return nil, err
	}

	dbPath := cfg.Data.DatabasePath()
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// CacheHandle wraps the cache with shutdown capability.
type CacheHandle struct {
	*cache.Cache
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideCache provides the in-memory read cache.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	c, err := cache.New(cache.Config{Logger: log.Logger})
	if err != nil {
		return nil, err
	}

	return &CacheHandle{Cache: c}, nil
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
