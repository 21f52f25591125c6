package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/notedapp/noted-server/internal/logger"
)

// AuthCleanupJob runs periodic cleanup of expired sessions and login codes.
type AuthCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *AuthCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideAuthCleanupJob provides the periodic auth cleanup job.
func ProvideAuthCleanupJob(i do.Injector) (*AuthCleanupJob, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	cleanup := func() {
		if count, err := storeHandle.DeleteExpiredSessions(ctx); err != nil {
			log.Warn("Session cleanup failed", "error", err)
		} else if count > 0 {
			log.Info("Session cleanup completed", "deleted", count)
		}

		if count, err := storeHandle.DeleteExpiredLoginCodes(ctx); err != nil {
			log.Warn("Login code cleanup failed", "error", err)
		} else if count > 0 {
			log.Info("Login code cleanup completed", "deleted", count)
		}
	}

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		// Initial cleanup on startup
		cleanup()

		for {
			select {
			case <-ticker.C:
				cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Auth cleanup job started")

	return &AuthCleanupJob{cancel: cancel}, nil
}
