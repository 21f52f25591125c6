package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/notedapp/noted-server/internal/api"
	"github.com/notedapp/noted-server/internal/config"
	"github.com/notedapp/noted-server/internal/logger"
	"github.com/notedapp/noted-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	authService := do.MustInvoke[*service.AuthService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	userService := do.MustInvoke[*service.UserService](i)
	noteService := do.MustInvoke[*service.NoteService](i)
	tagService := do.MustInvoke[*service.TagService](i)
	summaryService := do.MustInvoke[*service.SummaryService](i)

	services := &api.Services{
		Auth:    authService,
		Session: sessionService,
		User:    userService,
		Note:    noteService,
		Tag:     tagService,
		Summary: summaryService,
		Search:  indexHandle.SearchIndex,
	}

	handler := api.NewServer(storeHandle.Store, services, log.Logger)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
