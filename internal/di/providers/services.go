package providers

import (
	"github.com/samber/do/v2"

	"github.com/notedapp/noted-server/internal/ai"
	"github.com/notedapp/noted-server/internal/auth"
	"github.com/notedapp/noted-server/internal/config"
	"github.com/notedapp/noted-server/internal/logger"
	"github.com/notedapp/noted-server/internal/ratelimit"
	"github.com/notedapp/noted-server/internal/service"
)

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, log.Logger), nil
}

// ProvideUserService provides the user profile service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, log.Logger), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, cacheHandle.Cache, log.Logger), nil
}

// ProvideNoteService provides the note service.
func ProvideNoteService(i do.Injector) (*service.NoteService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tagService := do.MustInvoke[*service.TagService](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNoteService(
		storeHandle.Store,
		tagService,
		cacheHandle.Cache,
		indexHandle.SearchIndex,
		log.Logger,
	), nil
}

// SummarizerHandle wraps the optional AI summarizer. Nil when no API
// key is configured; the summary service reports that to callers.
type SummarizerHandle struct {
	ai.Summarizer
}

// ProvideSummarizer provides the Anthropic-backed summarizer.
func ProvideSummarizer(i do.Injector) (*SummarizerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.AI.APIKey == "" {
		log.Warn("ANTHROPIC_API_KEY not set, summarization disabled")
		return &SummarizerHandle{}, nil
	}

	client, err := ai.NewClient(ai.Config{
		APIKey: cfg.AI.APIKey,
		Model:  cfg.AI.Model,
		Logger: log.Logger,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Summarizer initialized", "model", cfg.AI.Model)

	return &SummarizerHandle{Summarizer: client}, nil
}

// AIRateLimiterHandle wraps the per-user summarization rate limiter.
type AIRateLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *AIRateLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideAIRateLimiter provides the per-user summarization rate limiter.
func ProvideAIRateLimiter(i do.Injector) (*AIRateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	rps := float64(cfg.AI.RequestsPerMinute) / 60.0
	return &AIRateLimiterHandle{KeyedRateLimiter: ratelimit.New(rps, cfg.AI.Burst)}, nil
}

// ProvideSummaryService provides the summarization service.
func ProvideSummaryService(i do.Injector) (*service.SummaryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	summarizerHandle := do.MustInvoke[*SummarizerHandle](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	limiterHandle := do.MustInvoke[*AIRateLimiterHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSummaryService(
		storeHandle.Store,
		summarizerHandle.Summarizer,
		cacheHandle.Cache,
		limiterHandle.KeyedRateLimiter,
		log.Logger,
	), nil
}
