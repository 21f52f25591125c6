package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/notedapp/noted-server/internal/ai"
	"github.com/notedapp/noted-server/internal/cache"
	domainerrors "github.com/notedapp/noted-server/internal/errors"
	"github.com/notedapp/noted-server/internal/ratelimit"
	"github.com/notedapp/noted-server/internal/store"
)

// upstreamKey is the rate-limiter key for the summarization upstream.
// There is one hosted endpoint, so one bucket.
const upstreamKey = "summarize"

// SummaryService proxies note text to the hosted completion endpoint.
// It is stateless per request: no retry, no streaming, and single-note
// summaries are never cached. Only the dashboard digest is cached,
// keyed per user, and dropped on any note mutation.
type SummaryService struct {
	store      store.Store
	summarizer ai.Summarizer
	cache      *cache.Cache
	limiter    *ratelimit.KeyedRateLimiter
	logger     *slog.Logger
}

// NewSummaryService creates a new summarization service.
func NewSummaryService(
	store store.Store,
	summarizer ai.Summarizer,
	c *cache.Cache,
	limiter *ratelimit.KeyedRateLimiter,
	logger *slog.Logger,
) *SummaryService {
	return &SummaryService{
		store:      store,
		summarizer: summarizer,
		cache:      c,
		limiter:    limiter,
		logger:     logger,
	}
}

// Summarize forwards content to the completion endpoint. The request
// is issued even for empty content; the model decides what that
// summarizes to. mode "dashboard" selects the multi-note instruction,
// any other value the single-note one.
func (s *SummaryService) Summarize(ctx context.Context, content, mode string) (string, error) {
	if s.summarizer == nil {
		return "", domainerrors.Internal("summarization is not configured")
	}

	aiMode := ai.ModeNote
	if mode == string(ai.ModeDashboard) {
		aiMode = ai.ModeDashboard
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, upstreamKey); err != nil {
			return "", fmt.Errorf("wait for rate limit: %w", err)
		}
	}

	summary, err := s.summarizer.Summarize(ctx, content, aiMode)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("Summarization failed", "mode", mode, "error", err)
		}
		return "", domainerrors.Internal("Failed to generate summary").WithCause(err)
	}

	return summary, nil
}

// DashboardDigest summarizes all of the user's notes into one
// overview. The digest is cached until the user's notes change.
func (s *SummaryService) DashboardDigest(ctx context.Context, userID string) (string, error) {
	return cache.GetOrLoad(ctx, s.cache, cache.KindDashboard, userID, func(ctx context.Context) (string, error) {
		notes, err := s.store.ListNotesByUser(ctx, userID, store.NoteFilter{})
		if err != nil {
			return "", fmt.Errorf("list notes: %w", err)
		}

		return s.Summarize(ctx, ai.DashboardContent(notes), string(ai.ModeDashboard))
	})
}
