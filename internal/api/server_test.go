package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/notedapp/noted-server/internal/ai"
	"github.com/notedapp/noted-server/internal/auth"
	"github.com/notedapp/noted-server/internal/cache"
	"github.com/notedapp/noted-server/internal/ratelimit"
	"github.com/notedapp/noted-server/internal/search"
	"github.com/notedapp/noted-server/internal/service"
	"github.com/notedapp/noted-server/internal/store/sqlite"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// testEnvelope mirrors the wire envelope for decoding in tests.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api        humatest.TestAPI
	summarizer *fakeSummarizer
}

// fakeSummarizer records calls and returns a canned summary.
type fakeSummarizer struct {
	lastContent string
	lastMode    ai.Mode
	calls       int
	summary     string
	err         error
}

func (f *fakeSummarizer) Summarize(_ context.Context, content string, mode ai.Mode) (string, error) {
	f.calls++
	f.lastContent = content
	f.lastMode = mode
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

// setupTestServer creates a full server over a temporary SQLite store
// and search index, with a fake summarizer standing in for the AI
// upstream.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewSearchIndex(search.Options{DataPath: dir, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	st.SetSearchIndexer(index)

	c, err := cache.New(cache.Config{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	tokenService, err := auth.NewTokenService(testKeyHex, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	summarizer := &fakeSummarizer{summary: "a concise summary"}

	sessionService := service.NewSessionService(st, tokenService, logger)
	authService := service.NewAuthService(st, tokenService, sessionService, logger)
	userService := service.NewUserService(st, logger)
	tagService := service.NewTagService(st, c, logger)
	noteService := service.NewNoteService(st, tagService, c, index, logger)
	summaryService := service.NewSummaryService(st, summarizer, c, ratelimit.New(100, 100), logger)

	services := &Services{
		Auth:    authService,
		Session: sessionService,
		User:    userService,
		Note:    noteService,
		Tag:     tagService,
		Summary: summaryService,
		Search:  index,
	}

	s := NewServer(st, services, logger)

	return &testServer{
		Server:     s,
		api:        humatest.Wrap(t, s.api),
		summarizer: summarizer,
	}
}

// registerTestUser registers a user and returns the access token.
func (ts *testServer) registerTestUser(t *testing.T, email string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        email,
		"password":     "correct-horse-battery",
		"display_name": "Test User",
	})
	require.Equal(t, http.StatusOK, resp.Code, "Register failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)
	require.NotEmpty(t, envelope.Data.AccessToken)

	return envelope.Data.AccessToken
}

// createTestNote creates a note via the API and returns its ID.
func (ts *testServer) createTestNote(t *testing.T, token, title string, tags ...string) string {
	t.Helper()

	body := map[string]any{
		"title":   title,
		"content": "content of " + title,
	}
	if len(tags) > 0 {
		body["tags"] = tags
	}

	resp := ts.api.Post("/api/v1/notes", body, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, "Create note failed: %s", resp.Body.String())

	var envelope testEnvelope[NoteResponse]
	err := json.Unmarshal(resp.Body.Bytes(), &envelope)
	require.NoError(t, err)
	require.NotEmpty(t, envelope.Data.ID)

	return envelope.Data.ID
}
