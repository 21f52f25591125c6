package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/notedapp/noted-server/internal/ai"
	"github.com/notedapp/noted-server/internal/auth"
	"github.com/notedapp/noted-server/internal/cache"
	"github.com/notedapp/noted-server/internal/domain"
	"github.com/notedapp/noted-server/internal/search"
	"github.com/notedapp/noted-server/internal/store/sqlite"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// testEnv wires real services against a temporary SQLite store and
// search index.
type testEnv struct {
	store    *sqlite.Store
	cache    *cache.Cache
	index    *search.SearchIndex
	auth     *AuthService
	sessions *SessionService
	users    *UserService
	notes    *NoteService
	tags     *TagService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	index, err := search.NewSearchIndex(search.Options{DataPath: dir, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	s.SetSearchIndexer(index)

	c, err := cache.New(cache.Config{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	tokenService, err := auth.NewTokenService(testKeyHex, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	sessionService := NewSessionService(s, tokenService, logger)
	authService := NewAuthService(s, tokenService, sessionService, logger)
	userService := NewUserService(s, logger)
	tagService := NewTagService(s, c, logger)
	noteService := NewNoteService(s, tagService, c, index, logger)

	return &testEnv{
		store:    s,
		cache:    c,
		index:    index,
		auth:     authService,
		sessions: sessionService,
		users:    userService,
		notes:    noteService,
		tags:     tagService,
	}
}

// registerUser creates a user through the auth service and returns it.
func (env *testEnv) registerUser(t *testing.T, email string) *domain.User {
	t.Helper()

	resp, err := env.auth.Register(context.Background(), RegisterRequest{
		Email:       email,
		Password:    "correct-horse-battery",
		DisplayName: "Test User",
	}, auth.ClientInfo{ClientName: "test"})
	require.NoError(t, err)

	return resp.User
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
