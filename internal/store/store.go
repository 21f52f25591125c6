// Package store defines the persistence interface, its errors, and the
// side-channel interfaces the SQLite store uses to keep other
// subsystems in sync.
package store

import (
	"context"
	"time"

	"github.com/notedapp/noted-server/internal/domain"
)

// Store is the persistence interface consumed by services. The SQLite
// implementation lives in store/sqlite; services receive it injected
// so tests can swap in fakes.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmailLower(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id string) error

	// Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshHash(ctx context.Context, hash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	GetSessionsByUser(ctx context.Context, userID string) ([]*domain.Session, error)
	DeleteExpiredSessions(ctx context.Context) (int, error)

	// Login codes
	CreateLoginCode(ctx context.Context, code *domain.LoginCode) error
	GetLoginCodeByHash(ctx context.Context, hash string) (*domain.LoginCode, error)
	ConsumeLoginCode(ctx context.Context, id string) error
	DeleteExpiredLoginCodes(ctx context.Context) (int, error)

	// Notes
	CreateNote(ctx context.Context, note *domain.Note) error
	GetNote(ctx context.Context, id string) (*domain.Note, error)
	ListNotesByUser(ctx context.Context, userID string, filter NoteFilter) ([]*domain.Note, error)
	UpdateNote(ctx context.Context, note *domain.Note) error
	SetNoteFavorite(ctx context.Context, noteID string, favorite bool, updatedAt time.Time) error
	DeleteNote(ctx context.Context, id string) error
	CountNotesByUser(ctx context.Context, userID string) (int, error)

	// Tags
	CreateTag(ctx context.Context, t *domain.Tag) error
	GetTagByID(ctx context.Context, tagID string) (*domain.Tag, error)
	GetTagByName(ctx context.Context, userID, name string) (*domain.Tag, error)
	ListTagsByUser(ctx context.Context, userID string) ([]*domain.Tag, error)
	FindOrCreateTag(ctx context.Context, userID, name string) (*domain.Tag, bool, error)
	DeleteTag(ctx context.Context, tagID string) error
	SyncNoteTags(ctx context.Context, noteID, userID string, tagIDs []string) error
	GetNoteTagIDs(ctx context.Context, noteID string) ([]string, error)
	GetTagsForNote(ctx context.Context, noteID string) ([]*domain.Tag, error)
	CountNotesForTag(ctx context.Context, tagID string) (int, error)

	Close() error
}

// SearchIndexer is the interface for updating the search index.
// The store uses this to keep search in sync without depending on the
// search implementation.
type SearchIndexer interface {
	IndexNote(ctx context.Context, note *domain.Note) error
	DeleteNote(ctx context.Context, noteID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexNote is a no-op.
func (NoopSearchIndexer) IndexNote(context.Context, *domain.Note) error { return nil }

// DeleteNote is a no-op.
func (NoopSearchIndexer) DeleteNote(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}
