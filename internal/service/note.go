package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/notedapp/noted-server/internal/cache"
	"github.com/notedapp/noted-server/internal/domain"
	domainerrors "github.com/notedapp/noted-server/internal/errors"
	"github.com/notedapp/noted-server/internal/id"
	"github.com/notedapp/noted-server/internal/markdown"
	"github.com/notedapp/noted-server/internal/search"
	"github.com/notedapp/noted-server/internal/store"
)

// NoteService owns the note write path: CRUD, tag synchronization,
// favorite toggling, and search. Every operation checks that the note
// belongs to the calling user before touching it.
type NoteService struct {
	store      store.Store
	tagService *TagService
	cache      *cache.Cache
	search     *search.SearchIndex
	logger     *slog.Logger
}

// NewNoteService creates a new note service. search may be nil, in
// which case Search fails and indexing is whatever the store does.
func NewNoteService(
	store store.Store,
	tagService *TagService,
	c *cache.Cache,
	searchIndex *search.SearchIndex,
	logger *slog.Logger,
) *NoteService {
	return &NoteService{
		store:      store,
		tagService: tagService,
		cache:      c,
		search:     searchIndex,
		logger:     logger,
	}
}

// CreateNoteRequest contains the fields for a new note.
type CreateNoteRequest struct {
	Title    string   `json:"title" validate:"required,max=200"`
	Content  string   `json:"content" validate:"max=100000"`
	Favorite bool     `json:"favorite"`
	Tags     []string `json:"tags" validate:"max=50,dive,max=100"`
}

// UpdateNoteRequest contains partial note updates. Nil pointer fields
// are left unchanged; the tag patch distinguishes leave, clear, and
// replace.
type UpdateNoteRequest struct {
	Title   *string `json:"title" validate:"omitempty,max=200"`
	Content *string `json:"content" validate:"omitempty,max=100000"`
	Tags    domain.TagPatch
}

// ListNotesOptions filters a note listing.
type ListNotesOptions struct {
	FavoritesOnly bool
	TagID         string
}

// Create writes a new note and associates the requested tags.
func (s *NoteService) Create(ctx context.Context, userID string, req CreateNoteRequest) (*domain.Note, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	noteID, err := id.Generate("note")
	if err != nil {
		return nil, fmt.Errorf("generate note ID: %w", err)
	}

	now := time.Now()
	note := &domain.Note{
		ID:         noteID,
		UserID:     userID,
		Title:      req.Title,
		Content:    req.Content,
		IsFavorite: req.Favorite,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	// The note row is committed at this point; a tag failure surfaces
	// as a save error but a retry with the same set converges. Cached
	// lists must still be dropped or they keep missing the new row.
	tags, err := s.tagService.SyncNoteTags(ctx, noteID, userID, req.Tags)
	if err != nil {
		s.invalidateNoteCaches(userID)
		return nil, err
	}
	note.Tags = tags

	s.invalidateNoteCaches(userID)

	if s.logger != nil {
		s.logger.Info("Note created", "note_id", noteID, "user_id", userID)
	}

	return note, nil
}

// Get returns a note with its tags. Accessing another user's note
// fails with an authorization error.
func (s *NoteService) Get(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	note, err := s.getOwned(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	tags, err := s.store.GetTagsForNote(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("load note tags: %w", err)
	}
	note.Tags = tags

	return note, nil
}

// List returns the user's notes ordered by most recently updated,
// tags included. The unfiltered listing is served from cache; filtered
// variants always hit the store since the cache is keyed per user, not
// per filter.
func (s *NoteService) List(ctx context.Context, userID string, opts ListNotesOptions) ([]*domain.Note, error) {
	if !opts.FavoritesOnly && opts.TagID == "" {
		return cache.GetOrLoad(ctx, s.cache, cache.KindNotes, userID, func(ctx context.Context) ([]*domain.Note, error) {
			return s.loadNotes(ctx, userID, store.NoteFilter{})
		})
	}

	return s.loadNotes(ctx, userID, store.NoteFilter{
		FavoritesOnly: opts.FavoritesOnly,
		TagID:         opts.TagID,
	})
}

func (s *NoteService) loadNotes(ctx context.Context, userID string, filter store.NoteFilter) ([]*domain.Note, error) {
	notes, err := s.store.ListNotesByUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	for _, note := range notes {
		tags, err := s.store.GetTagsForNote(ctx, note.ID)
		if err != nil {
			return nil, fmt.Errorf("load tags for note %s: %w", note.ID, err)
		}
		note.Tags = tags
	}

	return notes, nil
}

// Update applies partial field changes and the tag patch, returning
// the updated note with tags.
func (s *NoteService) Update(ctx context.Context, userID, noteID string, req UpdateNoteRequest) (*domain.Note, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	if req.Title != nil && *req.Title == "" {
		return nil, domainerrors.Validation("title cannot be empty")
	}

	note, err := s.getOwned(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	note.Touch()

	if err := s.store.UpdateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}

	// The row update above is committed; error paths from here on must
	// still drop cached lists or they serve the pre-update note.
	if req.Tags.IsUnchanged() {
		tags, err := s.store.GetTagsForNote(ctx, noteID)
		if err != nil {
			s.invalidateNoteCaches(userID)
			return nil, fmt.Errorf("load note tags: %w", err)
		}
		note.Tags = tags
	} else {
		tags, err := s.tagService.SyncNoteTags(ctx, noteID, userID, req.Tags.Names())
		if err != nil {
			s.invalidateNoteCaches(userID)
			return nil, err
		}
		note.Tags = tags
	}

	s.invalidateNoteCaches(userID)

	return note, nil
}

// SetFavorite toggles the favorite flag and returns the note.
func (s *NoteService) SetFavorite(ctx context.Context, userID, noteID string, favorite bool) (*domain.Note, error) {
	if _, err := s.getOwned(ctx, userID, noteID); err != nil {
		return nil, err
	}

	if err := s.store.SetNoteFavorite(ctx, noteID, favorite, time.Now()); err != nil {
		return nil, fmt.Errorf("set favorite: %w", err)
	}

	s.cache.Invalidate(cache.KindNotes, userID)
	s.cache.Invalidate(cache.KindDashboard, userID)

	return s.Get(ctx, userID, noteID)
}

// Delete removes a note; its tag associations cascade away with it.
// Tag rows themselves survive, orphaned until reused or deleted.
func (s *NoteService) Delete(ctx context.Context, userID, noteID string) error {
	if _, err := s.getOwned(ctx, userID, noteID); err != nil {
		return err
	}

	if err := s.store.DeleteNote(ctx, noteID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	s.invalidateNoteCaches(userID)

	if s.logger != nil {
		s.logger.Info("Note deleted", "note_id", noteID, "user_id", userID)
	}

	return nil
}

// Search runs a full-text query over the user's notes.
func (s *NoteService) Search(ctx context.Context, userID string, params search.SearchParams) (*search.SearchResult, error) {
	if s.search == nil {
		return nil, domainerrors.Internal("search is not available")
	}

	params.UserID = userID
	if params.Limit <= 0 {
		params.Limit = 20
	}

	result, err := s.search.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	return result, nil
}

// RenderHTML returns the note's content rendered from markdown.
func (s *NoteService) RenderHTML(ctx context.Context, userID, noteID string) (string, error) {
	note, err := s.getOwned(ctx, userID, noteID)
	if err != nil {
		return "", err
	}

	html, err := markdown.Render(note.Content)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return html, nil
}

// ImportHTML creates a note from HTML content, converting the body to
// markdown. Content that does not look like HTML is stored as-is.
func (s *NoteService) ImportHTML(ctx context.Context, userID string, req CreateNoteRequest) (*domain.Note, error) {
	req.Content = markdown.FromHTML(req.Content)
	return s.Create(ctx, userID, req)
}

// ReindexNotes rebuilds the user-facing search index from the store.
// Used at startup after a mapping change dropped the old index.
func (s *NoteService) ReindexNotes(ctx context.Context) (int, error) {
	if s.search == nil {
		return 0, nil
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	total := 0
	for _, user := range users {
		notes, err := s.loadNotes(ctx, user.ID, store.NoteFilter{})
		if err != nil {
			return total, err
		}
		if err := s.search.IndexNotes(notes); err != nil {
			return total, fmt.Errorf("index notes for %s: %w", user.ID, err)
		}
		total += len(notes)
	}

	if s.logger != nil {
		s.logger.Info("Reindexed notes", "count", total)
	}
	return total, nil
}

// getOwned fetches a note and enforces ownership. A missing note is
// not found; someone else's note is forbidden.
func (s *NoteService) getOwned(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("note not found")
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	if note.UserID != userID {
		return nil, domainerrors.Forbidden("note belongs to another user")
	}
	return note, nil
}

// invalidateNoteCaches drops every cached collection a note mutation
// can affect, so the next read refetches authoritative state.
func (s *NoteService) invalidateNoteCaches(userID string) {
	s.cache.Invalidate(cache.KindNotes, userID)
	s.cache.Invalidate(cache.KindTags, userID)
	s.cache.Invalidate(cache.KindDashboard, userID)
}
