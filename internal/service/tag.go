package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/notedapp/noted-server/internal/cache"
	"github.com/notedapp/noted-server/internal/domain"
	domainerrors "github.com/notedapp/noted-server/internal/errors"
	"github.com/notedapp/noted-server/internal/store"
)

// TagService manages a user's tags. Tags are created lazily when first
// referenced by name on a note write; they survive note deletion and
// are only removed by an explicit delete.
type TagService struct {
	store  store.Store
	cache  *cache.Cache
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, c *cache.Cache, logger *slog.Logger) *TagService {
	return &TagService{
		store:  store,
		cache:  c,
		logger: logger,
	}
}

// TagWithCount pairs a tag with the number of notes carrying it.
type TagWithCount struct {
	*domain.Tag
	NoteCount int `json:"note_count"`
}

// ResolveTagNames maps tag names to tag records, creating any that do
// not exist yet for the user. Names are normalized first; empty names
// are dropped and duplicates collapse to one entry. Resolving the same
// name twice returns the same tag.
func (s *TagService) ResolveTagNames(ctx context.Context, userID string, names []string) ([]*domain.Tag, error) {
	if len(names) == 0 {
		return []*domain.Tag{}, nil
	}

	seen := make(map[string]bool, len(names))
	tags := make([]*domain.Tag, 0, len(names))

	for _, raw := range names {
		name := domain.NormalizeTagName(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		tag, created, err := s.store.FindOrCreateTag(ctx, userID, name)
		if err != nil {
			return nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}
		if created && s.logger != nil {
			s.logger.Debug("tag created", "tag_id", tag.ID, "user_id", userID, "name", name)
		}
		tags = append(tags, tag)
	}

	return tags, nil
}

// SyncNoteTags reconciles a note's tag associations to exactly the
// resolved set for the given names. The final association set equals
// the requested name set; an empty set clears all associations.
func (s *TagService) SyncNoteTags(ctx context.Context, noteID, userID string, names []string) ([]*domain.Tag, error) {
	tags, err := s.ResolveTagNames(ctx, userID, names)
	if err != nil {
		return nil, err
	}

	tagIDs := make([]string, len(tags))
	for i, tag := range tags {
		tagIDs[i] = tag.ID
	}

	if err := s.store.SyncNoteTags(ctx, noteID, userID, tagIDs); err != nil {
		return nil, fmt.Errorf("sync note tags: %w", err)
	}

	return tags, nil
}

// ListTags returns the user's tags with note counts, served from cache
// until a mutation invalidates it.
func (s *TagService) ListTags(ctx context.Context, userID string) ([]*TagWithCount, error) {
	return cache.GetOrLoad(ctx, s.cache, cache.KindTags, userID, func(ctx context.Context) ([]*TagWithCount, error) {
		tags, err := s.store.ListTagsByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("list tags: %w", err)
		}

		result := make([]*TagWithCount, 0, len(tags))
		for _, tag := range tags {
			count, err := s.store.CountNotesForTag(ctx, tag.ID)
			if err != nil {
				return nil, fmt.Errorf("count notes for tag %s: %w", tag.ID, err)
			}
			result = append(result, &TagWithCount{Tag: tag, NoteCount: count})
		}
		return result, nil
	})
}

// GetTag returns one of the user's tags by ID.
func (s *TagService) GetTag(ctx context.Context, userID, tagID string) (*domain.Tag, error) {
	tag, err := s.store.GetTagByID(ctx, tagID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	if tag.UserID != userID {
		return nil, domainerrors.Forbidden("tag belongs to another user")
	}
	return tag, nil
}

// DeleteTag removes a tag and all its note associations.
func (s *TagService) DeleteTag(ctx context.Context, userID, tagID string) error {
	if _, err := s.GetTag(ctx, userID, tagID); err != nil {
		return err
	}

	if err := s.store.DeleteTag(ctx, tagID); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	s.cache.Invalidate(cache.KindTags, userID)
	s.cache.Invalidate(cache.KindNotes, userID)

	if s.logger != nil {
		s.logger.Info("Tag deleted", "tag_id", tagID, "user_id", userID)
	}

	return nil
}
