package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/notedapp/noted-server/internal/domain"
	"github.com/notedapp/noted-server/internal/id"
	"github.com/notedapp/noted-server/internal/store"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `id, user_id, name, created_at`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var t domain.Tag

	var createdAt string

	err := scanner.Scan(
		&t.ID,
		&t.UserID,
		&t.Name,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// CreateTag inserts a new tag into the database.
// Returns store.ErrAlreadyExists on a duplicate (user_id, name).
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, user_id, name, created_at)
		VALUES (?, ?, ?, ?)`,
		t.ID,
		t.UserID,
		t.Name,
		formatTime(t.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetTagByID retrieves a tag by its ID.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTagByID(ctx context.Context, tagID string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ?`, tagID)

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTagByName retrieves a user's tag by exact name.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTagByName(ctx context.Context, userID, name string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = ? AND name = ?`, userID, name)

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTagsByUser returns all of a user's tags ordered by name.
func (s *Store) ListTagsByUser(ctx context.Context, userID string) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = ? ORDER BY name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if tags == nil {
		tags = []*domain.Tag{}
	}
	return tags, nil
}

// FindOrCreateTag finds a user's tag by name or creates a new one.
// Returns (tag, created, error) where created is true if a new tag was made.
// Safe under concurrent callers: a losing insert falls back to the winner's row.
func (s *Store) FindOrCreateTag(ctx context.Context, userID, name string) (*domain.Tag, bool, error) {
	existing, err := s.GetTagByName(ctx, userID, name)
	if err == nil {
		return existing, false, nil
	}
	if err != store.ErrNotFound {
		return nil, false, err
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, false, fmt.Errorf("generate tag id: %w", err)
	}

	t := &domain.Tag{
		ID:        tagID,
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.CreateTag(ctx, t); err != nil {
		if err == store.ErrAlreadyExists {
			// Race: another caller created it between the get and the insert.
			existing, err := s.GetTagByName(ctx, userID, name)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return t, true, nil
}

// DeleteTag hard-deletes a tag by ID; note_tags rows cascade.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) DeleteTag(ctx context.Context, tagID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tags WHERE id = ?`, tagID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SyncNoteTags reconciles a note's tag associations to exactly tagIDs.
// Rows for tags not in the set are deleted and missing rows inserted,
// all inside a single transaction. Rows already present are untouched,
// preserving their created_at.
func (s *Store) SyncNoteTags(ctx context.Context, noteID, userID string, tagIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT tag_id FROM note_tags WHERE note_id = ?`, noteID)
	if err != nil {
		return fmt.Errorf("query note_tags: %w", err)
	}

	current := make(map[string]bool)
	for rows.Next() {
		var tagID string
		if err := rows.Scan(&tagID); err != nil {
			rows.Close()
			return fmt.Errorf("scan note_tag: %w", err)
		}
		current[tagID] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("rows iteration: %w", err)
	}
	rows.Close()

	desired := make(map[string]bool, len(tagIDs))
	for _, tagID := range tagIDs {
		desired[tagID] = true
	}

	// Remove associations no longer wanted.
	for tagID := range current {
		if desired[tagID] {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM note_tags WHERE note_id = ? AND tag_id = ?`, noteID, tagID); err != nil {
			return fmt.Errorf("delete note_tag: %w", err)
		}
	}

	// Insert the missing ones.
	now := formatTime(time.Now().UTC())
	for _, tagID := range tagIDs {
		if current[tagID] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO note_tags (note_id, tag_id, user_id, created_at)
			VALUES (?, ?, ?, ?)`,
			noteID, tagID, userID, now); err != nil {
			return fmt.Errorf("insert note_tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	// The search document denormalizes tag names, so refresh it with
	// the reconciled set.
	if note, err := s.GetNote(ctx, noteID); err == nil {
		if tags, err := s.GetTagsForNote(ctx, noteID); err == nil {
			note.Tags = tags
		}
		s.indexNote(ctx, note)
	}

	return nil
}

// GetNoteTagIDs returns the tag IDs associated with a note.
func (s *Store) GetNoteTagIDs(ctx context.Context, noteID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tag_id FROM note_tags WHERE note_id = ?`, noteID)
	if err != nil {
		return nil, fmt.Errorf("query note_tags: %w", err)
	}
	defer rows.Close()

	var tagIDs []string
	for rows.Next() {
		var tagID string
		if err := rows.Scan(&tagID); err != nil {
			return nil, fmt.Errorf("scan note_tag: %w", err)
		}
		tagIDs = append(tagIDs, tagID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return tagIDs, nil
}

// GetTagsForNote returns the full tag rows associated with a note, ordered by name.
func (s *Store) GetTagsForNote(ctx context.Context, noteID string) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixColumns("t", tagColumns)+`
		FROM tags t
		JOIN note_tags nt ON nt.tag_id = t.id
		WHERE nt.note_id = ?
		ORDER BY t.name ASC`, noteID)
	if err != nil {
		return nil, fmt.Errorf("query note tags: %w", err)
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if tags == nil {
		tags = []*domain.Tag{}
	}
	return tags, nil
}

// CountNotesForTag returns how many notes currently carry the tag.
func (s *Store) CountNotesForTag(ctx context.Context, tagID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM note_tags WHERE tag_id = ?`, tagID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count note_tags: %w", err)
	}
	return count, nil
}
