package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/notedapp/noted-server/internal/domain"
	"github.com/notedapp/noted-server/internal/store"
)

// noteColumns is the ordered list of columns selected in note queries.
// Must match the scan order in scanNote.
const noteColumns = `id, user_id, title, content, is_favorite, created_at, updated_at`

// scanNote scans a sql.Row (or sql.Rows via its Scan method) into a domain.Note.
// Tags are left nil; callers load them separately when needed.
func scanNote(scanner interface{ Scan(dest ...any) error }) (*domain.Note, error) {
	var n domain.Note

	var (
		isFavorite int
		createdAt  string
		updatedAt  string
	)

	err := scanner.Scan(
		&n.ID,
		&n.UserID,
		&n.Title,
		&n.Content,
		&isFavorite,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	n.IsFavorite = isFavorite != 0

	n.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	n.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &n, nil
}

// CreateNote inserts a new note into the database.
// Returns store.ErrAlreadyExists if the note ID already exists.
func (s *Store) CreateNote(ctx context.Context, note *domain.Note) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, user_id, title, content, is_favorite, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		note.ID,
		note.UserID,
		note.Title,
		note.Content,
		boolToInt(note.IsFavorite),
		formatTime(note.CreatedAt),
		formatTime(note.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	s.indexNote(ctx, note)
	return nil
}

// GetNote retrieves a note by ID.
// Returns store.ErrNotFound if the note does not exist.
// Ownership is not checked here; callers enforce it.
func (s *Store) GetNote(ctx context.Context, id string) (*domain.Note, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)

	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotesByUser returns a user's notes, most recently updated first.
// The filter can restrict to favorites or to notes carrying a given tag.
func (s *Store) ListNotesByUser(ctx context.Context, userID string, filter store.NoteFilter) ([]*domain.Note, error) {
	query := `SELECT ` + prefixColumns("n", noteColumns) + ` FROM notes n`
	args := []any{}

	if filter.TagID != "" {
		query += ` JOIN note_tags nt ON nt.note_id = n.id AND nt.tag_id = ?`
		args = append(args, filter.TagID)
	}

	query += ` WHERE n.user_id = ?`
	args = append(args, userID)

	if filter.FavoritesOnly {
		query += ` AND n.is_favorite = 1`
	}

	query += ` ORDER BY n.updated_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if notes == nil {
		notes = []*domain.Note{}
	}
	return notes, nil
}

// prefixColumns qualifies each column in a comma-separated list with a table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// UpdateNote performs a full row update on an existing note.
// Returns store.ErrNotFound if the note does not exist.
func (s *Store) UpdateNote(ctx context.Context, note *domain.Note) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notes SET
			user_id = ?,
			title = ?,
			content = ?,
			is_favorite = ?,
			created_at = ?,
			updated_at = ?
		WHERE id = ?`,
		note.UserID,
		note.Title,
		note.Content,
		boolToInt(note.IsFavorite),
		formatTime(note.CreatedAt),
		formatTime(note.UpdatedAt),
		note.ID,
	)
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

	s.indexNote(ctx, note)
	return nil
}

// SetNoteFavorite updates only the favorite flag and updated_at.
// Returns store.ErrNotFound if the note does not exist.
func (s *Store) SetNoteFavorite(ctx context.Context, noteID string, favorite bool, updatedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notes SET is_favorite = ?, updated_at = ?
		WHERE id = ?`,
		boolToInt(favorite), formatTime(updatedAt), noteID)
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

// DeleteNote performs a hard delete of a note by ID.
// note_tags rows cascade via foreign keys.
// Returns store.ErrNotFound if the note does not exist.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM notes WHERE id = ?`, id)
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

	if err := s.searchIndexer.DeleteNote(ctx, id); err != nil && s.logger != nil {
		s.logger.Warn("remove note from search index", "note_id", id, "error", err)
	}
	return nil
}

// CountNotesByUser returns the number of notes a user owns.
func (s *Store) CountNotesByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notes WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return count, nil
}

// indexNote pushes a note into the search index, logging failures
// instead of surfacing them; search staleness must not fail writes.
func (s *Store) indexNote(ctx context.Context, note *domain.Note) {
	if err := s.searchIndexer.IndexNote(ctx, note); err != nil && s.logger != nil {
		s.logger.Warn("index note", "note_id", note.ID, "error", err)
	}
}
