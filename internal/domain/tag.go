package domain

import (
	"strings"
	"time"
)

// Tag represents a user-owned label for organizing notes.
// Names are unique per user after normalization; two users can each
// have their own "work" tag.
type Tag struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeTagName applies the canonical tag name transformation:
// surrounding whitespace is trimmed, case is preserved.
// "Work" and "work" are distinct tags.
func NormalizeTagName(name string) string {
	return strings.TrimSpace(name)
}

// NoteTag represents the many-to-many relationship between notes and tags.
// UserID is denormalized so ownership checks never need a join.
type NoteTag struct {
	NoteID    string    `json:"note_id"`
	TagID     string    `json:"tag_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
