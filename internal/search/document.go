// Package search provides full-text note search using Bleve.
// Every document carries its owner's user ID and every query is scoped
// to a single owner, so one user's notes never surface for another.
package search

import (
	"github.com/notedapp/noted-server/internal/domain"
)

// SearchDocument is the indexed representation of a note.
//
// Tag names are denormalized into the document so tag filters resolve
// inside the index without touching the store.
type SearchDocument struct {
	ID         string   `json:"id"`
	UserID     string   `json:"user_id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags,omitempty"`
	IsFavorite bool     `json:"is_favorite"`

	// Unix millis, for sorting by recency.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to a map with lowercase field names.
// Bleve defaults to Go struct field names (capitalized), but the index
// mapping uses lowercase names, so we convert explicitly.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"user_id":    d.UserID,
		"title":      d.Title,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	if d.Content != "" {
		m["content"] = d.Content
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if d.IsFavorite {
		m["is_favorite"] = true
	}

	return m
}

// NoteToSearchDocument converts a domain Note to a SearchDocument.
// The note's Tags slice may be nil when tags were not loaded; the
// document then simply carries no tag terms.
func NoteToSearchDocument(note *domain.Note) *SearchDocument {
	return &SearchDocument{
		ID:         note.ID,
		UserID:     note.UserID,
		Title:      note.Title,
		Content:    note.Content,
		Tags:       note.TagNames(),
		IsFavorite: note.IsFavorite,
		CreatedAt:  note.CreatedAt.UnixMilli(),
		UpdatedAt:  note.UpdatedAt.UnixMilli(),
	}
}
