package store

// NoteFilter narrows ListNotesByUser results.
// Zero value means no filtering; notes come back ordered by most
// recently updated first.
type NoteFilter struct {
	FavoritesOnly bool
	TagID         string
}
