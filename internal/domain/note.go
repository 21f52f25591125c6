package domain

import "time"

// Note represents a markdown note owned by a single user.
type Note struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	IsFavorite bool      `json:"is_favorite"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Tags is populated on read paths; it is not written through this struct.
	Tags []*Tag `json:"tags"`
}

// Touch updates the UpdatedAt timestamp.
func (n *Note) Touch() {
	n.UpdatedAt = time.Now()
}

// TagNames returns the names of the note's loaded tags in order.
func (n *Note) TagNames() []string {
	names := make([]string, 0, len(n.Tags))
	for _, t := range n.Tags {
		names = append(names, t.Name)
	}
	return names
}

// tagPatchMode discriminates the three tag update intents.
type tagPatchMode int

const (
	tagsUnchanged tagPatchMode = iota
	tagsClear
	tagsReplace
)

// TagPatch expresses what an update should do with a note's tags.
// The zero value leaves tags untouched. Use ClearTags to remove all
// associations and ReplaceTags to reconcile to an exact set of names.
type TagPatch struct {
	mode  tagPatchMode
	names []string
}

// KeepTags returns a patch that leaves the note's tags as they are.
func KeepTags() TagPatch {
	return TagPatch{mode: tagsUnchanged}
}

// ClearTags returns a patch that removes every tag from the note.
func ClearTags() TagPatch {
	return TagPatch{mode: tagsClear}
}

// ReplaceTags returns a patch that reconciles the note's tags to
// exactly the given names. An empty slice behaves like ClearTags.
func ReplaceTags(names []string) TagPatch {
	return TagPatch{mode: tagsReplace, names: names}
}

// IsUnchanged reports whether the patch leaves tags untouched.
func (p TagPatch) IsUnchanged() bool {
	return p.mode == tagsUnchanged
}

// Names returns the target tag names. For a clear patch this is empty.
// Callers must check IsUnchanged first; an unchanged patch has no target set.
func (p TagPatch) Names() []string {
	if p.mode == tagsClear {
		return []string{}
	}
	return p.names
}
