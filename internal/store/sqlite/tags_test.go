package sqlite

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/notedapp/noted-server/internal/domain"
	"github.com/notedapp/noted-server/internal/store"
)

// makeTestTag creates a domain.Tag with sensible defaults for testing.
func makeTestTag(id, userID, name string) *domain.Tag {
	return &domain.Tag{
		ID:        id,
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now(),
	}
}

func TestCreateAndGetTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-t1", "t1@example.com")

	tag := makeTestTag("tag-1", "user-t1", "work")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	got, err := s.GetTagByID(ctx, "tag-1")
	if err != nil {
		t.Fatalf("GetTagByID: %v", err)
	}

	if got.ID != tag.ID {
		t.Errorf("ID: got %q, want %q", got.ID, tag.ID)
	}
	if got.UserID != "user-t1" {
		t.Errorf("UserID: got %q", got.UserID)
	}
	if got.Name != "work" {
		t.Errorf("Name: got %q", got.Name)
	}
	if got.CreatedAt.Unix() != tag.CreatedAt.Unix() {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, tag.CreatedAt)
	}
}

func TestGetTagByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-tn", "tn@example.com")

	tag := makeTestTag("tag-n1", "user-tn", "ideas")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	got, err := s.GetTagByName(ctx, "user-tn", "ideas")
	if err != nil {
		t.Fatalf("GetTagByName: %v", err)
	}
	if got.ID != "tag-n1" {
		t.Errorf("ID: got %q", got.ID)
	}

	// Name lookup is exact: different case is a different tag.
	if _, err := s.GetTagByName(ctx, "user-tn", "Ideas"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("case-variant lookup: expected ErrNotFound, got %v", err)
	}
}

func TestGetTag_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetTagByID(ctx, "nonexistent")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var storeErr *store.Error
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *store.Error, got %T: %v", err, err)
	}
	if storeErr.Code != store.ErrNotFound.Code {
		t.Errorf("expected status %d, got %d", store.ErrNotFound.Code, storeErr.Code)
	}
}

func TestCreateTag_DuplicatePerUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-dup", "dup@example.com")
	insertTestUser(t, s, "user-other", "other@example.com")

	if err := s.CreateTag(ctx, makeTestTag("tag-dup-1", "user-dup", "work")); err != nil {
		t.Fatalf("CreateTag first: %v", err)
	}

	// Same user, same name fails.
	err := s.CreateTag(ctx, makeTestTag("tag-dup-2", "user-dup", "work"))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	// A different user can own the same name.
	if err := s.CreateTag(ctx, makeTestTag("tag-dup-3", "user-other", "work")); err != nil {
		t.Errorf("CreateTag for other user: %v", err)
	}
}

func TestListTagsByUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-lt", "lt@example.com")
	insertTestUser(t, s, "user-lt2", "lt2@example.com")

	for i, name := range []string{"zebra", "alpha", "middle"} {
		tag := makeTestTag("tag-l"+string(rune('1'+i)), "user-lt", name)
		if err := s.CreateTag(ctx, tag); err != nil {
			t.Fatalf("CreateTag(%s): %v", name, err)
		}
	}
	// Another user's tag must not leak into the listing.
	if err := s.CreateTag(ctx, makeTestTag("tag-lx", "user-lt2", "alpha")); err != nil {
		t.Fatalf("CreateTag other user: %v", err)
	}

	got, err := s.ListTagsByUser(ctx, "user-lt")
	if err != nil {
		t.Fatalf("ListTagsByUser: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 tags, got %d", len(got))
	}

	// Verify sorted by name ASC.
	if got[0].Name != "alpha" || got[1].Name != "middle" || got[2].Name != "zebra" {
		t.Errorf("order: got %q, %q, %q", got[0].Name, got[1].Name, got[2].Name)
	}
}

func TestFindOrCreateTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-foc", "foc@example.com")

	// First call should create a new tag.
	tag1, created, err := s.FindOrCreateTag(ctx, "user-foc", "reading")
	if err != nil {
		t.Fatalf("FindOrCreateTag (create): %v", err)
	}
	if !created {
		t.Error("expected created=true for new tag")
	}
	if tag1.ID == "" {
		t.Error("expected non-empty ID for created tag")
	}
	if tag1.Name != "reading" {
		t.Errorf("Name: got %q, want %q", tag1.Name, "reading")
	}
	if tag1.CreatedAt.IsZero() {
		t.Error("CreatedAt: expected non-zero")
	}

	// Verify it was persisted.
	fetched, err := s.GetTagByName(ctx, "user-foc", "reading")
	if err != nil {
		t.Fatalf("GetTagByName after create: %v", err)
	}
	if fetched.ID != tag1.ID {
		t.Errorf("persisted ID: got %q, want %q", fetched.ID, tag1.ID)
	}

	// Second call with the same name should find the existing tag.
	tag2, created2, err := s.FindOrCreateTag(ctx, "user-foc", "reading")
	if err != nil {
		t.Fatalf("FindOrCreateTag (find): %v", err)
	}
	if created2 {
		t.Error("expected created=false for existing tag")
	}
	if tag2.ID != tag1.ID {
		t.Errorf("expected same ID %q, got %q", tag1.ID, tag2.ID)
	}
}

func TestFindOrCreateTag_ConcurrentSameName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-race", "race@example.com")

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tag, _, err := s.FindOrCreateTag(ctx, "user-race", "inbox")
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = tag.ID
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: %v", i, err)
		}
	}
	for i := 1; i < workers; i++ {
		if ids[i] != ids[0] {
			t.Errorf("worker %d: got tag ID %q, want %q", i, ids[i], ids[0])
		}
	}

	tags, err := s.ListTagsByUser(ctx, "user-race")
	if err != nil {
		t.Fatalf("ListTagsByUser: %v", err)
	}
	if len(tags) != 1 {
		t.Errorf("expected exactly one tag row, got %d", len(tags))
	}
}

func TestSyncNoteTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-sync", "sync@example.com")
	insertTestNote(t, s, "note-s1", "user-sync", "Sync target")

	t1 := makeTestTag("tag-s1", "user-sync", "work")
	t2 := makeTestTag("tag-s2", "user-sync", "ideas")
	t3 := makeTestTag("tag-s3", "user-sync", "later")
	for _, tag := range []*domain.Tag{t1, t2, t3} {
		if err := s.CreateTag(ctx, tag); err != nil {
			t.Fatalf("CreateTag %s: %v", tag.Name, err)
		}
	}

	// Initial sync attaches two tags.
	if err := s.SyncNoteTags(ctx, "note-s1", "user-sync", []string{"tag-s1", "tag-s2"}); err != nil {
		t.Fatalf("SyncNoteTags: %v", err)
	}

	got, err := s.GetNoteTagIDs(ctx, "note-s1")
	if err != nil {
		t.Fatalf("GetNoteTagIDs: %v", err)
	}
	sort.Strings(got)
	if len(got) != 2 || got[0] != "tag-s1" || got[1] != "tag-s2" {
		t.Fatalf("after initial sync: got %v", got)
	}

	// Re-syncing to an overlapping set removes tag-s1, keeps tag-s2, adds tag-s3.
	if err := s.SyncNoteTags(ctx, "note-s1", "user-sync", []string{"tag-s2", "tag-s3"}); err != nil {
		t.Fatalf("SyncNoteTags (reconcile): %v", err)
	}

	got, err = s.GetNoteTagIDs(ctx, "note-s1")
	if err != nil {
		t.Fatalf("GetNoteTagIDs after reconcile: %v", err)
	}
	sort.Strings(got)
	if len(got) != 2 || got[0] != "tag-s2" || got[1] != "tag-s3" {
		t.Fatalf("after reconcile: got %v", got)
	}

	// Empty set clears all associations.
	if err := s.SyncNoteTags(ctx, "note-s1", "user-sync", nil); err != nil {
		t.Fatalf("SyncNoteTags (clear): %v", err)
	}
	got, err = s.GetNoteTagIDs(ctx, "note-s1")
	if err != nil {
		t.Fatalf("GetNoteTagIDs after clear: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("after clear: got %v", got)
	}

	// Cleared tags still exist as rows; only the associations are gone.
	if _, err := s.GetTagByID(ctx, "tag-s2"); err != nil {
		t.Errorf("tag row should survive clear: %v", err)
	}
}

func TestSyncNoteTags_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-idem", "idem@example.com")
	insertTestNote(t, s, "note-i1", "user-idem", "Idempotent")

	tag := makeTestTag("tag-i1", "user-idem", "keep")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	if err := s.SyncNoteTags(ctx, "note-i1", "user-idem", []string{"tag-i1"}); err != nil {
		t.Fatalf("SyncNoteTags first: %v", err)
	}

	var firstCreated string
	err := s.db.QueryRow(
		`SELECT created_at FROM note_tags WHERE note_id = ? AND tag_id = ?`,
		"note-i1", "tag-i1").Scan(&firstCreated)
	if err != nil {
		t.Fatalf("read created_at: %v", err)
	}

	// Syncing the same set again leaves the existing row alone.
	if err := s.SyncNoteTags(ctx, "note-i1", "user-idem", []string{"tag-i1"}); err != nil {
		t.Fatalf("SyncNoteTags second: %v", err)
	}

	var secondCreated string
	err = s.db.QueryRow(
		`SELECT created_at FROM note_tags WHERE note_id = ? AND tag_id = ?`,
		"note-i1", "tag-i1").Scan(&secondCreated)
	if err != nil {
		t.Fatalf("re-read created_at: %v", err)
	}
	if firstCreated != secondCreated {
		t.Errorf("created_at changed on idempotent sync: %q vs %q", firstCreated, secondCreated)
	}
}

func TestGetTagsForNote(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-gfn", "gfn@example.com")
	insertTestNote(t, s, "note-g1", "user-gfn", "Tagged")

	t1 := makeTestTag("tag-g1", "user-gfn", "zeta")
	t2 := makeTestTag("tag-g2", "user-gfn", "alpha")
	for _, tag := range []*domain.Tag{t1, t2} {
		if err := s.CreateTag(ctx, tag); err != nil {
			t.Fatalf("CreateTag: %v", err)
		}
	}
	if err := s.SyncNoteTags(ctx, "note-g1", "user-gfn", []string{"tag-g1", "tag-g2"}); err != nil {
		t.Fatalf("SyncNoteTags: %v", err)
	}

	tags, err := s.GetTagsForNote(ctx, "note-g1")
	if err != nil {
		t.Fatalf("GetTagsForNote: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(tags))
	}
	// Ordered by name.
	if tags[0].Name != "alpha" || tags[1].Name != "zeta" {
		t.Errorf("order: got %q, %q", tags[0].Name, tags[1].Name)
	}
}

func TestDeleteTag_CascadesAssociations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-dt", "dt@example.com")
	insertTestNote(t, s, "note-d1", "user-dt", "Keeps existing")

	tag := makeTestTag("tag-d1", "user-dt", "doomed")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if err := s.SyncNoteTags(ctx, "note-d1", "user-dt", []string{"tag-d1"}); err != nil {
		t.Fatalf("SyncNoteTags: %v", err)
	}

	if err := s.DeleteTag(ctx, "tag-d1"); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}

	ids, err := s.GetNoteTagIDs(ctx, "note-d1")
	if err != nil {
		t.Fatalf("GetNoteTagIDs: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected associations to cascade, got %v", ids)
	}

	if err := s.DeleteTag(ctx, "tag-d1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second DeleteTag: expected ErrNotFound, got %v", err)
	}
}

func TestCountNotesForTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertTestUser(t, s, "user-cnt", "cnt@example.com")
	insertTestNote(t, s, "note-c1", "user-cnt", "One")
	insertTestNote(t, s, "note-c2", "user-cnt", "Two")

	tag := makeTestTag("tag-c1", "user-cnt", "counted")
	if err := s.CreateTag(ctx, tag); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	for _, noteID := range []string{"note-c1", "note-c2"} {
		if err := s.SyncNoteTags(ctx, noteID, "user-cnt", []string{"tag-c1"}); err != nil {
			t.Fatalf("SyncNoteTags(%s): %v", noteID, err)
		}
	}

	count, err := s.CountNotesForTag(ctx, "tag-c1")
	if err != nil {
		t.Fatalf("CountNotesForTag: %v", err)
	}
	if count != 2 {
		t.Errorf("count: got %d, want 2", count)
	}
}
