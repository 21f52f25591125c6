package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNote_RoundTrip(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/notes", map[string]any{
		"title":   "Meeting notes",
		"content": "# Agenda\n\n- item one",
		"tags":    []string{"work", "urgent"},
	}, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var created testEnvelope[NoteResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.ID)
	assert.Len(t, created.Data.Tags, 2)

	resp = ts.api.Get("/api/v1/notes/"+created.Data.ID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var fetched testEnvelope[NoteResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &fetched))
	assert.Equal(t, "Meeting notes", fetched.Data.Title)
	assert.Equal(t, "# Agenda\n\n- item one", fetched.Data.Content)

	names := make([]string, len(fetched.Data.Tags))
	for i, tag := range fetched.Data.Tags {
		names[i] = tag.Name
	}
	assert.ElementsMatch(t, []string{"work", "urgent"}, names)
}

func TestCreateNote_EmptyTitleRejected(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/notes", map[string]any{
		"title":   "",
		"content": "body",
	}, "Authorization: Bearer "+token)
	assert.GreaterOrEqual(t, resp.Code, 400)
	assert.Less(t, resp.Code, 500)
}

func TestUpdateNote_TagSemantics(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerTestUser(t, "alice@example.com")
	noteID := ts.createTestNote(t, token, "A", "work", "urgent")

	// Omitting tags keeps the current assignments.
	resp := ts.api.Patch("/api/v1/notes/"+noteID, map[string]any{
		"title": "A renamed",
	}, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var updated testEnvelope[NoteResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Equal(t, "A renamed", updated.Data.Title)
	assert.Len(t, updated.Data.Tags, 2)

	// A replacement list becomes the exact new set.
	resp = ts.api.Patch("/api/v1/notes/"+noteID, map[string]any{
		"tags": []string{"work"},
	}, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	require.Len(t, updated.Data.Tags, 1)
	assert.Equal(t, "work", updated.Data.Tags[0].Name)

	// An empty list clears every assignment.
	resp = ts.api.Patch("/api/v1/notes/"+noteID, map[string]any{
		"tags": []string{},
	}, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Empty(t, updated.Data.Tags)

	// The orphaned tag rows survive with a zero count.
	resp = ts.api.Get("/api/v1/tags", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var tags testEnvelope[ListTagsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tags))
	require.Len(t, tags.Data.Tags, 2)
	for _, tag := range tags.Data.Tags {
		assert.Equal(t, 0, tag.NoteCount)
	}
}

func TestDeleteNote(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerTestUser(t, "alice@example.com")
	noteID := ts.createTestNote(t, token, "Disposable", "scratch")

	resp := ts.api.Delete("/api/v1/notes/"+noteID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/notes/"+noteID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	// Tag row outlives the note.
	resp = ts.api.Get("/api/v1/tags", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var tags testEnvelope[ListTagsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tags))
	require.Len(t, tags.Data.Tags, 1)
	assert.Equal(t, "scratch", tags.Data.Tags[0].Name)
	assert.Equal(t, 0, tags.Data.Tags[0].NoteCount)
}

func TestNoteOwnership_CrossUserForbidden(t *testing.T) {
	ts := setupTestServer(t)
	owner := ts.registerTestUser(t, "alice@example.com")
	intruder := ts.registerTestUser(t, "mallory@example.com")
	noteID := ts.createTestNote(t, owner, "Private")

	resp := ts.api.Get("/api/v1/notes/"+noteID, "Authorization: Bearer "+intruder)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Patch("/api/v1/notes/"+noteID, map[string]any{
		"title": "Hijacked",
	}, "Authorization: Bearer "+intruder)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Delete("/api/v1/notes/"+noteID, "Authorization: Bearer "+intruder)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	// Untouched for the owner.
	resp = ts.api.Get("/api/v1/notes/"+noteID, "Authorization: Bearer "+owner)
	require.Equal(t, http.StatusOK, resp.Code)

	var note testEnvelope[NoteResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &note))
	assert.Equal(t, "Private", note.Data.Title)
}

func TestGetNote_Missing(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Get("/api/v1/notes/note-does-not-exist", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSetFavorite_Toggle(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerTestUser(t, "alice@example.com")
	noteID := ts.createTestNote(t, token, "Starred")

	resp := ts.api.Put("/api/v1/notes/"+noteID+"/favorite", map[string]any{
		"favorite": true,
	}, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var note testEnvelope[NoteResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &note))
	assert.True(t, note.Data.IsFavorite)

	resp = ts.api.Put("/api/v1/notes/"+noteID+"/favorite", map[string]any{
		"favorite": false,
	}, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &note))
	assert.False(t, note.Data.IsFavorite)
}

func TestListNotes_FiltersAndOrdering(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerTestUser(t, "alice@example.com")

	first := ts.createTestNote(t, token, "First", "alpha")
	second := ts.createTestNote(t, token, "Second", "beta")

	resp := ts.api.Put("/api/v1/notes/"+first+"/favorite", map[string]any{
		"favorite": true,
	}, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	// Unfiltered, most recently updated first.
	resp = ts.api.Get("/api/v1/notes", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var list testEnvelope[ListNotesResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	require.Equal(t, 2, list.Data.Total)
	assert.Equal(t, first, list.Data.Notes[0].ID, "favorite toggle touched First last")

	// Favorites only.
	resp = ts.api.Get("/api/v1/notes?favorites=true", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	require.Equal(t, 1, list.Data.Total)
	assert.Equal(t, first, list.Data.Notes[0].ID)

	// By tag.
	var tagID string
	tagsResp := ts.api.Get("/api/v1/tags", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, tagsResp.Code)

	var tags testEnvelope[ListTagsResponse]
	require.NoError(t, json.Unmarshal(tagsResp.Body.Bytes(), &tags))
	for _, tag := range tags.Data.Tags {
		if tag.Name == "beta" {
			tagID = tag.ID
		}
	}
	require.NotEmpty(t, tagID)

	resp = ts.api.Get("/api/v1/notes?tag="+tagID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	require.Equal(t, 1, list.Data.Total)
	assert.Equal(t, second, list.Data.Notes[0].ID)
}

func TestListNotes_SeesMutationImmediately(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerTestUser(t, "alice@example.com")
	ts.createTestNote(t, token, "One")

	// Prime the cached listing.
	resp := ts.api.Get("/api/v1/notes", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	ts.createTestNote(t, token, "Two")

	resp = ts.api.Get("/api/v1/notes", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var list testEnvelope[ListNotesResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Data.Total)
}

func TestListNotes_IsolatedPerUser(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.registerTestUser(t, "alice@example.com")
	bob := ts.registerTestUser(t, "bob@example.com")
	ts.createTestNote(t, alice, "Alice note")

	resp := ts.api.Get("/api/v1/notes", "Authorization: Bearer "+bob)
	require.Equal(t, http.StatusOK, resp.Code)

	var list testEnvelope[ListNotesResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	assert.Equal(t, 0, list.Data.Total)
}

func TestSearchNotes(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/notes", map[string]any{
		"title":   "Project kickoff",
		"content": "planning the roadmap",
	}, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/notes", map[string]any{
		"title":   "Grocery list",
		"content": "eggs and milk",
	}, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/notes/search?q=project", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var result testEnvelope[struct {
		Total uint64 `json:"total"`
		Hits  []struct {
			Title string `json:"title"`
		} `json:"hits"`
	}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.EqualValues(t, 1, result.Data.Total)
	assert.Equal(t, "Project kickoff", result.Data.Hits[0].Title)
}

func TestRenderNote_HTML(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/notes", map[string]any{
		"title":   "Formatted",
		"content": "# Heading\n\nSome *text*.",
	}, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var note testEnvelope[NoteResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &note))

	resp = ts.api.Get("/api/v1/notes/"+note.Data.ID+"/html", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var rendered testEnvelope[RenderNoteResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &rendered))
	assert.Contains(t, rendered.Data.HTML, "<h1")
	assert.Contains(t, rendered.Data.HTML, "<em>text</em>")
}

func TestImportNote_ConvertsHTML(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Post("/api/v1/notes/import", map[string]any{
		"title": "Imported",
		"html":  "<h1>Title</h1><p>Some <strong>bold</strong> text.</p>",
	}, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var note testEnvelope[NoteResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &note))
	assert.NotContains(t, note.Data.Content, "<h1>")
	assert.Contains(t, note.Data.Content, "**bold**")
}
