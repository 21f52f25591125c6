package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTags_CountsAndNormalization(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerTestUser(t, "alice@example.com")

	ts.createTestNote(t, token, "One", "Work", "urgent")
	ts.createTestNote(t, token, "Two", "work")

	resp := ts.api.Get("/api/v1/tags", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var tags testEnvelope[ListTagsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tags))
	require.Len(t, tags.Data.Tags, 2)

	counts := make(map[string]int)
	for _, tag := range tags.Data.Tags {
		counts[tag.Name] = tag.NoteCount
	}
	// "Work" and "work" collapse to one tag.
	assert.Equal(t, 2, counts["work"])
	assert.Equal(t, 1, counts["urgent"])
}

func TestGetTag(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerTestUser(t, "alice@example.com")
	ts.createTestNote(t, token, "One", "reading")

	listResp := ts.api.Get("/api/v1/tags", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, listResp.Code)

	var tags testEnvelope[ListTagsResponse]
	require.NoError(t, json.Unmarshal(listResp.Body.Bytes(), &tags))
	require.Len(t, tags.Data.Tags, 1)

	resp := ts.api.Get("/api/v1/tags/"+tags.Data.Tags[0].ID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var tag testEnvelope[TagResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tag))
	assert.Equal(t, "reading", tag.Data.Name)
}

func TestGetTag_Missing(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerTestUser(t, "alice@example.com")

	resp := ts.api.Get("/api/v1/tags/tag-does-not-exist", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeleteTag_DetachesNotes(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.registerTestUser(t, "alice@example.com")
	noteID := ts.createTestNote(t, token, "Tagged", "ephemeral", "keeper")

	listResp := ts.api.Get("/api/v1/tags", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, listResp.Code)

	var tags testEnvelope[ListTagsResponse]
	require.NoError(t, json.Unmarshal(listResp.Body.Bytes(), &tags))

	var targetID string
	for _, tag := range tags.Data.Tags {
		if tag.Name == "ephemeral" {
			targetID = tag.ID
		}
	}
	require.NotEmpty(t, targetID)

	resp := ts.api.Delete("/api/v1/tags/"+targetID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)

	// The note survives with the remaining tag.
	resp = ts.api.Get("/api/v1/notes/"+noteID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var note testEnvelope[NoteResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &note))
	require.Len(t, note.Data.Tags, 1)
	assert.Equal(t, "keeper", note.Data.Tags[0].Name)

	resp = ts.api.Get("/api/v1/tags/"+targetID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeleteTag_CrossUserForbidden(t *testing.T) {
	ts := setupTestServer(t)
	owner := ts.registerTestUser(t, "alice@example.com")
	intruder := ts.registerTestUser(t, "mallory@example.com")
	ts.createTestNote(t, owner, "Tagged", "private")

	listResp := ts.api.Get("/api/v1/tags", "Authorization: Bearer "+owner)
	require.Equal(t, http.StatusOK, listResp.Code)

	var tags testEnvelope[ListTagsResponse]
	require.NoError(t, json.Unmarshal(listResp.Body.Bytes(), &tags))
	require.Len(t, tags.Data.Tags, 1)

	resp := ts.api.Delete("/api/v1/tags/"+tags.Data.Tags[0].ID, "Authorization: Bearer "+intruder)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestListTags_IsolatedPerUser(t *testing.T) {
	ts := setupTestServer(t)
	alice := ts.registerTestUser(t, "alice@example.com")
	bob := ts.registerTestUser(t, "bob@example.com")
	ts.createTestNote(t, alice, "Note", "alice-only")

	resp := ts.api.Get("/api/v1/tags", "Authorization: Bearer "+bob)
	require.Equal(t, http.StatusOK, resp.Code)

	var tags testEnvelope[ListTagsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tags))
	assert.Empty(t, tags.Data.Tags)
}
