package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/notedapp/noted-server/internal/domain"
	"github.com/notedapp/noted-server/internal/search"
	"github.com/notedapp/noted-server/internal/service"
)

func (s *Server) registerNoteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listNotes",
		Method:      http.MethodGet,
		Path:        "/api/v1/notes",
		Summary:     "List notes",
		Description: "Returns the user's notes ordered by most recently updated",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListNotes)

	huma.Register(s.api, huma.Operation{
		OperationID: "createNote",
		Method:      http.MethodPost,
		Path:        "/api/v1/notes",
		Summary:     "Create note",
		Description: "Creates a new note with optional tags",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchNotes",
		Method:      http.MethodGet,
		Path:        "/api/v1/notes/search",
		Summary:     "Search notes",
		Description: "Full-text search over the user's notes",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchNotes)

	huma.Register(s.api, huma.Operation{
		OperationID: "importNote",
		Method:      http.MethodPost,
		Path:        "/api/v1/notes/import",
		Summary:     "Import HTML note",
		Description: "Converts HTML content to markdown and creates a note",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleImportNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "getNote",
		Method:      http.MethodGet,
		Path:        "/api/v1/notes/{id}",
		Summary:     "Get note",
		Description: "Returns a note with its tags",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateNote",
		Method:      http.MethodPatch,
		Path:        "/api/v1/notes/{id}",
		Summary:     "Update note",
		Description: "Applies partial changes; omitting tags leaves them unchanged, an empty list clears them",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteNote",
		Method:      http.MethodDelete,
		Path:        "/api/v1/notes/{id}",
		Summary:     "Delete note",
		Description: "Deletes a note and its tag associations",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "setNoteFavorite",
		Method:      http.MethodPut,
		Path:        "/api/v1/notes/{id}/favorite",
		Summary:     "Set favorite",
		Description: "Sets or clears the favorite flag",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetNoteFavorite)

	huma.Register(s.api, huma.Operation{
		OperationID: "renderNote",
		Method:      http.MethodGet,
		Path:        "/api/v1/notes/{id}/html",
		Summary:     "Render note",
		Description: "Returns the note content rendered from markdown to HTML",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRenderNote)
}

// === DTOs ===

// NoteResponse contains note data in API responses.
type NoteResponse struct {
	ID         string        `json:"id" doc:"Note ID"`
	Title      string        `json:"title" doc:"Note title"`
	Content    string        `json:"content" doc:"Markdown content"`
	IsFavorite bool          `json:"is_favorite" doc:"Favorite flag"`
	Tags       []TagResponse `json:"tags" doc:"Tags ordered by name"`
	CreatedAt  time.Time     `json:"created_at" doc:"Creation time"`
	UpdatedAt  time.Time     `json:"updated_at" doc:"Last update time"`
}

// NoteOutput wraps a single note response for Huma.
type NoteOutput struct {
	Body NoteResponse
}

// ListNotesInput contains parameters for listing notes.
type ListNotesInput struct {
	Authorization string `header:"Authorization"`
	Favorites     bool   `query:"favorites" doc:"Only favorite notes"`
	Tag           string `query:"tag" doc:"Only notes carrying this tag ID"`
}

// ListNotesResponse contains a list of notes.
type ListNotesResponse struct {
	Notes []NoteResponse `json:"notes" doc:"Notes ordered by most recently updated"`
	Total int            `json:"total" doc:"Number of notes returned"`
}

// ListNotesOutput wraps the list notes response for Huma.
type ListNotesOutput struct {
	Body ListNotesResponse
}

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title    string   `json:"title" validate:"required,min=1,max=200" doc:"Note title"`
	Content  string   `json:"content,omitempty" validate:"max=100000" doc:"Markdown content"`
	Favorite bool     `json:"favorite,omitempty" doc:"Favorite flag"`
	Tags     []string `json:"tags,omitempty" validate:"max=50,dive,max=100" doc:"Tag names"`
}

// CreateNoteInput wraps the create note request for Huma.
type CreateNoteInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateNoteRequest
}

// UpdateNoteRequest is the request body for updating a note. A nil tags
// field leaves assignments unchanged; an empty list clears them.
type UpdateNoteRequest struct {
	Title   *string   `json:"title,omitempty" validate:"omitempty,min=1,max=200" doc:"Note title"`
	Content *string   `json:"content,omitempty" validate:"omitempty,max=100000" doc:"Markdown content"`
	Tags    *[]string `json:"tags,omitempty" validate:"omitempty,max=50,dive,max=100" doc:"Replacement tag names"`
}

// UpdateNoteInput wraps the update note request for Huma.
type UpdateNoteInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Note ID"`
	Body          UpdateNoteRequest
}

// GetNoteInput contains parameters for getting a note.
type GetNoteInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Note ID"`
}

// DeleteNoteInput contains parameters for deleting a note.
type DeleteNoteInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Note ID"`
}

// SetFavoriteRequest is the request body for the favorite toggle.
type SetFavoriteRequest struct {
	Favorite bool `json:"favorite" doc:"Desired favorite state"`
}

// SetFavoriteInput wraps the favorite request for Huma.
type SetFavoriteInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Note ID"`
	Body          SetFavoriteRequest
}

// SearchNotesInput contains full-text search parameters.
type SearchNotesInput struct {
	Authorization string   `header:"Authorization"`
	Query         string   `query:"q" doc:"Search query"`
	Tags          []string `query:"tags" doc:"Exact tag names, OR across tags"`
	Favorites     bool     `query:"favorites" doc:"Only favorite notes"`
	Limit         int      `query:"limit" doc:"Maximum hits to return"`
	Offset        int      `query:"offset" doc:"Hits to skip"`
	Sort          string   `query:"sort" enum:"relevance,recent" doc:"Sort order"`
}

// SearchNotesOutput wraps the search result for Huma.
type SearchNotesOutput struct {
	Body search.SearchResult
}

// RenderNoteInput contains parameters for rendering a note.
type RenderNoteInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Note ID"`
}

// RenderNoteResponse contains rendered note HTML.
type RenderNoteResponse struct {
	HTML string `json:"html" doc:"Rendered HTML"`
}

// RenderNoteOutput wraps the rendered note for Huma.
type RenderNoteOutput struct {
	Body RenderNoteResponse
}

// ImportNoteRequest is the request body for importing an HTML note.
type ImportNoteRequest struct {
	Title    string   `json:"title" validate:"required,min=1,max=200" doc:"Note title"`
	HTML     string   `json:"html" validate:"required,max=500000" doc:"HTML content to convert"`
	Favorite bool     `json:"favorite,omitempty" doc:"Favorite flag"`
	Tags     []string `json:"tags,omitempty" validate:"max=50,dive,max=100" doc:"Tag names"`
}

// ImportNoteInput wraps the import request for Huma.
type ImportNoteInput struct {
	Authorization string `header:"Authorization"`
	Body          ImportNoteRequest
}

// === Handlers ===

func (s *Server) handleListNotes(ctx context.Context, input *ListNotesInput) (*ListNotesOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	notes, err := s.services.Note.List(ctx, userID, service.ListNotesOptions{
		FavoritesOnly: input.Favorites,
		TagID:         input.Tag,
	})
	if err != nil {
		return nil, err
	}

	resp := make([]NoteResponse, len(notes))
	for i, n := range notes {
		resp[i] = mapNoteResponse(n)
	}

	return &ListNotesOutput{Body: ListNotesResponse{Notes: resp, Total: len(resp)}}, nil
}

func (s *Server) handleCreateNote(ctx context.Context, input *CreateNoteInput) (*NoteOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	note, err := s.services.Note.Create(ctx, userID, service.CreateNoteRequest{
		Title:    input.Body.Title,
		Content:  input.Body.Content,
		Favorite: input.Body.Favorite,
		Tags:     input.Body.Tags,
	})
	if err != nil {
		return nil, err
	}

	return &NoteOutput{Body: mapNoteResponse(note)}, nil
}

func (s *Server) handleGetNote(ctx context.Context, input *GetNoteInput) (*NoteOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	note, err := s.services.Note.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &NoteOutput{Body: mapNoteResponse(note)}, nil
}

func (s *Server) handleUpdateNote(ctx context.Context, input *UpdateNoteInput) (*NoteOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	req := service.UpdateNoteRequest{
		Title:   input.Body.Title,
		Content: input.Body.Content,
		Tags:    tagPatchFromBody(input.Body.Tags),
	}

	note, err := s.services.Note.Update(ctx, userID, input.ID, req)
	if err != nil {
		return nil, err
	}

	return &NoteOutput{Body: mapNoteResponse(note)}, nil
}

func (s *Server) handleDeleteNote(ctx context.Context, input *DeleteNoteInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Note.Delete(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Note deleted"}}, nil
}

func (s *Server) handleSetNoteFavorite(ctx context.Context, input *SetFavoriteInput) (*NoteOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	note, err := s.services.Note.SetFavorite(ctx, userID, input.ID, input.Body.Favorite)
	if err != nil {
		return nil, err
	}

	return &NoteOutput{Body: mapNoteResponse(note)}, nil
}

func (s *Server) handleSearchNotes(ctx context.Context, input *SearchNotesInput) (*SearchNotesOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Note.Search(ctx, userID, search.SearchParams{
		Query:         input.Query,
		Tags:          input.Tags,
		FavoritesOnly: input.Favorites,
		Limit:         input.Limit,
		Offset:        input.Offset,
		SortBy:        input.Sort,
		Highlight:     true,
	})
	if err != nil {
		return nil, err
	}

	return &SearchNotesOutput{Body: *result}, nil
}

func (s *Server) handleRenderNote(ctx context.Context, input *RenderNoteInput) (*RenderNoteOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	html, err := s.services.Note.RenderHTML(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &RenderNoteOutput{Body: RenderNoteResponse{HTML: html}}, nil
}

func (s *Server) handleImportNote(ctx context.Context, input *ImportNoteInput) (*NoteOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	note, err := s.services.Note.ImportHTML(ctx, userID, service.CreateNoteRequest{
		Title:    input.Body.Title,
		Content:  input.Body.HTML,
		Favorite: input.Body.Favorite,
		Tags:     input.Body.Tags,
	})
	if err != nil {
		return nil, err
	}

	return &NoteOutput{Body: mapNoteResponse(note)}, nil
}

// === Helpers ===

// tagPatchFromBody maps JSON tag semantics onto the domain patch:
// absent field keeps the current set, [] clears it, anything else
// replaces it.
func tagPatchFromBody(tags *[]string) domain.TagPatch {
	switch {
	case tags == nil:
		return domain.KeepTags()
	case len(*tags) == 0:
		return domain.ClearTags()
	default:
		return domain.ReplaceTags(*tags)
	}
}

func mapNoteResponse(n *domain.Note) NoteResponse {
	tags := make([]TagResponse, len(n.Tags))
	for i, t := range n.Tags {
		tags[i] = TagResponse{
			ID:        t.ID,
			Name:      t.Name,
			CreatedAt: t.CreatedAt,
		}
	}

	return NoteResponse{
		ID:         n.ID,
		Title:      n.Title,
		Content:    n.Content,
		IsFavorite: n.IsFavorite,
		Tags:       tags,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}
