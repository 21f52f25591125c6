package api

import (
	"github.com/notedapp/noted-server/internal/search"
	"github.com/notedapp/noted-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth    *service.AuthService
	Session *service.SessionService
	User    *service.UserService
	Note    *service.NoteService
	Tag     *service.TagService
	Summary *service.SummaryService

	// Search is the raw index handle, used by the health check.
	Search *search.SearchIndex
}
