package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerSummarizeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "summarize",
		Method:      http.MethodPost,
		Path:        "/api/v1/ai/summarize",
		Summary:     "Summarize content",
		Description: "Forwards content to the AI model and returns a short summary",
		Tags:        []string{"AI"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSummarize)

	huma.Register(s.api, huma.Operation{
		OperationID: "dashboardDigest",
		Method:      http.MethodGet,
		Path:        "/api/v1/ai/dashboard",
		Summary:     "Dashboard digest",
		Description: "Returns a cached AI digest of the user's notes",
		Tags:        []string{"AI"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDashboardDigest)
}

// === DTOs ===

// SummarizeRequest is the request body for summarization. Empty content
// is allowed and still forwarded upstream.
type SummarizeRequest struct {
	Content string `json:"content" maxLength:"200000" doc:"Content to summarize"`
	Type    string `json:"type,omitempty" enum:"note,dashboard" doc:"Summary style, defaults to note"`
}

// SummarizeInput wraps the summarize request for Huma.
type SummarizeInput struct {
	Authorization string `header:"Authorization"`
	Body          SummarizeRequest
}

// SummaryResponse contains a generated summary.
type SummaryResponse struct {
	Summary string `json:"summary" doc:"Generated summary"`
}

// SummaryOutput wraps the summary response for Huma.
type SummaryOutput struct {
	Body SummaryResponse
}

// DashboardDigestInput contains parameters for the dashboard digest.
type DashboardDigestInput struct {
	Authorization string `header:"Authorization"`
}

// === Handlers ===

func (s *Server) handleSummarize(ctx context.Context, input *SummarizeInput) (*SummaryOutput, error) {
	if _, err := s.authenticateRequest(ctx, input.Authorization); err != nil {
		return nil, err
	}

	summary, err := s.services.Summary.Summarize(ctx, input.Body.Content, input.Body.Type)
	if err != nil {
		return nil, err
	}

	return &SummaryOutput{Body: SummaryResponse{Summary: summary}}, nil
}

func (s *Server) handleDashboardDigest(ctx context.Context, input *DashboardDigestInput) (*SummaryOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	digest, err := s.services.Summary.DashboardDigest(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &SummaryOutput{Body: SummaryResponse{Summary: digest}}, nil
}
