// Package ai provides note summarization backed by a hosted language model.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/notedapp/noted-server/internal/domain"
)

// Mode selects the prompt template and output budget for a summary.
type Mode string

const (
	// ModeNote summarizes a single note.
	ModeNote Mode = "note"
	// ModeDashboard compresses multiple notes' combined text into one overview.
	ModeDashboard Mode = "dashboard"
)

// Output budgets per mode.
const (
	noteMaxTokens      = 150
	dashboardMaxTokens = 250
)

const (
	noteSystemPrompt      = "You are a helpful assistant that creates concise summaries of notes. Keep summaries clear and to the point."
	dashboardSystemPrompt = "You are a helpful assistant that creates concise summaries of multiple notes. Focus on key themes and patterns."
)

// Summarizer produces a summary of note content.
// Implementations must not short-circuit on empty content; the upstream
// model decides what an empty input summarizes to.
type Summarizer interface {
	Summarize(ctx context.Context, content string, mode Mode) (string, error)
}

// Client is an Anthropic-backed Summarizer.
type Client struct {
	client anthropic.Client
	model  anthropic.Model
	logger *slog.Logger
}

// Config holds the summarizer configuration.
type Config struct {
	APIKey string
	Model  string
	Logger *slog.Logger
}

// NewClient creates an Anthropic-backed summarizer.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("summarization requires an API key")
	}
	model := anthropic.Model(cfg.Model)
	if cfg.Model == "" {
		model = anthropic.ModelClaudeSonnet4_0
	}

	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:  model,
		logger: cfg.Logger,
	}, nil
}

// Summarize sends the content to the model with the mode's prompt template
// and returns the completion text.
func (c *Client) Summarize(ctx context.Context, content string, mode Mode) (string, error) {
	system := noteSystemPrompt
	userPrompt := "Please summarize the following note in 2-3 sentences:\n\n" + content
	maxTokens := int64(noteMaxTokens)

	if mode == ModeDashboard {
		system = dashboardSystemPrompt
		userPrompt = "Please provide a brief overview of these notes, highlighting main themes and key points:\n\n" + content
		maxTokens = dashboardMaxTokens
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	summary := strings.TrimSpace(b.String())
	if summary == "" {
		summary = "Unable to generate summary"
	}
	return summary, nil
}

// DashboardContent joins note titles and bodies into the combined text
// the dashboard digest summarizes.
func DashboardContent(notes []*domain.Note) string {
	parts := make([]string, 0, len(notes))
	for _, n := range notes {
		parts = append(parts, "Title: "+n.Title+"\nContent: "+n.Content)
	}
	return strings.Join(parts, "\n\n")
}
