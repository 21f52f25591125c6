// Package main provides a tool to seed the database with demo notes.
//
// This creates a demo user with a set of tagged notes to exercise
// listing, filtering, and search during development.
//
// Usage:
//
//	DATA_PATH=~/Noted/data go run ./cmd/seed
//	DATA_PATH=~/Noted/data go run ./cmd/seed --email you@example.com
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/notedapp/noted-server/internal/auth"
	"github.com/notedapp/noted-server/internal/cache"
	"github.com/notedapp/noted-server/internal/search"
	"github.com/notedapp/noted-server/internal/service"
	"github.com/notedapp/noted-server/internal/store/sqlite"
)

var (
	email    = flag.String("email", "demo@example.com", "Email for the demo user")
	password = flag.String("password", "demo-password-123", "Password for the demo user")
)

type seedNote struct {
	title    string
	content  string
	tags     []string
	favorite bool
}

var seedNotes = []seedNote{
	{
		title:    "Welcome to Noted",
		content:  "# Welcome\n\nThis is your first note. Notes are written in **Markdown** and can be tagged, favorited, and searched.",
		tags:     []string{"getting-started"},
		favorite: true,
	},
	{
		title:   "Weekly planning",
		content: "## This week\n\n- Review open pull requests\n- Draft the quarterly roadmap\n- Book travel for the offsite",
		tags:    []string{"work", "planning"},
	},
	{
		title:   "Reading list",
		content: "Books to get through this year:\n\n1. The Pragmatic Programmer\n2. Designing Data-Intensive Applications\n3. A Philosophy of Software Design",
		tags:    []string{"reading"},
	},
	{
		title:    "Sourdough starter log",
		content:  "Day 4: doubled in six hours after feeding. Smells faintly of vinegar. Move to the fridge tomorrow.",
		tags:     []string{"cooking"},
		favorite: true,
	},
	{
		title:   "Meeting notes: search rollout",
		content: "# Search rollout\n\nAgreed to ship behind a flag first. Index rebuilds automatically on mapping changes, so no migration step is needed.",
		tags:    []string{"work"},
	},
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to resolve home directory: %v", err)
		}
		dataPath = filepath.Join(home, "Noted", "data")
	}

	fmt.Printf("Seeding data under: %s\n", dataPath)

	if err := os.MkdirAll(dataPath, 0o750); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(dataPath, "noted.db"), logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	index, err := search.NewSearchIndex(search.Options{DataPath: dataPath, Logger: logger})
	if err != nil {
		log.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()
	st.SetSearchIndexer(index)

	c, err := cache.New(cache.Config{Logger: logger})
	if err != nil {
		log.Fatalf("Failed to create cache: %v", err)
	}
	defer c.Close()

	key, err := auth.LoadOrGenerateKey(dataPath)
	if err != nil {
		log.Fatalf("Failed to load auth key: %v", err)
	}
	tokenService, err := auth.NewTokenService(fmt.Sprintf("%x", key), 15*time.Minute, 720*time.Hour)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	ctx := context.Background()

	sessionService := service.NewSessionService(st, tokenService, logger)
	authService := service.NewAuthService(st, tokenService, sessionService, logger)
	tagService := service.NewTagService(st, c, logger)
	noteService := service.NewNoteService(st, tagService, c, index, logger)

	// Reuse the user if seeding has run before.
	userID := ""
	if existing, err := st.GetUserByEmailLower(ctx, *email); err == nil {
		fmt.Printf("User %s already exists, adding notes\n", *email)
		userID = existing.ID
	} else {
		resp, err := authService.Register(ctx, service.RegisterRequest{
			Email:       *email,
			Password:    *password,
			DisplayName: "Demo User",
		}, auth.ClientInfo{ClientName: "Seed Tool"})
		if err != nil {
			log.Fatalf("Failed to register demo user: %v", err)
		}
		userID = resp.User.ID
		fmt.Printf("Created user %s (password: %s)\n", *email, *password)
	}

	created := 0
	for _, n := range seedNotes {
		note, err := noteService.Create(ctx, userID, service.CreateNoteRequest{
			Title:    n.title,
			Content:  n.content,
			Tags:     n.tags,
			Favorite: n.favorite,
		})
		if err != nil {
			log.Printf("Failed to create note %q: %v", n.title, err)
			continue
		}
		fmt.Printf("  Created note: %s (%s)\n", note.Title, note.ID)
		created++
	}

	fmt.Printf("\nSeeding complete: %d notes\n", created)
}
