package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/notedapp/noted-server/internal/config"
	"github.com/notedapp/noted-server/internal/logger"
	"github.com/notedapp/noted-server/internal/search"
	"github.com/notedapp/noted-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index and wires it to
// the store for automatic indexing on note mutations.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Data.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	storeHandle.SetSearchIndexer(index)

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds an empty index from the store.
// A rebuilt or recreated index starts empty while the database still
// holds notes; this backfills it. Should be called after all services
// are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	noteService := do.MustInvoke[*service.NoteService](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	// Reindexing an empty database is a no-op, so no pre-check needed.
	go func() {
		indexed, err := noteService.ReindexNotes(context.Background())
		if err != nil {
			log.Error("Search reindex failed", "error", err)
			return
		}
		if indexed > 0 {
			log.Info("Search reindex completed", "documents", indexed)
		}
	}()
}
