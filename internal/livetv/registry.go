// Package livetv manages live media sources: the source registry, live
// stream sessions, and background cleanup of idle sessions.
package livetv

import (
	"context"
	"io"
	"sync"

	"github.com/hertelukas/jellyfin/internal/models"
)

// Provider attaches live sources. Implementations talk to tuners, upstream
// proxies, or whatever actually produces the stream bytes.
type Provider interface {
	// Open attaches the source identified by the open token and returns
	// its description plus the live byte stream. Open must respect ctx
	// cancellation and return promptly when it fires.
	Open(ctx context.Context, openToken string) (*models.MediaSource, io.ReadCloser, error)
}

// InMemoryRegistry is a process-local media source catalog keyed by item id.
// It satisfies playback.MediaSourceCatalog.
type InMemoryRegistry struct {
	mu      sync.RWMutex
	sources map[string][]*models.MediaSource
}

// NewInMemoryRegistry creates an empty registry.
func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{sources: make(map[string][]*models.MediaSource)}
}

// Register appends sources for an item, preserving insertion order.
func (r *InMemoryRegistry) Register(itemID string, sources ...*models.MediaSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[itemID] = append(r.sources[itemID], sources...)
}

// Remove drops all sources for an item.
func (r *InMemoryRegistry) Remove(itemID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sources, itemID)
}

// MediaSources returns clones of the item's sources in registration order.
func (r *InMemoryRegistry) MediaSources(_ context.Context, itemID string) ([]*models.MediaSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources, ok := r.sources[itemID]
	if !ok {
		return nil, models.ErrItemNotFound
	}
	cloned := make([]*models.MediaSource, len(sources))
	for i, src := range sources {
		cloned[i] = src.Clone()
	}
	return cloned, nil
}

// SourceByToken finds the registered source carrying the given open token.
func (r *InMemoryRegistry) SourceByToken(openToken string) (*models.MediaSource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, sources := range r.sources {
		for _, src := range sources {
			if src.RequiresOpening && src.OpenToken == openToken {
				return src.Clone(), true
			}
		}
	}
	return nil, false
}

// Items returns the registered item ids.
func (r *InMemoryRegistry) Items() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]string, 0, len(r.sources))
	for id := range r.sources {
		items = append(items, id)
	}
	return items
}
