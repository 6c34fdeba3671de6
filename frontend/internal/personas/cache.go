package personas

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/itchan-dev/forllm/shared/domain"
	"github.com/itchan-dev/forllm/shared/logger"
	"github.com/itchan-dev/forllm/shared/metrics"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
)

// Fetcher is the one API call the cache needs.
type Fetcher interface {
	ListActivePersonas(ctx context.Context) ([]domain.Persona, error)
}

// Cache is the persona list shared by every mention site. Entries older than
// ttl are refetched before use; concurrent refetches collapse into one call.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time

	mu          sync.RWMutex
	personas    []domain.Persona
	lastFetched time.Time

	group singleflight.Group
}

func NewCache(fetcher Fetcher, ttl time.Duration) *Cache {
	return &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached personas, refetching when empty or stale.
func (c *Cache) Get(ctx context.Context) ([]domain.Persona, error) {
	c.mu.RLock()
	fresh := c.personas != nil && c.now().Sub(c.lastFetched) < c.ttl
	personas := c.personas
	c.mu.RUnlock()
	if fresh {
		return personas, nil
	}

	v, err, _ := c.group.Do("personas", func() (any, error) {
		return c.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Persona), nil
}

func (c *Cache) refresh(ctx context.Context) ([]domain.Persona, error) {
	personas, err := c.fetcher.ListActivePersonas(ctx)
	metrics.PersonaCacheRefreshed(err == nil)
	if err != nil {
		logger.Log.Warn("persona cache refresh failed",
			"component", "persona_cache",
			"error", err)
		return nil, err
	}
	if personas == nil {
		personas = []domain.Persona{}
	}

	// Atomically replace the cache
	c.mu.Lock()
	c.personas = personas
	c.lastFetched = c.now()
	c.mu.Unlock()

	logger.Log.Debug("persona cache updated",
		"component", "persona_cache",
		"entries", len(personas))
	return personas, nil
}

// Search returns personas whose name contains query, ignoring case, in cache order.
func (c *Cache) Search(ctx context.Context, query string) ([]domain.Persona, error) {
	personas, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(personas, query), nil
}

// Invalidate forces the next Get to refetch.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.personas = nil
	c.lastFetched = time.Time{}
	c.mu.Unlock()
}

func Filter(personas []domain.Persona, query string) []domain.Persona {
	fold := cases.Fold()
	needle := fold.String(query)
	matches := make([]domain.Persona, 0, len(personas))
	for _, p := range personas {
		if strings.Contains(fold.String(p.Name), needle) {
			matches = append(matches, p)
		}
	}
	return matches
}
