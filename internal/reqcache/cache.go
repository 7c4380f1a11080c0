package reqcache

import (
	"context"
	"sync"

	"net/http"

	"github.com/forgewave/bombard/internal/model"
)

// Cache holds one converted *http.Request per template id, guarded by a
// single mutex. Load generation throughput is dominated by network and
// substitution work, not map contention, so a single lock is preferred
// over sharding.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*http.Request
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]*http.Request)}
}

// Get builds a wire request for template, using the cache when the
// template permits it.
//
// Templates marked RequiresPreprocessing always bypass the cache, since
// their body and headers are rewritten per call by the substitution
// engine before this point is ever reached with stable content.
//
// On a cache hit, the stored request is cloned via its GetBody closure.
// If cloning fails for any reason the entry is dropped and the template
// is converted fresh, so a single bad entry never wedges subsequent
// calls.
func (c *Cache) Get(template model.RequestTemplate) (*http.Request, error) {
	if template.RequiresPreprocessing {
		req, _, err := Convert(template)
		return req, err
	}

	c.mu.Lock()
	cached, ok := c.entries[template.ID]
	c.mu.Unlock()

	if ok {
		if clone, err := cloneRequest(cached); err == nil {
			return clone, nil
		}
		c.mu.Lock()
		delete(c.entries, template.ID)
		c.mu.Unlock()
	}

	req, cacheable, err := Convert(template)
	if err != nil {
		return nil, err
	}

	if cacheable {
		c.mu.Lock()
		c.entries[template.ID] = req
		c.mu.Unlock()
		// Return a fresh clone so the cached copy's body is never consumed.
		if clone, err := cloneRequest(req); err == nil {
			return clone, nil
		}
	}

	return req, nil
}

func cloneRequest(req *http.Request) (*http.Request, error) {
	if req.GetBody == nil {
		return req.Clone(context.Background()), nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone := req.Clone(context.Background())
	clone.Body = body
	return clone, nil
}
