package llm

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// ModelCache remembers which model a server reported as loaded, keyed by
// endpoint.
type ModelCache struct {
	c *cache.Cache
}

func NewModelCache(ttl time.Duration) *ModelCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ModelCache{c: cache.New(ttl, 2*ttl)}
}

func (m *ModelCache) Resolve(ctx context.Context, endpoint string, fresh bool, detect func(context.Context) (string, error)) (string, error) {
	if m != nil && !fresh {
		if v, ok := m.c.Get(endpoint); ok {
			return v.(string), nil
		}
	}

	model, err := detect(ctx)
	if err != nil {
		return "", err
	}
	if m != nil {
		m.c.Set(endpoint, model, cache.DefaultExpiration)
	}
	return model, nil
}

func (m *ModelCache) Forget(endpoint string) {
	if m != nil {
		m.c.Delete(endpoint)
	}
}
