package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rmenezes/jurisearch/internal/search"
)

const versionKey = "search:index_version"

// SearchCache memoizes hybrid search responses. Keys embed an index
// version counter: bumping the counter after any index write orphans
// every cached response at once instead of deleting keys one by one.
type SearchCache struct {
	cache  *Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewSearchCache(cache *Cache, ttl time.Duration, logger *slog.Logger) *SearchCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchCache{cache: cache, ttl: ttl, logger: logger}
}

// Get returns the cached response for req, or nil on a miss. Cache
// failures are misses: the engine is always able to answer.
func (s *SearchCache) Get(ctx context.Context, req search.Request) *search.Response {
	key, err := s.key(ctx, req)
	if err != nil {
		return nil
	}

	var resp search.Response
	if err := s.cache.Get(ctx, key, &resp); err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("search cache read failed", "error", err)
		}
		return nil
	}
	return &resp
}

// Set stores the response under the current index version. Degraded
// responses are not cached; the next request should retry the semantic
// leg.
func (s *SearchCache) Set(ctx context.Context, req search.Request, resp *search.Response) {
	if resp == nil || resp.Degraded {
		return
	}
	key, err := s.key(ctx, req)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, resp, s.ttl); err != nil {
		s.logger.Warn("search cache write failed", "error", err)
	}
}

// Bump invalidates all cached responses by advancing the index version.
func (s *SearchCache) Bump(ctx context.Context) error {
	_, err := s.cache.Increment(ctx, versionKey)
	return err
}

func (s *SearchCache) key(ctx context.Context, req search.Request) (string, error) {
	version, err := s.cache.client.Get(ctx, versionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}

	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("search:v%d:%x", version, sha256.Sum256(data)), nil
}
