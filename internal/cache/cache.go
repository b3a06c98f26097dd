// Package cache provides read-through caching for assembled reports and
// loaded valuation records.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is the shared contract for the memory and redis backends. Values are
// opaque JSON blobs; callers own serialization.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
	Close() error
}

// SessionKey namespaces cache entries per wizard session and concern, e.g.
// SessionKey("sess-1", "report:preview").
func SessionKey(sessionID, concern string) string {
	return sessionID + ":" + concern
}
