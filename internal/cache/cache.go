// Package cache provides time-bounded memoization of catalog reads.
//
// Two implementations share the QueryCache interface: an in-process LRU
// with lazy expiry and an explicit Sweep, and a Redis-backed cache for
// sharing results across processes.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

const (
	// DefaultTTL is the lifetime of a cached read
	DefaultTTL = 5 * time.Minute
	// DefaultSize is the entry limit of a MemoryCache
	DefaultSize = 1000
	// DefaultPrefix namespaces Redis keys
	DefaultPrefix = "garmentfinder:catalog:"
)

// QueryCache memoizes garment lists by key
type QueryCache interface {
	Get(ctx context.Context, key string) ([]types.Garment, bool)
	Set(ctx context.Context, key string, value []types.Garment, ttl time.Duration)
	Purge(ctx context.Context) error
	Len() int
}

// Key builds a stable cache key from its parts
func Key(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(h[:16])
}

// CriteriaKey builds the cache key of a criteria read. Values may be free
// text from the model, so the pairs are JSON encoded (keys sorted) rather
// than joined.
func CriteriaKey(criteria types.Criteria) string {
	encoded, _ := json.Marshal(criteria.ToMap())
	return Key("criteria", string(encoded))
}

// copyGarments returns an independent copy of a garment list.
// Garment has only value fields, so a slice copy is deep.
func copyGarments(src []types.Garment) []types.Garment {
	if src == nil {
		return nil
	}
	dst := make([]types.Garment, len(src))
	copy(dst, src)
	return dst
}
