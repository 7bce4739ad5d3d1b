// Package cache implements the Fingerprint Cache: an optional Redis-backed
// idempotency accelerator. It is pure acceleration — when disabled or
// unreachable, every document is simply reprocessed, and output content
// never depends on whether the cache was consulted.
//
// Construction mirrors the teacher repo's RedisConsumer: redis.ParseURL,
// redis.NewClient, and a Ping liveness check at startup.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lawdocs/pipeline/internal/logging"
)

// TTL is how long a cache entry is trusted before the document is
// reprocessed regardless of digest match.
const TTL = 30 * 24 * time.Hour

// Cache is a thin Redis wrapper keyed by doc_id.
type Cache struct {
	client *redis.Client
	log    *logging.Logger
}

// Connect parses redisURL and pings it once. A connection failure is
// non-fatal: the caller receives (nil, err) and should treat the cache as
// disabled rather than aborting the run.
func Connect(ctx context.Context, redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &Cache{client: client, log: logging.New("cache")}, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// SourceDigest hashes the PDF's bytes so a cache lookup can tell whether the
// source changed since the last run.
func SourceDigest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// entry is what's stored per doc_id.
type entry struct {
	SourceDigest   string `json:"source_digest"`
	MetaFingerprint string `json:"meta_fingerprint"`
}

// Lookup returns the cached meta_fingerprint when the stored source digest
// matches, so the caller can skip reprocessing. ok is false on any miss,
// mismatch, or transport error.
func (c *Cache) Lookup(ctx context.Context, docID, sourceDigest string) (fingerprint string, ok bool) {
	raw, err := c.client.Get(ctx, key(docID)).Result()
	if err != nil {
		return "", false
	}
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return "", false
	}
	if e.SourceDigest != sourceDigest {
		return "", false
	}
	return e.MetaFingerprint, true
}

// Store records the result of a successful run.
func (c *Cache) Store(ctx context.Context, docID, sourceDigest, fingerprint string) {
	e := entry{SourceDigest: sourceDigest, MetaFingerprint: fingerprint}
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(docID), raw, TTL).Err(); err != nil {
		c.log.Warn("failed to store cache entry", "doc_id", docID, "error", err)
	}
}

func key(docID string) string {
	return "lawdocs:fp:" + docID
}
