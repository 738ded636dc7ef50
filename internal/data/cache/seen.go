// Package cache holds the redis-backed fast paths. Everything here is
// an optimization over the relational source of truth: a cold or absent
// redis only costs extra database work, never correctness.
package cache

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/finsight-backend/internal/pkg/logger"
	"github.com/yungbote/finsight-backend/internal/utils"
)

const seenKeyPrefix = "finsight:doc_seen:"

// SeenCache answers "has this document identity been processed" without
// a database round trip. Nil-safe: a SeenCache built without REDIS_ADDR
// reports everything unseen.
type SeenCache struct {
	rdb *goredis.Client
	ttl time.Duration
	log *logger.Logger
}

// NewSeenCacheFromEnv connects using REDIS_ADDR; unset means the cache
// is disabled and (nil, nil) is returned. TTL comes from
// DOC_SEEN_CACHE_TTL (default 72h).
func NewSeenCacheFromEnv(baseLog *logger.Logger) (*SeenCache, error) {
	if baseLog == nil {
		return nil, fmt.Errorf("cache: logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}

	return &SeenCache{
		rdb: rdb,
		ttl: utils.GetEnvAsDuration("DOC_SEEN_CACHE_TTL", 72*time.Hour, baseLog),
		log: baseLog.With("client", "SeenCache"),
	}, nil
}

// Seen reports whether the document id was marked recently. Lookup
// failures are treated as a miss.
func (c *SeenCache) Seen(ctx context.Context, documentID string) bool {
	if c == nil || c.rdb == nil || documentID == "" {
		return false
	}
	n, err := c.rdb.Exists(ctx, seenKeyPrefix+documentID).Result()
	if err != nil {
		c.log.Warn("seen lookup failed, treating as miss", "error", err)
		return false
	}
	return n > 0
}

// MarkSeen records the document id; failures only log.
func (c *SeenCache) MarkSeen(ctx context.Context, documentID string) {
	if c == nil || c.rdb == nil || documentID == "" {
		return
	}
	if err := c.rdb.Set(ctx, seenKeyPrefix+documentID, 1, c.ttl).Err(); err != nil {
		c.log.Warn("mark seen failed", "document_id", documentID, "error", err)
	}
}

func (c *SeenCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
