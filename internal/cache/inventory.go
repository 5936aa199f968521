package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"feedhub/internal/middleware"
)

// Keyspace is a family of cached entities sharing a key prefix and a TTL.
type Keyspace struct {
	Prefix string
	TTL    time.Duration
}

// Every cached entity type. A cached feed is the full detail expansion
// served to every detail read and to the read-back after create or update.
// It embeds user names and images, so a user update invalidates every feed
// that user appears in.
var (
	Users    = Keyspace{Prefix: "user", TTL: 5 * time.Minute}
	Feeds    = Keyspace{Prefix: "feed", TTL: 30 * time.Minute}
	Profiles = Keyspace{Prefix: "profile", TTL: 10 * time.Minute}
)

// Key returns the Redis key of id, e.g. "feed:42".
func (k Keyspace) Key(id uint) string {
	return k.Prefix + ":" + strconv.FormatUint(uint64(id), 10)
}

// Load is Aside over the key of id with the keyspace TTL.
func (k Keyspace) Load(ctx context.Context, id uint, dest any, fetch func() error) error {
	return Aside(ctx, k.Key(id), dest, k.TTL, fetch)
}

// Invalidate deletes the cached entries of ids. Failures are logged; a
// stale entry expires with its TTL.
func (k Keyspace) Invalidate(ctx context.Context, ids ...uint) {
	if client == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = k.Key(id)
	}
	if err := client.Del(ctx, keys...).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed",
			slog.String("keyspace", k.Prefix), slog.String("error", err.Error()))
	}
}
