package sessionlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"concierge_backend/platform/apperr"
	"concierge_backend/platform/config"
	"concierge_backend/platform/logger"
)

const msgSessionBusy = "Another step of your order is still being processed. Please try again."

// releaseScript deletes the lock key only when the caller still holds
// it. A request that outlived its lock TTL must not release the lock a
// later request acquired.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewClient connects to Redis using the same URL-based configuration
// the task queue uses.
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if opt.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		clone := opt.TLSConfig.Clone()
		clone.InsecureSkipVerify = true
		opt.TLSConfig = clone
	}

	return redis.NewClient(opt), nil
}

// Locker serializes the read-modify-write steps of one visitor's order
// session. Every mutating session operation runs under the visitor's
// lock so two concurrent messages cannot interleave half-applied state.
type Locker struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewLocker(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *Locker {
	return &Locker{rdb: rdb, ttl: ttl, log: log}
}

func lockKey(tenantID, visitorID uuid.UUID) string {
	return fmt.Sprintf("lock:ordersession:%s:%s", tenantID, visitorID)
}

// WithLock runs fn while holding the visitor's session lock. When the
// lock is already held by another request it fails fast with a conflict
// instead of queueing, so the caller can tell the customer to retry.
func (l *Locker) WithLock(ctx context.Context, tenantID, visitorID uuid.UUID, fn func(ctx context.Context) error) error {
	key := lockKey(tenantID, visitorID)
	token := uuid.NewString()

	acquired, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}
	if !acquired {
		return apperr.Conflict(msgSessionBusy)
	}

	defer func() {
		// The request context may already be cancelled here; the
		// release must still reach Redis.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.rdb, []string{key}, token).Err(); err != nil {
			l.log.Warn("failed to release session lock", "key", key, "error", err)
		}
	}()

	return fn(ctx)
}
