package auth

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

const (
	roleCachePrefix = "rolecache:"
	roleCacheTTL    = 5 * time.Minute
)

// RoleCache keeps role lookups off the hot path. Entries are invalidated
// whenever a role or block flag changes; a miss falls through to the store.
type RoleCache struct {
	client *redis.Client
}

// NewRoleCache wraps the shared Redis client. A nil client disables caching.
func NewRoleCache(client *redis.Client) *RoleCache {
	return &RoleCache{client: client}
}

// Get returns the cached role and blocked flag for an email.
func (rc *RoleCache) Get(ctx context.Context, email string) (domain.UserRole, bool, bool) {
	if rc == nil || rc.client == nil {
		return "", false, false
	}
	val, err := rc.client.Get(ctx, roleCachePrefix+email).Result()
	if err != nil {
		return "", false, false
	}
	role, flag, found := strings.Cut(val, "|")
	if !found {
		return "", false, false
	}
	return domain.UserRole(role), flag == "blocked", true
}

// Set caches the role and blocked flag for an email.
func (rc *RoleCache) Set(ctx context.Context, email string, role domain.UserRole, blocked bool) {
	if rc == nil || rc.client == nil {
		return
	}
	flag := "ok"
	if blocked {
		flag = "blocked"
	}
	_ = rc.client.Set(ctx, roleCachePrefix+email, string(role)+"|"+flag, roleCacheTTL).Err()
}

// Invalidate drops the cached entry after a role or block change.
func (rc *RoleCache) Invalidate(ctx context.Context, email string) {
	if rc == nil || rc.client == nil {
		return
	}
	_ = rc.client.Del(ctx, roleCachePrefix+email).Err()
}
