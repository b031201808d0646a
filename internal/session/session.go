// Package session tracks when an admin's sessions were last invalidated.
//
// Bearer tokens issued before an admin's revocation time are rejected by the
// auth middleware. Revocation is per admin, not per token, so the lifecycle
// engine does not need to know which tokens are outstanding.
//
// Token issue times only carry whole seconds, so revocation times are
// truncated to the second too. A token minted in the same second as the
// revocation stays valid; that is the token an applicant gets by signing in
// again right after their sessions were revoked.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"minbar/pkg/domain"
)

// revokedKeyPrefix namespaces revocation markers in Redis.
const revokedKeyPrefix = "minbar:session:revoked:"

// InMemoryRevocations is a single-process revocation list for tests and local runs.
type InMemoryRevocations struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewInMemory() *InMemoryRevocations {
	return &InMemoryRevocations{revoked: make(map[string]time.Time)}
}

// RevokeAdmin invalidates every session of adminID issued before the second at
// falls in.
func (r *InMemoryRevocations) RevokeAdmin(_ context.Context, adminID domain.AdminID, at time.Time) error {
	at = at.Truncate(time.Second)
	r.mu.Lock()
	defer r.mu.Unlock()
	key := adminID.String()
	if prev, ok := r.revoked[key]; !ok || at.After(prev) {
		r.revoked[key] = at
	}
	return nil
}

// IsRevoked reports whether a token for subject issued at issuedAt is no longer valid.
func (r *InMemoryRevocations) IsRevoked(_ context.Context, subject string, issuedAt time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	at, ok := r.revoked[subject]
	return ok && revokedBy(issuedAt, at), nil
}

func revokedBy(issuedAt, at time.Time) bool {
	return issuedAt.Truncate(time.Second).Before(at)
}

// RedisRevocations shares revocation state between instances.
type RedisRevocations struct {
	client *redis.Client
	// ttl must cover the longest token lifetime; older markers are useless.
	ttl time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) (*RedisRevocations, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("revocation ttl must be positive, got %s", ttl)
	}
	return &RedisRevocations{client: client, ttl: ttl}, nil
}

// revokeScript keeps the later of the stored and the new revocation time.
var revokeScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if (not current) or (tonumber(ARGV[1]) > tonumber(current)) then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
end
return 1
`)

func (r *RedisRevocations) RevokeAdmin(ctx context.Context, adminID domain.AdminID, at time.Time) error {
	err := revokeScript.Run(ctx, r.client,
		[]string{revokedKeyPrefix + adminID.String()},
		at.Unix(), r.ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("revoke sessions for %s: %w", adminID, err)
	}
	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, subject string, issuedAt time.Time) (bool, error) {
	raw, err := r.client.Get(ctx, revokedKeyPrefix+subject).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check session revocation: %w", err)
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("corrupt revocation marker for %s: %w", subject, err)
	}
	return revokedBy(issuedAt, time.Unix(secs, 0)), nil
}
