// session/registry.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	aegis_errors "github.com/aegis-admin/aegis/errors"
)

// Registry is the TTL-backed key-value store recording currently-valid
// tokens and cached identity snapshots. Registry state, not token expiry,
// is authoritative for revocation: deleting an entry invalidates the token
// immediately regardless of its stated expiry.
type Registry struct {
	client *redis.Client
}

func NewRegistry(client *redis.Client) *Registry {
	return &Registry{client: client}
}

// Put stores a value under key with the given TTL
func (r *Registry) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: registry put: %v", aegis_errors.ErrServerError, err)
	}
	return nil
}

// Get returns the stored value and whether the key exists. A missing key is
// not an error; store failures are.
func (r *Registry) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: registry get: %v", aegis_errors.ErrServerError, err)
	}
	return val, true, nil
}

// DeleteExact removes one key
func (r *Registry) DeleteExact(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: registry delete: %v", aegis_errors.ErrServerError, err)
	}
	return nil
}

// DeleteByPrefix removes every key under prefix, optionally sparing
// exceptKey. The sweep is SCAN-based and best-effort with respect to
// concurrent Puts under the same prefix: a token issued mid-sweep may or
// may not survive.
func (r *Registry) DeleteByPrefix(ctx context.Context, prefix string, exceptKey string) error {
	iter := r.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		key := iter.Val()
		if exceptKey != "" && key == exceptKey {
			continue
		}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: registry scan: %v", aegis_errors.ErrServerError, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: registry prefix delete: %v", aegis_errors.ErrServerError, err)
	}
	return nil
}

// AddOnline adds a session ID to the online-session set
func (r *Registry) AddOnline(ctx context.Context, setKey, sessionID string) error {
	if err := r.client.SAdd(ctx, setKey, sessionID).Err(); err != nil {
		return fmt.Errorf("%w: registry sadd: %v", aegis_errors.ErrServerError, err)
	}
	return nil
}

// RemoveOnline removes a session ID from the online-session set
func (r *Registry) RemoveOnline(ctx context.Context, setKey, sessionID string) error {
	if err := r.client.SRem(ctx, setKey, sessionID).Err(); err != nil {
		return fmt.Errorf("%w: registry srem: %v", aegis_errors.ErrServerError, err)
	}
	return nil
}
