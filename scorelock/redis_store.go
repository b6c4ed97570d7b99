package scorelock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "scorelock:"

// Keys carry a Redis TTL slightly past the lease expiry so abandoned
// records get cleaned up. Correctness does not depend on it: the record's
// own expires_at is what the manager checks.
const redisExpiryGrace = time.Minute

// The swap script compares the stored payload byte-for-byte, then replaces
// or deletes it in the same step.
var redisCASScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur == ARGV[1] then
	if ARGV[2] == '' then
		redis.call('DEL', KEYS[1])
	else
		redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
	end
	return 1
end
return 0
`)

type redisStore struct {
	client *redis.Client
}

// NewRedisStore backs the lock table with Redis so several API instances
// can share one lock space.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) key(resourceID string) string {
	return redisKeyPrefix + resourceID
}

func (s *redisStore) Get(ctx context.Context, resourceID string) (*LockRecord, error) {
	val, err := s.client.Get(ctx, s.key(resourceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var rec LockRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("redis record decode: %w", err)
	}
	return &rec, nil
}

func (s *redisStore) CompareAndSwap(ctx context.Context, resourceID string, prev, next *LockRecord) (bool, error) {
	key := s.key(resourceID)

	if prev == nil {
		if next == nil {
			n, err := s.client.Exists(ctx, key).Result()
			if err != nil {
				return false, fmt.Errorf("redis exists: %w", err)
			}
			return n == 0, nil
		}

		val, err := json.Marshal(next)
		if err != nil {
			return false, fmt.Errorf("redis record encode: %w", err)
		}
		ok, err := s.client.SetNX(ctx, key, val, s.keyTTL(next)).Result()
		if err != nil {
			return false, fmt.Errorf("redis setnx: %w", err)
		}
		return ok, nil
	}

	prevVal, err := json.Marshal(prev)
	if err != nil {
		return false, fmt.Errorf("redis record encode: %w", err)
	}

	nextVal := ""
	var px int64
	if next != nil {
		b, err := json.Marshal(next)
		if err != nil {
			return false, fmt.Errorf("redis record encode: %w", err)
		}
		nextVal = string(b)
		px = s.keyTTL(next).Milliseconds()
	}

	res, err := redisCASScript.Run(ctx, s.client, []string{key}, string(prevVal), nextVal, px).Int()
	if err != nil {
		return false, fmt.Errorf("redis cas script: %w", err)
	}
	return res == 1, nil
}

func (s *redisStore) keyTTL(rec *LockRecord) time.Duration {
	ttl := time.Until(rec.ExpiresAt) + redisExpiryGrace
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}
