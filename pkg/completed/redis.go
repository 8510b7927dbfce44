package completed

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/ondemand/pkg/errors"
)

// KeyPrefix prefixes the Redis key of every session's completed set.
const KeyPrefix = "ondemand:completed:"

// DefaultRedisTTL is how long an idle session's set is kept.
const DefaultRedisTTL = 7 * 24 * time.Hour

// RedisSet is a [Set] stored as a Redis set under KeyPrefix+session. The
// TTL is refreshed on every Add.
type RedisSet struct {
	client redis.Cmdable
	closer func() error
	key    string
	ttl    time.Duration
}

// RedisKey returns the Redis key holding the completed set of session.
func RedisKey(session string) string {
	return KeyPrefix + session
}

// NewRedisSet connects to the Redis server at url and returns the set for
// session. A ttl of zero uses DefaultRedisTTL.
func NewRedisSet(ctx context.Context, url, session string, ttl time.Duration) (*RedisSet, error) {
	if session == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "redis completed set requires a session id")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid redis URL")
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to redis")
	}

	s := NewRedisSetFromClient(client, session, ttl)
	s.closer = client.Close
	return s, nil
}

// NewRedisSetFromClient wraps an existing client. The caller keeps
// ownership of client.
func NewRedisSetFromClient(client redis.Cmdable, session string, ttl time.Duration) *RedisSet {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisSet{client: client, key: RedisKey(session), ttl: ttl}
}

// Key returns the Redis key of this set.
func (s *RedisSet) Key() string { return s.key }

func (s *RedisSet) Contains(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.key, key).Result()
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeStore, err, "check %s", key)
	}
	return ok, nil
}

func (s *RedisSet) Add(ctx context.Context, key string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SAdd(ctx, s.key, key)
		p.Expire(ctx, s.key, s.ttl)
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "add %s", key)
	}
	return nil
}

func (s *RedisSet) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list %s", s.key)
	}
	slices.Sort(keys)
	return keys, nil
}

func (s *RedisSet) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete %s", s.key)
	}
	return nil
}

// Close releases the connection opened by NewRedisSet.
func (s *RedisSet) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// String describes the set for logs.
func (s *RedisSet) String() string {
	return fmt.Sprintf("redis set %s (ttl %s)", s.key, s.ttl)
}

var _ Set = (*RedisSet)(nil)
