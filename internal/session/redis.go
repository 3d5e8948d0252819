package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "career-pilot:session:"
	defaultLockTTL     = 5 * time.Minute
	lockRetryInterval  = 50 * time.Millisecond
	lockSuffix         = ":lock"
)

// unlockScript deletes the lock only while it still holds the caller's token.
const unlockScript = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) end return 0`

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

// RedisStore shares sessions between processes. Every save refreshes the ttl, so
// a session lives as long as it keeps taking turns. Turns on one session are
// serialized across processes with a SET NX lock that expires after lockTTL.
type RedisStore struct {
	client  redisClient
	prefix  string
	ttl     time.Duration
	lockTTL time.Duration
}

// RedisConfig configures the connection and key layout.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	LockTTL  time.Duration `mapstructure:"lock-ttl"`
	TTL      time.Duration `mapstructure:"-"`
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}

	store := newRedisStore(client, cfg.Prefix, cfg.TTL)
	if cfg.LockTTL > 0 {
		store.lockTTL = cfg.LockTTL
	}
	return store, nil
}

func newRedisStore(client redisClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, lockTTL: defaultLockTTL}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Load(ctx context.Context, id string) (Context, bool, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Context{}, false, nil
	}
	if err != nil {
		return Context{}, false, fmt.Errorf("get session %s: %w", id, err)
	}

	var sc Context
	if err := json.Unmarshal(data, &sc); err != nil {
		return Context{}, false, fmt.Errorf("decode session %s: %w", id, err)
	}
	return sc, true, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, sc Context) error {
	data, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}

	if err := s.client.Set(ctx, s.key(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set session %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// Lock blocks until the session lock is taken or ctx is done. The returned
// func releases it; a lock left behind by a crashed process expires on its own.
func (s *RedisStore) Lock(ctx context.Context, id string) (func() error, error) {
	key := s.key(id) + lockSuffix
	token := uuid.NewString()

	for {
		ok, err := s.client.SetNX(ctx, key, token, s.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("lock session %s: %w", id, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock session %s: %w", id, ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}

	return func() error {
		if err := s.client.Eval(context.WithoutCancel(ctx), unlockScript, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("unlock session %s: %w", id, err)
		}
		return nil
	}, nil
}

// Close releases the connection when the store owns one.
func (s *RedisStore) Close() error {
	if c, ok := s.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
