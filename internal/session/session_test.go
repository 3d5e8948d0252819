package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(10, time.Hour), zap.NewNop())

	id, err := m.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	sc, err := m.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, Context{}, sc, "layers start empty")

	err = m.Turn(ctx, id, func(sc *Context) error {
		sc.SetResumeSummary("first resume")
		sc.SetPrimaryResult("jobs")
		return nil
	})
	require.NoError(t, err)

	err = m.Turn(ctx, id, func(sc *Context) error {
		sc.SetResumeSummary("second resume")
		return nil
	})
	require.NoError(t, err)

	sc, err = m.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "second resume", sc.ResumeSummary, "last write wins")
	assert.Equal(t, "jobs", sc.PrimaryResult)

	require.NoError(t, m.End(ctx, id))

	_, err = m.Snapshot(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerTurnKeepsWritesBeforeFailure(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(0, 0), nil)

	id, err := m.Open(ctx, "cli")
	require.NoError(t, err)
	assert.Equal(t, "cli", id)

	turnErr := errors.New("handler failed")
	err = m.Turn(ctx, id, func(sc *Context) error {
		sc.SetResumeSummary("summary")
		return turnErr
	})
	assert.ErrorIs(t, err, turnErr)

	sc, err := m.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "summary", sc.ResumeSummary)
}

func TestManagerUnknownSession(t *testing.T) {
	m := NewManager(NewMemoryStore(0, 0), nil)

	called := false
	err := m.Turn(context.Background(), "missing", func(*Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, called)
}

func TestManagerSerializesTurnsPerSession(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(0, 0), nil)
	id, err := m.Create(ctx)
	require.NoError(t, err)

	const turns = 50
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Turn(ctx, id, func(sc *Context) error {
				sc.SetPrimaryResult(sc.PrimaryResult + "x")
				return nil
			})
		}()
	}
	wg.Wait()

	sc, err := m.Snapshot(ctx, id)
	require.NoError(t, err)
	assert.Len(t, sc.PrimaryResult, turns)
	assert.Empty(t, m.locks.locks, "locks are released after use")
}

func TestMemoryStoreEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2, 0)

	require.NoError(t, store.Save(ctx, "a", Context{ResumeSummary: "a"}))
	require.NoError(t, store.Save(ctx, "b", Context{ResumeSummary: "b"}))
	_, _, _ = store.Load(ctx, "a")
	require.NoError(t, store.Save(ctx, "c", Context{ResumeSummary: "c"}))

	_, ok, _ := store.Load(ctx, "b")
	assert.False(t, ok)
	_, ok, _ = store.Load(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 2, store.Len())
}

type fakeRedis struct {
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = value.(string)
	f.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

// Eval understands only the compare-and-delete unlock script.
func (f *fakeRedis) Eval(_ context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	if f.data[keys[0]] != args[0].(string) {
		return redis.NewCmdResult(int64(0), nil)
	}
	delete(f.data, keys[0])
	return redis.NewCmdResult(int64(1), nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	store := newRedisStore(fake, "", 30*time.Minute)

	_, ok, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	want := Context{ResumeSummary: "summary", PrimaryResult: "primary"}
	require.NoError(t, store.Save(ctx, "s1", want))
	assert.Equal(t, 30*time.Minute, fake.ttls[defaultRedisPrefix+"s1"])

	got, ok, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, ok, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	fake.err = errors.New("connection reset")
	_, _, err = store.Load(ctx, "s1")
	assert.Error(t, err)
}

func TestRedisStoreLock(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	store := newRedisStore(fake, "", time.Minute)
	lockKey := defaultRedisPrefix + "s1" + lockSuffix

	unlock, err := store.Lock(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, defaultLockTTL, fake.ttls[lockKey])

	waitCtx, cancel := context.WithTimeout(ctx, 3*lockRetryInterval)
	defer cancel()
	_, err = store.Lock(waitCtx, "s1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// A lock taken over by another holder after expiry is left alone.
	fake.data[lockKey] = "other-holder"
	require.NoError(t, unlock())
	assert.Equal(t, "other-holder", fake.data[lockKey])

	delete(fake.data, lockKey)
	unlock, err = store.Lock(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, unlock())
	assert.NotContains(t, fake.data, lockKey)
}

func TestManagerTurnHoldsStoreLock(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	m := NewManager(newRedisStore(fake, "", time.Minute), zap.NewNop())
	lockKey := defaultRedisPrefix + "s1" + lockSuffix

	_, err := m.Open(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, m.Turn(ctx, "s1", func(sc *Context) error {
		assert.Contains(t, fake.data, lockKey, "lock is held during the turn")
		sc.SetPrimaryResult("jobs")
		return nil
	}))
	assert.NotContains(t, fake.data, lockKey)

	// Another process holds the session.
	fake.data[lockKey] = "other-process"
	waitCtx, cancel := context.WithTimeout(ctx, 3*lockRetryInterval)
	defer cancel()

	called := false
	err = m.Turn(waitCtx, "s1", func(*Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
	assert.Empty(t, m.locks.locks, "local lock is released when the store lock fails")
}
