package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spigell/career-pilot/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Context is the running memory of one conversation. Each layer has exactly one
// producer and is only ever replaced, never appended to.
type Context struct {
	ResumeSummary  string `json:"resume_summary"`
	PrimaryResult  string `json:"primary_result"`
	FollowupResult string `json:"followup_result"`
}

// SetResumeSummary is called by extraction only.
func (c *Context) SetResumeSummary(summary string) { c.ResumeSummary = summary }

// SetPrimaryResult is called by the dispatcher after a successful handler.
func (c *Context) SetPrimaryResult(result string) { c.PrimaryResult = result }

// SetFollowupResult is called by the follow-up responder after a successful answer.
func (c *Context) SetFollowupResult(result string) { c.FollowupResult = result }

// Store keeps session contexts by id.
type Store interface {
	Load(ctx context.Context, id string) (Context, bool, error)
	Save(ctx context.Context, id string, sc Context) error
	Delete(ctx context.Context, id string) error
}

// Locker is implemented by stores shared between processes. Manager holds the
// store lock for the whole of a turn, on top of its in-process lock.
type Locker interface {
	Lock(ctx context.Context, id string) (unlock func() error, err error)
}

// Manager owns the session lifecycle and serializes turns per session.
type Manager struct {
	store  Store
	locks  *keyedMutex
	logger *zap.Logger
}

func NewManager(store Store, log *zap.Logger) *Manager {
	return &Manager{
		store:  store,
		locks:  newKeyedMutex(),
		logger: logger.WithFields(log),
	}
}

// Create starts a session with all layers empty.
func (m *Manager) Create(ctx context.Context) (string, error) {
	return m.open(ctx, uuid.NewString())
}

// Open starts a session under a caller-chosen id, resetting any previous state.
func (m *Manager) Open(ctx context.Context, id string) (string, error) {
	return m.open(ctx, id)
}

func (m *Manager) open(ctx context.Context, id string) (string, error) {
	if err := m.store.Save(ctx, id, Context{}); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	logger.WithSession(m.logger, id).Debug("session started")
	return id, nil
}

// Turn runs fn against the session context while holding the session lock. The
// context is saved after fn returns, whether or not fn failed, so layers written
// before a failure survive. fn's error is returned unchanged.
func (m *Manager) Turn(ctx context.Context, id string, fn func(sc *Context) error) error {
	unlock, err := m.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	sc, ok, err := m.store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return ErrNotFound
	}

	turnErr := fn(&sc)

	if err := m.store.Save(ctx, id, sc); err != nil {
		return errors.Join(turnErr, fmt.Errorf("save session: %w", err))
	}

	return turnErr
}

// Snapshot returns a copy of the session context.
func (m *Manager) Snapshot(ctx context.Context, id string) (Context, error) {
	unlock := m.locks.lock(id)
	defer unlock()

	sc, ok, err := m.store.Load(ctx, id)
	if err != nil {
		return Context{}, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return Context{}, ErrNotFound
	}
	return sc, nil
}

// End destroys the session.
func (m *Manager) End(ctx context.Context, id string) error {
	unlock, err := m.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	logger.WithSession(m.logger, id).Debug("session ended")
	return nil
}

// lock takes the in-process lock and, for shared stores, the store lock.
func (m *Manager) lock(ctx context.Context, id string) (func(), error) {
	unlockLocal := m.locks.lock(id)

	locker, ok := m.store.(Locker)
	if !ok {
		return unlockLocal, nil
	}

	unlockStore, err := locker.Lock(ctx, id)
	if err != nil {
		unlockLocal()
		return nil, err
	}

	return func() {
		if err := unlockStore(); err != nil {
			logger.WithSession(m.logger, id).Warn("releasing the session lock", zap.Error(err))
		}
		unlockLocal()
	}, nil
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()

	return func() {
		l.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
