package session

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore keeps sessions in process. The least recently used session is
// dropped once size is reached, and idle sessions expire after ttl.
type MemoryStore struct {
	cache *expirable.LRU[string, Context]
}

// NewMemoryStore creates a store; size <= 0 means unbounded, ttl <= 0 means no expiry.
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size < 0 {
		size = 0
	}
	if ttl < 0 {
		ttl = 0
	}
	return &MemoryStore{cache: expirable.NewLRU[string, Context](size, nil, ttl)}
}

func (s *MemoryStore) Load(_ context.Context, id string) (Context, bool, error) {
	sc, ok := s.cache.Get(id)
	return sc, ok, nil
}

func (s *MemoryStore) Save(_ context.Context, id string, sc Context) error {
	s.cache.Add(id, sc)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.cache.Remove(id)
	return nil
}

func (s *MemoryStore) Len() int {
	return s.cache.Len()
}
