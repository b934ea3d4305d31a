// Package favorites keeps each user's collected recipe names as a set.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrStoreUnavailable wraps any failure of the backing store.
	ErrStoreUnavailable = errors.New("favorites store unavailable")
	// ErrInvalidName rejects empty or blank recipe names.
	ErrInvalidName = errors.New("recipe name must not be blank")
)

// Store is a set of recipe names per user.
type Store interface {
	Add(ctx context.Context, userID, name string) error
	Remove(ctx context.Context, userID, name string) error
	List(ctx context.Context, userID string) ([]string, error)
}

func normalize(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

// InmemStore is a process-local Store.
type InmemStore struct {
	mu   sync.RWMutex
	sets map[string]map[string]struct{}
}

func NewInmemStore() *InmemStore {
	return &InmemStore{sets: make(map[string]map[string]struct{})}
}

func (s *InmemStore) Add(ctx context.Context, userID, name string) error {
	name, err := normalize(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[userID]
	if !ok {
		set = make(map[string]struct{})
		s.sets[userID] = set
	}
	set[name] = struct{}{}
	return nil
}

func (s *InmemStore) Remove(ctx context.Context, userID, name string) error {
	name, err := normalize(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.sets[userID]; ok {
		delete(set, name)
		if len(set) == 0 {
			delete(s.sets, userID)
		}
	}
	return nil
}

func (s *InmemStore) List(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.sets[userID]))
	for name := range s.sets[userID] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// RedisStore keeps one Redis set per user under "user_<id>_favorites".
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Key returns the Redis key holding userID's favorites.
func Key(userID string) string {
	return fmt.Sprintf("user_%s_favorites", userID)
}

func (s *RedisStore) Add(ctx context.Context, userID, name string) error {
	name, err := normalize(name)
	if err != nil {
		return err
	}
	if err := s.client.SAdd(ctx, Key(userID), name).Err(); err != nil {
		return fmt.Errorf("%w: add %q: %v", ErrStoreUnavailable, name, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, userID, name string) error {
	name, err := normalize(name)
	if err != nil {
		return err
	}
	if err := s.client.SRem(ctx, Key(userID), name).Err(); err != nil {
		return fmt.Errorf("%w: remove %q: %v", ErrStoreUnavailable, name, err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, userID string) ([]string, error) {
	names, err := s.client.SMembers(ctx, Key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrStoreUnavailable, err)
	}
	sort.Strings(names)
	return names, nil
}
