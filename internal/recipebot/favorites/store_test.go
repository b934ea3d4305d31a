package favorites

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func stores(t *testing.T) map[string]Store {
	redisStore, _ := newRedisStore(t)
	return map[string]Store{
		"inmem": NewInmemStore(),
		"redis": redisStore,
	}
}

func TestStoreSetSemantics(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			names, err := store.List(ctx, "42")
			require.NoError(t, err)
			assert.Empty(t, names)

			require.NoError(t, store.Add(ctx, "42", "Mapo Tofu"))
			require.NoError(t, store.Add(ctx, "42", "  Mapo Tofu "))
			require.NoError(t, store.Add(ctx, "42", "Dumplings"))

			names, err = store.List(ctx, "42")
			require.NoError(t, err)
			assert.Equal(t, []string{"Dumplings", "Mapo Tofu"}, names)

			require.NoError(t, store.Remove(ctx, "42", "Mapo Tofu"))
			require.NoError(t, store.Remove(ctx, "42", "Fried Rice"))

			names, err = store.List(ctx, "42")
			require.NoError(t, err)
			assert.Equal(t, []string{"Dumplings"}, names)

			other, err := store.List(ctx, "43")
			require.NoError(t, err)
			assert.Empty(t, other)
		})
	}
}

func TestStoreRejectsBlankNames(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			assert.ErrorIs(t, store.Add(ctx, "42", ""), ErrInvalidName)
			assert.ErrorIs(t, store.Add(ctx, "42", "  \t"), ErrInvalidName)
			assert.ErrorIs(t, store.Remove(ctx, "42", " "), ErrInvalidName)
		})
	}
}

func TestStoreConcurrentAdds(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					assert.NoError(t, store.Add(ctx, "42", fmt.Sprintf("dish %d", i%5)))
				}(i)
			}
			wg.Wait()

			names, err := store.List(ctx, "42")
			require.NoError(t, err)
			assert.Len(t, names, 5)
		})
	}
}

func TestRedisStoreKeyLayout(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, store.Add(context.Background(), "42", "Mapo Tofu"))

	members, err := mr.Members("user_42_favorites")
	require.NoError(t, err)
	assert.Equal(t, []string{"Mapo Tofu"}, members)
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	ctx := context.Background()
	assert.ErrorIs(t, store.Add(ctx, "42", "Mapo Tofu"), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Remove(ctx, "42", "Mapo Tofu"), ErrStoreUnavailable)
	_, err := store.List(ctx, "42")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
