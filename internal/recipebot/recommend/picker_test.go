package recommend

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dishes = "1. Mapo Tofu\n2. Kung Pao Chicken\n3. Dumplings"

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(42, 7))
}

type failingHistory struct{}

func (failingHistory) Recent(context.Context, string) ([]string, error) {
	return nil, errors.New("redis down")
}

func (failingHistory) Remember(context.Context, string, string) error {
	return errors.New("redis down")
}

func TestPickEmpty(t *testing.T) {
	p := NewPicker(nil, nil, seeded())
	for _, text := range []string{"", "   ", "\n\n"} {
		_, err := p.Pick(context.Background(), "42", text)
		assert.ErrorIs(t, err, ErrNoCandidates)
	}
}

func TestPickWithoutHistoryCoversAllCandidates(t *testing.T) {
	p := NewPicker(nil, nil, seeded())
	seen := map[string]int{}
	for i := 0; i < 300; i++ {
		choice, err := p.Pick(context.Background(), "42", dishes)
		require.NoError(t, err)
		seen[choice]++
	}
	assert.Len(t, seen, 3)
	for _, name := range []string{"Mapo Tofu", "Kung Pao Chicken", "Dumplings"} {
		assert.Greater(t, seen[name], 0, name)
	}
}

func TestPickAvoidsRecent(t *testing.T) {
	ctx := context.Background()
	h := NewInmemHistory(5)
	require.NoError(t, h.Remember(ctx, "42", "Mapo Tofu"))
	require.NoError(t, h.Remember(ctx, "42", "kung pao chicken"))

	p := NewPicker(h, nil, seeded())
	choice, err := p.Pick(ctx, "42", dishes)
	require.NoError(t, err)
	assert.Equal(t, "Dumplings", choice)

	recent, err := h.Recent(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, []string{"Dumplings", "kung pao chicken", "Mapo Tofu"}, recent)
}

func TestPickFallsBackWhenEverythingIsRecent(t *testing.T) {
	ctx := context.Background()
	h := NewInmemHistory(5)
	for _, name := range []string{"Mapo Tofu", "Kung Pao Chicken", "Dumplings"} {
		require.NoError(t, h.Remember(ctx, "42", name))
	}

	p := NewPicker(h, nil, seeded())
	choice, err := p.Pick(ctx, "42", dishes)
	require.NoError(t, err)
	assert.Contains(t, []string{"Mapo Tofu", "Kung Pao Chicken", "Dumplings"}, choice)
}

func TestPickHistoryIsPerUser(t *testing.T) {
	ctx := context.Background()
	h := NewInmemHistory(5)
	require.NoError(t, h.Remember(ctx, "42", "Mapo Tofu"))
	require.NoError(t, h.Remember(ctx, "42", "Kung Pao Chicken"))

	recent, err := h.Recent(ctx, "43")
	require.NoError(t, err)
	assert.Empty(t, recent)

	p := NewPicker(h, nil, seeded())
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		choice, err := p.Pick(ctx, "43", "Mapo Tofu\nKung Pao Chicken")
		require.NoError(t, err)
		seen[choice] = true
	}
	assert.True(t, seen["Mapo Tofu"] || seen["Kung Pao Chicken"])
}

func TestPickSurvivesHistoryFailure(t *testing.T) {
	p := NewPicker(failingHistory{}, nil, seeded())
	choice, err := p.Pick(context.Background(), "42", dishes)
	require.NoError(t, err)
	assert.Contains(t, []string{"Mapo Tofu", "Kung Pao Chicken", "Dumplings"}, choice)
}

func TestInmemHistoryBounded(t *testing.T) {
	ctx := context.Background()
	h := NewInmemHistory(2)
	for i := 0; i < 5; i++ {
		require.NoError(t, h.Remember(ctx, "u", strconv.Itoa(i)))
	}
	recent, err := h.Recent(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "3"}, recent)

	disabled := NewInmemHistory(0)
	require.NoError(t, disabled.Remember(ctx, "u", "x"))
	recent, err = disabled.Recent(ctx, "u")
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestRedisHistory(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	h := NewRedisHistory(client, 2, time.Hour)

	for _, name := range []string{"Mapo Tofu", "Dumplings", "Fried Rice"} {
		require.NoError(t, h.Remember(ctx, "42", name))
	}

	recent, err := h.Recent(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, []string{"Fried Rice", "Dumplings"}, recent)
	assert.Equal(t, time.Hour, mr.TTL("recipebot:recent:42"))

	other, err := h.Recent(ctx, "43")
	require.NoError(t, err)
	assert.Empty(t, other)

	mr.Close()
	_, err = h.Recent(ctx, "42")
	assert.Error(t, err)
}
