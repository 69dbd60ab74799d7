package smt

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryCache()

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte(`{"satisfiable":true}`)
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'X' // the cache keeps its own copy

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"satisfiable":true}`, string(got))
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	cache := NewRedisCacheFromClient(client)
	defer cache.Close()

	_, ok, err := cache.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "abc", []byte(`{"complete":true}`)))
	got, ok, err := cache.Get(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"complete":true}`, string(got))

	assert.True(t, mr.Exists(DefaultRedisPrefix+"abc"))
}

func TestRedisCacheTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	cache := NewRedisCacheFromClient(client, WithTTL(time.Minute), WithPrefix("test:"))

	require.NoError(t, cache.Set(ctx, "k", []byte("v")))
	assert.True(t, mr.Exists("test:k"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheUnavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewRedisCacheFromClient(client)
	mr.Close()

	_, _, err := cache.Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestCheckerWithRedisCache(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	solver := &stubSolver{sat: SatResult{Satisfiable: false}}

	// two checkers sharing one Redis: the second never reaches the solver
	first := NewChecker(solver, WithCache(NewRedisCacheFromClient(client)), WithLogger(quietLogger()))
	second := NewChecker(solver, WithCache(NewRedisCacheFromClient(client)), WithLogger(quietLogger()))

	assert.False(t, first.GuardsOverlap(ctx, guardA, guardB).Satisfiable)
	assert.False(t, second.GuardsOverlap(ctx, guardA, guardB).Satisfiable)
	assert.Equal(t, 1, solver.satCalls)
}
