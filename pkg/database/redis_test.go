package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestRedisRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient("", nil, mr.Addr(), 0)
	require.NoError(t, err)
	defer client.Close()

	repo := NewRedisRepository[sample](client)
	ctx := context.Background()

	_, err = repo.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Set(ctx, "k", sample{Name: "a", Count: 2}, time.Minute))
	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, sample{Name: "a", Count: 2}, got)

	ttl, err := repo.GetTTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)

	require.NoError(t, repo.ExtendTTL(ctx, "k", time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("k"))

	require.NoError(t, repo.Set(ctx, "forever", sample{}, 0))
	ttl, err = repo.GetTTL(ctx, "forever")
	require.NoError(t, err)
	assert.Zero(t, ttl)

	require.NoError(t, repo.Del(ctx, "k"))
	assert.False(t, mr.Exists("k"))
}

func TestNewRedisClientUnreachable(t *testing.T) {
	_, err := NewRedisClient("", nil, "127.0.0.1:1", 0)
	assert.Error(t, err)
}
