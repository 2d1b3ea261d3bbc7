package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestUsernameCache(t *testing.T) {
	_, rdb := newRedis(t)
	c := NewUsernameCache(rdb)
	ctx := context.Background()

	taken, err := c.IsTaken(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, c.MarkTaken(ctx, "alice"))

	taken, err = c.IsTaken(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestSessionStore(t *testing.T) {
	mr, rdb := newRedis(t)
	s := NewSessionStore(rdb, time.Hour)
	ctx := context.Background()

	_, err := s.Get(ctx, "alice")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, s.Save(ctx, "alice", "tkn"))
	token, err := s.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "tkn", token)

	mr.FastForward(2 * time.Hour)
	_, err = s.Get(ctx, "alice")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
