package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisPersister, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisPersisterFromClient(client), mr
}

func TestRedisPersister_SaveLoad(t *testing.T) {
	p, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, p.Save(ctx, "profile-1", "cartCourseIds", []byte(`["a","b"]`)))

	stored, err := mr.Get("storefront:profile-1:cartCourseIds")
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, stored)

	got, err := p.Load(ctx, "profile-1", "cartCourseIds")
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, string(got))
}

func TestRedisPersister_LoadMissing(t *testing.T) {
	p, _ := setupTestRedis(t)

	_, err := p.Load(context.Background(), "profile-1", "cartCourseIds")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisPersister_Delete(t *testing.T) {
	p, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, p.Save(ctx, "profile-1", "pendingEnrollment", []byte(`{}`)))
	require.NoError(t, p.Delete(ctx, "profile-1", "pendingEnrollment"))

	assert.False(t, mr.Exists("storefront:profile-1:pendingEnrollment"))
}

func TestRedisPersister_ServerDown(t *testing.T) {
	p, mr := setupTestRedis(t)
	mr.Close()

	_, err := p.Load(context.Background(), "profile-1", "cartCourseIds")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestMemoryPersister_IsolatesScopes(t *testing.T) {
	p := NewMemoryPersister()
	ctx := context.Background()

	require.NoError(t, p.Save(ctx, "a", "k", []byte("1")))
	_, err := p.Load(ctx, "b", "k")
	assert.ErrorIs(t, err, ErrNotFound)

	v, err := p.Load(ctx, "a", "k")
	require.NoError(t, err)
	assert.Equal(t, "1", string(v))
}
