package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	lite, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { lite.Close() })

	mr := miniredis.RunT(t)
	rdb := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")
	t.Cleanup(func() { rdb.Close() })

	return map[string]Backend{
		"sqlite": lite,
		"redis":  rdb,
		"memory": NewMemory(),
	}
}

func TestBackends(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			kv := b.Profile("p1")

			_, ok, err := kv.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Set(ctx, "ns:liked:b", "1"))
			require.NoError(t, kv.Set(ctx, "ns:liked:a", "0"))
			require.NoError(t, kv.Set(ctx, "ns:shared:a", "3"))
			require.NoError(t, kv.Set(ctx, "other", "x"))
			require.NoError(t, kv.Set(ctx, "ns:liked:b", "0"))

			v, ok, err := kv.Get(ctx, "ns:liked:b")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "0", v)

			keys, err := kv.Keys(ctx, "ns:liked:")
			require.NoError(t, err)
			assert.Equal(t, []string{"ns:liked:a", "ns:liked:b"}, keys)

			keys, err = kv.Keys(ctx, "ns:")
			require.NoError(t, err)
			assert.Len(t, keys, 3)

			require.NoError(t, kv.Delete(ctx, "ns:liked:a", "never-set"))
			_, ok, err = kv.Get(ctx, "ns:liked:a")
			require.NoError(t, err)
			assert.False(t, ok)
			require.NoError(t, kv.Delete(ctx))
		})
	}
}

func TestProfilesAreIsolated(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.Profile("alice").Set(ctx, "k", "a"))
			require.NoError(t, b.Profile("bob").Set(ctx, "k", "b"))

			v, _, err := b.Profile("alice").Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "a", v)

			keys, err := b.Profile("carol").Keys(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestKeysTreatsGlobCharactersLiterally(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			kv := b.Profile("glob")
			require.NoError(t, kv.Set(ctx, "a*b:1", "x"))
			require.NoError(t, kv.Set(ctx, "axb:1", "x"))
			require.NoError(t, kv.Set(ctx, "a%b:1", "x"))

			keys, err := kv.Keys(ctx, "a*b:")
			require.NoError(t, err)
			assert.Equal(t, []string{"a*b:1"}, keys)
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Profile("p").Set(ctx, "k", "v"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	v, ok, err := s.Profile("p").Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, Config{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, b)

	b, err = Open(ctx, Config{Path: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, b)
	b.Close()

	mr := miniredis.RunT(t)
	b, err = Open(ctx, Config{Driver: "Redis", RedisAddr: mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, b)
	b.Close()

	_, err = Open(ctx, Config{Driver: "etcd"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
