package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores each profile under "<prefix>:<profile>:".
type Redis struct {
	client *redis.Client
	prefix string
}

// DialRedis connects to addr and verifies the connection with a ping.
func DialRedis(ctx context.Context, addr, prefix string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	slog.Info("redis connected", "addr", addr)
	return NewRedis(client, prefix), nil
}

// NewRedis wraps an existing client. An empty prefix defaults to "folio".
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "folio"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Profile(id string) KV {
	return redisKV{client: r.client, base: r.prefix + ":" + id + ":"}
}

func (r *Redis) Close() error { return r.client.Close() }

type redisKV struct {
	client *redis.Client
	base   string
}

func (k redisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := k.client.Get(ctx, k.base+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (k redisKV) Set(ctx context.Context, key, value string) error {
	return k.client.Set(ctx, k.base+key, value, 0).Err()
}

func (k redisKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = k.base + key
	}
	return k.client.Del(ctx, full...).Err()
}

func (k redisKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeGlob(k.base+prefix) + "*"
	var keys []string
	iter := k.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), k.base))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	// SCAN may return a key more than once.
	sort.Strings(keys)
	return compact(keys), nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string { return globEscaper.Replace(s) }

func compact(sorted []string) []string {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, s := range sorted[1:] {
		if s != out[len(out)-1] {
			out = append(out, s)
		}
	}
	return out
}
