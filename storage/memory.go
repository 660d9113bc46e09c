package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is a process-local backend for tests and dry runs.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]string)}
}

func (m *Memory) Profile(id string) KV { return memoryKV{m: m, profile: id} }

func (m *Memory) Close() error { return nil }

type memoryKV struct {
	m       *Memory
	profile string
}

func (k memoryKV) Get(_ context.Context, key string) (string, bool, error) {
	k.m.mu.RLock()
	defer k.m.mu.RUnlock()
	v, ok := k.m.data[k.profile][key]
	return v, ok, nil
}

func (k memoryKV) Set(_ context.Context, key, value string) error {
	k.m.mu.Lock()
	defer k.m.mu.Unlock()
	p, ok := k.m.data[k.profile]
	if !ok {
		p = make(map[string]string)
		k.m.data[k.profile] = p
	}
	p[key] = value
	return nil
}

func (k memoryKV) Delete(_ context.Context, keys ...string) error {
	k.m.mu.Lock()
	defer k.m.mu.Unlock()
	for _, key := range keys {
		delete(k.m.data[k.profile], key)
	}
	return nil
}

func (k memoryKV) Keys(_ context.Context, prefix string) ([]string, error) {
	k.m.mu.RLock()
	defer k.m.mu.RUnlock()
	var keys []string
	for key := range k.m.data[k.profile] {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
