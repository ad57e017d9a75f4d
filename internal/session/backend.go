package session

import (
	"context"
	"maps"
	"sync"
)

// Keys under which session state is persisted.
const (
	KeyAccessToken = "accessToken"
	KeyUserInfo    = "userInfo"
	KeyCookies     = "cookies"
)

// Backend is durable key/value storage for session state.
//
// Save must write every entry or none. Load returns only the keys that exist.
// Delete of a missing key is not an error.
type Backend interface {
	Save(ctx context.Context, entries map[string][]byte) error
	Load(ctx context.Context, keys ...string) (map[string][]byte, error)
	Delete(ctx context.Context, keys ...string) error
}

// MemoryBackend is a [Backend] that lives only as long as the process.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Save(ctx context.Context, entries map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.data[k] = append([]byte(nil), v...)
	}
	return nil
}

func (m *MemoryBackend) Load(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

func (m *MemoryBackend) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Snapshot copies the stored entries.
func (m *MemoryBackend) Snapshot() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.data)
}
