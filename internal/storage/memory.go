package storage

import (
	"context"
	"io"
	"strings"
	"sync"
)

// MemoryStore keeps objects in process. Used by tests and local runs
// without a bucket.
type MemoryStore struct {
	mu      sync.Mutex
	baseURL string
	objects map[string]StoredObject

	// Err, when set, fails every upload.
	Err error
}

type StoredObject struct {
	ContentType string
	Data        []byte
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]StoredObject),
	}
}

func (m *MemoryStore) Upload(ctx context.Context, obj Object) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	key := strings.TrimLeft(strings.TrimSpace(obj.Key), "/")
	if key == "" {
		return "", ErrEmptyKey
	}
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = StoredObject{ContentType: obj.ContentType, Data: data}
	return m.baseURL + "/" + escapeKey(key), nil
}

func (m *MemoryStore) Get(key string) (StoredObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return obj, ok
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
