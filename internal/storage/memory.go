package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	body        []byte
	contentType string
	version     int64
	modified    time.Time
}

// MemoryStore keeps objects in process memory. It's used for local
// development and tests and honours conditional writes like a real bucket.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]*memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]*memoryEntry),
	}
}

func memoryETag(version int64) string {
	return `"` + strconv.FormatInt(version, 10) + `"`
}

func (m *MemoryStore) Get(ctx context.Context, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}

	body := make([]byte, len(e.body))
	copy(body, e.body)

	return &Object{
		ObjectInfo: ObjectInfo{
			Key:          key,
			Size:         int64(len(body)),
			ETag:         memoryETag(e.version),
			LastModified: e.modified,
		},
		ContentType: e.contentType,
		Body:        body,
	}, nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read object body, %w", err)
	}

	if size >= 0 && int64(len(data)) != size {
		return "", fmt.Errorf("body length %d doesn't match declared size %d", len(data), size)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.objects[key]
	if opts.IfNoneMatch && exists {
		return "", ErrPreconditionFailed
	}

	if opts.IfMatch != "" && (!exists || memoryETag(current.version) != opts.IfMatch) {
		return "", ErrPreconditionFailed
	}

	var version int64 = 1
	if exists {
		version = current.version + 1
	}

	m.objects[key] = &memoryEntry{
		body:        data,
		contentType: opts.ContentType,
		version:     version,
		modified:    time.Now(),
	}

	return memoryETag(version), nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()

	return nil
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := []ObjectInfo{}
	for k, e := range m.objects {
		if !strings.HasPrefix(k, prefix) {
			continue
		}

		infos = append(infos, ObjectInfo{
			Key:          k,
			Size:         int64(len(e.body)),
			ETag:         memoryETag(e.version),
			LastModified: e.modified,
		})
	}

	// Buckets list lexicographically
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })

	return infos, nil
}
