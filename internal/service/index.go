// Package service holds the photo gallery operations and the storage
// contract for the photo index
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"designerdada/photo-api/internal/lock"
	"designerdada/photo-api/internal/model"
	"designerdada/photo-api/internal/storage"

	"github.com/jellydator/ttlcache/v2"
	"go.uber.org/zap"
)

const (
	IndexKey         = "photos.json"
	indexContentType = "application/json"
	cacheKey         = "index"

	defaultMaxRetries = 5
)

var ErrIndexContention = errors.New("photo index kept changing, giving up")

type snapshot struct {
	doc    *model.PhotoIndex
	etag   string
	exists bool
}

// IndexStore reads and writes photos.json. Every mutation goes through
// Update, which holds the index lock for the whole read-modify-write cycle
// and writes conditionally on the entity tag it read, so writers on other
// replicas can't be clobbered either.
type IndexStore struct {
	store      storage.ObjectStore
	locker     lock.Locker
	cache      *ttlcache.Cache
	maxRetries int

	// gen counts local writes. A load only fills the cache if no write
	// committed while it was in flight.
	mu  sync.Mutex
	gen uint64
}

type IndexOptions struct {
	// CacheTTL of 0 disables the read cache
	CacheTTL   time.Duration
	MaxRetries int
}

func NewIndexStore(s storage.ObjectStore, l lock.Locker, o IndexOptions) *IndexStore {
	if l == nil {
		l = lock.NewLocal()
	}

	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetries
	}

	i := &IndexStore{
		store:      s,
		locker:     l,
		maxRetries: o.MaxRetries,
	}

	if o.CacheTTL > 0 {
		c := ttlcache.NewCache()
		c.SetTTL(o.CacheTTL)
		c.SkipTTLExtensionOnHit(true)
		i.cache = c
	}

	return i
}

// Close stops the cache janitor
func (i *IndexStore) Close() {
	if i.cache != nil {
		i.cache.Close()
	}
}

// Read returns the current index. A bucket without photos.json reads as
// an empty index. The result is a private copy.
func (i *IndexStore) Read(ctx context.Context) (*model.PhotoIndex, error) {
	if i.cache != nil {
		if v, err := i.cache.Get(cacheKey); err == nil {
			return v.(*snapshot).doc.Clone(), nil
		}
	}

	gen := i.generation()

	snap, err := i.load(ctx)
	if err != nil {
		return nil, err
	}

	i.rememberSince(snap, gen)
	return snap.doc.Clone(), nil
}

// Reload reads the index from the bucket, bypassing the cache
func (i *IndexStore) Reload(ctx context.Context) (*model.PhotoIndex, error) {
	gen := i.generation()

	snap, err := i.load(ctx)
	if err != nil {
		return nil, err
	}

	i.rememberSince(snap, gen)

	return snap.doc.Clone(), nil
}

// Write replaces the stored index unconditionally. Prefer Update for
// anything that depends on the current contents.
func (i *IndexStore) Write(ctx context.Context, doc *model.PhotoIndex) error {
	doc = doc.Clone()

	etag, err := i.put(ctx, doc, storage.PutOptions{ContentType: indexContentType})
	if err != nil {
		return err
	}

	i.commit(&snapshot{doc: doc, etag: etag, exists: true})
	return nil
}

// Update applies fn to the latest index and stores the result. fn may run
// more than once when another writer got in first, each time against a
// fresh copy, so it must not keep state between calls. An error from fn
// aborts the update without writing.
func (i *IndexStore) Update(ctx context.Context, fn func(doc *model.PhotoIndex) error) (*model.PhotoIndex, error) {
	unlock, err := i.locker.Lock(ctx, IndexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to lock photo index, %w", err)
	}
	defer unlock()

	for attempt := 1; attempt <= i.maxRetries; attempt++ {
		snap, err := i.load(ctx)
		if err != nil {
			return nil, err
		}

		doc := snap.doc.Clone()
		if err := fn(doc); err != nil {
			return nil, err
		}

		opts := storage.PutOptions{ContentType: indexContentType}
		switch {
		case !snap.exists:
			opts.IfNoneMatch = true
		case snap.etag != "":
			opts.IfMatch = snap.etag
		}

		etag, err := i.put(ctx, doc, opts)
		if errors.Is(err, storage.ErrPreconditionFailed) {
			zap.L().Warn("Photo index changed during update, retrying", zap.Int("attempt", attempt))
			i.forget()
			continue
		}

		if err != nil {
			return nil, err
		}

		i.commit(&snapshot{doc: doc, etag: etag, exists: true})
		return doc.Clone(), nil
	}

	return nil, ErrIndexContention
}

func (i *IndexStore) load(ctx context.Context) (*snapshot, error) {
	obj, err := i.store.Get(ctx, IndexKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &snapshot{doc: &model.PhotoIndex{Photos: []model.Photo{}}}, nil
		}

		return nil, fmt.Errorf("failed to read photo index, %w", err)
	}

	var doc model.PhotoIndex
	if err := json.Unmarshal(obj.Body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode photo index, %w", err)
	}

	if doc.Photos == nil {
		doc.Photos = []model.Photo{}
	}

	return &snapshot{doc: &doc, etag: obj.ETag, exists: true}, nil
}

func (i *IndexStore) put(ctx context.Context, doc *model.PhotoIndex, opts storage.PutOptions) (string, error) {
	if doc.Photos == nil {
		doc.Photos = []model.Photo{}
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode photo index, %w", err)
	}

	etag, err := i.store.Put(ctx, IndexKey, bytes.NewReader(body), int64(len(body)), opts)
	if err != nil {
		if errors.Is(err, storage.ErrPreconditionFailed) {
			return "", err
		}

		return "", fmt.Errorf("failed to write photo index, %w", err)
	}

	return etag, nil
}

func (i *IndexStore) generation() uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.gen
}

// commit caches a snapshot this process just wrote. Loads that started
// before it can no longer replace it.
func (i *IndexStore) commit(s *snapshot) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.gen++
	i.set(s)
}

// rememberSince caches a loaded snapshot unless a write committed after
// gen was taken
func (i *IndexStore) rememberSince(s *snapshot, gen uint64) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.gen != gen {
		return
	}

	i.set(s)
}

func (i *IndexStore) forget() {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.gen++
	if i.cache != nil {
		_ = i.cache.Remove(cacheKey)
	}
}

func (i *IndexStore) set(s *snapshot) {
	if i.cache == nil {
		return
	}

	if err := i.cache.Set(cacheKey, s); err != nil {
		zap.L().Debug("Failed to cache photo index", zap.Error(err))
	}
}
