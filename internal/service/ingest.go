package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"designerdada/photo-api/internal/model"
	"designerdada/photo-api/internal/storage"
	"designerdada/photo-api/pkg/validators"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Upload is a photo as received from the admin form
type Upload struct {
	Body        io.ReadSeeker
	Size        int64
	Filename    string
	ContentType string
	Metadata    string // JSON encoded metadata form field
}

// Create stores the binary and prepends a new record to the index. If the
// index can't be updated the binary is removed again; whatever survives
// that is picked up by the reconciler.
func (s *PhotoService) Create(ctx context.Context, u *Upload) (*model.Photo, error) {
	if u == nil || u.Body == nil || strings.TrimSpace(u.Metadata) == "" {
		return nil, ErrMissingInput
	}

	meta, err := validators.ParseMetadata(u.Metadata)
	if err != nil {
		return nil, err
	}

	contentType, err := validators.FileValidator(u.Body, u.Size, u.ContentType, s.MaxUploadSize, s.AllowedTypes)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	key := OriginalKey(id, u.Filename)

	now := time.Now()

	_, err = s.Store.Put(ctx, key, u.Body, u.Size, storage.PutOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("failed to store photo binary, %w", err)
	}

	zap.L().Debug("Photo binary stored", zap.String("key", key), zap.Duration("took", time.Since(now)))

	photo := model.Photo{
		ID:          id,
		Title:       meta.Title,
		Description: meta.Description,
		Date:        meta.Date,
		Camera:      meta.Camera,
		Film:        meta.Film,
		Location:    meta.Location,
		Category:    model.Category(meta.Category),
		AspectRatio: meta.AspectRatio,
		URLs:        s.urlsFor(key),
	}

	_, err = s.Index.Update(ctx, func(doc *model.PhotoIndex) error {
		photo.CreatedAt = s.createdAt(doc)
		doc.Photos = append([]model.Photo{photo}, doc.Photos...)
		return nil
	})
	if err != nil {
		s.discard(key)
		return nil, fmt.Errorf("failed to add photo to index, %w", err)
	}

	return &photo, nil
}

func (s *PhotoService) urlsFor(key string) model.PhotoURLs {
	if s.ResizeVariants {
		return resizedURLs(s.PublicURL, key)
	}

	u := s.objectURL(key)
	return model.PhotoURLs{Thumbnail: u, Medium: u, Large: u}
}

// createdAt is taken inside the index critical section so that index
// order and createdAt order agree. A clock behind the newest record is
// clamped to it.
func (s *PhotoService) createdAt(doc *model.PhotoIndex) string {
	now := s.clock().UTC()

	if len(doc.Photos) > 0 {
		head, err := time.Parse(time.RFC3339Nano, doc.Photos[0].CreatedAt)
		if err == nil && head.After(now) {
			now = head.UTC()
		}
	}

	return now.Format(createdAtLayout)
}

func (s *PhotoService) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}

	return s.now()
}

// discard removes a binary whose record never made it into the index
func (s *PhotoService) discard(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.Store.Delete(ctx, key); err != nil {
		zap.L().Error("Failed to cleanup after failed upload", zap.String("key", key), zap.Error(err))
		return
	}

	zap.L().Debug("Cleaned up after failed upload", zap.String("key", key))
}
