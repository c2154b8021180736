package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"designerdada/photo-api/internal/model"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	reclaimTimeout     = time.Minute
	reclaimConcurrency = 4
)

// Delete removes the record from the index first and only then reclaims
// the binaries under photos/{id}/. A record pointing at missing files
// would show up as a broken image, leftover files only cost storage, so
// reclamation failures are logged and not returned.
func (s *PhotoService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrMissingID
	}

	_, err := s.Index.Update(ctx, func(doc *model.PhotoIndex) error {
		i := slices.IndexFunc(doc.Photos, func(p model.Photo) bool { return p.ID == id })
		if i < 0 {
			return ErrPhotoNotFound
		}

		doc.Photos = slices.Delete(doc.Photos, i, i+1)
		return nil
	})
	if err != nil {
		return err
	}

	// The record is gone already, finish the cleanup even if the client isn't around anymore
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reclaimTimeout)
	defer cancel()

	n, err := s.reclaim(rctx, id)
	if err != nil {
		zap.L().Warn("Photo removed from index but some files were left behind",
			zap.String("id", id),
			zap.Int("deleted", n),
			zap.Error(err))
		return nil
	}

	zap.L().Debug("Photo deleted", zap.String("id", id), zap.Int("objects", n))
	return nil
}

// reclaim deletes every object under the photo's prefix and returns how
// many deletions were attempted
func (s *PhotoService) reclaim(ctx context.Context, id string) (int, error) {
	objects, err := s.Store.List(ctx, PhotoPrefix(id))
	if err != nil {
		return 0, fmt.Errorf("failed to list photo files, %w", err)
	}

	p := pool.New().WithErrors().WithMaxGoroutines(reclaimConcurrency)
	for _, o := range objects {
		key := o.Key
		p.Go(func() error {
			return s.Store.Delete(ctx, key)
		})
	}

	return len(objects), p.Wait()
}
