package service

import (
	"context"
	"fmt"
	"time"

	"designerdada/photo-api/internal/storage"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reconciler deletes binaries that no index record refers to. They are
// left behind when an upload fails after its binary was written, or when
// reclamation after a delete fails half way. Objects younger than
// GracePeriod are skipped so in-flight uploads are never touched.
type Reconciler struct {
	Store       storage.ObjectStore
	Index       *IndexStore
	GracePeriod time.Duration

	now func() time.Time
}

// MinGracePeriod bounds GracePeriod from below. An upload writes its binary
// before the index record, so a shorter grace could reclaim a file that is
// about to be referenced.
const MinGracePeriod = reclaimTimeout

func NewReconciler(s storage.ObjectStore, i *IndexStore, grace time.Duration) *Reconciler {
	return &Reconciler{
		Store:       s,
		Index:       i,
		GracePeriod: grace,
	}
}

// Run performs a single pass and returns the number of deleted objects
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	doc, err := r.Index.Reload(ctx)
	if err != nil {
		return 0, err
	}

	live := make(map[string]struct{}, len(doc.Photos))
	for _, p := range doc.Photos {
		live[p.ID] = struct{}{}
	}

	objects, err := r.Store.List(ctx, photosPrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list photo files, %w", err)
	}

	now := time.Now()
	if r.now != nil {
		now = r.now()
	}
	grace := max(r.GracePeriod, MinGracePeriod)

	deleted := 0
	for _, o := range objects {
		id := photoIDFromKey(o.Key)
		if id == "" {
			continue
		}

		if _, ok := live[id]; ok {
			continue
		}

		if now.Sub(o.LastModified) < grace {
			continue
		}

		if err := r.Store.Delete(ctx, o.Key); err != nil {
			zap.L().Error("Failed to delete orphaned file", zap.String("key", o.Key), zap.Error(err))
			continue
		}

		zap.L().Debug("Deleted orphaned file", zap.String("key", o.Key))
		deleted++
	}

	return deleted, nil
}

// Schedule runs the reconciler on a cron spec until the returned cron is
// stopped
func (r *Reconciler) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		n, err := r.Run(ctx)
		if err != nil {
			zap.L().Error("Reconciliation failed", zap.Error(err))
			return
		}

		zap.L().Info("Reconciliation finished", zap.Int("deleted", n))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q, %w", spec, err)
	}

	zap.L().Debug("Reconciler attached", zap.String("schedule", spec))

	c.Start()
	return c, nil
}
