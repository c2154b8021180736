package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"designerdada/photo-api/internal/model"
	"designerdada/photo-api/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcilerDeletesOrphans(t *testing.T) {
	s := storage.NewMemoryStore()
	svc := newPhotoService(t, s)

	kept, err := svc.Create(context.Background(), upload(meta("kept", "Street")))
	require.NoError(t, err)

	orphan := PhotoPrefix("orphan") + "original.jpg"
	_, err = s.Put(context.Background(), orphan, strings.NewReader("x"), 1, storage.PutOptions{})
	require.NoError(t, err)

	// Young orphans may belong to an upload in flight
	young := NewReconciler(s, svc.Index, time.Hour)
	n, err := young.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	// A grace below the minimum still protects fresh files
	r := NewReconciler(s, svc.Index, 0)
	n, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.Get(context.Background(), orphan)
	require.NoError(t, err)

	r.now = func() time.Time { return time.Now().Add(MinGracePeriod + time.Second) }
	n, err = r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Get(context.Background(), orphan)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	left, err := s.List(context.Background(), PhotoPrefix(kept.ID))
	require.NoError(t, err)
	assert.Len(t, left, 1)

	_, err = s.Get(context.Background(), IndexKey)
	assert.NoError(t, err)
}

func TestReconcilerSchedule(t *testing.T) {
	r := NewReconciler(storage.NewMemoryStore(), newIndex(t, storage.NewMemoryStore(), 0), 0)

	_, err := r.Schedule("not a schedule")
	assert.Error(t, err)

	c, err := r.Schedule("@every 1h")
	require.NoError(t, err)
	<-c.Stop().Done()
}

func TestMigrateURLs(t *testing.T) {
	s := storage.NewMemoryStore()
	svc := newPhotoService(t, s)

	p, err := svc.Create(context.Background(), upload(meta("a", "Street")))
	require.NoError(t, err)

	broken := model.Photo{ID: "broken", URLs: model.PhotoURLs{Thumbnail: "https://elsewhere/x.jpg"}}
	_, err = svc.Index.Update(context.Background(), func(doc *model.PhotoIndex) error {
		doc.Photos = append(doc.Photos, broken)
		return nil
	})
	require.NoError(t, err)

	migrated, skipped, err := svc.MigrateURLs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, migrated)
	assert.Equal(t, 1, skipped)

	key := "photos/" + p.ID + "/original.jpg"
	want := model.PhotoURLs{
		Thumbnail: publicURL + "/cdn-cgi/image/width=300,quality=80,format=auto/" + key,
		Medium:    publicURL + "/cdn-cgi/image/width=800,quality=80,format=auto/" + key,
		Large:     publicURL + "/cdn-cgi/image/width=1600,quality=85,format=auto/" + key,
	}

	photos, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, want, photos[0].URLs)
	assert.Equal(t, broken.URLs, photos[1].URLs)

	// Running it again changes nothing
	_, _, err = svc.MigrateURLs(context.Background())
	require.NoError(t, err)

	photos, err = svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, want, photos[0].URLs)
}

func TestCreateWithResizeVariants(t *testing.T) {
	svc := newPhotoService(t, storage.NewMemoryStore())
	svc.ResizeVariants = true

	p, err := svc.Create(context.Background(), upload(meta("a", "Street")))
	require.NoError(t, err)

	assert.Equal(t, publicURL+"/cdn-cgi/image/width=300,quality=80,format=auto/photos/"+p.ID+"/original.jpg", p.URLs.Thumbnail)
}
