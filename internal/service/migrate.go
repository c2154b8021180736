package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"designerdada/photo-api/internal/model"

	"go.uber.org/zap"
)

var originalURLPattern = regexp.MustCompile(`/photos/([^/]+)/original\.(\w+)$`)

type variant struct {
	width   int
	quality int
}

var (
	thumbnailVariant = variant{width: 300, quality: 80}
	mediumVariant    = variant{width: 800, quality: 80}
	largeVariant     = variant{width: 1600, quality: 85}
)

func (v variant) url(base, key string) string {
	return fmt.Sprintf("%s/cdn-cgi/image/width=%d,quality=%d,format=auto/%s", base, v.width, v.quality, key)
}

// resizedURLs builds the Cloudflare image resizing variants of key
func resizedURLs(base, key string) model.PhotoURLs {
	return model.PhotoURLs{
		Thumbnail: thumbnailVariant.url(base, key),
		Medium:    mediumVariant.url(base, key),
		Large:     largeVariant.url(base, key),
	}
}

// migratedURLs derives the resized variants from an existing record. It
// reports false when the thumbnail URL doesn't point at an original.
func migratedURLs(p model.Photo) (model.PhotoURLs, bool) {
	m := originalURLPattern.FindStringSubmatch(p.URLs.Thumbnail)
	if m == nil {
		return model.PhotoURLs{}, false
	}

	base, _, _ := strings.Cut(p.URLs.Thumbnail, "/photos/")

	// Already migrated records carry the resizing path in front of the key
	if i := strings.Index(base, "/cdn-cgi/image/"); i >= 0 {
		base = base[:i]
	}

	key := "photos/" + m[1] + "/original." + m[2]
	return resizedURLs(base, key), true
}

// MigrateURLs points every record at CDN resized variants of its original.
// Records whose URLs can't be parsed are left alone.
func (s *PhotoService) MigrateURLs(ctx context.Context) (migrated, skipped int, err error) {
	_, err = s.Index.Update(ctx, func(doc *model.PhotoIndex) error {
		migrated, skipped = 0, 0

		for i, p := range doc.Photos {
			urls, ok := migratedURLs(p)
			if !ok {
				zap.L().Warn("Could not parse photo URL, skipping", zap.String("id", p.ID))
				skipped++
				continue
			}

			doc.Photos[i].URLs = urls
			migrated++
		}

		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return migrated, skipped, nil
}
