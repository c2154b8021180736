package service

import (
	"context"

	"designerdada/photo-api/internal/model"
)

// List returns the photos newest first, optionally only those filed under
// category. An empty category or "All" returns everything.
func (s *PhotoService) List(ctx context.Context, category string) ([]model.Photo, error) {
	if category != "" && category != "All" && !model.Category(category).Valid() {
		return nil, ErrInvalidCategory
	}

	doc, err := s.Index.Read(ctx)
	if err != nil {
		return nil, err
	}

	if category == "" || category == "All" {
		return doc.Photos, nil
	}

	filtered := []model.Photo{}
	for _, p := range doc.Photos {
		if p.Category == model.Category(category) {
			filtered = append(filtered, p)
		}
	}

	return filtered, nil
}
