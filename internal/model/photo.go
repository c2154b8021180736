// Package model defines the records persisted by the API
package model

import "slices"

type Category string

const (
	CategoryStreet       Category = "Street"
	CategoryPortrait     Category = "Portrait"
	CategoryTravel       Category = "Travel"
	CategoryArchitecture Category = "Architecture"
	CategoryOther        Category = "Other"
)

// Categories lists every category a photo can be filed under
var Categories = []Category{
	CategoryStreet,
	CategoryPortrait,
	CategoryTravel,
	CategoryArchitecture,
	CategoryOther,
}

func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

type PhotoURLs struct {
	Thumbnail string `json:"thumbnail"`
	Medium    string `json:"medium"`
	Large     string `json:"large"`
}

type Photo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        string    `json:"date"` // Display only, e.g. 01.Jan.2025
	Camera      string    `json:"camera,omitempty"`
	Film        string    `json:"film,omitempty"`
	Location    string    `json:"location,omitempty"`
	Category    Category  `json:"category"`
	AspectRatio *float64  `json:"aspectRatio,omitempty"` // width / height as reported by the uploader
	URLs        PhotoURLs `json:"urls"`
	CreatedAt   string    `json:"createdAt"` // Sort key, newest first
}

// PhotoIndex is the document stored as photos.json. Photos are kept
// newest first.
type PhotoIndex struct {
	Photos []Photo `json:"photos"`
}

// Clone returns a copy whose Photos slice can be modified without
// touching the original
func (p *PhotoIndex) Clone() *PhotoIndex {
	if p == nil {
		return &PhotoIndex{Photos: []Photo{}}
	}

	photos := make([]Photo, len(p.Photos))
	copy(photos, p.Photos)

	return &PhotoIndex{Photos: photos}
}
