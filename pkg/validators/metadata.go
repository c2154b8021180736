// Package validators contains the input checks applied to uploads before
// anything is written to the bucket
package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidMetadata = errors.New("invalid metadata")

// PhotoMetadata is the client supplied part of a photo record. Server
// owned fields (id, urls, createdAt) are not part of it, so sending them
// has no effect.
type PhotoMetadata struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	Date        string   `json:"date" validate:"required,max=64"`
	Camera      string   `json:"camera" validate:"max=200"`
	Film        string   `json:"film" validate:"max=200"`
	Location    string   `json:"location" validate:"max=200"`
	Category    string   `json:"category" validate:"required,oneof=Street Portrait Travel Architecture Other"`
	AspectRatio *float64 `json:"aspectRatio" validate:"omitempty,gt=0"` // nil when the client did not send one
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// ParseMetadata decodes the metadata form field and validates it
func ParseMetadata(raw string) (*PhotoMetadata, error) {
	var m PhotoMetadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidMetadata)
	}

	m.Title = strings.TrimSpace(m.Title)
	m.Description = strings.TrimSpace(m.Description)
	m.Date = strings.TrimSpace(m.Date)
	m.Camera = strings.TrimSpace(m.Camera)
	m.Film = strings.TrimSpace(m.Film)
	m.Location = strings.TrimSpace(m.Location)

	if err := validate.Struct(&m); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidMetadata, describe(verrs[0]))
		}

		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}

	return &m, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fe.Field() + " must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return fe.Field() + " must be a positive number"
	case "max":
		return fe.Field() + " is too long"
	default:
		return fe.Field() + " is invalid"
	}
}
