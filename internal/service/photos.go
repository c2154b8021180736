package service

import (
	"errors"
	"path"
	"regexp"
	"strings"
	"time"

	"designerdada/photo-api/internal/storage"
)

var (
	ErrPhotoNotFound   = errors.New("photo not found")
	ErrMissingInput    = errors.New("missing file or metadata")
	ErrMissingID       = errors.New("missing photo id")
	ErrInvalidCategory = errors.New("invalid category")
)

const (
	photosPrefix    = "photos/"
	createdAtLayout = "2006-01-02T15:04:05.000Z07:00"
	defaultExt      = "jpg"
)

var extPattern = regexp.MustCompile(`^[a-z0-9]{1,8}$`)

// PhotoService implements ingestion, deletion and listing on top of the
// bucket and the photo index
type PhotoService struct {
	Store storage.ObjectStore
	Index *IndexStore

	// PublicURL is the public base URL of the bucket, urls are built from it
	PublicURL string

	// ResizeVariants makes new uploads point at CDN resized variants
	// instead of three copies of the original
	ResizeVariants bool

	MaxUploadSize int64
	AllowedTypes  []string

	now func() time.Time
}

func NewPhotoService(s storage.ObjectStore, i *IndexStore, publicURL string) *PhotoService {
	return &PhotoService{
		Store:     s,
		Index:     i,
		PublicURL: strings.TrimSuffix(publicURL, "/"),
		now:       time.Now,
	}
}

// PhotoPrefix is the key prefix shared by every object of a photo
func PhotoPrefix(id string) string {
	return photosPrefix + id + "/"
}

// OriginalKey is the content key of the uploaded original
func OriginalKey(id, filename string) string {
	return PhotoPrefix(id) + "original." + extension(filename)
}

func extension(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if !extPattern.MatchString(ext) {
		return defaultExt
	}

	return ext
}

// photoIDFromKey extracts {id} from photos/{id}/...
func photoIDFromKey(key string) string {
	rest, ok := strings.CutPrefix(key, photosPrefix)
	if !ok {
		return ""
	}

	id, _, ok := strings.Cut(rest, "/")
	if !ok {
		return ""
	}

	return id
}

func (s *PhotoService) objectURL(key string) string {
	return s.PublicURL + "/" + key
}
