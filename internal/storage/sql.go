package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"designerdada/photo-api/internal/model"

	"gorm.io/gorm"
)

// SQLStore keeps objects as rows in a SQL database through gorm. It backs
// storage.type = "sql" for deployments without a bucket. The row version
// is the entity tag.
type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

func sqlETag(version int64) string {
	return `"` + strconv.FormatInt(version, 10) + `"`
}

func parseSQLETag(etag string) (int64, error) {
	return strconv.ParseInt(strings.Trim(etag, `"`), 10, 64)
}

func (s *SQLStore) Get(ctx context.Context, key string) (*Object, error) {
	var o model.Object

	err := s.db.WithContext(ctx).
		Where("object_key = ?", key).
		First(&o).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to get object %s, %w", key, err)
	}

	return &Object{
		ObjectInfo: ObjectInfo{
			Key:          o.Key,
			Size:         o.Size,
			ETag:         sqlETag(o.Version),
			LastModified: o.UpdatedAt,
		},
		ContentType: o.ContentType,
		Body:        o.Body,
	}, nil
}

func (s *SQLStore) Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read object body, %w", err)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var version int64

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Object

		err := tx.
			Select("object_key", "version").
			Where("object_key = ?", key).
			First(&current).
			Error
		exists := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if opts.IfNoneMatch && exists {
			return ErrPreconditionFailed
		}

		if !exists {
			if opts.IfMatch != "" {
				return ErrPreconditionFailed
			}

			version = 1
			return tx.Create(&model.Object{
				Key:         key,
				Body:        data,
				ContentType: contentType,
				Size:        int64(len(data)),
				Version:     version,
				UpdatedAt:   time.Now(),
			}).Error
		}

		q := tx.Model(&model.Object{}).Where("object_key = ?", key)
		if opts.IfMatch != "" {
			expected, err := parseSQLETag(opts.IfMatch)
			if err != nil {
				return ErrPreconditionFailed
			}

			q = q.Where("version = ?", expected)
		}

		res := q.Updates(map[string]any{
			"body":         data,
			"content_type": contentType,
			"size":         int64(len(data)),
			"version":      gorm.Expr("version + 1"),
			"updated_at":   time.Now(),
		})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return ErrPreconditionFailed
		}

		version = current.Version + 1
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPreconditionFailed) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", ErrPreconditionFailed
		}

		return "", fmt.Errorf("failed to put object %s, %w", key, err)
	}

	return sqlETag(version), nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).
		Where("object_key = ?", key).
		Delete(&model.Object{}).
		Error
	if err != nil {
		return fmt.Errorf("failed to delete object %s, %w", key, err)
	}

	return nil
}

func (s *SQLStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var rows []model.Object

	// substr instead of LIKE so ids are matched literally
	err := s.db.WithContext(ctx).
		Model(&model.Object{}).
		Select("object_key", "size", "version", "updated_at").
		Where("substr(object_key, 1, ?) = ?", len(prefix), prefix).
		Order("object_key").
		Find(&rows).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list objects under %s, %w", prefix, err)
	}

	infos := make([]ObjectInfo, 0, len(rows))
	for _, r := range rows {
		infos = append(infos, ObjectInfo{
			Key:          r.Key,
			Size:         r.Size,
			ETag:         sqlETag(r.Version),
			LastModified: r.UpdatedAt,
		})
	}

	return infos, nil
}
