package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// Unconditional writes above this size go through the multipart uploader
const minMultipartSize = 12 << 20

// Bucket is an ObjectStore backed by an S3 compatible bucket (AWS S3 or
// Cloudflare R2). Conditional writes map onto If-Match / If-None-Match.
type Bucket struct {
	c        *s3.Client
	bucket   string
	uploader *manager.Uploader
}

func NewBucket(c *s3.Client, bucket string) *Bucket {
	return &Bucket{
		c:      c,
		bucket: bucket,
		uploader: manager.NewUploader(c, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		}),
	}
}

// translateError turns S3 error codes into the package's sentinel errors
func translateError(err error) error {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return ErrNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return ErrNotFound
		case "PreconditionFailed", "ConditionalRequestConflict":
			return ErrPreconditionFailed
		}
	}

	return err
}

func (b *Bucket) Get(ctx context.Context, key string) (*Object, error) {
	out, err := b.c.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if err := translateError(err); errors.Is(err, ErrNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to get object %s, %w", key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s, %w", key, err)
	}

	return &Object{
		ObjectInfo: ObjectInfo{
			Key:          key,
			Size:         int64(len(body)),
			ETag:         aws.ToString(out.ETag),
			LastModified: aws.ToTime(out.LastModified),
		},
		ContentType: aws.ToString(out.ContentType),
		Body:        body,
	}, nil
}

func (b *Bucket) Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   body,
	}

	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}

	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	conditional := opts.IfMatch != "" || opts.IfNoneMatch
	if opts.IfMatch != "" {
		input.IfMatch = aws.String(opts.IfMatch)
	}

	if opts.IfNoneMatch {
		input.IfNoneMatch = aws.String("*")
	}

	if !conditional && size > minMultipartSize {
		zap.L().Debug("Using multipart upload", zap.String("key", key), zap.Int64("size", size))

		out, err := b.uploader.Upload(ctx, input)
		if err != nil {
			return "", fmt.Errorf("failed to upload object %s, %w", key, err)
		}

		return aws.ToString(out.ETag), nil
	}

	out, err := b.c.PutObject(ctx, input)
	if err != nil {
		if err := translateError(err); errors.Is(err, ErrPreconditionFailed) {
			return "", err
		}

		return "", fmt.Errorf("failed to put object %s, %w", key, err)
	}

	return aws.ToString(out.ETag), nil
}

func (b *Bucket) Delete(ctx context.Context, key string) error {
	_, err := b.c.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if err := translateError(err); errors.Is(err, ErrNotFound) {
			return nil
		}

		return fmt.Errorf("failed to delete object %s, %w", key, err)
	}

	return nil
}

func (b *Bucket) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	p := s3.NewListObjectsV2Paginator(b.c, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})

	infos := []ObjectInfo{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects under %s, %w", prefix, err)
		}

		for _, o := range page.Contents {
			infos = append(infos, ObjectInfo{
				Key:          aws.ToString(o.Key),
				Size:         aws.ToInt64(o.Size),
				ETag:         aws.ToString(o.ETag),
				LastModified: aws.ToTime(o.LastModified),
			})
		}
	}

	return infos, nil
}
