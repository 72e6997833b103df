package assets

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/stayvista/stayvista-api/internal/domain"
)

// MinioUploader stores image payloads in an S3-compatible bucket and returns
// public object URLs.
type MinioUploader struct {
	client   *minio.Client
	bucket   string
	maxBytes int64
	timeout  time.Duration
}

func NewMinioUploader(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, maxBytes int64, timeout time.Duration) (*MinioUploader, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	return &MinioUploader{client: client, bucket: bucket, maxBytes: maxBytes, timeout: timeout}, nil
}

// Upload pushes one image to the bucket. The size cap is enforced before any
// network call; the call itself carries a timeout so a stalled asset host
// cannot pin the request forever.
func (u *MinioUploader) Upload(ctx context.Context, img domain.ImageFile) (string, error) {
	if int64(len(img.Data)) > u.maxBytes {
		return "", &domain.UploadError{Err: domain.ErrImageTooLarge}
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	key := uuid.NewString() + extensionFor(img.ContentType)
	_, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(img.Data), int64(len(img.Data)), minio.PutObjectOptions{
		ContentType: img.ContentType,
	})
	if err != nil {
		return "", &domain.UploadError{Err: err}
	}

	return fmt.Sprintf("%s/%s/%s", u.client.EndpointURL(), u.bucket, key), nil
}

func extensionFor(contentType string) string {
	// Prefer the conventional extension over mime's alphabetical pick.
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
