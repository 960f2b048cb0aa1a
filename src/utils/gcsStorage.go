package utils

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/Inventra/Inventra-Backend/src/apperrors"
)

// GCSStorage implements ObjectStorage on a Google Cloud Storage bucket.
type GCSStorage struct {
	client *storage.Client
	bucket string
}

// NewGCSStorage opens a GCS client using the service account key referenced by
// GCS_CREDENTIALS_PATH (or application default credentials when unset) against
// the bucket named by GCS_BUCKET.
func NewGCSStorage(ctx context.Context) (*GCSStorage, error) {
	bucket := os.Getenv("GCS_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("GCS_BUCKET not present in .env")
	}

	var opts []option.ClientOption
	if credentialsPath := os.Getenv("GCS_CREDENTIALS_PATH"); credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	log.Println("[STORAGE] GCS client initialized for bucket", bucket)

	return &GCSStorage{client: client, bucket: bucket}, nil
}

func (s *GCSStorage) Put(ctx context.Context, key string, data []byte) (string, error) {
	writer := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = "application/octet-stream"

	if _, err := writer.Write(data); err != nil {
		return "", apperrors.NewStorageError(err, "error saving object %s to cloud storage", key)
	}
	if err := writer.Close(); err != nil {
		return "", apperrors.NewStorageError(err, "error saving object %s to cloud storage", key)
	}

	return key, nil
}

func (s *GCSStorage) Presign(ctx context.Context, key string, expires time.Duration) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(key, &storage.SignedURLOptions{
		Method:  http.MethodGet,
		Expires: time.Now().Add(expires),
	})
	if err != nil {
		return "", apperrors.NewStorageError(err, "error generating presigned URL for %s", key)
	}
	return url, nil
}

func (s *GCSStorage) Move(ctx context.Context, sourceKey, destinationKey string) (string, error) {
	source := s.client.Bucket(s.bucket).Object(sourceKey)
	destination := s.client.Bucket(s.bucket).Object(destinationKey)

	if _, err := destination.CopierFrom(source).Run(ctx); err != nil {
		return "", apperrors.NewStorageError(err, "error moving object from %s to %s", sourceKey, destinationKey)
	}
	if err := source.Delete(ctx); err != nil {
		return "", apperrors.NewStorageError(err, "error moving object from %s to %s", sourceKey, destinationKey)
	}

	return destinationKey, nil
}

func (s *GCSStorage) Download(ctx context.Context, key string) ([]byte, error) {
	reader, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError(err, "error downloading object %s", key)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperrors.NewStorageError(err, "error downloading object %s", key)
	}
	return data, nil
}
