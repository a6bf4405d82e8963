// internal/adapters/out/gcs/metadata_repository_gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// MetadataRepositoryGCS は metadata.json を GCS に置き、公開 URL を返す。
// usecase.MetadataUploader の実装。
type MetadataRepositoryGCS struct {
	client *storage.Client
	bucket string
}

func NewMetadataRepositoryGCS(ctx context.Context, bucket, credentialsFile string) (*MetadataRepositoryGCS, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("gcs: bucket is empty")
	}

	var opts []option.ClientOption
	if credentialsFile = strings.TrimSpace(credentialsFile); credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: new client: %w", err)
	}

	log.Printf("[gcs] connected bucket=%s", bucket)
	return &MetadataRepositoryGCS{client: client, bucket: bucket}, nil
}

// UploadMetadata writes the JSON document and returns its public URL.
func (r *MetadataRepositoryGCS) UploadMetadata(ctx context.Context, objectName string, data []byte) (string, error) {
	if r == nil || r.client == nil {
		return "", errors.New("gcs: client is nil")
	}
	objectName = strings.TrimPrefix(strings.TrimSpace(objectName), "/")
	if objectName == "" {
		return "", errors.New("gcs: object name is empty")
	}

	w := r.client.Bucket(r.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/json"
	w.CacheControl = "public, max-age=3600"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs: write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs: close writer: %w", err)
	}

	url := fmt.Sprintf("https://storage.googleapis.com/%s/%s", r.bucket, objectName)
	log.Printf("[gcs] uploaded object=%s bytes=%d", objectName, len(data))
	return url, nil
}

func (r *MetadataRepositoryGCS) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
