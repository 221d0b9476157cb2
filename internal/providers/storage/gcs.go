package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/smallbiznis/frontdesk/internal/config"
	"google.golang.org/api/option"
)

const gcsScheme = "gs://"

type GCSStorage struct {
	client *gcs.Client
	bucket string
}

// NewGCSStorage prefers explicit credentials JSON and otherwise uses
// application default credentials.
func NewGCSStorage(ctx context.Context, bucket, credentialsJSON string) (*GCSStorage, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("storage bucket is required")
	}

	var opts []option.ClientOption
	if creds := strings.TrimSpace(credentialsJSON); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStorage{client: client, bucket: bucket}, nil
}

func (s *GCSStorage) Backend() string {
	return config.StorageBackendGCS
}

func (s *GCSStorage) Put(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return gcsScheme + s.bucket + "/" + name, nil
}

func (s *GCSStorage) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	name := strings.TrimPrefix(ref, gcsScheme+s.bucket+"/")
	r, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	return r, err
}

func (s *GCSStorage) Close() error {
	return s.client.Close()
}
