package cloudstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/zahnovia-backend/internal/platform/gcp"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

// gcsStore maps folders onto object-name prefixes; GCS has no directories.
type gcsStore struct {
	log          *logger.Logger
	client       *storage.Client
	bucket       string
	emulatorHost string
}

func NewGCSStore(ctx context.Context, log *logger.Logger, bucket string, creds gcp.Credentials) (Store, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("gcs mode requires a bucket")
	}
	client, err := storage.NewClient(ctx, gcp.ClientOptions(ctx, creds, storage.ScopeFullControl)...)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	storeLog := log.With("store", "GCSStore")
	storeLog.Info("GCS storage initialized", "bucket", bucket)
	return &gcsStore{log: storeLog, client: client, bucket: bucket}, nil
}

// NewGCSEmulatorStore talks to a fake-gcs style emulator without credentials.
func NewGCSEmulatorStore(ctx context.Context, log *logger.Logger, bucket, emulatorHost string) (Store, error) {
	bucket = strings.TrimSpace(bucket)
	host := strings.TrimRight(strings.TrimSpace(emulatorHost), "/")
	if bucket == "" || host == "" {
		return nil, fmt.Errorf("gcs emulator mode requires a bucket and an emulator host")
	}
	// The storage client reads the emulator host from the environment.
	if err := os.Setenv("STORAGE_EMULATOR_HOST", host); err != nil {
		return nil, fmt.Errorf("set STORAGE_EMULATOR_HOST: %w", err)
	}
	client, err := storage.NewClient(ctx,
		option.WithoutAuthentication(),
		option.WithEndpoint(host+"/storage/v1/"),
	)
	if err != nil {
		return nil, fmt.Errorf("storage emulator client: %w", err)
	}
	storeLog := log.With("store", "GCSStore", "emulator", host)
	storeLog.Info("GCS emulator storage initialized", "bucket", bucket)
	return &gcsStore{log: storeLog, client: client, bucket: bucket, emulatorHost: host}, nil
}

func (s *gcsStore) EnsureFolder(_ context.Context, name, parentID string) (string, error) {
	name = strings.Trim(strings.ReplaceAll(name, "/", "-"), " ")
	if name == "" {
		return "", fmt.Errorf("empty folder name")
	}
	if parentID == "" {
		return name, nil
	}
	return path.Join(parentID, name), nil
}

func (s *gcsStore) Upload(ctx context.Context, folderID, name, mimeType string, r io.Reader) (*StoredFile, error) {
	key := name
	if folderID != "" {
		key = path.Join(folderID, name)
	}
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = mimeType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("gcs write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gcs close: %w", err)
	}
	link := s.publicURL(key)
	return &StoredFile{ID: key, Name: name, ViewURL: link, DownloadURL: link}, nil
}

func (s *gcsStore) MakePublic(ctx context.Context, fileID string) error {
	if s.emulatorHost != "" {
		// Emulator objects are always readable.
		return nil
	}
	if err := s.client.Bucket(s.bucket).Object(fileID).ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return fmt.Errorf("gcs acl: %w", err)
	}
	return nil
}

func (s *gcsStore) Delete(ctx context.Context, fileID string) error {
	err := s.client.Bucket(s.bucket).Object(fileID).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs delete: %w", err)
	}
	return nil
}

func (s *gcsStore) publicURL(key string) string {
	if s.emulatorHost != "" {
		return s.emulatorHost + "/storage/v1/b/" + url.PathEscape(s.bucket) + "/o/" + url.PathEscape(key) + "?alt=media"
	}
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return "https://storage.googleapis.com/" + s.bucket + "/" + strings.Join(parts, "/")
}
