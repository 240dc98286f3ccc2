package cloudstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/yungbote/zahnovia-backend/internal/platform/gcp"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

const (
	ModeDrive       = "drive"
	ModeGCS         = "gcs"
	ModeGCSEmulator = "gcs_emulator"
	ModeNone        = "none"
)

// StoredFile describes an uploaded object and its shareable links.
type StoredFile struct {
	ID          string
	Name        string
	ViewURL     string
	DownloadURL string
}

// Store is the cloud-storage collaborator. Folder ids are opaque: Drive
// file ids for the Drive backend, object prefixes for GCS.
type Store interface {
	EnsureFolder(ctx context.Context, name, parentID string) (string, error)
	Upload(ctx context.Context, folderID, name, mimeType string, r io.Reader) (*StoredFile, error)
	MakePublic(ctx context.Context, fileID string) error
	Delete(ctx context.Context, fileID string) error
}

type Config struct {
	Mode string `yaml:"mode"`
	// RootFolderID pins the top-level folder. When empty the root folder is
	// looked up by RootFolder name and created if missing.
	RootFolderID string        `yaml:"root_folder_id"`
	RootFolder   string        `yaml:"root_folder"`
	Bucket       string        `yaml:"bucket"`
	EmulatorHost string        `yaml:"emulator_host"`
	Timeout      time.Duration `yaml:"timeout"`
}

var ErrNotConfigured = errors.New("cloud storage not configured")

// New returns nil with no error in "none" mode; callers treat a nil Store as
// "uploads disabled".
func New(ctx context.Context, log *logger.Logger, cfg Config, creds gcp.Credentials) (Store, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	switch NormalizeMode(cfg.Mode) {
	case ModeDrive:
		return NewDriveStore(ctx, log, creds)
	case ModeGCS:
		return NewGCSStore(ctx, log, cfg.Bucket, creds)
	case ModeGCSEmulator:
		return NewGCSEmulatorStore(ctx, log, cfg.Bucket, cfg.EmulatorHost)
	default:
		log.Warn("Cloud storage disabled; generated PDFs will not be uploaded")
		return nil, nil
	}
}

// EnsurePath walks names below rootID, creating each missing folder, and
// returns the id of the last one.
func EnsurePath(ctx context.Context, store Store, rootID string, names ...string) (string, error) {
	if store == nil {
		return "", ErrNotConfigured
	}
	parent := rootID
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, err := store.EnsureFolder(ctx, name, parent)
		if err != nil {
			return "", fmt.Errorf("ensure folder %q: %w", name, err)
		}
		parent = id
	}
	return parent, nil
}

var (
	driveFilePathRe = regexp.MustCompile(`/file/d/([A-Za-z0-9_-]+)`)
)

// FileIDFromURL recovers a Drive file id from a view or download link.
func FileIDFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if m := driveFilePathRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Query().Get("id")
}
