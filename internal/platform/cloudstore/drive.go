package cloudstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/yungbote/zahnovia-backend/internal/platform/gcp"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

const folderMimeType = "application/vnd.google-apps.folder"

type driveStore struct {
	log *logger.Logger
	svc *drive.Service
}

func NewDriveStore(ctx context.Context, log *logger.Logger, creds gcp.Credentials) (Store, error) {
	svc, err := drive.NewService(ctx, gcp.ClientOptions(ctx, creds, drive.DriveFileScope)...)
	if err != nil {
		return nil, fmt.Errorf("drive client: %w", err)
	}
	storeLog := log.With("store", "DriveStore")
	storeLog.Info("Google Drive storage initialized")
	return &driveStore{log: storeLog, svc: svc}, nil
}

func (s *driveStore) EnsureFolder(ctx context.Context, name, parentID string) (string, error) {
	q := fmt.Sprintf("name='%s' and mimeType='%s' and trashed=false", escapeQuery(name), folderMimeType)
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(parentID))
	}
	list, err := s.svc.Files.List().Q(q).Spaces("drive").Fields("files(id, name)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drive list: %w", err)
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	meta := &drive.File{Name: name, MimeType: folderMimeType}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}
	created, err := s.svc.Files.Create(meta).Fields("id, name").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drive create folder: %w", err)
	}
	s.log.Info("Created Drive folder", "name", name, "folder_id", created.Id)
	return created.Id, nil
}

func (s *driveStore) Upload(ctx context.Context, folderID, name, mimeType string, r io.Reader) (*StoredFile, error) {
	meta := &drive.File{Name: name}
	if folderID != "" {
		meta.Parents = []string{folderID}
	}
	created, err := s.svc.Files.Create(meta).
		Media(r, googleapi.ContentType(mimeType)).
		Fields("id, name, webViewLink, webContentLink").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("drive upload: %w", err)
	}
	return driveStoredFile(created, name), nil
}

func (s *driveStore) MakePublic(ctx context.Context, fileID string) error {
	perm := &drive.Permission{Role: "reader", Type: "anyone"}
	if _, err := s.svc.Permissions.Create(fileID, perm).Fields("id").Context(ctx).Do(); err != nil {
		return fmt.Errorf("drive permission: %w", err)
	}
	return nil
}

func (s *driveStore) Delete(ctx context.Context, fileID string) error {
	if err := s.svc.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 404 {
			return nil
		}
		return fmt.Errorf("drive delete: %w", err)
	}
	return nil
}

func driveStoredFile(f *drive.File, fallbackName string) *StoredFile {
	out := &StoredFile{
		ID:          f.Id,
		Name:        f.Name,
		ViewURL:     f.WebViewLink,
		DownloadURL: f.WebContentLink,
	}
	if out.Name == "" {
		out.Name = fallbackName
	}
	if out.ViewURL == "" {
		out.ViewURL = "https://drive.google.com/file/d/" + f.Id + "/view"
	}
	if out.DownloadURL == "" {
		out.DownloadURL = "https://drive.google.com/uc?id=" + f.Id + "&export=download"
	}
	return out
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
