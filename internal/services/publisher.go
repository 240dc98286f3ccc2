package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/zahnovia-backend/internal/domain"
	"github.com/yungbote/zahnovia-backend/internal/modules/declarations/document"
	"github.com/yungbote/zahnovia-backend/internal/observability"
	"github.com/yungbote/zahnovia-backend/internal/platform/cloudstore"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

const (
	declarationsFolder = "Declarations"
	archiveFolder      = "Archive"
	pdfMIMEType        = "application/pdf"
)

// DocumentRenderer turns a declaration view into its printable forms.
type DocumentRenderer interface {
	RenderPDF(v document.View) ([]byte, error)
	RenderHTML(w io.Writer, v document.View) error
}

type StorageConfig struct {
	RootFolderID string
	Timeout      time.Duration
	Metrics      *observability.Metrics
}

// cloudFiles wraps the optional cloud store with the folder layout and the
// per-call timeout. A nil store reports cloudstore.ErrNotConfigured.
type cloudFiles struct {
	log   *logger.Logger
	store cloudstore.Store
	cfg   StorageConfig
}

func newCloudFiles(log *logger.Logger, store cloudstore.Store, cfg StorageConfig) *cloudFiles {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &cloudFiles{log: log, store: store, cfg: cfg}
}

// put uploads data below root/folder/<owner> and makes it publicly readable.
// Names are only unique per owner, so every owner gets a folder of their own.
func (c *cloudFiles) put(ctx context.Context, ownerID uuid.UUID, folder, name string, data []byte) (f *cloudstore.StoredFile, err error) {
	if c.store == nil {
		return nil, cloudstore.ErrNotConfigured
	}
	start := time.Now()
	defer func() { c.cfg.Metrics.ObserveUpload(folder, time.Since(start), err) }()
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	folderID, err := cloudstore.EnsurePath(ctx, c.store, c.cfg.RootFolderID, folder, ownerID.String())
	if err != nil {
		return nil, fmt.Errorf("ensure folder %q: %w", folder, err)
	}
	f, err = c.store.Upload(ctx, folderID, name, pdfMIMEType, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("upload %q: %w", name, err)
	}
	if shareErr := c.store.MakePublic(ctx, f.ID); shareErr != nil {
		if delErr := c.store.Delete(ctx, f.ID); delErr != nil {
			c.log.Warn("Unshared cloud file left behind", "file_id", f.ID, "error", delErr)
		}
		return nil, fmt.Errorf("share %q: %w", name, shareErr)
	}
	return f, nil
}

// remove deletes a cloud file and only logs failures.
func (c *cloudFiles) remove(ctx context.Context, fileID string) {
	if c.store == nil || fileID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	if err := c.store.Delete(ctx, fileID); err != nil {
		c.log.Warn("Cloud file delete failed", "file_id", fileID, "error", err)
	}
}

type declarationPublisher struct {
	renderer DocumentRenderer
	files    *cloudFiles
	now      Clock
	loc      *time.Location
}

// publish renders the declaration and uploads it as <number>.pdf.
func (p *declarationPublisher) publish(ctx context.Context, d *types.Declaration, profile *types.ManufacturerProfile) (*cloudstore.StoredFile, error) {
	data, err := p.renderer.RenderPDF(p.view(d, profile))
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return p.files.put(ctx, d.UserID, declarationsFolder, d.FileName(), data)
}

func (p *declarationPublisher) view(d *types.Declaration, profile *types.ManufacturerProfile) document.View {
	return document.NewView(d, profile, p.now().In(p.loc))
}

// publishWarning is the message shown next to a saved declaration whose PDF
// could not be published.
func publishWarning(err error) string {
	if errors.Is(err, cloudstore.ErrNotConfigured) {
		return "Cloud-Speicher ist nicht eingerichtet. Das PDF wurde nicht hochgeladen."
	}
	return "Die Erklärung wurde gespeichert, aber das PDF konnte nicht hochgeladen werden."
}
