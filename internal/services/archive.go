package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	"gorm.io/gorm"

	"github.com/yungbote/zahnovia-backend/internal/data/repos"
	types "github.com/yungbote/zahnovia-backend/internal/domain"
	"github.com/yungbote/zahnovia-backend/internal/domain/archive"
	"github.com/yungbote/zahnovia-backend/internal/platform/apierr"
	"github.com/yungbote/zahnovia-backend/internal/platform/cloudstore"
	"github.com/yungbote/zahnovia-backend/internal/platform/dbctx"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
	"github.com/yungbote/zahnovia-backend/internal/platform/pdftext"
)

var errDuplicateDocument = apierr.New(http.StatusConflict, "duplicate_document",
	errors.New("Dieses Dokument wurde bereits archiviert."))

type ArchiveInput struct {
	Title          string `json:"title" form:"title" validate:"required,max=200"`
	Category       string `json:"category" form:"category" validate:"required,oneof=invoice delivery_note certificate declaration instructions other"`
	CustomCategory string `json:"custom_category" form:"custom_category" validate:"required_if=Category other,max=100"`
	DocumentDate   string `json:"document_date" form:"document_date"`
}

type ArchiveFilter struct {
	Category string
	Year     int
	Limit    int
	Offset   int
}

type ArchiveService interface {
	Upload(ctx context.Context, in ArchiveInput, fileName string, data []byte) (*types.ArchivedDocument, error)
	List(ctx context.Context, f ArchiveFilter) ([]*types.ArchivedDocument, int64, error)
	Get(ctx context.Context, id uuid.UUID) (*types.ArchivedDocument, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type archiveService struct {
	log          *logger.Logger
	documentRepo repos.ArchivedDocumentRepo
	files        *cloudFiles
}

func NewArchiveService(log *logger.Logger, documentRepo repos.ArchivedDocumentRepo, store cloudstore.Store, cfg StorageConfig) ArchiveService {
	serviceLog := log.With("service", "ArchiveService")
	return &archiveService{
		log:          serviceLog,
		documentRepo: documentRepo,
		files:        newCloudFiles(serviceLog, store, cfg),
	}
}

// ContentHash is the dedup key of an archived file.
func ContentHash(data []byte) string {
	sum := xxh3.Hash128(data).Bytes()
	return hex.EncodeToString(sum[:])
}

// Upload accepts PDFs only. The same bytes can be archived once per user.
func (as *archiveService) Upload(ctx context.Context, in ArchiveInput, fileName string, data []byte) (*types.ArchivedDocument, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.CustomCategory = strings.TrimSpace(in.CustomCategory)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Category != string(archive.CategoryOther) {
		in.CustomCategory = ""
	}

	var docDate *time.Time
	if raw := strings.TrimSpace(in.DocumentDate); raw != "" {
		t, err := time.Parse(inputDateLayout, raw)
		if err != nil {
			return nil, fieldError("document_date", "Ungültiges Datum (erwartet JJJJ-MM-TT).")
		}
		docDate = &t
	}

	if len(data) == 0 || !pdftext.IsPDF(data) {
		return nil, fieldError("file", "Nur PDF-Dateien sind erlaubt.")
	}
	pages, err := pdftext.Validate(data)
	if err != nil {
		as.log.Debug("Archive upload rejected", "user_id", userID, "error", err)
		return nil, fieldError("file", "Die PDF-Datei ist beschädigt oder kann nicht gelesen werden.")
	}

	hash := ContentHash(data)
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := as.documentRepo.GetByHash(dbc, userID, hash); err == nil {
		return nil, errDuplicateDocument
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}

	name := archiveFileName(fileName)
	docID := uuid.New()
	// Several uploads may share a file name, the stored object may not.
	stored, err := as.files.put(ctx, userID, archiveFolder, docID.String()+"_"+name, data)
	if err != nil {
		as.log.Warn("Archive upload failed", "user_id", userID, "error", err)
		if errors.Is(err, cloudstore.ErrNotConfigured) {
			return nil, apierr.New(http.StatusServiceUnavailable, "storage_unavailable", errors.New("Cloud-Speicher ist nicht eingerichtet."))
		}
		return nil, apierr.New(http.StatusBadGateway, "upload_failed", errors.New("Das Dokument konnte nicht hochgeladen werden."))
	}

	doc := &types.ArchivedDocument{
		ID:             docID,
		UserID:         userID,
		Title:          in.Title,
		Category:       archive.Category(in.Category),
		CustomCategory: in.CustomCategory,
		DocumentDate:   docDate,
		FileName:       name,
		FileID:         stored.ID,
		FileURL:        stored.ViewURL,
		ContentHash:    hash,
		PageCount:      pages,
		SizeBytes:      int64(len(data)),
	}
	if err := as.documentRepo.Create(dbc, doc); err != nil {
		as.files.remove(ctx, stored.ID)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errDuplicateDocument
		}
		return nil, fmt.Errorf("create archived document: %w", err)
	}
	as.log.Info("Document archived", "user_id", userID, "document_id", doc.ID, "pages", pages)
	return doc, nil
}

func archiveFileName(name string) string {
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		name = "dokument"
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

func (as *archiveService) List(ctx context.Context, f ArchiveFilter) ([]*types.ArchivedDocument, int64, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, 0, err
	}
	filter := repos.ArchiveListFilter{Year: f.Year, Limit: f.Limit, Offset: f.Offset}
	if c := archive.Category(strings.TrimSpace(f.Category)); c != "" {
		if !c.Valid() {
			return nil, 0, fieldError("category", "Unbekannte Kategorie.")
		}
		filter.Category = c
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	docs, total, err := as.documentRepo.List(dbctx.Context{Ctx: ctx}, userID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list archive: %w", err)
	}
	return docs, total, nil
}

func (as *archiveService) Get(ctx context.Context, id uuid.UUID) (*types.ArchivedDocument, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := as.documentRepo.GetByID(dbctx.Context{Ctx: ctx}, userID, id)
	if err != nil {
		return nil, notFound(err, "document")
	}
	return doc, nil
}

func (as *archiveService) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := as.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := as.documentRepo.Delete(dbctx.Context{Ctx: ctx}, doc.UserID, id); err != nil {
		return notFound(err, "document")
	}
	as.log.Info("Archived document deleted", "user_id", doc.UserID, "document_id", id)
	fileID := doc.FileID
	if fileID == "" {
		fileID = cloudstore.FileIDFromURL(doc.FileURL)
	}
	as.files.remove(ctx, fileID)
	return nil
}
