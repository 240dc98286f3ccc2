package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/yungbote/zahnovia-backend/internal/modules/declarations/extraction"
	"github.com/yungbote/zahnovia-backend/internal/platform/apierr"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
	"github.com/yungbote/zahnovia-backend/internal/platform/pdftext"
)

// ExtractionService prefills the declaration form from a reference PDF.
type ExtractionService interface {
	ParseReferencePDF(ctx context.Context, data []byte) (*extraction.Result, error)
}

// PDFReader yields the text of a PDF, OCRing it when needed.
type PDFReader interface {
	Read(ctx context.Context, data []byte) (*pdftext.Document, error)
}

type extractionService struct {
	log    *logger.Logger
	reader PDFReader
	engine *extraction.Engine
}

func NewExtractionService(log *logger.Logger, reader PDFReader, engine *extraction.Engine) ExtractionService {
	if engine == nil {
		engine = extraction.New()
	}
	return &extractionService{log: log.With("service", "ExtractionService"), reader: reader, engine: engine}
}

func extractionFailed(msg string) error {
	return apierr.New(http.StatusBadRequest, "extraction_failed", errors.New(msg))
}

// ParseReferencePDF never fails on missing fields; only an unreadable file or
// an aborted extraction is an error.
func (es *extractionService) ParseReferencePDF(ctx context.Context, data []byte) (*extraction.Result, error) {
	if _, err := requestUserID(ctx); err != nil {
		return nil, err
	}
	doc, err := es.reader.Read(ctx, data)
	switch {
	case errors.Is(err, pdftext.ErrNotPDF):
		return nil, extractionFailed("Bitte laden Sie eine PDF-Datei hoch.")
	case err != nil:
		es.log.Warn("Reference PDF unreadable", "error", err)
		return nil, extractionFailed("Die PDF-Datei konnte nicht gelesen werden.")
	}

	res, err := es.engine.Extract(doc.Text)
	if err != nil {
		es.log.Error("Reference PDF extraction aborted", "error", err)
		return nil, extractionFailed("Fehler beim Verarbeiten der PDF-Datei.")
	}
	es.log.Debug("Reference PDF parsed",
		"pages", doc.PageCount,
		"source", doc.Source,
		"strategies", res.Sources,
		"work_items", len(res.WorkItems),
		"materials", len(res.Materials),
	)
	return &res, nil
}
