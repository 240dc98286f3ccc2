// Package pdftext turns uploaded PDF bytes into plain text for the
// declaration field extractor.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

const (
	SourceTextLayer = "text_layer"
	SourceOCR       = "ocr"
)

var (
	ErrNotPDF     = errors.New("file is not a PDF")
	ErrUnreadable = errors.New("PDF could not be read")
)

// OCR recognizes text in a PDF that has no text layer.
type OCR interface {
	OCRPDF(ctx context.Context, data []byte) (string, error)
}

type Document struct {
	Text      string
	PageCount int
	Source    string
}

type Reader struct {
	log *logger.Logger
	ocr OCR
}

// New builds a Reader. ocr may be nil.
func New(log *logger.Logger, ocr OCR) *Reader {
	return &Reader{log: log.With("component", "pdftext"), ocr: ocr}
}

// IsPDF checks the magic header only.
func IsPDF(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, []byte("%PDF-"))
}

// Validate parses the document structure with pdfcpu and returns the page
// count.
func Validate(data []byte) (int, error) {
	if !IsPDF(data) {
		return 0, ErrNotPDF
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return ctx.PageCount, nil
}

// Read extracts text row by row. When the text layer is empty and an OCR
// backend is configured the document is OCRed instead.
func (r *Reader) Read(ctx context.Context, data []byte) (*Document, error) {
	if !IsPDF(data) {
		return nil, ErrNotPDF
	}
	text, pages, err := TextLayer(data)
	if err != nil {
		return nil, err
	}
	doc := &Document{Text: text, PageCount: pages, Source: SourceTextLayer}
	if strings.TrimSpace(text) != "" || r.ocr == nil {
		return doc, nil
	}

	r.log.Info("PDF has no text layer, running OCR", "pages", pages)
	ocrText, err := r.ocr.OCRPDF(ctx, data)
	if err != nil {
		r.log.Warn("OCR failed; continuing with empty text", "error", err)
		return doc, nil
	}
	doc.Text = ocrText
	doc.Source = SourceOCR
	return doc, nil
}

// TextLayer reads every page with ledongthuc/pdf. The parser panics on some
// malformed streams, so panics are reported as ErrUnreadable.
func TextLayer(data []byte) (text string, pages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, pages, err = "", 0, fmt.Errorf("%w: %v", ErrUnreadable, rec)
		}
	}()

	rd, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	var sb strings.Builder
	pages = rd.NumPage()
	for i := 1; i <= pages; i++ {
		page := rd.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", 0, fmt.Errorf("%w: page %d: %v", ErrUnreadable, i, err)
		}
		for _, row := range rows {
			line := joinRow(row.Content)
			if strings.TrimSpace(line) == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String(), pages, nil
}

// joinRow glues the text runs of one row back together. Runs are often
// single glyphs, so the horizontal gap decides the separator: none inside a
// word, one space between words and two between table columns.
func joinRow(runs pdf.TextHorizontal) string {
	var sb strings.Builder
	var prevEnd float64
	for i, t := range runs {
		if t.S == "" {
			continue
		}
		if i > 0 && sb.Len() > 0 {
			gap := t.X - prevEnd
			size := t.FontSize
			if size <= 0 {
				size = 10
			}
			switch {
			case gap > size*1.5:
				sb.WriteString("  ")
			case gap > size*0.15:
				sb.WriteString(" ")
			}
		}
		sb.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return strings.TrimSpace(sb.String())
}
