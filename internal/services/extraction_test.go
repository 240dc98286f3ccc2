package services

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/zahnovia-backend/internal/data/repos/testutil"
	"github.com/yungbote/zahnovia-backend/internal/platform/pdftext"
)

type stubReader struct {
	text string
	err  error
}

func (r stubReader) Read(context.Context, []byte) (*pdftext.Document, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &pdftext.Document{Text: r.text, PageCount: 1, Source: pdftext.SourceTextLayer}, nil
}

func TestParseReferencePDF(t *testing.T) {
	text := "Auftragsnummer: A-2026-17\nErstellungsdatum: 01.02.2026\nMaterialname: CERECMTLZirconia\nCharge 20260101-222705\n"
	svc := NewExtractionService(testutil.Logger(t), stubReader{text: text}, nil)

	res, err := svc.ParseReferencePDF(asUser(uuid.New()), []byte("%PDF-"))
	require.NoError(t, err)
	require.Equal(t, "A-2026-17", res.JobNumber)
	require.Equal(t, "2026-02-01", res.ManufactureDate)
	require.NotEmpty(t, res.Materials)
	require.Contains(t, res.Materials[0].Material, "CEREC MTL Zirconia")
	require.Equal(t, "222705", res.Materials[0].LotNumber)
}

func TestParseReferencePDFWithoutMatchesIsEmpty(t *testing.T) {
	svc := NewExtractionService(testutil.Logger(t), stubReader{text: "nothing to see"}, nil)

	res, err := svc.ParseReferencePDF(asUser(uuid.New()), []byte("%PDF-"))
	require.NoError(t, err)
	require.Empty(t, res.JobNumber)
	require.NotNil(t, res.WorkItems)
	require.Empty(t, res.WorkItems)
	require.NotNil(t, res.Materials)
}

func TestParseReferencePDFUnreadable(t *testing.T) {
	for _, readErr := range []error{pdftext.ErrNotPDF, fmt.Errorf("%w: xref", pdftext.ErrUnreadable)} {
		svc := NewExtractionService(testutil.Logger(t), stubReader{err: readErr}, nil)
		_, err := svc.ParseReferencePDF(asUser(uuid.New()), []byte("garbage"))
		ae := requireAPIError(t, err, http.StatusBadRequest, "extraction_failed")
		require.NotEmpty(t, ae.Error())
	}
}
