package document

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font"

	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

// Renderer produces the declaration PDF and its HTML preview.
type Renderer struct {
	log     *logger.Logger
	content *Content

	// face caches glyphs and is not safe for concurrent use.
	mu   sync.Mutex
	face font.Face
}

func (r *Renderer) monogram(initials string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Monogram(r.face, initials)
}

// NewRenderer loads the embedded wording and the monogram font. fontPath may
// be empty.
func NewRenderer(log *logger.Logger, fontPath string) (*Renderer, error) {
	content, err := LoadContent()
	if err != nil {
		return nil, err
	}
	face, err := loadFontFace(fontPath, 110)
	if err != nil {
		return nil, fmt.Errorf("could not load monogram font: %w", err)
	}
	return &Renderer{log: log.With("component", "DeclarationRenderer"), content: content, face: face}, nil
}

func (r *Renderer) Content() *Content { return r.content }

var (
	workWidths     = []float64{12, 108, 25, 25}
	materialWidths = []float64{12, 38, 34, 42, 28, 16}
)

const (
	lineHeight = 5.0
	marginMM   = 20.0
)

// RenderPDF renders the declaration into memory.
func (r *Renderer) RenderPDF(v View) ([]byte, error) {
	mono, err := r.monogram(v.Initials)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(v.Number, true)
	pdf.SetAuthor(v.Company, true)
	pdf.SetCreator("Zahnovia", true)
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(true, marginMM)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("%s  |  %s  |  %d/{nb}", v.Number, r.content.Footer, pdf.PageNo())), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.RegisterImageOptionsReader("monogram", fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(mono))
	pdf.ImageOptions("monogram", marginMM, marginMM, 22, 22, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	pdf.SetXY(marginMM+26, marginMM+2)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(31, 95, 139)
	pdf.CellFormat(0, 6, tr(v.Company), "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 4.5, tr(v.AddressLine), "", 2, "L", false, 0, "")
	contact := joinNonEmpty("  |  ",
		prefixed(r.content.Labels.Phone, v.Phone),
		prefixed(r.content.Labels.Email, v.Email),
	)
	pdf.CellFormat(0, 4.5, tr(contact), "", 2, "L", false, 0, "")

	pdf.SetY(marginMM + 30)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 15)
	pdf.MultiCell(0, 7, tr(r.content.Title), "", "C", false)
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, tr(r.content.Subtitle), "", "C", false)
	pdf.Ln(5)

	l := r.content.Labels
	pdf.SetFont("Helvetica", "", 10)
	for _, kv := range [][2]string{
		{l.Number, v.Number},
		{l.JobNumber, v.JobNumber},
		{l.Patient, v.PatientName},
		{l.ManufactureDate, v.ManufactureDate},
		{l.Manufacturer, joinNonEmpty(", ", v.Company, v.AddressLine)},
		{l.Dentist, v.Dentist},
	} {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(50, 6, tr(kv[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 6, tr(kv[1]), "", "L", false)
	}
	pdf.Ln(4)

	r.table(pdf, tr, l.WorkItems, r.content.WorkColumns, workWidths, v.WorkRows)
	pdf.Ln(4)
	r.table(pdf, tr, l.Materials, r.content.MaterialColumns, materialWidths, v.MaterialRows)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 9)
	for _, s := range r.content.Statements {
		pdf.MultiCell(0, 4.5, tr(s), "", "J", false)
		pdf.Ln(1.5)
	}

	pdf.Ln(14)
	y := pdf.GetY()
	pdf.Line(marginMM, y, marginMM+70, y)
	pdf.Line(marginMM+100, y, marginMM+170, y)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(marginMM, y-6)
	pdf.CellFormat(70, 5, tr(joinNonEmpty(", ", v.City, v.IssuedOn)), "", 0, "L", false, 0, "")
	pdf.SetXY(marginMM, y+1)
	pdf.CellFormat(100, 5, tr(l.PlaceDate), "", 0, "L", false, 0, "")
	pdf.CellFormat(70, 5, tr(l.Signature), "", 1, "L", false, 0, "")

	if pdf.Err() {
		return nil, fmt.Errorf("render pdf: %w", pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) table(pdf *fpdf.Fpdf, tr func(string) string, title string, columns []string, widths []float64, rows [][]string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, tr(title), "", 1, "L", false, 0, "")

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 238, 245)
		for i, c := range columns {
			pdf.CellFormat(widths[i], 6, tr(c), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	header()

	if len(rows) == 0 {
		total := 0.0
		for _, w := range widths {
			total += w
		}
		pdf.CellFormat(total, 6, "-", "1", 1, "C", false, 0, "")
		return
	}

	_, pageH := pdf.GetPageSize()
	for _, row := range rows {
		lines := make([][]string, len(row))
		maxLines := 1
		for i, cell := range row {
			lines[i] = wrapText(pdf, tr(cell), widths[i]-2)
			if len(lines[i]) > maxLines {
				maxLines = len(lines[i])
			}
		}
		h := float64(maxLines) * lineHeight
		if pdf.GetY()+h > pageH-marginMM {
			pdf.AddPage()
			header()
		}

		x, y := pdf.GetX(), pdf.GetY()
		for i := range row {
			pdf.Rect(x, y, widths[i], h, "D")
			for j, ln := range lines[i] {
				pdf.SetXY(x+1, y+float64(j)*lineHeight)
				pdf.CellFormat(widths[i]-2, lineHeight, ln, "", 0, "L", false, 0, "")
			}
			x += widths[i]
		}
		pdf.SetXY(marginMM, y+h)
	}
}

// wrapText breaks already-translated text into lines no wider than w. It
// works on bytes because the core fonts use a single-byte encoding.
func wrapText(pdf *fpdf.Fpdf, s string, w float64) []string {
	var lines []string
	cur := ""
	for _, word := range strings.Fields(s) {
		for pdf.GetStringWidth(word) > w && len(word) > 1 {
			n := len(word) - 1
			for n > 1 && pdf.GetStringWidth(word[:n]) > w {
				n--
			}
			if cur != "" {
				lines = append(lines, cur)
				cur = ""
			}
			lines = append(lines, word[:n])
			word = word[n:]
		}
		switch {
		case cur == "":
			cur = word
		case pdf.GetStringWidth(cur+" "+word) <= w:
			cur += " " + word
		default:
			lines = append(lines, cur)
			cur = word
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

func prefixed(label, value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return label + ": " + value
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return strings.Join(out, sep)
}
