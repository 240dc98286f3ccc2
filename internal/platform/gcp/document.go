package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yungbote/zahnovia-backend/internal/platform/ctxutil"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

type DocumentAIConfig struct {
	ProjectID   string        `yaml:"project_id"`
	Location    string        `yaml:"location"`
	ProcessorID string        `yaml:"processor_id"`
	Timeout     time.Duration `yaml:"timeout"`
}

func (c DocumentAIConfig) Enabled() bool {
	return strings.TrimSpace(c.ProjectID) != "" && strings.TrimSpace(c.ProcessorID) != ""
}

// DocumentOCR runs PDFs through a Document AI OCR processor.
type DocumentOCR struct {
	log       *logger.Logger
	client    *documentai.DocumentProcessorClient
	processor string
	timeout   time.Duration
}

func NewDocumentOCR(ctx context.Context, log *logger.Logger, cfg DocumentAIConfig, creds Credentials) (*DocumentOCR, error) {
	location := strings.TrimSpace(cfg.Location)
	if location == "" {
		location = "eu"
	}
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)

	// Document AI needs the regional endpoint.
	opts := append([]option.ClientOption{option.WithEndpoint(endpoint)}, ClientOptions(ctx, creds)...)
	c, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ocrLog := log.With("service", "gcp.DocumentOCR")
	ocrLog.Info("Document AI initialized", "endpoint", endpoint)
	return &DocumentOCR{
		log:       ocrLog,
		client:    c,
		processor: processorName(cfg.ProjectID, location, cfg.ProcessorID),
		timeout:   timeout,
	}, nil
}

func (s *DocumentOCR) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// OCRPDF returns the recognized text followed by every detected table as
// pipe-separated rows. One retry is made on transient gRPC errors.
func (s *DocumentOCR) OCRPDF(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	req := &documentaipb.ProcessRequest{
		Name: s.processor,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{Content: data, MimeType: "application/pdf"},
		},
	}

	var (
		resp *documentaipb.ProcessResponse
		err  error
	)
	for attempt := 0; attempt < 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctxutil.Default(ctx), s.timeout)
		resp, err = s.client.ProcessDocument(callCtx, req)
		cancel()
		if err == nil || !transient(err) {
			break
		}
		s.log.Warn("Document AI transient error, retrying", "error", err)
	}
	if err != nil {
		return "", fmt.Errorf("documentai ProcessDocument: %w", err)
	}
	if resp == nil || resp.Document == nil {
		return "", nil
	}
	return documentText(resp.Document), nil
}

func transient(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	default:
		return false
	}
}

func documentText(doc *documentaipb.Document) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(doc.Text))
	for _, p := range doc.Pages {
		if p == nil {
			continue
		}
		for _, t := range p.Tables {
			if t == nil {
				continue
			}
			rows := append(append([]*documentaipb.Document_Page_Table_TableRow{}, t.HeaderRows...), t.BodyRows...)
			for _, r := range rows {
				cells := tableRowToCells(doc.Text, r)
				if len(cells) == 0 {
					continue
				}
				b.WriteString("\n| ")
				b.WriteString(strings.Join(cells, " | "))
				b.WriteString(" |")
			}
		}
	}
	return b.String()
}

func textFromAnchor(full string, anchor *documentaipb.Document_TextAnchor) string {
	if anchor == nil || full == "" {
		return ""
	}
	var b strings.Builder
	for _, seg := range anchor.TextSegments {
		if seg == nil {
			continue
		}
		start, end := int(seg.StartIndex), int(seg.EndIndex)
		if start < 0 {
			start = 0
		}
		if end > len(full) {
			end = len(full)
		}
		if start < end {
			b.WriteString(full[start:end])
		}
	}
	return b.String()
}

func tableRowToCells(full string, r *documentaipb.Document_Page_Table_TableRow) []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Cells))
	for _, c := range r.Cells {
		if c == nil || c.Layout == nil {
			out = append(out, "")
			continue
		}
		cell := strings.Join(strings.Fields(textFromAnchor(full, c.Layout.TextAnchor)), " ")
		out = append(out, strings.ReplaceAll(cell, "|", "/"))
	}
	return out
}

func processorName(project, location, processorID string) string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		strings.TrimSpace(project), strings.TrimSpace(location), strings.TrimSpace(processorID))
}
