package document

import (
	_ "embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
)

//go:embed assets/preview.html.tmpl
var previewSource string

var previewTemplate = template.Must(template.New("preview").Parse(previewSource))

type previewData struct {
	View     View
	Content  *Content
	Monogram template.URL
}

// RenderHTML writes the browser preview of the declaration.
func (r *Renderer) RenderHTML(w io.Writer, v View) error {
	mono, err := r.monogram(v.Initials)
	if err != nil {
		return err
	}
	data := previewData{
		View:     v,
		Content:  r.content,
		Monogram: template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(mono)),
	}
	if err := previewTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render preview: %w", err)
	}
	return nil
}
