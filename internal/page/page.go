package page

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"sync"

	"github.com/spf13/afero"

	"github.com/wichananm65/cooking-timer/internal/config"
)

// IndexName is the template served at the site root.
const IndexName = "index.html"

// IndexData is the full set of values index.html is rendered with.
type IndexData struct {
	FirebaseAPIKey string
}

// NewIndexData builds the render parameters from start-up configuration.
func NewIndexData(cfg config.Config) IndexData {
	return IndexData{FirebaseAPIKey: cfg.FirebaseKey()}
}

// Renderer renders a single template read from fs. The parsed template can be
// swapped by Reload while requests are being served.
type Renderer struct {
	fs   afero.Fs
	name string

	mu   sync.RWMutex
	tmpl *template.Template
}

func NewRenderer(fs afero.Fs, name string) (*Renderer, error) {
	r := &Renderer{fs: fs, name: name}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload parses the template again. On failure the previous template stays
// in use.
func (r *Renderer) Reload() error {
	b, err := afero.ReadFile(r.fs, r.name)
	if err != nil {
		return fmt.Errorf("read template %s: %w", r.name, err)
	}
	tmpl, err := template.New(r.name).Parse(string(b))
	if err != nil {
		return fmt.Errorf("parse template %s: %w", r.name, err)
	}
	// unknown fields only surface on execution; fail here rather than per request
	if err := tmpl.Execute(io.Discard, IndexData{}); err != nil {
		return fmt.Errorf("check template %s: %w", r.name, err)
	}

	r.mu.Lock()
	r.tmpl = tmpl
	r.mu.Unlock()
	return nil
}

func (r *Renderer) Render(w io.Writer, data IndexData) error {
	r.mu.RLock()
	tmpl := r.tmpl
	r.mu.RUnlock()

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render %s: %w", r.name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
