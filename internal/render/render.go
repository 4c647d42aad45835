// Package render turns form data into HTML, PDF and plain-text documents.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"strings"

	"mintslip-workers/internal/common/errors"
	"mintslip-workers/internal/common/metrics"
	"mintslip-workers/internal/documents"
)

//go:embed templates
var templateFS embed.FS

// Options tune a single render.
type Options struct {
	Watermark   string  `json:"watermark,omitempty"`
	Scale       float64 `json:"scale,omitempty"`
	LogoDataURI string  `json:"logoDataUri,omitempty"`
}

type pageData struct {
	Title     string
	Watermark string
	Scale     float64
	Scaled    bool
	LogoURL   template.URL
	Doc       interface{}
}

// Renderer holds one parsed template set per document type and template.
type Renderer struct {
	templates map[string]*template.Template
}

var funcs = template.FuncMap{
	"money":   money,
	"percent": money,
	"signed":  signed,
	"abs":     math.Abs,
	"join":    strings.Join,
}

// NewRenderer parses every embedded template. It fails only if a template
// shipped with the binary is broken.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template)}
	for _, docType := range documents.Types() {
		def, err := documents.Lookup(string(docType))
		if err != nil {
			return nil, err
		}
		for _, tid := range def.Templates {
			t, err := template.New("layout").Funcs(funcs).ParseFS(templateFS,
				"templates/layout.html",
				fmt.Sprintf("templates/%s/%s.html", docType, tid),
			)
			if err != nil {
				return nil, fmt.Errorf("parse template %s/%s: %w", docType, tid, err)
			}
			r.templates[key(docType, tid)] = t
		}
	}
	return r, nil
}

func key(docType documents.DocumentType, templateID string) string {
	return string(docType) + "/" + templateID
}

// Render produces the HTML for docType in templateID. Blank fields render as
// placeholders, so the only expected failure is an unknown type or template.
func (r *Renderer) Render(docType, templateID string, form documents.FormData, opts Options) (string, error) {
	def, view, tid, err := prepare(docType, templateID, form)
	if err != nil {
		return "", err
	}
	t, ok := r.templates[key(def.Type, tid)]
	if !ok {
		return "", errors.NewTemplateNotFoundError(docType, tid)
	}

	logo := opts.LogoDataURI
	if logo == "" {
		logo = form["logoDataUri"]
	}
	page := pageData{
		Title:     def.Title,
		Watermark: strings.TrimSpace(opts.Watermark),
		Scale:     opts.Scale,
		Scaled:    opts.Scale > 0 && opts.Scale != 1,
		LogoURL:   safeLogo(logo),
		Doc:       view,
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", page); err != nil {
		return "", errors.NewRenderFailedError(err)
	}
	metrics.DocumentsRendered.WithLabelValues(string(def.Type), "html").Inc()
	return buf.String(), nil
}

func prepare(docType, templateID string, form documents.FormData) (*documents.Definition, interface{}, string, error) {
	def, err := documents.Lookup(docType)
	if err != nil {
		return nil, nil, "", err
	}
	tid, err := def.ResolveTemplate(templateID)
	if err != nil {
		return nil, nil, "", err
	}
	if form == nil {
		form = documents.FormData{}
	}
	view, err := buildView(def.Type, form)
	if err != nil {
		return nil, nil, "", errors.NewTemplateNotFoundError(docType, tid)
	}
	return def, view, tid, nil
}

// safeLogo only lets base64 PNG or JPEG data URIs through to the src attribute.
func safeLogo(uri string) template.URL {
	for _, prefix := range []string{"data:image/png;base64,", "data:image/jpeg;base64,"} {
		if strings.HasPrefix(uri, prefix) && len(uri) > len(prefix) {
			return template.URL(uri)
		}
	}
	return ""
}

func money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	s := fmt.Sprintf("%.2f", v)
	if s == "-0.00" {
		return "0.00"
	}
	return s
}

func signed(v float64) string {
	if v < 0 {
		return "-$" + money(-v)
	}
	return "+$" + money(v)
}
