package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates/*.html static
var content embed.FS

// Keys the renderer adds to the page context.
const (
	NonceKey        = "csp_nonce"
	SiteNameKey     = "site_name"
	LanguageCodeKey = "language_code"
)

// Renderer executes the embedded page templates with the helper FuncMap.
type Renderer struct {
	helpers *Helpers
	tmpl    *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer(h *Helpers) (*Renderer, error) {
	tmpl, err := template.New("").Funcs(h.FuncMap()).ParseFS(content, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{helpers: h, tmpl: tmpl}, nil
}

// Render executes the named page. The nonce is exposed to the layout so the
// inline meta tag and scripts satisfy the content security policy.
func (r *Renderer) Render(w io.Writer, name, nonce string, ctx map[string]any) error {
	data := make(map[string]any, len(ctx)+2)
	for k, v := range ctx {
		data[k] = v
	}
	data[NonceKey] = nonce
	data[SiteNameKey] = r.helpers.SiteName
	if _, ok := data[LanguageCodeKey]; !ok {
		data[LanguageCodeKey] = "en"
	}

	if err := r.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

// StaticFS returns the embedded static assets rooted at the static URL.
func StaticFS() fs.FS {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
