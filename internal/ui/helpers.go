// Package ui renders the HTML fragments shared by every page: the <title>
// element, the Tailwind CSS stylesheet tag and the embedded base layout.
package ui

import (
	"html"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/eugenenazirov/tawala/internal/postinit"
)

// DefaultSeparator joins the page title and the site name.
const DefaultSeparator = " | "

// Context keys read by Title and PageTitle.
const (
	TitleKey     = "title"
	PageTitleKey = "page_title"
)

const (
	fallbackStylesheet = "ui/css/tailwind.css"
	fallbackScript     = "ui/js/tailwindcss.js"
)

// Helpers holds the read-only inputs of the template helpers.
type Helpers struct {
	SiteName       string
	StaticURL      string
	TailwindSource string
	TailwindOutput string
}

// NewHelpers takes the helper inputs from the post-init accessor.
func NewHelpers(a *postinit.Accessor) *Helpers {
	return &Helpers{
		SiteName:       a.SiteName,
		StaticURL:      a.StaticURL,
		TailwindSource: a.TailwindSource,
		TailwindOutput: a.TailwindOutput,
	}
}

// Title renders <title> from an optional name (falling back to ctx["title"])
// and the site name. The optional second argument replaces the separator.
func (h *Helpers) Title(ctx any, args ...string) template.HTML {
	return h.title(ctx, TitleKey, args)
}

// PageTitle is Title reading ctx["page_title"].
func (h *Helpers) PageTitle(ctx any, args ...string) template.HTML {
	return h.title(ctx, PageTitleKey, args)
}

func (h *Helpers) title(ctx any, key string, args []string) template.HTML {
	name, separator := "", DefaultSeparator
	if len(args) > 0 {
		name = args[0]
	}
	if len(args) > 1 {
		separator = args[1]
	}
	if name == "" {
		name = contextString(ctx, key)
	}

	full := h.SiteName
	if name != "" {
		full = name
		if h.SiteName != "" {
			full += separator + h.SiteName
		}
	}
	return template.HTML("<title>" + html.EscapeString(full) + "</title>")
}

// Stylesheet links the compiled Tailwind CSS when the source stylesheet
// exists, and otherwise loads the bundled Tailwind browser script. The file
// system is checked on every call.
func (h *Helpers) Stylesheet() template.HTML {
	info, err := os.Stat(h.TailwindSource)
	if h.TailwindSource == "" || err != nil || !info.Mode().IsRegular() {
		return template.HTML("<script defer src='" + h.Static(fallbackScript) + "'></script>")
	}
	return template.HTML("<link rel='stylesheet' href='" + h.Static(h.stylesheetPath()) + "' />")
}

// stylesheetPath is the output file relative to its nearest "static" ancestor.
func (h *Helpers) stylesheetPath() string {
	if h.TailwindOutput == "" {
		return fallbackStylesheet
	}
	output := filepath.Clean(h.TailwindOutput)
	dir := filepath.Dir(output)
	for filepath.Base(dir) != "static" {
		parent := filepath.Dir(dir)
		if parent == dir {
			return fallbackStylesheet
		}
		dir = parent
	}
	rel, err := filepath.Rel(dir, output)
	if err != nil {
		return fallbackStylesheet
	}
	return filepath.ToSlash(rel)
}

// Static joins name onto the static URL.
func (h *Helpers) Static(name string) string {
	base := h.StaticURL
	if base == "" {
		base = "/static/"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.TrimPrefix(path.Clean("/"+name), "/")
}

// FuncMap exposes the helpers to html/template as title, page_title,
// tailwindcss and static.
func (h *Helpers) FuncMap() template.FuncMap {
	return template.FuncMap{
		"title":       h.Title,
		"page_title":  h.PageTitle,
		"tailwindcss": h.Stylesheet,
		"static":      h.Static,
	}
}

func contextString(ctx any, key string) string {
	m, ok := ctx.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
