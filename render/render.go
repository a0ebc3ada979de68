// Package render fills request templates (URL, body and header values) from
// a per-scan context.
//
// The rest package only depends on the Renderer interface. TemplateRenderer
// is the default implementation: Go text/template with the sprig function
// library and a bounded cache of parsed templates.
package render

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Renderer renders template text against a context map.
// Implementations MUST be goroutine-safe.
type Renderer interface {
	// Render returns the rendered text with surrounding whitespace trimmed.
	// Failures are returned as *FormatError.
	Render(text string, data map[string]any) (string, error)
}

// FormatError reports a template that failed to parse or execute.
type FormatError struct {
	Template string
	Err      error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("render %q: %v", e.Template, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// DefaultCacheSize is the number of parsed templates kept by NewTemplateRenderer
// when a non-positive size is requested.
const DefaultCacheSize = 512

// TemplateRenderer renders text/template templates.
//
// Missing keys render as their zero value, so optional context entries
// (projects, filters, bound field values) can be tested with {{if}} or
// {{with}}. All sprig functions are available, e.g.
//
//	/orders?offset={{.offset}}&limit={{.limit}}{{with .region}}&region={{. | urlquery}}{{end}}
type TemplateRenderer struct {
	cache *lru.Cache[string, *template.Template]
	funcs template.FuncMap
}

// NewTemplateRenderer creates a renderer caching up to cacheSize parsed templates.
func NewTemplateRenderer(cacheSize int) *TemplateRenderer {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	// lru.New only fails for non-positive sizes
	cache, _ := lru.New[string, *template.Template](cacheSize)
	return &TemplateRenderer{
		cache: cache,
		funcs: sprig.TxtFuncMap(),
	}
}

// Render implements Renderer.
func (r *TemplateRenderer) Render(text string, data map[string]any) (string, error) {
	tmpl, err := r.parse(text)
	if err != nil {
		return "", &FormatError{Template: text, Err: err}
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", &FormatError{Template: text, Err: err}
	}
	return strings.TrimSpace(sb.String()), nil
}

func (r *TemplateRenderer) parse(text string) (*template.Template, error) {
	if tmpl, ok := r.cache.Get(text); ok {
		return tmpl, nil
	}
	tmpl, err := template.New("request").Option("missingkey=zero").Funcs(r.funcs).Parse(text)
	if err != nil {
		return nil, err
	}
	r.cache.Add(text, tmpl)
	return tmpl, nil
}
