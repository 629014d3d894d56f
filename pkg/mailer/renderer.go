package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/dmitrymomot/mailshot/pkg/sanitizer"
)

// Renderer turns body templates (HTML or markdown with YAML frontmatter)
// into HTML, optionally wrapped in an HTML layout.
type Renderer struct {
	fs fs.FS
	md goldmark.Markdown

	// Caches hold parsed structure, never rendered output.
	templateCache map[string]*cachedTemplate
	layoutCache   map[string]*template.Template

	mu sync.RWMutex
}

type cachedTemplate struct {
	metadata map[string]any
	tmpl     *texttemplate.Template
	markdown bool
}

// NewRenderer creates a renderer reading templates and layouts from filesystem.
func NewRenderer(filesystem fs.FS) *Renderer {
	return &Renderer{
		fs: filesystem,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			// Keep raw HTML written into markdown templates.
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		templateCache: make(map[string]*cachedTemplate),
		layoutCache:   make(map[string]*template.Template),
	}
}

// RenderResult contains the rendered HTML, plain text, and template metadata.
type RenderResult struct {
	Metadata map[string]any
	HTML     string
	Text     string
}

// Render executes the named body template with data. Markdown bodies
// (.md, .markdown) are converted to HTML. When layout is non-empty the body is
// passed to it as .Content.
func (r *Renderer) Render(layout, name string, data any) (*RenderResult, error) {
	cached, err := r.getTemplate(name)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if err := cached.tmpl.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, name, err)
	}

	var htmlBody, text string
	if cached.markdown {
		var out bytes.Buffer
		if err := r.md.Convert(body.Bytes(), &out); err != nil {
			return nil, fmt.Errorf("%w: convert markdown: %v", ErrRenderFailed, err)
		}
		htmlBody = out.String()
		text = body.String()
	} else {
		htmlBody = body.String()
		text = sanitizer.StripHTML(htmlBody)
	}

	if layout != "" {
		layoutTmpl, err := r.getLayout(layout)
		if err != nil {
			return nil, err
		}
		var out bytes.Buffer
		err = layoutTmpl.Execute(&out, map[string]any{
			"Content":  template.HTML(htmlBody),
			"Metadata": cached.metadata,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: execute layout: %v", ErrRenderFailed, err)
		}
		htmlBody = out.String()
	}

	return &RenderResult{
		Metadata: cached.metadata,
		HTML:     htmlBody,
		Text:     text,
	}, nil
}

// Metadata returns the frontmatter of the named template.
func (r *Renderer) Metadata(name string) (map[string]any, error) {
	cached, err := r.getTemplate(name)
	if err != nil {
		return nil, err
	}
	return cached.metadata, nil
}

func (r *Renderer) getTemplate(name string) (*cachedTemplate, error) {
	r.mu.RLock()
	cached, ok := r.templateCache[name]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.templateCache[name]; ok {
		return cached, nil
	}

	content, err := fs.ReadFile(r.fs, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, name, err)
	}

	doc, err := ParseDocument(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	tmpl, err := texttemplate.New(name).Option("missingkey=error").Parse(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrRenderFailed, name, err)
	}

	cached = &cachedTemplate{
		metadata: doc.Metadata,
		tmpl:     tmpl,
		markdown: isMarkdown(name),
	}
	r.templateCache[name] = cached
	return cached, nil
}

func (r *Renderer) getLayout(name string) (*template.Template, error) {
	r.mu.RLock()
	cached, ok := r.layoutCache[name]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.layoutCache[name]; ok {
		return cached, nil
	}

	content, err := fs.ReadFile(r.fs, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLayoutNotFound, name, err)
	}

	layoutTmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse layout %s: %v", ErrRenderFailed, name, err)
	}

	r.layoutCache[name] = layoutTmpl
	return layoutTmpl, nil
}

func isMarkdown(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}
