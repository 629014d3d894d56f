package mailer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"

	"github.com/dmitrymomot/mailshot/pkg/sanitizer"
)

// Data is the per-recipient template data: the recipient name and email plus
// every extra column of the recipient table, keyed by header.
type Data map[string]string

// Content is one recipient's rendered subject and body.
type Content struct {
	Subject string
	HTML    string
	Text    string
}

// Campaign renders the same subject and body templates for many recipients.
// The templates are parsed once; values substituted into the body pass
// through the configured HTML policy first.
type Campaign struct {
	renderer *Renderer
	template string
	layout   string
	policy   sanitizer.Policy
	subject  *texttemplate.Template
}

// LoadCampaign creates a Campaign from files on disk. The layout path is
// resolved relative to the template's directory.
func LoadCampaign(cfg Config) (*Campaign, error) {
	if cfg.Template == "" {
		return nil, fmt.Errorf("%w: no template configured", ErrTemplateNotFound)
	}
	dir, name := filepath.Split(filepath.Clean(cfg.Template))
	if dir == "" {
		dir = "."
	}
	cfg.Template = name
	cfg.Layout = filepath.ToSlash(cfg.Layout)
	return NewCampaign(NewRenderer(os.DirFS(dir)), cfg)
}

// NewCampaign creates a Campaign over renderer. Templates are parsed eagerly
// so a broken template fails before any message is sent.
//
// Subject resolution: cfg.Subject > frontmatter Subject > cfg.FallbackSubject.
func NewCampaign(renderer *Renderer, cfg Config) (*Campaign, error) {
	policy, err := sanitizer.ParsePolicy(cfg.HTMLPolicy)
	if err != nil {
		return nil, err
	}
	if cfg.Template == "" {
		return nil, fmt.Errorf("%w: no template configured", ErrTemplateNotFound)
	}

	metadata, err := renderer.Metadata(cfg.Template)
	if err != nil {
		return nil, err
	}
	if cfg.Layout != "" {
		if _, err := renderer.getLayout(cfg.Layout); err != nil {
			return nil, err
		}
	}

	subject := cfg.Subject
	if subject == "" {
		subject = metaString(metadata, "Subject")
	}
	if subject == "" {
		subject = cfg.FallbackSubject
	}
	if strings.TrimSpace(subject) == "" {
		return nil, ErrNoSubject
	}

	subjectTmpl, err := texttemplate.New("subject").Option("missingkey=error").Parse(subject)
	if err != nil {
		return nil, fmt.Errorf("%w: parse subject: %v", ErrRenderFailed, err)
	}

	return &Campaign{
		renderer: renderer,
		template: cfg.Template,
		layout:   cfg.Layout,
		policy:   policy,
		subject:  subjectTmpl,
	}, nil
}

// Policy reports the HTML policy applied to substituted body values.
func (c *Campaign) Policy() sanitizer.Policy {
	return c.policy
}

// Render produces the subject and body for one recipient.
// The subject is plain text and receives raw values.
func (c *Campaign) Render(data Data) (*Content, error) {
	var subject strings.Builder
	if err := c.subject.Execute(&subject, data); err != nil {
		return nil, fmt.Errorf("%w: subject: %v", ErrRenderFailed, err)
	}

	body := make(Data, len(data))
	for k, v := range data {
		body[k] = sanitizer.Apply(c.policy, v)
	}

	res, err := c.renderer.Render(c.layout, c.template, body)
	if err != nil {
		return nil, err
	}

	return &Content{
		Subject: subject.String(),
		HTML:    res.HTML,
		Text:    res.Text,
	}, nil
}
