package mailer

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var frontmatterDelim = []byte("---")

// Document is a template file split into its YAML frontmatter and body.
type Document struct {
	Metadata map[string]any
	Body     string
}

// ParseDocument extracts optional frontmatter metadata from a template file.
// Content without a leading "---" line is returned whole as the body.
func ParseDocument(content []byte) (*Document, error) {
	if !bytes.HasPrefix(content, frontmatterDelim) {
		return &Document{Metadata: map[string]any{}, Body: string(content)}, nil
	}

	rest := bytes.TrimLeft(content[len(frontmatterDelim):], "\r\n")
	if len(rest) == 0 {
		return nil, fmt.Errorf("%w: no content after opening delimiter", ErrInvalidFrontmatter)
	}

	head, body, ok := bytes.Cut(rest, frontmatterDelim)
	if !ok {
		return nil, fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}
	switch {
	case bytes.HasPrefix(body, []byte("\r\n")):
		body = body[2:]
	case bytes.HasPrefix(body, []byte("\n")):
		body = body[1:]
	}

	metadata := map[string]any{}
	if len(bytes.TrimSpace(head)) > 0 {
		if err := yaml.Unmarshal(head, &metadata); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}

	return &Document{Metadata: metadata, Body: string(body)}, nil
}

// metaString returns a string metadata value, matching key case-insensitively.
func metaString(metadata map[string]any, key string) string {
	if v, ok := metadata[key].(string); ok {
		return v
	}
	for k, v := range metadata {
		if s, ok := v.(string); ok && strings.EqualFold(k, key) {
			return s
		}
	}
	return ""
}
