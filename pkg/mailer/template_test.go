package mailer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		metadata map[string]any
		body     string
	}{
		{
			name:     "with frontmatter",
			content:  "---\nSubject: Sponsorship opportunity\nAuthor: Events team\n---\nDear {{.Name}},\n\nPlease find our brochure attached.\n",
			metadata: map[string]any{"Subject": "Sponsorship opportunity", "Author": "Events team"},
			body:     "Dear {{.Name}},\n\nPlease find our brochure attached.\n",
		},
		{
			name:     "without frontmatter",
			content:  "<p>Dear {{.Name}},</p>",
			metadata: map[string]any{},
			body:     "<p>Dear {{.Name}},</p>",
		},
		{
			name:     "empty frontmatter",
			content:  "---\n---\nBody content here.",
			metadata: map[string]any{},
			body:     "Body content here.",
		},
		{
			name:     "whitespace frontmatter",
			content:  "---\n\n---\nBody content.",
			metadata: map[string]any{},
			body:     "Body content.",
		},
		{
			name:     "windows line endings",
			content:  "---\r\nSubject: Test\r\n---\r\nBody",
			metadata: map[string]any{"Subject": "Test"},
			body:     "Body",
		},
		{
			name:     "empty body",
			content:  "---\nSubject: Test\n---\n",
			metadata: map[string]any{"Subject": "Test"},
			body:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc, err := ParseDocument([]byte(tt.content))
			require.NoError(t, err)
			require.Equal(t, tt.metadata, doc.Metadata)
			require.Equal(t, tt.body, doc.Body)
		})
	}
}

func TestParseDocument_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"missing closing delimiter": "---\nSubject: Test\nBody without closing delimiter",
		"nothing after opening":     "---",
		"invalid yaml":              "---\nSubject: Test\nTags: [unclosed\n---\nBody",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			doc, err := ParseDocument([]byte(content))
			require.ErrorIs(t, err, ErrInvalidFrontmatter)
			require.Nil(t, doc)
		})
	}
}

func TestMetaString(t *testing.T) {
	t.Parallel()

	meta := map[string]any{"subject": "lower", "Priority": 3}

	require.Equal(t, "lower", metaString(meta, "Subject"))
	require.Empty(t, metaString(meta, "Priority"))
	require.Empty(t, metaString(meta, "Missing"))
	require.Equal(t, "exact", metaString(map[string]any{"Subject": "exact", "subject": "lower"}, "Subject"))
}
