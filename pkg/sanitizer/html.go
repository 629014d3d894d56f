// Package sanitizer decides how untrusted values are placed into HTML mail bodies.
package sanitizer

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Policy names how substituted values are treated before they reach an HTML body.
type Policy string

const (
	// PolicyEscape HTML-escapes values so markup is shown literally.
	PolicyEscape Policy = "escape"

	// PolicySanitize keeps basic formatting tags and strips everything dangerous.
	PolicySanitize Policy = "sanitize"

	// PolicyTrusted inserts values verbatim. The caller asserts the values are safe.
	PolicyTrusted Policy = "trusted"
)

// ErrUnknownPolicy is returned by ParsePolicy for unsupported names.
var ErrUnknownPolicy = fmt.Errorf("sanitizer: unknown policy")

var (
	strictPolicy *bluemonday.Policy
	safePolicy   *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		// StrictPolicy strips ALL HTML, returns plain text
		strictPolicy = bluemonday.StrictPolicy()

		// SafePolicy allows basic formatting for recipient-supplied content
		safePolicy = bluemonday.NewPolicy()
		safePolicy.AllowStandardURLs()
		safePolicy.AllowElements(
			"p", "br",
			"strong", "b", "em", "i",
			"ul", "ol", "li",
		)
		safePolicy.AllowAttrs("href").OnElements("a")
		safePolicy.RequireNoFollowOnLinks(true)
	})
}

// ParsePolicy converts a configuration value into a Policy.
// An empty string yields PolicyEscape.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyEscape, nil
	case PolicyEscape, PolicySanitize, PolicyTrusted:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Apply transforms s according to the policy.
// Unknown policies fall back to escaping.
func Apply(p Policy, s string) string {
	switch p {
	case PolicyTrusted:
		return s
	case PolicySanitize:
		return SanitizeHTML(s)
	default:
		return html.EscapeString(s)
	}
}

// SanitizeHTML allows safe formatting tags (p, a, strong, em, lists).
// Strips scripts, event handlers and javascript: URLs.
func SanitizeHTML(s string) string {
	initPolicies()
	return safePolicy.Sanitize(s)
}

// StripHTML removes all markup and returns plain text.
// Entities are decoded so the result is readable in a terminal.
func StripHTML(s string) string {
	initPolicies()
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
