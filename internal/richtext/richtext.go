// Package richtext cleans user-submitted HTML from the post editor before
// it is stored or rendered.
package richtext

import (
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// policy allows the formatting a rich-text editor produces (paragraphs,
// lists, links, images, tables, code) and strips scripts, event handlers
// and style injection.
var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Sanitize returns s with every disallowed element and attribute removed.
func Sanitize(s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}

// IsBlank reports whether sanitized HTML has no visible text and no images.
// An editor often submits "<p><br></p>" for an empty document.
func IsBlank(s string) bool {
	if strings.Contains(s, "<img") {
		return false
	}
	text := bluemonday.StrictPolicy().Sanitize(s)
	text = strings.ReplaceAll(text, "&nbsp;", "")
	return strings.TrimSpace(text) == ""
}

// HTML marks already sanitized content as safe for templates.
func HTML(s string) template.HTML {
	return template.HTML(s)
}
