package handlers

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"quill/internal/slug"
)

// Validation limits for post fields.
const (
	maxTitleLen = 200
	maxTagLen   = 100
)

const msgRequired = "This field is required."

// validateTitle checks the post title and returns an error message or "".
func validateTitle(title string) string {
	if title == "" {
		return msgRequired
	}
	if n := utf8.RuneCountInString(title); n > maxTitleLen {
		return fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", maxTitleLen, n)
	}
	return ""
}

// parseTags splits free-text tag input into a sorted, de-duplicated list
// of names. Double quotes group words into one tag. Outside quotes, names
// are separated by commas when the input contains a loose comma and by
// spaces otherwise, so "go web" yields two tags and "web dev, go" two as
// well. Names that map to the same slug are kept once.
func parseTags(input string) ([]string, string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ""
	}

	var (
		words      []string
		loose      []string
		buf        strings.Builder
		looseComma bool
	)

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c != '"' {
			if c == ',' {
				looseComma = true
			}
			buf.WriteRune(c)
			continue
		}

		// Look for the closing quote; an unmatched quote is literal text.
		end := -1
		for j := i + 1; j < len(runes); j++ {
			if runes[j] == '"' {
				end = j
				break
			}
		}
		if end == -1 {
			buf.WriteRune(c)
			continue
		}

		if buf.Len() > 0 {
			loose = append(loose, buf.String())
			buf.Reset()
		}
		if quoted := strings.TrimSpace(string(runes[i+1 : end])); quoted != "" {
			words = append(words, quoted)
		}
		i = end
	}
	if buf.Len() > 0 {
		loose = append(loose, buf.String())
	}

	sep := " "
	if looseComma {
		sep = ","
	}
	for _, chunk := range loose {
		for _, w := range strings.Split(chunk, sep) {
			if w = strings.TrimSpace(strings.Trim(strings.TrimSpace(w), `"`)); w != "" {
				words = append(words, w)
			}
		}
	}

	seen := make(map[string]bool, len(words))
	var tags []string
	for _, w := range words {
		if utf8.RuneCountInString(w) > maxTagLen {
			return nil, fmt.Sprintf("Tag names can be at most %d characters long.", maxTagLen)
		}
		s := slug.Generate(w)
		if s == "" {
			return nil, fmt.Sprintf("Tag %q must contain at least one letter or digit.", w)
		}
		// Ligatures and similar runes expand when folded.
		if len(s) > maxTagLen {
			return nil, fmt.Sprintf("Tag %q is too long once converted to a URL.", w)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		tags = append(tags, w)
	}
	sort.Strings(tags)
	return tags, ""
}

// formatTags renders tag names back into the input format accepted by
// parseTags. Names with commas or spaces are quoted.
func formatTags(names []string) string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.ContainsAny(n, ", ") {
			n = `"` + n + `"`
		}
		out = append(out, n)
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}
