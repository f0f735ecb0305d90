// Package format reshapes raw gateway output into display lines.
package format

import (
	"regexp"
	"strings"
)

const separator = " / "

var (
	numberedMarker = regexp.MustCompile(`\d+\.[ \t]`)
	headers        = []string{
		"**English Translation:**",
		"**Extracted Japanese Text:**",
	}
	headerPattern = compileHeaders(headers)
)

// compileHeaders matches any header together with all whitespace around it.
func compileHeaders(names []string) *regexp.Regexp {
	quoted := make([]string, 0, len(names))
	for _, h := range names {
		quoted = append(quoted, regexp.QuoteMeta(h))
	}
	return regexp.MustCompile(`\s*(` + strings.Join(quoted, "|") + `)\s*`)
}

// Translation applies the display rules. Applying it to its own output is a no-op.
func Translation(text string) string {
	text = strings.ReplaceAll(text, separator, "\n")
	text = breakBeforeMarkers(text)
	text = headerPattern.ReplaceAllString(text, "\n\n${1}\n")
	return strings.TrimSpace(trimLineEnds(text))
}

// breakBeforeMarkers puts each numbered marker on its own line unless it
// already starts one. A marker glued to a digit or dot ("3.5. ") is part of a
// number, not a list item.
func breakBeforeMarkers(text string) string {
	matches := numberedMarker.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + len(matches))
	last := 0
	for _, m := range matches {
		start := m[0]
		b.WriteString(text[last:start])
		if start > 0 && !keepsMarkerInline(text[start-1]) {
			b.WriteByte('\n')
		}
		last = start
	}
	b.WriteString(text[last:])
	return b.String()
}

func keepsMarkerInline(prev byte) bool {
	return prev == '\n' || prev == '.' || (prev >= '0' && prev <= '9')
}

func trimLineEnds(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.Join(lines, "\n")
}
