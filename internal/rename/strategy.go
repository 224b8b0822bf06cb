package rename

import "strings"

// DefaultAnchor is the form label printed directly below the subject's name.
const DefaultAnchor = "Nombre(s) Primer apellido Segundo apellido"

// NameStrategy locates the subject's name in the text of a document's first page.
type NameStrategy interface {
	Extract(text string) (string, bool)
}

// AnchorLineStrategy returns the line immediately above the first line that
// contains Anchor. An anchor on the very first line has nothing above it and
// is ignored.
type AnchorLineStrategy struct {
	Anchor string
}

// Extract implements NameStrategy.
func (s AnchorLineStrategy) Extract(text string) (string, bool) {
	if text == "" || s.Anchor == "" {
		return "", false
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 && strings.Contains(line, s.Anchor) {
			return strings.TrimSpace(lines[i-1]), true
		}
	}
	return "", false
}

// ExtractName applies the default anchor strategy.
func ExtractName(text string) (string, bool) {
	return AnchorLineStrategy{Anchor: DefaultAnchor}.Extract(text)
}
