package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/domicch/life-in-uk/pkg/models"
)

var (
	// questionNumberPattern matches paragraphs that open with "N.".
	questionNumberPattern = regexp.MustCompile(`^\d+\.`)

	// imagePlaceholderPattern matches markdown image references such as
	// "![](media/image3.wmf)" left behind by document converters.
	imagePlaceholderPattern = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
)

// Render turns paragraphs into normalized lines. Emphasis handling depends on
// the role of the paragraph:
//
//   - a numbered question keeps no emphasis, even when the number or the whole
//     stem is bold, because bold there is formatting noise;
//   - a list item (or a paragraph starting with "-", or one that held an
//     image) is an answer option; bold is kept as "**text**" and a "- " prefix
//     is added when missing;
//   - anything else is explanatory text and loses its emphasis.
//
// Empty paragraphs are dropped.
func Render(paragraphs []Paragraph) []string {
	lines := make([]string, 0, len(paragraphs))
	for _, paragraph := range paragraphs {
		if line := renderParagraph(paragraph); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func renderParagraph(paragraph Paragraph) string {
	plain := stripImages(paragraph.PlainText())
	if plain == "" {
		return ""
	}

	if questionNumberPattern.MatchString(plain) {
		return plain
	}

	if paragraph.ListItem || paragraph.HasImage || strings.HasPrefix(plain, "-") {
		line := stripImages(paragraph.emphasized())
		if line == "" {
			return ""
		}
		if !strings.HasPrefix(line, "-") {
			line = "- " + line
		}
		return line
	}

	return plain
}

// emphasized renders the paragraph with bold segments wrapped in the
// emphasis marker. Surrounding whitespace stays outside the marker.
func (p Paragraph) emphasized() string {
	var builder strings.Builder
	for _, segment := range p.Segments {
		core := strings.TrimFunc(segment.Text, unicode.IsSpace)
		if !segment.Bold || core == "" {
			builder.WriteString(segment.Text)
			continue
		}
		leading := segment.Text[:len(segment.Text)-len(strings.TrimLeftFunc(segment.Text, unicode.IsSpace))]
		trailing := segment.Text[len(strings.TrimRightFunc(segment.Text, unicode.IsSpace)):]
		builder.WriteString(leading)
		builder.WriteString(models.EmphasisMarker)
		builder.WriteString(core)
		builder.WriteString(models.EmphasisMarker)
		builder.WriteString(trailing)
	}
	return collapseSpace(builder.String())
}

// Clean removes image placeholders, collapses whitespace (including
// non-breaking spaces) and drops empty lines.
func Clean(lines []string) []string {
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = stripImages(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return cleaned
}

func stripImages(text string) string {
	return collapseSpace(imagePlaceholderPattern.ReplaceAllString(text, ""))
}

// collapseSpace trims the text and replaces every whitespace run with a
// single space. unicode.IsSpace covers U+00A0.
func collapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
