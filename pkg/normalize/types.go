// Package normalize converts exam source documents into plain text lines,
// one per paragraph or list item, with bold runs rewritten as "**text**".
//
// Supported formats:
//   - .docx: Word documents (archive/zip, word/document.xml)
//   - .html: converter output with <p>, <ul>/<li> and <strong>/<b>
//   - .txt and .md: text that is already normalized
package normalize

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a source document type.
type Format string

const (
	FormatDocx Format = "docx"
	FormatHTML Format = "html"
	FormatText Format = "txt"
)

// Detect returns the document format based on the file extension.
func Detect(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return FormatDocx, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".txt", ".md", ".text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported format: %q", filepath.Ext(path))
	}
}

// Segment is a run of text sharing the same emphasis.
type Segment struct {
	Text string
	Bold bool
}

// Paragraph is one structural unit of a source document.
type Paragraph struct {
	Segments []Segment
	// ListItem is set for list paragraphs; only their emphasis is kept.
	ListItem bool
	// HasImage is set when an embedded image was dropped from the paragraph.
	HasImage bool
}

func (p *Paragraph) add(text string, bold bool) {
	if text == "" {
		return
	}
	if n := len(p.Segments); n > 0 && p.Segments[n-1].Bold == bold {
		p.Segments[n-1].Text += text
		return
	}
	p.Segments = append(p.Segments, Segment{Text: text, Bold: bold})
}

// PlainText returns the paragraph text without any emphasis markers.
func (p Paragraph) PlainText() string {
	var builder strings.Builder
	for _, segment := range p.Segments {
		builder.WriteString(segment.Text)
	}
	return collapseSpace(builder.String())
}

// DocumentReadError reports a source document that could not be opened or
// parsed. The batch skips the document and continues.
type DocumentReadError struct {
	Path string
	Err  error
}

func (e *DocumentReadError) Error() string {
	return fmt.Sprintf("reading document %s: %v", e.Path, e.Err)
}

func (e *DocumentReadError) Unwrap() error {
	return e.Err
}
