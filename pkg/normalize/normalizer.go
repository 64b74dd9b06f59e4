package normalize

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"os"
)

// DefaultMaxFileSize bounds the size of a single source document.
const DefaultMaxFileSize = 50 << 20

// Config configures a Normalizer.
type Config struct {
	MaxFileSize int64
	Logger      *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Normalizer converts source documents into normalized lines.
type Normalizer struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Normalizer with the given configuration.
func New(cfg Config) *Normalizer {
	cfg.defaults()
	return &Normalizer{
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// NormalizeFile reads the document at path and returns its normalized lines.
// Every failure is returned as a *DocumentReadError.
func (n *Normalizer) NormalizeFile(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, &DocumentReadError{Path: path, Err: err}
	}

	format, err := Detect(path)
	if err != nil {
		return nil, &DocumentReadError{Path: path, Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &DocumentReadError{Path: path, Err: err}
	}
	if info.Size() > n.cfg.MaxFileSize {
		return nil, &DocumentReadError{
			Path: path,
			Err:  fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), n.cfg.MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DocumentReadError{Path: path, Err: err}
	}

	n.logger.Debug("normalizing document", "path", path, "format", format, "bytes", len(data))

	lines, err := n.Normalize(format, data)
	if err != nil {
		return nil, &DocumentReadError{Path: path, Err: err}
	}

	n.logger.Debug("normalized document", "path", path, "lines", len(lines))
	return lines, nil
}

// Normalize converts in-memory document content of the given format.
func (n *Normalizer) Normalize(format Format, data []byte) ([]string, error) {
	switch format {
	case FormatDocx:
		paragraphs, err := ReadDocx(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
		return Clean(Render(paragraphs)), nil
	case FormatHTML:
		paragraphs, err := ReadHTML(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return Clean(Render(paragraphs)), nil
	case FormatText:
		lines, err := ReadText(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return Clean(lines), nil
	default:
		return nil, fmt.Errorf("no reader for format: %s", format)
	}
}

// ReadText reads already-normalized text. Leftover character entities such
// as &amp; or &nbsp; are decoded.
func ReadText(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, html.UnescapeString(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}
	return lines, nil
}
