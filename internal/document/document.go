// Package document analyses every line of a text document and aggregates
// the per-line dim ranges for rendering.
package document

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Document is an immutable snapshot of a text file split into lines.
type Document struct {
	Path  string
	Lines []string
}

// New splits text into lines. A trailing "\r" is dropped from every line so
// CRLF files analyse like LF files.
func New(path, text string) *Document {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return &Document{Path: path, Lines: lines}
}

// Read reads a whole document from r.
func Read(r io.Reader, path string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return New(path, string(data)), nil
}

// Load reads the document at path.
func Load(path string) (*Document, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is the user's document
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Read(f, path)
}

// Len returns the number of lines.
func (d *Document) Len() int { return len(d.Lines) }

// Name returns the path, or "<stdin>" for unnamed documents.
func (d *Document) Name() string {
	if d.Path == "" || d.Path == "-" {
		return "<stdin>"
	}
	return d.Path
}
