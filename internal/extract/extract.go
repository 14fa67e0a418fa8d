// Package extract turns uploaded job-description documents into text and
// structured postings. Extraction is a collaborator interface so richer
// format support (PDF, Word) can be plugged in; the plaintext extractor
// covers .txt and .md uploads.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrUnsupported is returned for document formats the extractor cannot
// read.
var ErrUnsupported = errors.New("unsupported document format")

// Document is an uploaded file as the channel received it.
type Document struct {
	Filename string
	Data     []byte
}

// Extractor produces plain text from an uploaded document.
type Extractor interface {
	Extract(ctx context.Context, doc *Document) (string, error)
}

// Plaintext reads .txt and .md uploads as-is.
type Plaintext struct{}

func (Plaintext) Extract(_ context.Context, doc *Document) (string, error) {
	ext := strings.ToLower(filepath.Ext(doc.Filename))
	switch ext {
	case ".txt", ".md", ".text", "":
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
	if !utf8.Valid(doc.Data) {
		return "", fmt.Errorf("%w: not valid text", ErrUnsupported)
	}
	return string(doc.Data), nil
}
