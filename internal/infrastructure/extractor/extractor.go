// Package extractor turns stored corpus files into the title, opening text
// and body fields the search index holds.
package extractor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
	"github.com/kirillkom/dialogue-qa/internal/core/ports"
)

const defaultMaxBytes = 32 << 20

type Extractor struct {
	storage  ports.ObjectStorage
	maxBytes int64
}

func New(storage ports.ObjectStorage, maxBytes int64) *Extractor {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Extractor{storage: storage, maxBytes: maxBytes}
}

type format int

const (
	formatPlain format = iota
	formatHTML
	formatPDF
	formatXLSX
)

func detectFormat(doc *domain.Document) format {
	mime := strings.ToLower(doc.MimeType)
	switch {
	case strings.Contains(mime, "html"):
		return formatHTML
	case strings.Contains(mime, "pdf"):
		return formatPDF
	case strings.Contains(mime, "spreadsheetml"):
		return formatXLSX
	}
	switch strings.ToLower(filepath.Ext(doc.Filename)) {
	case ".html", ".htm":
		return formatHTML
	case ".pdf":
		return formatPDF
	case ".xlsx":
		return formatXLSX
	}
	return formatPlain
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (domain.ExtractedText, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return domain.ExtractedText{}, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(io.LimitReader(reader, e.maxBytes+1))
	if err != nil {
		return domain.ExtractedText{}, fmt.Errorf("read source document: %w", err)
	}
	if int64(len(raw)) > e.maxBytes {
		return domain.ExtractedText{}, domain.WrapError(domain.ErrInvalidInput, "read source document", fmt.Errorf("file exceeds %d bytes", e.maxBytes))
	}

	switch detectFormat(doc) {
	case formatHTML:
		return extractHTML(raw)
	case formatPDF:
		return extractPDF(raw)
	case formatXLSX:
		return extractXLSX(raw)
	default:
		return extractPlain(raw, doc.Filename)
	}
}

func extractPlain(raw []byte, filename string) (domain.ExtractedText, error) {
	if !utf8.Valid(raw) {
		return domain.ExtractedText{}, domain.WrapError(domain.ErrInvalidInput, "extract plain text", fmt.Errorf("unsupported binary format: %s", filename))
	}
	return fromParagraphs("", splitParagraphs(string(raw))), nil
}

var blankLine = regexp.MustCompile(`\n\s*\n`)

// splitParagraphs splits on blank lines and collapses whitespace inside each
// paragraph.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range blankLine.Split(text, -1) {
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fromParagraphs(title string, paragraphs []string) domain.ExtractedText {
	if len(paragraphs) == 0 {
		return domain.ExtractedText{Title: title}
	}
	return domain.ExtractedText{
		Title:       title,
		OpeningText: paragraphs[0],
		Body:        strings.Join(paragraphs, "\n\n"),
	}
}
