// Package extract turns candidate documents into plain text and pulls the
// obvious contact details and skills out of that text.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/spigell/screener/internal/model"
)

// MinTextLength is the number of runes below which a document is treated as empty.
const MinTextLength = 100

var ErrUnsupported = errors.New("unsupported document type")

// Extractor returns the plain text of a document.
type Extractor interface {
	Extract(ctx context.Context, doc model.Document) (string, error)
}

// Files extracts PDFs and passes plain text documents through.
type Files struct {
	logger *zap.Logger
}

func NewFiles(logger *zap.Logger) *Files {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Files{logger: logger}
}

func (f *Files) Extract(ctx context.Context, doc model.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch ext := strings.ToLower(filepath.Ext(doc.Name)); ext {
	case ".pdf":
		text, err := pdfText(doc.Data)
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", doc.Name, err)
		}
		f.logger.Debug("pdf extracted",
			zap.String("document", doc.Name),
			zap.Int("length", utf8.RuneCountInString(text)),
		)
		return text, nil
	case ".txt", ".md", "":
		if !utf8.Valid(doc.Data) {
			return "", fmt.Errorf("extract %s: invalid utf-8 text", doc.Name)
		}
		return CleanText(string(doc.Data)), nil
	default:
		return "", fmt.Errorf("extract %s: %w %q", doc.Name, ErrUnsupported, ext)
	}
}

// Usable reports whether text carries enough content to parse a profile from.
func Usable(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= MinTextLength
}

func pdfText(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var builder strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(pageText)
		builder.WriteString("\n\n")
	}

	return CleanText(builder.String()), nil
}

// CleanText trims every line and drops empty ones.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
