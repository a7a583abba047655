package doc

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"clinical-consult-assistant/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.DocumentTextExtractor = (*PDFExtractor)(nil)

// PDFExtractor pulls plain text out of a PDF page by page. Extraction is
// best-effort: pages that cannot be read or carry no text are skipped
// without contributing anything, and a document whose every page fails
// yields an empty string. Only a document that cannot be opened at all is
// an error.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

func (e *PDFExtractor) ExtractText(ctx context.Context, r io.ReaderAt, size int64) (text string, err error) {
	// The pdf library panics on some malformed files.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("open pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil || content == "" {
			continue
		}
		pages = append(pages, content)
	}
	return strings.TrimSpace(strings.Join(pages, "\n")), nil
}
