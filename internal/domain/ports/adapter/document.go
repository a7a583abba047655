package adapter

import (
	"context"
	"io"
)

// DocumentTextExtractor converts an uploaded page-based document into plain
// text: per-page text in page order joined by newline, trimmed. Pages that
// yield no text contribute nothing; extraction is best-effort and a document
// whose every page fails yields an empty string, not an error.
type DocumentTextExtractor interface {
	ExtractText(ctx context.Context, r io.ReaderAt, size int64) (string, error)
}
