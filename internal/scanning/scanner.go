package scanning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zombor/invoice-extractor/internal/document"
)

// Scanner reads an invoice or check image/PDF and returns its fields
type Scanner interface {
	// Scan analyzes a document image/PDF and extracts its record
	Scan(ctx context.Context, data []byte, contentType string) (document.Document, error)
	// Close closes the scanner and releases resources
	Close() error
}

// completer asks a vision model about one PNG page and returns its raw answer
type completer interface {
	complete(ctx context.Context, png []byte) (string, error)
}

// scan is the extraction pipeline shared by every provider
func scan(ctx context.Context, provider string, c completer, data []byte, contentType string) (document.Document, error) {
	png, err := prepareImage(data, contentType)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	answer, err := c.complete(ctx, png)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", provider, err)
	}

	doc, err := parseDocumentJSON(answer)
	if err != nil {
		slog.Warn("Unusable model answer", "provider", provider, "answer_bytes", len(answer), "error", err)
		return nil, fmt.Errorf("parsing %s response: %w", provider, err)
	}

	slog.Info("Document scanned", "provider", provider, "document_type", doc.Type(), "duration", time.Since(start))
	return doc, nil
}
