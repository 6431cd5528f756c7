package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func (e *Extractor) extractPDF(ctx context.Context, path string) string {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Sprintf("Error extracting text from PDF: %v", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Sprintf("Error extracting text from PDF: %v", err)
	}

	// NewReader tries the empty password on encrypted documents.
	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		if isEncryptionError(err) {
			return msgPDFEncrypted
		}
		return fmt.Sprintf("Error extracting text from PDF: %v", err)
	}

	pages := r.NumPage()
	if pages == 0 {
		return msgPDFNoPages
	}

	var (
		b      strings.Builder
		native bool
	)
	for n := 1; n <= pages; n++ {
		text := pageText(r, n)
		if strings.TrimSpace(text) == "" {
			fmt.Fprintf(&b, "[Page %d contains no extractable text]\n", n)
			continue
		}
		native = true
		b.WriteString(text)
		b.WriteString("\n")
	}

	// Placeholders alone do not count as text; an all-placeholder document is
	// treated as scanned.
	if native {
		return b.String()
	}

	e.logger.Info("no text layer found in PDF, attempting OCR", zap.String("path", path), zap.Int("pages", pages))
	return e.ocrPDF(ctx, path, pages)
}

// pageText returns "" for missing pages and for pages the parser chokes on.
func pageText(r *pdf.Reader, n int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	p := r.Page(n)
	if p.V.IsNull() {
		return ""
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}

func isEncryptionError(err error) bool {
	return errors.Is(err, pdf.ErrInvalidPassword) || strings.Contains(strings.ToLower(err.Error()), "encrypt")
}

func (e *Extractor) ocrPDF(ctx context.Context, path string, pages int) string {
	if e.ocr == nil || !e.ocr.Available() {
		return msgPDFOCRUnavailable
	}
	if e.cfg.MaxPages > 0 && pages > e.cfg.MaxPages {
		pages = e.cfg.MaxPages
	}

	tmpDir, err := os.MkdirTemp(e.cfg.TempDir, "ocr-pages-*")
	if err != nil {
		return fmt.Sprintf("Error during OCR process: %v", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("failed to remove OCR scratch dir", zap.String("dir", tmpDir), zap.Error(err))
		}
	}()

	texts := make([]string, pages)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for n := 1; n <= pages; n++ {
		n := n
		g.Go(func() error {
			img, err := e.ocr.RasterizePDFPage(gctx, path, n, filepath.Join(tmpDir, fmt.Sprintf("page-%d", n)))
			if err != nil {
				return fmt.Errorf("rasterize page %d: %w", n, err)
			}
			text, err := e.ocr.ImageToText(gctx, img)
			if err != nil {
				return fmt.Errorf("ocr page %d: %w", n, err)
			}
			texts[n-1] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrOCRUnavailable) {
			return msgPDFOCRUnavailable
		}
		return fmt.Sprintf("Error during OCR process: %v", err)
	}

	var b strings.Builder
	for _, text := range texts {
		b.WriteString(text)
		b.WriteString("\n")
	}
	if strings.TrimSpace(b.String()) == "" {
		return msgPDFNoText
	}
	return b.String()
}
