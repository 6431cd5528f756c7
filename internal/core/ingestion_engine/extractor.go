package ingestion_engine

import (
	"context"
	"fmt"

	"github.com/Nightfall2318/text-summary-app/internal/core"
	"go.uber.org/zap"
)

const (
	msgPDFEncrypted        = "Error: PDF is encrypted and could not be decrypted"
	msgPDFNoPages          = "Error: PDF has no pages"
	msgPDFOCRUnavailable   = "Error: OCR capability is not available (tesseract/pdftoppm not installed). Cannot process image-based PDFs."
	msgPDFNoText           = "Error: No text could be extracted from this PDF, even with OCR."
	msgImageNoText         = "Error: No text could be extracted from this image."
	msgImageOCRUnavailable = "Error: OCR capability is not available (tesseract not installed)."
)

var _ core.DocumentExtractor = (*Extractor)(nil)

// Extractor implements core.DocumentExtractor with a per-kind fallback chain.
// Every failure comes back as a string starting with core.ErrorMarker.
type Extractor struct {
	cfg    Config
	ocr    OCREngine
	logger *zap.Logger
}

func NewExtractor(cfg Config, ocr OCREngine, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{cfg: cfg.withDefaults(), ocr: ocr, logger: logger}
}

// Extract returns the text of the file at path. declaredType is a MIME type
// or an extension such as ".pdf".
func (e *Extractor) Extract(ctx context.Context, path, declaredType string) (text string) {
	kind := core.KindOf(declaredType, path)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extraction panicked", zap.String("kind", string(kind)), zap.Any("panic", r))
			text = fmt.Sprintf("Error extracting text from %s: %v", kind, r)
		}
	}()

	switch kind {
	case core.KindPDF:
		text = e.extractPDF(ctx, path)
	case core.KindDOCX:
		text = e.extractDOCX(path)
	case core.KindImage:
		text = e.extractImage(ctx, path)
	case core.KindText:
		text = e.extractTXT(path)
	default:
		return core.UnsupportedFormat
	}

	if core.IsExtractionError(text) {
		e.logger.Warn("extraction failed", zap.String("kind", string(kind)), zap.String("reason", text))
	} else {
		e.logger.Debug("extraction ok", zap.String("kind", string(kind)), zap.Int("chars", len(text)))
	}
	return text
}
