package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"
)

func (e *Extractor) extractImage(ctx context.Context, path string) string {
	if err := checkImage(path); err != nil {
		return fmt.Sprintf("Error extracting text from image: %v", err)
	}
	if e.ocr == nil || !e.ocr.Available() {
		return msgImageOCRUnavailable
	}

	text, err := e.ocr.ImageToText(ctx, path)
	if err != nil {
		if errors.Is(err, ErrOCRUnavailable) {
			return msgImageOCRUnavailable
		}
		return fmt.Sprintf("Error extracting text from image: %v", err)
	}
	if strings.TrimSpace(text) == "" {
		return msgImageNoText
	}
	return text
}

// checkImage rejects files whose header does not decode as JPEG or PNG.
func checkImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, _, err = image.DecodeConfig(f)
	return err
}
