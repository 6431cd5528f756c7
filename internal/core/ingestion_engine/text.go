package ingestion_engine

import (
	"bytes"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func (e *Extractor) extractTXT(path string) string {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("Error extracting text from TXT: %v", err)
	}
	text, err := decodeText(raw)
	if err != nil {
		return fmt.Sprintf("Error extracting text from TXT: %v", err)
	}
	return text
}

// decodeText reads UTF-8 and falls back to Latin-1, which accepts any byte.
func decodeText(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(bytes.TrimPrefix(raw, utf8BOM)), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
