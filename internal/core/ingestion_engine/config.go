package ingestion_engine

// Config tunes the extraction fallback chain.
//
// Tesseract, Pdftoppm: binaries looked up on PATH.
// Lang:                tesseract language (e.g., "eng").
// TessdataDir:         optional --tessdata-dir.
// DPI:                 rasterization resolution for image-based PDFs.
// MaxPages:            pages rasterized for OCR (0 = all).
// Concurrency:         pages OCR'd in parallel.
// TempDir:             parent of the per-document scratch dir ("" = os default).
type Config struct {
	Tesseract   string
	Pdftoppm    string
	Lang        string
	TessdataDir string
	DPI         int
	MaxPages    int
	Concurrency int
	TempDir     string
}

func (c Config) withDefaults() Config {
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Lang == "" {
		c.Lang = "eng"
	}
	if c.DPI <= 0 {
		c.DPI = 150
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	return c
}
