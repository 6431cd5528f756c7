package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrOCRUnavailable is returned when a required OCR binary is not installed.
var ErrOCRUnavailable = errors.New("ocr: not available")

// OCREngine recognizes text in images and renders PDF pages to images.
type OCREngine interface {
	Available() bool
	ImageToText(ctx context.Context, imagePath string) (string, error)
	// RasterizePDFPage renders the 1-based page to outPrefix + ".png" and
	// returns the image path.
	RasterizePDFPage(ctx context.Context, pdfPath string, page int, outPrefix string) (string, error)
}

var _ OCREngine = (*TesseractEngine)(nil)

// TesseractEngine shells out to tesseract and pdftoppm.
type TesseractEngine struct {
	cfg    Config
	runner Runner
	logger *zap.Logger

	hasTesseract func() bool
	hasPdftoppm  func() bool
}

func NewTesseractEngine(cfg Config, runner Runner, logger *zap.Logger) *TesseractEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	cfg = cfg.withDefaults()

	lookup := func(bin string) func() bool {
		return sync.OnceValue(func() bool {
			if _, err := runner.LookPath(bin); err != nil {
				logger.Warn("OCR binary not found", zap.String("bin", bin), zap.Error(err))
				return false
			}
			return true
		})
	}

	return &TesseractEngine{
		cfg:          cfg,
		runner:       runner,
		logger:       logger,
		hasTesseract: lookup(cfg.Tesseract),
		hasPdftoppm:  lookup(cfg.Pdftoppm),
	}
}

// Available reports whether tesseract is installed.
func (e *TesseractEngine) Available() bool {
	return e.hasTesseract()
}

func (e *TesseractEngine) ImageToText(ctx context.Context, imagePath string) (string, error) {
	if !e.hasTesseract() {
		return "", ErrOCRUnavailable
	}

	// tesseract <file> stdout -l <lang>
	args := []string{imagePath, "stdout", "-l", e.cfg.Lang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	return string(out), nil
}

func (e *TesseractEngine) RasterizePDFPage(ctx context.Context, pdfPath string, page int, outPrefix string) (string, error) {
	if !e.hasPdftoppm() {
		return "", ErrOCRUnavailable
	}

	// pdftoppm -r <dpi> -f N -l N -png -singlefile <in.pdf> <prefix>
	n := strconv.Itoa(page)
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-r", strconv.Itoa(e.cfg.DPI), "-f", n, "-l", n, "-png", "-singlefile", pdfPath, outPrefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %w: %s", err, strings.TrimSpace(string(errb)))
	}

	img := outPrefix + ".png"
	if _, err := os.Stat(img); err != nil {
		return "", fmt.Errorf("pdftoppm produced no image for page %d: %w", page, err)
	}
	return img, nil
}
