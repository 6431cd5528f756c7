package metadata

import (
	"bufio"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"go.uber.org/zap"

	"github.com/Nightfall2318/text-summary-app/internal/core"
	"github.com/Nightfall2318/text-summary-app/internal/models"
)

var _ core.MetadataExtractor = (*Extractor)(nil)

var pdfInfoKeys = []string{"Title", "Author", "Subject", "Keywords", "Creator", "Producer", "CreationDate", "ModDate"}

// Extractor describes uploaded files. It never fails: problems are reported
// in FileMetadata.MetadataError.
type Extractor struct {
	logger *zap.Logger
}

func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract reads the file at path. originalName is the client's filename and
// decides the reported name and extension.
func (e *Extractor) Extract(ctx context.Context, path, originalName string) (meta models.FileMetadata) {
	if originalName == "" {
		originalName = filepath.Base(path)
	}
	meta.Filename = originalName
	meta.Extension = strings.ToLower(filepath.Ext(originalName))

	defer func() {
		if r := recover(); r != nil {
			meta.MetadataError = fmt.Sprintf("%v", r)
		}
		if meta.MetadataError != "" {
			e.logger.Warn("metadata extraction incomplete", zap.String("file", originalName), zap.String("error", meta.MetadataError))
		}
	}()

	info, err := os.Stat(path)
	if err != nil {
		meta.MetadataError = err.Error()
		return meta
	}
	meta.SizeBytes = info.Size()
	meta.Size = humanize.IBytes(uint64(info.Size()))
	meta.ModifiedAt = info.ModTime().UTC()

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		meta.MetadataError = err.Error()
		return meta
	}
	meta.MIMEType = mt.String()

	switch core.KindOf(meta.Extension, path) {
	case core.KindPDF:
		err = pdfMetadata(path, &meta)
	case core.KindDOCX:
		err = docxMetadata(path, &meta)
	case core.KindImage:
		err = imageMetadata(path, &meta)
	case core.KindText:
		err = textMetadata(path, &meta)
	}
	if err != nil {
		meta.MetadataError = err.Error()
	}
	return meta
}

func pdfMetadata(path string, meta *models.FileMetadata) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	r, err := pdf.NewReader(f, st.Size())
	if err != nil {
		return fmt.Errorf("pdf: %w", err)
	}

	meta.PageCount = r.NumPage()
	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return nil
	}
	for _, key := range pdfInfoKeys {
		if v := strings.TrimSpace(info.Key(key).Text()); v != "" {
			setProperty(meta, key, v)
		}
	}
	return nil
}

func docxMetadata(path string, meta *models.FileMetadata) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	body, props, err := docconv.ConvertDocx(f)
	if err != nil {
		return fmt.Errorf("docx: %w", err)
	}
	meta.WordCount = len(strings.Fields(body))
	for k, v := range props {
		if v = strings.TrimSpace(v); v != "" {
			setProperty(meta, k, v)
		}
	}
	return nil
}

func imageMetadata(path string, meta *models.FileMetadata) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("image: %w", err)
	}
	meta.Width, meta.Height = cfg.Width, cfg.Height
	setProperty(meta, "format", format)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	exifMetadata(f, meta)
	return nil
}

// exifFields maps EXIF tags onto the property keys reported for images.
var exifFields = []struct {
	name exif.FieldName
	key  string
}{
	{exif.Make, "camera_make"},
	{exif.Model, "camera_model"},
	{exif.DateTime, "date_time"},
	{exif.ExposureTime, "exposure_time"},
	{exif.FNumber, "f_number"},
	{exif.ISOSpeedRatings, "iso_speed"},
	{exif.FocalLength, "focal_length"},
	{exif.Software, "software"},
	{exif.Orientation, "orientation"},
}

// exifMetadata copies the common EXIF tags into meta. Images without EXIF
// are left untouched.
func exifMetadata(r io.Reader, meta *models.FileMetadata) {
	x, err := exif.Decode(r)
	if err != nil {
		return
	}
	for _, f := range exifFields {
		tag, err := x.Get(f.name)
		if err != nil {
			continue
		}
		if v := tagValue(tag); v != "" {
			setProperty(meta, f.key, v)
		}
	}
	if _, _, err := x.LatLong(); err == nil {
		setProperty(meta, "gps_present", "yes")
	}
}

func tagValue(tag *tiff.Tag) string {
	if tag.Format() == tiff.StringVal {
		s, err := tag.StringVal()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(strings.TrimRight(s, "\x00"))
	}
	return strings.Trim(tag.String(), `"`)
}

func textMetadata(path string, meta *models.FileMetadata) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lines, words := 0, 0
	for sc.Scan() {
		lines++
		words += len(strings.Fields(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("text: %w", err)
	}
	meta.LineCount, meta.WordCount = lines, words
	return nil
}

func setProperty(meta *models.FileMetadata, key, value string) {
	if meta.Properties == nil {
		meta.Properties = make(map[string]string)
	}
	meta.Properties[key] = value
}
