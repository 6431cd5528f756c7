package core

import (
	"context"
	"mime"
	"path/filepath"
	"strings"
)

// ErrorMarker prefixes every extraction failure returned as text.
const ErrorMarker = "Error"

// UnsupportedFormat is returned verbatim for files of an unknown kind.
const UnsupportedFormat = "Unsupported file format"

// FileKind is the extraction strategy chosen for a file.
type FileKind string

const (
	KindPDF     FileKind = "PDF"
	KindDOCX    FileKind = "DOCX"
	KindImage   FileKind = "image"
	KindText    FileKind = "TXT"
	KindUnknown FileKind = "unknown"
)

// DocumentExtractor turns a stored file into plain text. Failures are reported
// in-band as strings starting with ErrorMarker.
type DocumentExtractor interface {
	Extract(ctx context.Context, path, declaredType string) string
}

// IsExtractionError reports whether text is an in-band extraction failure.
func IsExtractionError(text string) bool {
	return strings.HasPrefix(text, ErrorMarker) || text == UnsupportedFormat
}

var mimeKinds = map[string]FileKind{
	"application/pdf": KindPDF,
	"image/jpeg":      KindImage,
	"image/png":       KindImage,
	"text/plain":      KindText,

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": KindDOCX,
}

var extKinds = map[string]FileKind{
	".pdf":  KindPDF,
	".docx": KindDOCX,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".txt":  KindText,
}

// KindOf maps a declared MIME type or extension to a FileKind. Generic container
// types defer to the extension of path.
func KindOf(declaredType, path string) FileKind {
	declared := strings.ToLower(strings.TrimSpace(declaredType))

	if strings.HasPrefix(declared, ".") {
		if kind, ok := extKinds[declared]; ok {
			return kind
		}
		return KindUnknown
	}

	if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
		declared = mediaType
	}
	if kind, ok := mimeKinds[declared]; ok {
		return kind
	}

	switch declared {
	case "", "application/octet-stream", "application/zip", "application/x-zip-compressed":
		if kind, ok := extKinds[strings.ToLower(filepath.Ext(path))]; ok {
			return kind
		}
	}
	return KindUnknown
}
