package core

import (
	"context"
	"io"

	"github.com/Nightfall2318/text-summary-app/internal/models"
)

// ObjectClient defines interactions with the upload archive.
// It's abstract so a local directory and S3 can be swapped by configuration.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, key string) error
}

// MetadataExtractor describes an uploaded file without reading its text.
type MetadataExtractor interface {
	Extract(ctx context.Context, path, originalName string) models.FileMetadata
}
