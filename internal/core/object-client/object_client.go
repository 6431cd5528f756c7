package objectclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	cfg "github.com/Nightfall2318/text-summary-app/internal/config"
	"github.com/Nightfall2318/text-summary-app/internal/core"
)

// NewObjectClient returns the archive selected by ARCHIVE_BACKEND, or nil
// when archiving is disabled.
func NewObjectClient(ctx context.Context, c *cfg.Config, logger *zap.Logger) (core.ObjectClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch c.ArchiveBackend {
	case cfg.ArchiveS3:
		s3c, err := NewS3Client(ctx, c, logger)
		if err != nil {
			return nil, err
		}
		return s3c, nil
	case cfg.ArchiveLocal, "":
		local, err := NewLocalClient(c.UploadDir)
		if err != nil {
			return nil, err
		}
		logger.Info("upload archive: local", zap.String("dir", local.dir))
		return local, nil
	case cfg.ArchiveNone:
		logger.Info("upload archive disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", c.ArchiveBackend)
	}
}
