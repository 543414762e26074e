// Package archive keeps a copy of every imported catch file. Keys look like
// imports/2024/03/05/<import id>-<file name> and are built by core.ArchiveKey.
package archive

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/sharkguard/internal/config"
	"github.com/JonMunkholm/sharkguard/internal/core"
)

// Backend names accepted by ARCHIVE_BACKEND.
const (
	BackendNone       = "none"
	BackendFilesystem = "fs"
	BackendS3         = "s3"
)

// Open returns the archiver selected by cfg, or nil for BackendNone.
func Open(ctx context.Context, cfg config.ArchiveConfig) (core.Archiver, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendFilesystem:
		fs, err := NewFilesystem(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case BackendS3:
		s3, err := NewS3(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}
