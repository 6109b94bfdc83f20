package config

import (
	"context"
	"log/slog"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/service/storage"
	"github.com/hrmonitor/hrmonitor/pkg/usecase"
	"github.com/hrmonitor/hrmonitor/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Storage backends
const (
	StorageLocal = "local"
	StorageGCS   = "gcs"
)

// Storage holds CLI flags for the evidence blob store
type Storage struct {
	backend       string
	uploadDir     string
	gcsBucket     string
	gcsPrefix     string
	maxUploadSize int64
}

func (x *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "storage-backend",
			Usage:       "Evidence storage backend (local or gcs)",
			Category:    "Storage",
			Value:       StorageLocal,
			Sources:     cli.EnvVars("HRMONITOR_STORAGE_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "upload-dir",
			Usage:       "Directory for uploaded files (local backend)",
			Category:    "Storage",
			Value:       "uploads",
			Sources:     cli.EnvVars("HRMONITOR_UPLOAD_DIR"),
			Destination: &x.uploadDir,
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Cloud Storage bucket (required when using gcs backend)",
			Category:    "Storage",
			Sources:     cli.EnvVars("HRMONITOR_GCS_BUCKET"),
			Destination: &x.gcsBucket,
		},
		&cli.StringFlag{
			Name:        "gcs-prefix",
			Usage:       "Object name prefix in the bucket",
			Category:    "Storage",
			Sources:     cli.EnvVars("HRMONITOR_GCS_PREFIX"),
			Destination: &x.gcsPrefix,
		},
		&cli.Int64Flag{
			Name:        "max-upload-size",
			Usage:       "Maximum size of a single uploaded file in bytes",
			Category:    "Storage",
			Value:       usecase.DefaultMaxUploadSize,
			Sources:     cli.EnvVars("HRMONITOR_MAX_UPLOAD_SIZE"),
			Destination: &x.maxUploadSize,
		},
	}
}

func (x Storage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", x.backend),
		slog.String("upload_dir", x.uploadDir),
		slog.String("gcs_bucket", x.gcsBucket),
		slog.String("gcs_prefix", x.gcsPrefix),
		slog.Int64("max_upload_size", x.maxUploadSize),
	)
}

// MaxUploadSize returns the per-file upload limit
func (x *Storage) MaxUploadSize() int64 {
	return x.maxUploadSize
}

// Configure creates the blob store. The returned function releases the
// backend client.
func (x *Storage) Configure(ctx context.Context) (interfaces.BlobStore, func(), error) {
	if x.maxUploadSize <= 0 {
		return nil, nil, goerr.Wrap(ErrInvalidConfig, "max-upload-size must be positive", goerr.V("max_upload_size", x.maxUploadSize))
	}

	switch x.backend {
	case StorageLocal, "":
		store, err := storage.NewLocal(x.uploadDir)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize local storage")
		}
		logging.Default().Info("Using local evidence storage", "upload_dir", x.uploadDir)
		return store, func() {}, nil

	case StorageGCS:
		var opts []storage.GCSOption
		if x.gcsPrefix != "" {
			opts = append(opts, storage.WithGCSPrefix(x.gcsPrefix))
		}
		store, err := storage.NewGCS(ctx, x.gcsBucket, opts...)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize gcs storage")
		}
		logging.Default().Info("Using Cloud Storage evidence storage", "bucket", x.gcsBucket, "prefix", x.gcsPrefix)
		return store, func() {
			if err := store.Close(); err != nil {
				logging.Default().Error("failed to close storage client", "error", err.Error())
			}
		}, nil

	default:
		return nil, nil, goerr.Wrap(ErrInvalidConfig, "invalid storage backend", goerr.V("backend", x.backend))
	}
}
