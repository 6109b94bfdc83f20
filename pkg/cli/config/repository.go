package config

import (
	"context"
	"log/slog"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/repository/firestore"
	"github.com/hrmonitor/hrmonitor/pkg/repository/memory"
	"github.com/hrmonitor/hrmonitor/pkg/repository/mongodb"
	"github.com/hrmonitor/hrmonitor/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Repository backends
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendMongo     = "mongo"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend       string
	projectID     string
	databaseID    string
	mongoURI      string
	mongoDatabase string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (memory, firestore or mongo)",
			Category:    "Repository",
			Value:       BackendMemory,
			Sources:     cli.EnvVars("HRMONITOR_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("HRMONITOR_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Repository",
			Sources:     cli.EnvVars("HRMONITOR_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "mongo-uri",
			Usage:       "MongoDB connection string (required when using mongo backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("HRMONITOR_MONGO_URI"),
			Destination: &r.mongoURI,
		},
		&cli.StringFlag{
			Name:        "mongo-database",
			Usage:       "MongoDB database name",
			Category:    "Repository",
			Value:       "hrmonitor",
			Sources:     cli.EnvVars("HRMONITOR_MONGO_DATABASE"),
			Destination: &r.mongoDatabase,
		},
	}
}

func (r Repository) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", r.backend),
		slog.String("firestore_project_id", r.projectID),
		slog.String("firestore_database_id", r.databaseID),
		slog.String("mongo_uri", mongodb.RedactURI(r.mongoURI)),
		slog.String("mongo_database", r.mongoDatabase),
	)
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// ProjectID returns the Firestore project ID
func (r *Repository) ProjectID() string {
	return r.projectID
}

// DatabaseID returns the Firestore database ID
func (r *Repository) DatabaseID() string {
	return r.databaseID
}

// Configure initializes and returns a repository based on the configured backend.
// The caller is responsible for calling Close() on the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case BackendFirestore:
		if r.projectID == "" {
			return nil, goerr.Wrap(ErrMissingConfig, "firestore-project-id is required when using firestore backend")
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return repo, nil

	case BackendMongo:
		repo, err := r.ConfigureMongo(ctx)
		if err != nil {
			return nil, err
		}
		return repo, nil

	case BackendMemory:
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid repository backend", goerr.V("backend", r.backend))
	}
}

// ConfigureMongo connects to MongoDB regardless of the selected backend.
// The migrate command uses it to provision indexes.
func (r *Repository) ConfigureMongo(ctx context.Context) (*mongodb.MongoDB, error) {
	if r.mongoURI == "" {
		return nil, goerr.Wrap(ErrMissingConfig, "mongo-uri is required when using mongo backend")
	}
	repo, err := mongodb.New(ctx, r.mongoURI, r.mongoDatabase)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize mongo repository",
			goerr.V("uri", mongodb.RedactURI(r.mongoURI)))
	}
	logging.Default().Info("Using MongoDB repository",
		"uri", mongodb.RedactURI(r.mongoURI),
		"database", r.mongoDatabase,
	)
	return repo, nil
}
