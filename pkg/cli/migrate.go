package cli

import (
	"context"

	"github.com/hrmonitor/hrmonitor/pkg/cli/config"
	"github.com/hrmonitor/hrmonitor/pkg/repository/firestore"
	"github.com/hrmonitor/hrmonitor/pkg/repository/mongodb"
	"github.com/hrmonitor/hrmonitor/pkg/utils/logging"
	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var dryRun bool
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Preview changes without applying",
			Destination: &dryRun,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Provision indexes of the firestore or mongo backend",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			switch repoCfg.Backend() {
			case config.BackendFirestore:
				return migrateFirestore(ctx, repoCfg.ProjectID(), repoCfg.DatabaseID(), dryRun)
			case config.BackendMongo:
				return migrateMongo(ctx, &repoCfg, dryRun)
			default:
				logging.Default().Info("Nothing to migrate", "backend", repoCfg.Backend())
				return nil
			}
		},
	}
}

func migrateFirestore(ctx context.Context, projectID, databaseID string, dryRun bool) error {
	logger := logging.Default()

	if projectID == "" {
		return goerr.Wrap(config.ErrMissingConfig, "firestore-project-id is required")
	}

	logger.Info("Migrate configuration",
		"projectID", projectID,
		"databaseID", databaseID,
		"dryRun", dryRun)

	// Get index configuration
	indexConfig := getIndexConfig()

	// Create fireconf client
	client, err := fireconf.NewClient(ctx, projectID, databaseID)
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client")
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close fireconf client", "error", err.Error())
		}
	}()

	if dryRun {
		logger.Info("Dry run mode - previewing changes")
		plan, err := client.GetMigrationPlan(ctx, indexConfig)
		if err != nil {
			return goerr.Wrap(err, "failed to create migration plan")
		}

		if len(plan.Steps) == 0 {
			logger.Info("No changes required")
			return nil
		}

		for _, step := range plan.Steps {
			logger.Info("Migration step",
				"collection", step.Collection,
				"operation", step.Operation,
				"description", step.Description,
				"destructive", step.Destructive)
		}
		return nil
	}

	logger.Info("Applying migrations")
	if err := client.Migrate(ctx, indexConfig); err != nil {
		return goerr.Wrap(err, "failed to apply migrations")
	}
	logger.Info("Migrations applied successfully")
	return nil
}

func migrateMongo(ctx context.Context, repoCfg *config.Repository, dryRun bool) error {
	logger := logging.Default()

	if dryRun {
		for _, spec := range mongodb.Indexes() {
			logger.Info("Index", "collection", spec.Collection, "keys", spec.Model.Keys)
		}
		return nil
	}

	repo, err := repoCfg.ConfigureMongo(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close repository", "error", err.Error())
		}
	}()

	// a no-op when mongodb.New created them
	if err := repo.EnsureIndexes(ctx); err != nil {
		return goerr.Wrap(err, "failed to create mongo indexes")
	}
	logger.Info("Mongo indexes are up to date", "count", len(mongodb.Indexes()))
	return nil
}

// getIndexConfig returns the composite indexes of the Firestore queries.
// Single-field equality filters are served by automatic indexes.
func getIndexConfig() *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: firestore.CollectionCases,
				Indexes: []fireconf.Index{
					// List: status ==, date_occurred range
					{
						Fields: []fireconf.IndexField{
							{Path: "status", Order: fireconf.OrderAscending},
							{Path: "date_occurred", Order: fireconf.OrderAscending},
						},
					},
				},
			},
			{
				Name: firestore.CollectionStatusHistory,
				Indexes: []fireconf.Index{
					// ListStatusHistory: case_id ASC, updated_at DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "case_id", Order: fireconf.OrderAscending},
							{Path: "updated_at", Order: fireconf.OrderDescending},
						},
					},
				},
			},
			{
				Name: firestore.CollectionReports,
				Indexes: []fireconf.Index{
					// List: status ==, incident date range
					{
						Fields: []fireconf.IndexField{
							{Path: "status", Order: fireconf.OrderAscending},
							{Path: "incident_details.date", Order: fireconf.OrderAscending},
						},
					},
					// List: country ==, incident date range
					{
						Fields: []fireconf.IndexField{
							{Path: "incident_details.location.country", Order: fireconf.OrderAscending},
							{Path: "incident_details.date", Order: fireconf.OrderAscending},
						},
					},
					// List: status ==, country ==, incident date range
					{
						Fields: []fireconf.IndexField{
							{Path: "status", Order: fireconf.OrderAscending},
							{Path: "incident_details.location.country", Order: fireconf.OrderAscending},
							{Path: "incident_details.date", Order: fireconf.OrderAscending},
						},
					},
				},
			},
		},
	}
}
