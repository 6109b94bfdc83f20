package mongodb

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionCases          = "cases"
	CollectionStatusHistory  = "case_status_history"
	CollectionReports        = "incident_reports"
	CollectionReportCounters = "report_counters"

	connectTimeout = 15 * time.Second
)

type MongoDB struct {
	client     *mongo.Client
	db         *mongo.Database
	caseRepo   *caseRepository
	reportRepo *incidentReportRepository
}

var _ interfaces.Repository = &MongoDB{}

// New connects to uri, verifies the connection with a ping, creates the
// indexes from Indexes and binds the repositories to database.
func New(ctx context.Context, uri, database string) (*MongoDB, error) {
	dctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(dctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect mongodb", goerr.V("uri", RedactURI(uri)))
	}
	if err := client.Ping(dctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, goerr.Wrap(err, "failed to ping mongodb", goerr.V("uri", RedactURI(uri)))
	}

	db := client.Database(database)
	m := &MongoDB{
		client:     client,
		db:         db,
		caseRepo:   newCaseRepository(db),
		reportRepo: newIncidentReportRepository(db),
	}
	// duplicate case_id and report_id detection depends on the unique indexes
	if err := m.EnsureIndexes(dctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, goerr.Wrap(err, "failed to ensure mongodb indexes", goerr.V("database", database))
	}
	return m, nil
}

func (m *MongoDB) Case() interfaces.CaseRepository {
	return m.caseRepo
}

func (m *MongoDB) IncidentReport() interfaces.IncidentReportRepository {
	return m.reportRepo
}

func (m *MongoDB) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(context.Background())
}

// DropAll removes every collection of the bound database. Tests use it to
// start from an empty store.
func (m *MongoDB) DropAll(ctx context.Context) error {
	if err := m.db.Drop(ctx); err != nil {
		return goerr.Wrap(err, "failed to drop database")
	}
	return nil
}

// IndexSpec describes one index created by EnsureIndexes.
type IndexSpec struct {
	Collection string
	Model      mongo.IndexModel
}

// Indexes returns the indexes the repositories rely on. The unique indexes
// on case_id and report_id enforce identifier uniqueness.
func Indexes() []IndexSpec {
	return []IndexSpec{
		{CollectionCases, mongo.IndexModel{
			Keys:    bson.D{{Key: "case_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{CollectionCases, mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}}}},
		{CollectionCases, mongo.IndexModel{Keys: bson.D{{Key: "date_occurred", Value: 1}}}},
		{CollectionStatusHistory, mongo.IndexModel{
			Keys: bson.D{{Key: "case_id", Value: 1}, {Key: "updated_at", Value: -1}},
		}},
		{CollectionReports, mongo.IndexModel{
			Keys:    bson.D{{Key: "report_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{CollectionReports, mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}}}},
		{CollectionReports, mongo.IndexModel{Keys: bson.D{{Key: "incident_details.date", Value: 1}}}},
		{CollectionReports, mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}}},
	}
}

// EnsureIndexes creates every index from Indexes. Creating an existing
// index is a no-op.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	var errs []error
	for _, spec := range Indexes() {
		if _, err := m.db.Collection(spec.Collection).Indexes().CreateOne(ctx, spec.Model); err != nil {
			errs = append(errs, goerr.Wrap(err, "failed to create index", goerr.V("collection", spec.Collection)))
		}
	}
	return errors.Join(errs...)
}

// RedactURI hides credentials of a connection string for logging.
func RedactURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.UserPassword("****", "****")
	return u.String()
}

// storeNow is truncated to the precision BSON datetimes store.
func storeNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
