package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

// Collection names. A prefix set by WithCollectionPrefix is prepended with
// an underscore.
const (
	CollectionCases          = "cases"
	CollectionStatusHistory  = "case_status_history"
	CollectionReports        = "incident_reports"
	CollectionReportCounters = "report_counters"
)

type Firestore struct {
	client     *firestore.Client
	caseRepo   *caseRepository
	reportRepo *incidentReportRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix isolates every collection under prefix. Tests use it
// to run against a shared project.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.caseRepo.collectionPrefix = prefix
		f.reportRepo.collectionPrefix = prefix
	}
}

func collectionName(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}

// New connects to Firestore. An empty databaseID selects the default
// database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:     client,
		caseRepo:   newCaseRepository(client),
		reportRepo: newIncidentReportRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Case() interfaces.CaseRepository {
	return f.caseRepo
}

func (f *Firestore) IncidentReport() interfaces.IncidentReportRepository {
	return f.reportRepo
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
