package firestore

import (
	"context"
	"sort"
	"strconv"

	"cloud.google.com/go/firestore"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
	"github.com/hrmonitor/hrmonitor/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type incidentReportRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newIncidentReportRepository(client *firestore.Client) *incidentReportRepository {
	return &incidentReportRepository{
		client: client,
	}
}

func (r *incidentReportRepository) reportsCollection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, CollectionReports))
}

func (r *incidentReportRepository) countersCollection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, CollectionReportCounters))
}

// maxExistingSequence scans the reports of year for the numerically greatest
// sequence, so ids issued before the counter existed are never reused.
func (r *incidentReportRepository) maxExistingSequence(tx *firestore.Transaction, year int) (int, error) {
	prefix := model.ReportIDPrefix(year)
	q := r.reportsCollection().
		Where("report_id", ">=", prefix).
		Where("report_id", "<", prefix+"\uf8ff").
		Select("report_id")

	iter := tx.Documents(q)
	defer iter.Stop()

	maxSeq := model.ReportSequenceBase
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, goerr.Wrap(err, "failed to scan report ids", goerr.V("year", year))
		}
		v, err := doc.DataAt("report_id")
		if err != nil {
			continue
		}
		id, _ := v.(string)
		if _, seq, ok := model.ParseReportID(id); ok && seq > maxSeq {
			maxSeq = seq
		}
	}
	return maxSeq, nil
}

// NextReportID increments a per-year counter document in a transaction.
func (r *incidentReportRepository) NextReportID(ctx context.Context, year int) (string, error) {
	counterRef := r.countersCollection().Doc(strconv.Itoa(year))

	var next int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(counterRef)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return goerr.Wrap(err, "failed to get report counter", goerr.V("year", year))
			}
			seed, err := r.maxExistingSequence(tx, year)
			if err != nil {
				return err
			}
			next = int64(seed) + 1
			return tx.Set(counterRef, map[string]interface{}{
				"value": next,
			})
		}

		current, err := doc.DataAt("value")
		if err != nil {
			return goerr.Wrap(err, "failed to get report counter value", goerr.V("year", year))
		}
		val, ok := current.(int64)
		if !ok {
			return goerr.New("report counter value is not of type int64", goerr.V("value", current))
		}
		next = val + 1
		return tx.Update(counterRef, []firestore.Update{
			{Path: "value", Value: next},
		})
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to issue report id", goerr.V("year", year))
	}

	return model.FormatReportID(year, int(next)), nil
}

func (r *incidentReportRepository) Create(ctx context.Context, report *model.IncidentReport) (*model.IncidentReport, error) {
	created := *report
	if created.CreatedAt.IsZero() {
		created.CreatedAt = storeNow()
	}

	docRef := r.reportsCollection().Doc(created.ReportID)
	if _, err := docRef.Create(ctx, &created); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(model.ErrConflict, "duplicate report id", goerr.V(model.ReportIDKey, report.ReportID))
		}
		return nil, goerr.Wrap(err, "failed to create report", goerr.V(model.ReportIDKey, report.ReportID))
	}

	created.ID = docRef.ID
	return &created, nil
}

func decodeReport(doc *firestore.DocumentSnapshot) (*model.IncidentReport, error) {
	var report model.IncidentReport
	if err := doc.DataTo(&report); err != nil {
		return nil, goerr.Wrap(err, "failed to decode report", goerr.V("doc_id", doc.Ref.ID))
	}
	report.ID = doc.Ref.ID
	return &report, nil
}

func (r *incidentReportRepository) Get(ctx context.Context, reportID string) (*model.IncidentReport, error) {
	doc, err := r.reportsCollection().Doc(reportID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "report not found", goerr.V(model.ReportIDKey, reportID))
		}
		return nil, goerr.Wrap(err, "failed to get report", goerr.V(model.ReportIDKey, reportID))
	}
	return decodeReport(doc)
}

// decodeAll iterates q and returns every document that decodes. Documents
// of the wrong shape are logged and skipped.
func (r *incidentReportRepository) decodeAll(ctx context.Context, q firestore.Query) ([]*model.IncidentReport, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	reports := make([]*model.IncidentReport, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate reports")
		}

		report, err := decodeReport(doc)
		if err != nil {
			logging.From(ctx).Warn("skipping undecodable incident report", "doc_id", doc.Ref.ID, "error", err)
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// scan is decodeAll without the documents that fail validation.
func (r *incidentReportRepository) scan(ctx context.Context, q firestore.Query) ([]*model.IncidentReport, error) {
	decoded, err := r.decodeAll(ctx, q)
	if err != nil {
		return nil, err
	}

	reports := make([]*model.IncidentReport, 0, len(decoded))
	for _, report := range decoded {
		if err := report.Validate(); err != nil {
			logging.From(ctx).Warn("skipping invalid incident report", "report_id", report.ReportID, "error", err)
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (r *incidentReportRepository) List(ctx context.Context, filter *model.ReportFilter) ([]*model.IncidentReport, error) {
	q := r.reportsCollection().Query
	if filter.Status != "" {
		q = q.Where("status", "==", string(filter.Status))
	}
	if filter.Country != "" {
		q = q.Where("incident_details.location.country", "==", filter.Country)
	}
	if filter.StartDate != nil {
		q = q.Where("incident_details.date", ">=", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("incident_details.date", "<=", *filter.EndDate)
	}

	reports, err := r.scan(ctx, q)
	if err != nil {
		return nil, err
	}

	sort.Slice(reports, func(i, j int) bool {
		if !reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].CreatedAt.After(reports[j].CreatedAt)
		}
		return reports[i].ReportID > reports[j].ReportID
	})

	if filter.Skip >= len(reports) {
		return []*model.IncidentReport{}, nil
	}
	reports = reports[filter.Skip:]
	if filter.Limit > 0 && len(reports) > filter.Limit {
		reports = reports[:filter.Limit]
	}
	return reports, nil
}

func (r *incidentReportRepository) UpdateStatus(ctx context.Context, reportID string, to types.ReportStatus) (*model.IncidentReport, error) {
	docRef := r.reportsCollection().Doc(reportID)

	var updated *model.IncidentReport
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(model.ErrNotFound, "report not found", goerr.V(model.ReportIDKey, reportID))
			}
			return goerr.Wrap(err, "failed to get report", goerr.V(model.ReportIDKey, reportID))
		}
		report, err := decodeReport(doc)
		if err != nil {
			return err
		}
		if report.Status == to {
			return goerr.Wrap(model.ErrNotModified, "report status not updated",
				goerr.V(model.ReportIDKey, reportID), goerr.V(model.StatusKey, to))
		}

		if err := tx.Update(docRef, []firestore.Update{
			{Path: "status", Value: string(to)},
		}); err != nil {
			return goerr.Wrap(err, "failed to update report status", goerr.V(model.ReportIDKey, reportID))
		}
		report.Status = to
		updated = report
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CountByViolation counts every stored report, including those List skips.
func (r *incidentReportRepository) CountByViolation(ctx context.Context, limit int) ([]model.ViolationCount, error) {
	reports, err := r.decodeAll(ctx, r.reportsCollection().Query)
	if err != nil {
		return nil, err
	}
	return model.CountReportViolations(reports, limit), nil
}
