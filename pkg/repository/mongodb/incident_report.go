package mongodb

import (
	"context"
	"errors"
	"regexp"
	"strconv"

	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
	"github.com/hrmonitor/hrmonitor/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type incidentReportRepository struct {
	reports  *mongo.Collection
	counters *mongo.Collection
}

func newIncidentReportRepository(db *mongo.Database) *incidentReportRepository {
	return &incidentReportRepository{
		reports:  db.Collection(CollectionReports),
		counters: db.Collection(CollectionReportCounters),
	}
}

type reportCounter struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// maxExistingSequence finds the numerically greatest sequence among the
// stored report ids of year.
func (r *incidentReportRepository) maxExistingSequence(ctx context.Context, year int) (int64, error) {
	pattern := "^" + regexp.QuoteMeta(model.ReportIDPrefix(year)) + `\d+$`
	cur, err := r.reports.Find(ctx,
		bson.M{"report_id": bson.M{"$regex": pattern}},
		options.Find().SetProjection(bson.M{"report_id": 1}),
	)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to scan report ids", goerr.V("year", year))
	}
	defer cur.Close(ctx)

	maxSeq := int64(model.ReportSequenceBase)
	for cur.Next(ctx) {
		var doc struct {
			ReportID string `bson:"report_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			continue
		}
		if _, seq, ok := model.ParseReportID(doc.ReportID); ok && int64(seq) > maxSeq {
			maxSeq = int64(seq)
		}
	}
	if err := cur.Err(); err != nil {
		return 0, goerr.Wrap(err, "failed to iterate report ids", goerr.V("year", year))
	}
	return maxSeq, nil
}

// NextReportID increments a per-year counter with $inc. A missing counter is
// first seeded from existing report ids with $max, which is safe to repeat
// concurrently.
func (r *incidentReportRepository) NextReportID(ctx context.Context, year int) (string, error) {
	counterID := strconv.Itoa(year)

	n, err := r.counters.CountDocuments(ctx, bson.M{"_id": counterID})
	if err != nil {
		return "", goerr.Wrap(err, "failed to check report counter", goerr.V("year", year))
	}
	if n == 0 {
		seed, err := r.maxExistingSequence(ctx, year)
		if err != nil {
			return "", err
		}
		if _, err := r.counters.UpdateOne(ctx,
			bson.M{"_id": counterID},
			bson.M{"$max": bson.M{"seq": seed}},
			options.Update().SetUpsert(true),
		); err != nil {
			return "", goerr.Wrap(err, "failed to seed report counter", goerr.V("year", year))
		}
	}

	var counter reportCounter
	if err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": counterID},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After).SetUpsert(true),
	).Decode(&counter); err != nil {
		return "", goerr.Wrap(err, "failed to increment report counter", goerr.V("year", year))
	}

	return model.FormatReportID(year, int(counter.Seq)), nil
}

func (r *incidentReportRepository) Create(ctx context.Context, report *model.IncidentReport) (*model.IncidentReport, error) {
	created := *report
	created.ID = ""
	if created.CreatedAt.IsZero() {
		created.CreatedAt = storeNow()
	}

	res, err := r.reports.InsertOne(ctx, &created)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, goerr.Wrap(model.ErrConflict, "duplicate report id", goerr.V(model.ReportIDKey, report.ReportID))
		}
		return nil, goerr.Wrap(err, "failed to create report", goerr.V(model.ReportIDKey, report.ReportID))
	}

	created.ID = insertedID(res)
	return &created, nil
}

func (r *incidentReportRepository) Get(ctx context.Context, reportID string) (*model.IncidentReport, error) {
	var report model.IncidentReport
	if err := r.reports.FindOne(ctx, bson.M{"report_id": reportID}).Decode(&report); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, goerr.Wrap(model.ErrNotFound, "report not found", goerr.V(model.ReportIDKey, reportID))
		}
		return nil, goerr.Wrap(err, "failed to get report", goerr.V(model.ReportIDKey, reportID))
	}
	return &report, nil
}

func reportQuery(f *model.ReportFilter) bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = string(f.Status)
	}
	if f.Country != "" {
		q["incident_details.location.country"] = f.Country
	}
	if f.StartDate != nil || f.EndDate != nil {
		r := bson.M{}
		if f.StartDate != nil {
			r["$gte"] = *f.StartDate
		}
		if f.EndDate != nil {
			r["$lte"] = *f.EndDate
		}
		q["incident_details.date"] = r
	}
	return q
}

// List applies skip and limit in the store. Documents that fail to decode or
// validate are logged and left out of the page.
func (r *incidentReportRepository) List(ctx context.Context, filter *model.ReportFilter) ([]*model.IncidentReport, error) {
	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "report_id", Value: -1}}).
		SetSkip(int64(filter.Skip))
	if filter.Limit > 0 {
		findOpts.SetLimit(int64(filter.Limit))
	}

	cur, err := r.reports.Find(ctx, reportQuery(filter), findOpts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find reports")
	}
	defer cur.Close(ctx)

	reports := make([]*model.IncidentReport, 0)
	for cur.Next(ctx) {
		var report model.IncidentReport
		err := cur.Decode(&report)
		if err == nil {
			err = report.Validate()
		}
		if err != nil {
			logging.From(ctx).Warn("skipping invalid incident report", "doc", cur.Current.Lookup("_id").String(), "error", err)
			continue
		}
		reports = append(reports, &report)
	}
	if err := cur.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate reports")
	}
	return reports, nil
}

func (r *incidentReportRepository) UpdateStatus(ctx context.Context, reportID string, to types.ReportStatus) (*model.IncidentReport, error) {
	var updated model.IncidentReport
	err := r.reports.FindOneAndUpdate(ctx,
		bson.M{"report_id": reportID, "status": bson.M{"$ne": string(to)}},
		bson.M{"$set": bson.M{"status": string(to)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, goerr.Wrap(err, "failed to update report status", goerr.V(model.ReportIDKey, reportID))
		}
		n, cerr := r.reports.CountDocuments(ctx, bson.M{"report_id": reportID})
		if cerr != nil {
			return nil, goerr.Wrap(cerr, "failed to check report existence", goerr.V(model.ReportIDKey, reportID))
		}
		if n == 0 {
			return nil, goerr.Wrap(model.ErrNotFound, "report not found", goerr.V(model.ReportIDKey, reportID))
		}
		return nil, goerr.Wrap(model.ErrNotModified, "report status not updated",
			goerr.V(model.ReportIDKey, reportID), goerr.V(model.StatusKey, to))
	}
	return &updated, nil
}

func (r *incidentReportRepository) CountByViolation(ctx context.Context, limit int) ([]model.ViolationCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$incident_details.violation_types"}},
		countStage("$incident_details.violation_types"),
		rankStage,
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	return aggregate[model.ViolationCount](ctx, r.reports, pipeline)
}
