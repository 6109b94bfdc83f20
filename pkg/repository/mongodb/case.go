package mongodb

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type caseRepository struct {
	cases   *mongo.Collection
	history *mongo.Collection
}

func newCaseRepository(db *mongo.Database) *caseRepository {
	return &caseRepository{
		cases:   db.Collection(CollectionCases),
		history: db.Collection(CollectionStatusHistory),
	}
}

func insertedID(res *mongo.InsertOneResult) string {
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return ""
}

// Create relies on the unique index on case_id for the duplicate check.
func (r *caseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	now := storeNow()
	created := c.Copy()
	created.ID = ""
	created.CreatedAt = now
	created.UpdatedAt = now

	res, err := r.cases.InsertOne(ctx, created)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, goerr.Wrap(model.ErrConflict, "duplicate case id", goerr.V(model.CaseIDKey, c.CaseID))
		}
		return nil, goerr.Wrap(err, "failed to create case", goerr.V(model.CaseIDKey, c.CaseID))
	}

	created.ID = insertedID(res)
	return created, nil
}

func (r *caseRepository) Get(ctx context.Context, caseID string) (*model.Case, error) {
	var c model.Case
	if err := r.cases.FindOne(ctx, bson.M{"case_id": caseID}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, goerr.Wrap(model.ErrNotFound, "case not found", goerr.V(model.CaseIDKey, caseID))
		}
		return nil, goerr.Wrap(err, "failed to get case", goerr.V(model.CaseIDKey, caseID))
	}
	return &c, nil
}

func containsRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// caseQuery translates a filter into a query document equivalent to
// model.CaseFilter.Match.
func caseQuery(f *model.CaseFilter) bson.M {
	q := bson.M{}
	if f.Country != "" {
		q["location.country"] = containsRegex(f.Country)
	}
	if f.Violation != "" {
		q["violation_types"] = containsRegex(f.Violation)
	}
	if f.Status != "" {
		q["status"] = string(f.Status)
	}
	if f.DateFrom != nil || f.DateTo != nil {
		r := bson.M{}
		if f.DateFrom != nil {
			r["$gte"] = *f.DateFrom
		}
		if f.DateTo != nil {
			r["$lte"] = *f.DateTo
		}
		q["date_occurred"] = r
	}
	if f.QueryText != "" {
		re := containsRegex(f.QueryText)
		q["$or"] = bson.A{
			bson.M{"case_id": re},
			bson.M{"title": re},
			bson.M{"description": re},
		}
	}
	return q
}

func (r *caseRepository) List(ctx context.Context, opts ...interfaces.ListCaseOption) ([]*model.Case, error) {
	q := caseQuery(interfaces.BuildCaseFilter(opts...))
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "case_id", Value: 1}})

	cur, err := r.cases.Find(ctx, q, findOpts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find cases")
	}
	defer cur.Close(ctx)

	cases := make([]*model.Case, 0)
	for cur.Next(ctx) {
		var c model.Case
		if err := cur.Decode(&c); err != nil {
			return nil, goerr.Wrap(err, "failed to decode case")
		}
		cases = append(cases, &c)
	}
	if err := cur.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate cases")
	}
	return cases, nil
}

func (r *caseRepository) appendHistory(ctx context.Context, caseID string, from, to types.CaseStatus, actor string, at time.Time) (*model.StatusHistoryRecord, error) {
	rec := &model.StatusHistoryRecord{
		CaseID:    caseID,
		OldStatus: from,
		NewStatus: to,
		UpdatedAt: at,
		UpdatedBy: actor,
	}
	res, err := r.history.InsertOne(ctx, rec)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to append status history", goerr.V(model.CaseIDKey, caseID))
	}
	rec.ID = insertedID(res)
	return rec, nil
}

// Update sets the editable fields with find-and-modify, so the returned
// pre-image holds exactly the status that was replaced.
func (r *caseRepository) Update(ctx context.Context, c *model.Case, actor string) (*model.Case, *model.StatusHistoryRecord, error) {
	now := storeNow()
	set := bson.M{
		"title":           c.Title,
		"description":     c.Description,
		"violation_types": c.ViolationTypes,
		"status":          string(c.Status),
		"priority":        string(c.Priority),
		"location":        c.Location,
		"date_occurred":   c.DateOccurred,
		"date_reported":   c.DateReported,
		"victims":         c.Victims,
		"perpetrators":    c.Perpetrators,
		"evidence":        c.Evidence,
		"updated_at":      now,
	}

	var before model.Case
	err := r.cases.FindOneAndUpdate(ctx,
		bson.M{"case_id": c.CaseID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, goerr.Wrap(model.ErrNotFound, "case not found", goerr.V(model.CaseIDKey, c.CaseID))
		}
		return nil, nil, goerr.Wrap(err, "failed to update case", goerr.V(model.CaseIDKey, c.CaseID))
	}

	updated := c.Copy()
	updated.ID = before.ID
	updated.CreatedBy = before.CreatedBy
	updated.CreatedAt = before.CreatedAt
	updated.UpdatedAt = now

	var rec *model.StatusHistoryRecord
	if before.Status != c.Status {
		rec, err = r.appendHistory(ctx, c.CaseID, before.Status, c.Status, actor, now)
		if err != nil {
			return nil, nil, err
		}
	}
	return updated, rec, nil
}

// UpdateStatus only matches a case whose status differs from the target, so
// a concurrent identical change cannot produce two history records.
func (r *caseRepository) UpdateStatus(ctx context.Context, caseID string, to types.CaseStatus, actor string) (*model.StatusHistoryRecord, error) {
	now := storeNow()

	var before model.Case
	err := r.cases.FindOneAndUpdate(ctx,
		bson.M{"case_id": caseID, "status": bson.M{"$ne": string(to)}},
		bson.M{"$set": bson.M{"status": string(to), "updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, goerr.Wrap(err, "failed to update case status", goerr.V(model.CaseIDKey, caseID))
		}
		n, cerr := r.cases.CountDocuments(ctx, bson.M{"case_id": caseID})
		if cerr != nil {
			return nil, goerr.Wrap(cerr, "failed to check case existence", goerr.V(model.CaseIDKey, caseID))
		}
		if n == 0 {
			return nil, goerr.Wrap(model.ErrNotFound, "case not found", goerr.V(model.CaseIDKey, caseID))
		}
		return nil, goerr.Wrap(model.ErrNotModified, "status not updated",
			goerr.V(model.CaseIDKey, caseID), goerr.V(model.StatusKey, to))
	}

	return r.appendHistory(ctx, caseID, before.Status, to, actor, now)
}

func (r *caseRepository) AppendEvidence(ctx context.Context, caseID string, item model.EvidenceItem) error {
	res, err := r.cases.UpdateOne(ctx,
		bson.M{"case_id": caseID},
		bson.M{
			"$push": bson.M{"evidence": item},
			"$set":  bson.M{"updated_at": storeNow()},
		},
	)
	if err != nil {
		return goerr.Wrap(err, "failed to append evidence", goerr.V(model.CaseIDKey, caseID))
	}
	if res.MatchedCount == 0 {
		return goerr.Wrap(model.ErrNotFound, "case not found", goerr.V(model.CaseIDKey, caseID))
	}
	return nil
}

func (r *caseRepository) ListStatusHistory(ctx context.Context, caseID string) ([]*model.StatusHistoryRecord, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.history.Find(ctx, bson.M{"case_id": caseID}, findOpts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find status history", goerr.V(model.CaseIDKey, caseID))
	}
	defer cur.Close(ctx)

	records := make([]*model.StatusHistoryRecord, 0)
	if err := cur.All(ctx, &records); err != nil {
		return nil, goerr.Wrap(err, "failed to decode status history", goerr.V(model.CaseIDKey, caseID))
	}
	return records, nil
}

func aggregate[T any](ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) ([]T, error) {
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run aggregation", goerr.V("collection", coll.Name()))
	}
	defer cur.Close(ctx)

	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, goerr.Wrap(err, "failed to decode aggregation", goerr.V("collection", coll.Name()))
	}
	return out, nil
}

var rankStage = bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}}

func countStage(field string) bson.D {
	return bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: field},
		{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
	}}}
}

func (r *caseRepository) CountByViolation(ctx context.Context, opts ...interfaces.ListCaseOption) ([]model.ViolationCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: caseQuery(interfaces.BuildCaseFilter(opts...))}},
		{{Key: "$unwind", Value: "$violation_types"}},
		countStage("$violation_types"),
		rankStage,
	}
	return aggregate[model.ViolationCount](ctx, r.cases, pipeline)
}

func (r *caseRepository) CountByCountry(ctx context.Context, opts ...interfaces.ListCaseOption) ([]model.CountryCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: caseQuery(interfaces.BuildCaseFilter(opts...))}},
		countStage("$location.country"),
		rankStage,
	}
	return aggregate[model.CountryCount](ctx, r.cases, pipeline)
}

// CountByMonth only buckets documents whose date_occurred is a real BSON
// date.
func (r *caseRepository) CountByMonth(ctx context.Context, opts ...interfaces.ListCaseOption) ([]model.TimelinePoint, error) {
	match := caseQuery(interfaces.BuildCaseFilter(opts...))
	if existing, ok := match["date_occurred"].(bson.M); ok {
		existing["$type"] = "date"
	} else {
		match["date_occurred"] = bson.M{"$type": "date"}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
				{Key: "format", Value: "%Y-%m"},
				{Key: "date", Value: "$date_occurred"},
			}}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	return aggregate[model.TimelinePoint](ctx, r.cases, pipeline)
}
