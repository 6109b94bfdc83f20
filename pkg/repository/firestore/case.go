package firestore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type caseRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newCaseRepository(client *firestore.Client) *caseRepository {
	return &caseRepository{
		client: client,
	}
}

func (r *caseRepository) casesCollection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, CollectionCases))
}

func (r *caseRepository) historyCollection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, CollectionStatusHistory))
}

// Cases are keyed by case_id, so Create is the uniqueness check.
func (r *caseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	now := storeNow()
	created := c.Copy()
	created.CreatedAt = now
	created.UpdatedAt = now

	docRef := r.casesCollection().Doc(created.CaseID)
	if _, err := docRef.Create(ctx, created); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(model.ErrConflict, "duplicate case id", goerr.V(model.CaseIDKey, c.CaseID))
		}
		return nil, goerr.Wrap(err, "failed to create case", goerr.V(model.CaseIDKey, c.CaseID))
	}

	created.ID = docRef.ID
	return created, nil
}

func decodeCase(doc *firestore.DocumentSnapshot) (*model.Case, error) {
	var c model.Case
	if err := doc.DataTo(&c); err != nil {
		return nil, goerr.Wrap(err, "failed to decode case", goerr.V("doc_id", doc.Ref.ID))
	}
	c.ID = doc.Ref.ID
	return &c, nil
}

func (r *caseRepository) Get(ctx context.Context, caseID string) (*model.Case, error) {
	doc, err := r.casesCollection().Doc(caseID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "case not found", goerr.V(model.CaseIDKey, caseID))
		}
		return nil, goerr.Wrap(err, "failed to get case", goerr.V(model.CaseIDKey, caseID))
	}
	return decodeCase(doc)
}

// List pushes the exact-match status and the date range down to Firestore.
// The case-insensitive substring filters have no Firestore equivalent and
// are applied to the fetched documents.
func (r *caseRepository) List(ctx context.Context, opts ...interfaces.ListCaseOption) ([]*model.Case, error) {
	filter := interfaces.BuildCaseFilter(opts...)

	q := r.casesCollection().Query
	if filter.Status != "" {
		q = q.Where("status", "==", string(filter.Status))
	}
	if filter.DateFrom != nil {
		q = q.Where("date_occurred", ">=", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("date_occurred", "<=", *filter.DateTo)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	cases := make([]*model.Case, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate cases")
		}

		c, err := decodeCase(doc)
		if err != nil {
			return nil, err
		}
		if filter.Match(c) {
			cases = append(cases, c)
		}
	}

	sort.Slice(cases, func(i, j int) bool {
		if !cases[i].CreatedAt.Equal(cases[j].CreatedAt) {
			return cases[i].CreatedAt.Before(cases[j].CreatedAt)
		}
		return cases[i].CaseID < cases[j].CaseID
	})
	return cases, nil
}

// storeNow is truncated to the precision Firestore stores.
func storeNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func newHistoryRecord(caseID string, from, to types.CaseStatus, actor string, now time.Time) *model.StatusHistoryRecord {
	return &model.StatusHistoryRecord{
		CaseID:    caseID,
		OldStatus: from,
		NewStatus: to,
		UpdatedAt: now,
		UpdatedBy: actor,
	}
}

func (r *caseRepository) Update(ctx context.Context, c *model.Case, actor string) (*model.Case, *model.StatusHistoryRecord, error) {
	docRef := r.casesCollection().Doc(c.CaseID)

	var updated *model.Case
	var rec *model.StatusHistoryRecord
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		updated, rec = nil, nil

		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(model.ErrNotFound, "case not found", goerr.V(model.CaseIDKey, c.CaseID))
			}
			return goerr.Wrap(err, "failed to get case", goerr.V(model.CaseIDKey, c.CaseID))
		}
		existing, err := decodeCase(doc)
		if err != nil {
			return err
		}

		now := storeNow()
		updated = c.Copy()
		updated.ID = docRef.ID
		updated.CreatedBy = existing.CreatedBy
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = now

		if err := tx.Set(docRef, updated); err != nil {
			return goerr.Wrap(err, "failed to update case", goerr.V(model.CaseIDKey, c.CaseID))
		}

		if existing.Status != updated.Status {
			rec = newHistoryRecord(c.CaseID, existing.Status, updated.Status, actor, now)
			histRef := r.historyCollection().NewDoc()
			if err := tx.Create(histRef, rec); err != nil {
				return goerr.Wrap(err, "failed to append status history", goerr.V(model.CaseIDKey, c.CaseID))
			}
			rec.ID = histRef.ID
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return updated, rec, nil
}

// UpdateStatus reads the current status and writes the new one together
// with its history record in a single transaction.
func (r *caseRepository) UpdateStatus(ctx context.Context, caseID string, to types.CaseStatus, actor string) (*model.StatusHistoryRecord, error) {
	docRef := r.casesCollection().Doc(caseID)

	var rec *model.StatusHistoryRecord
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		rec = nil

		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(model.ErrNotFound, "case not found", goerr.V(model.CaseIDKey, caseID))
			}
			return goerr.Wrap(err, "failed to get case", goerr.V(model.CaseIDKey, caseID))
		}

		current, err := doc.DataAt("status")
		if err != nil {
			return goerr.Wrap(err, "failed to read case status", goerr.V(model.CaseIDKey, caseID))
		}
		currentStr, _ := current.(string)
		from := types.CaseStatus(currentStr)
		if from == to {
			return goerr.Wrap(model.ErrNotModified, "status not updated",
				goerr.V(model.CaseIDKey, caseID), goerr.V(model.StatusKey, to))
		}

		now := storeNow()
		if err := tx.Update(docRef, []firestore.Update{
			{Path: "status", Value: string(to)},
			{Path: "updated_at", Value: now},
		}); err != nil {
			return goerr.Wrap(err, "failed to update case status", goerr.V(model.CaseIDKey, caseID))
		}

		rec = newHistoryRecord(caseID, from, to, actor, now)
		histRef := r.historyCollection().NewDoc()
		if err := tx.Create(histRef, rec); err != nil {
			return goerr.Wrap(err, "failed to append status history", goerr.V(model.CaseIDKey, caseID))
		}
		rec.ID = histRef.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// AppendEvidence uses ArrayUnion so that concurrent uploads do not overwrite
// each other.
func (r *caseRepository) AppendEvidence(ctx context.Context, caseID string, item model.EvidenceItem) error {
	_, err := r.casesCollection().Doc(caseID).Update(ctx, []firestore.Update{
		{Path: "evidence", Value: firestore.ArrayUnion(item)},
		{Path: "updated_at", Value: storeNow()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(model.ErrNotFound, "case not found", goerr.V(model.CaseIDKey, caseID))
		}
		return goerr.Wrap(err, "failed to append evidence", goerr.V(model.CaseIDKey, caseID))
	}
	return nil
}

func (r *caseRepository) ListStatusHistory(ctx context.Context, caseID string) ([]*model.StatusHistoryRecord, error) {
	iter := r.historyCollection().
		Where("case_id", "==", caseID).
		OrderBy("updated_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	records := make([]*model.StatusHistoryRecord, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate status history", goerr.V(model.CaseIDKey, caseID))
		}

		var rec model.StatusHistoryRecord
		if err := doc.DataTo(&rec); err != nil {
			return nil, goerr.Wrap(err, "failed to decode status history", goerr.V("doc_id", doc.Ref.ID))
		}
		rec.ID = doc.Ref.ID
		records = append(records, &rec)
	}

	return records, nil
}

func (r *caseRepository) CountByViolation(ctx context.Context, opts ...interfaces.ListCaseOption) ([]model.ViolationCount, error) {
	cases, err := r.List(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return model.CountCaseViolations(cases), nil
}

func (r *caseRepository) CountByCountry(ctx context.Context, opts ...interfaces.ListCaseOption) ([]model.CountryCount, error) {
	cases, err := r.List(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return model.CountCaseCountries(cases), nil
}

func (r *caseRepository) CountByMonth(ctx context.Context, opts ...interfaces.ListCaseOption) ([]model.TimelinePoint, error) {
	cases, err := r.List(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return model.CountCasesByMonth(cases), nil
}
