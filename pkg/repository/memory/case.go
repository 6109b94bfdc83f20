package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type caseRepository struct {
	mu      sync.RWMutex
	cases   map[string]*model.Case
	history []*model.StatusHistoryRecord
	now     func() time.Time
}

func newCaseRepository(now func() time.Time) *caseRepository {
	return &caseRepository{
		cases: make(map[string]*model.Case),
		now:   now,
	}
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cases[c.CaseID]; exists {
		return nil, goerr.Wrap(model.ErrConflict, "duplicate case id", goerr.V(model.CaseIDKey, c.CaseID))
	}

	now := r.now()
	created := c.Copy()
	created.ID = uuid.NewString()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.cases[created.CaseID] = created
	return created.Copy(), nil
}

func (r *caseRepository) Get(ctx context.Context, caseID string) (*model.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.cases[caseID]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "case not found", goerr.V(model.CaseIDKey, caseID))
	}
	return c.Copy(), nil
}

// list returns matching cases ordered by creation time. Callers must hold
// the lock.
func (r *caseRepository) list(filter *model.CaseFilter) []*model.Case {
	cases := make([]*model.Case, 0, len(r.cases))
	for _, c := range r.cases {
		if filter.Match(c) {
			cases = append(cases, c.Copy())
		}
	}
	sort.Slice(cases, func(i, j int) bool {
		if !cases[i].CreatedAt.Equal(cases[j].CreatedAt) {
			return cases[i].CreatedAt.Before(cases[j].CreatedAt)
		}
		return cases[i].CaseID < cases[j].CaseID
	})
	return cases
}

func (r *caseRepository) List(ctx context.Context, opts ...interfaces.ListCaseOption) ([]*model.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.list(interfaces.BuildCaseFilter(opts...)), nil
}

// transition changes the status of existing and records it. Callers must
// hold the write lock.
func (r *caseRepository) transition(existing *model.Case, status types.CaseStatus, actor string, now time.Time) *model.StatusHistoryRecord {
	rec := &model.StatusHistoryRecord{
		ID:        uuid.NewString(),
		CaseID:    existing.CaseID,
		OldStatus: existing.Status,
		NewStatus: status,
		UpdatedAt: now,
		UpdatedBy: actor,
	}
	existing.Status = status
	existing.UpdatedAt = now
	r.history = append(r.history, rec)
	copied := *rec
	return &copied
}

func (r *caseRepository) Update(ctx context.Context, c *model.Case, actor string) (*model.Case, *model.StatusHistoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.cases[c.CaseID]
	if !exists {
		return nil, nil, goerr.Wrap(model.ErrNotFound, "case not found", goerr.V(model.CaseIDKey, c.CaseID))
	}

	now := r.now()
	var rec *model.StatusHistoryRecord
	if existing.Status != c.Status {
		rec = r.transition(existing, c.Status, actor, now)
	}

	updated := c.Copy()
	updated.ID = existing.ID
	updated.CreatedBy = existing.CreatedBy
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = now

	r.cases[updated.CaseID] = updated
	return updated.Copy(), rec, nil
}

func (r *caseRepository) UpdateStatus(ctx context.Context, caseID string, status types.CaseStatus, actor string) (*model.StatusHistoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.cases[caseID]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "case not found", goerr.V(model.CaseIDKey, caseID))
	}
	if existing.Status == status {
		return nil, goerr.Wrap(model.ErrNotModified, "status not updated",
			goerr.V(model.CaseIDKey, caseID), goerr.V(model.StatusKey, status))
	}

	return r.transition(existing, status, actor, r.now()), nil
}

func (r *caseRepository) AppendEvidence(ctx context.Context, caseID string, item model.EvidenceItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.cases[caseID]
	if !exists {
		return goerr.Wrap(model.ErrNotFound, "case not found", goerr.V(model.CaseIDKey, caseID))
	}
	existing.Evidence = append(existing.Evidence, item)
	existing.UpdatedAt = r.now()
	return nil
}

func (r *caseRepository) ListStatusHistory(ctx context.Context, caseID string) ([]*model.StatusHistoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*model.StatusHistoryRecord, 0)
	// newest first; appended order breaks timestamp ties
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].CaseID == caseID {
			copied := *r.history[i]
			records = append(records, &copied)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})
	return records, nil
}

func (r *caseRepository) CountByViolation(ctx context.Context, opts ...interfaces.ListCaseOption) ([]model.ViolationCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return model.CountCaseViolations(r.list(interfaces.BuildCaseFilter(opts...))), nil
}

func (r *caseRepository) CountByCountry(ctx context.Context, opts ...interfaces.ListCaseOption) ([]model.CountryCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return model.CountCaseCountries(r.list(interfaces.BuildCaseFilter(opts...))), nil
}

func (r *caseRepository) CountByMonth(ctx context.Context, opts ...interfaces.ListCaseOption) ([]model.TimelinePoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return model.CountCasesByMonth(r.list(interfaces.BuildCaseFilter(opts...))), nil
}
