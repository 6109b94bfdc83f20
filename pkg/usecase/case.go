package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
	"github.com/hrmonitor/hrmonitor/pkg/utils/async"
	"github.com/hrmonitor/hrmonitor/pkg/utils/logging"
	"github.com/hrmonitor/hrmonitor/pkg/utils/metrics"
	"github.com/m-mizutani/goerr/v2"
)

type CaseUseCase struct {
	repo     interfaces.Repository
	notifier interfaces.Notifier
	clock    func() time.Time
}

func actorOrDefault(actor string) string {
	if actor = strings.TrimSpace(actor); actor != "" {
		return actor
	}
	return model.DefaultActor
}

// CreateCase normalizes and validates c, then inserts it. A colliding
// case_id fails with model.ErrConflict and leaves the stored case untouched.
func (uc *CaseUseCase) CreateCase(ctx context.Context, c *model.Case) (*model.Case, error) {
	c = c.Copy()
	c.Normalize(uc.clock())
	if err := c.Validate(); err != nil {
		return nil, err
	}

	created, err := uc.repo.Case().Create(ctx, c)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create case", goerr.V(model.CaseIDKey, c.CaseID))
	}

	metrics.RecordCaseCreated()
	logging.From(ctx).Info("case created", "case_id", created.CaseID, "created_by", created.CreatedBy)
	return created, nil
}

func (uc *CaseUseCase) GetCase(ctx context.Context, caseID string) (*model.Case, error) {
	c, err := uc.repo.Case().Get(ctx, caseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get case", goerr.V(model.CaseIDKey, caseID))
	}
	return c, nil
}

func (uc *CaseUseCase) ListCases(ctx context.Context, opts ...interfaces.ListCaseOption) ([]*model.Case, error) {
	cases, err := uc.repo.Case().List(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list cases")
	}
	return cases, nil
}

// UpdateCase replaces the editable fields of an existing case. A status
// change made through an edit is recorded in the history like any other.
func (uc *CaseUseCase) UpdateCase(ctx context.Context, c *model.Case, actor string) (*model.Case, error) {
	actor = actorOrDefault(actor)

	existing, err := uc.repo.Case().Get(ctx, c.CaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get case", goerr.V(model.CaseIDKey, c.CaseID))
	}

	c = c.Copy()
	// created_by is immutable; carry it so validation sees the stored value
	c.CreatedBy = existing.CreatedBy
	if c.Status == "" {
		c.Status = existing.Status
	}
	c.Normalize(uc.clock())
	if err := c.Validate(); err != nil {
		return nil, err
	}

	updated, rec, err := uc.repo.Case().Update(ctx, c, actor)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update case", goerr.V(model.CaseIDKey, c.CaseID))
	}
	if rec != nil {
		uc.statusChanged(ctx, rec)
	}
	return updated, nil
}

// UpdateStatus moves a case to status and records the transition. A change
// to the current status fails with model.ErrNotModified.
func (uc *CaseUseCase) UpdateStatus(ctx context.Context, caseID, status, actor string) (*model.StatusHistoryRecord, error) {
	to, err := types.ParseCaseStatus(status)
	if err != nil {
		return nil, goerr.Wrap(model.ErrValidation, "invalid case status",
			goerr.V(model.CaseIDKey, caseID), goerr.V(model.StatusKey, status))
	}
	actor = actorOrDefault(actor)

	rec, err := uc.repo.Case().UpdateStatus(ctx, caseID, to, actor)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update case status",
			goerr.V(model.CaseIDKey, caseID), goerr.V(model.StatusKey, to), goerr.V(ActorKey, actor))
	}

	uc.statusChanged(ctx, rec)
	return rec, nil
}

// ArchiveCase sets the archived status through the same transition path as
// UpdateStatus. Archiving an archived case succeeds without a new record.
func (uc *CaseUseCase) ArchiveCase(ctx context.Context, caseID, actor string) error {
	_, err := uc.UpdateStatus(ctx, caseID, string(types.CaseStatusArchived), actor)
	if err != nil && !errors.Is(err, model.ErrNotModified) {
		return err
	}
	return nil
}

// GetStatusHistory returns the transitions of a case, newest first. An
// unknown case has an empty history.
func (uc *CaseUseCase) GetStatusHistory(ctx context.Context, caseID string) ([]*model.StatusHistoryRecord, error) {
	records, err := uc.repo.Case().ListStatusHistory(ctx, caseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list status history", goerr.V(model.CaseIDKey, caseID))
	}
	return records, nil
}

func (uc *CaseUseCase) statusChanged(ctx context.Context, rec *model.StatusHistoryRecord) {
	metrics.RecordCaseStatusChange(rec.OldStatus.String(), rec.NewStatus.String())
	logging.From(ctx).Info("case status changed",
		"case_id", rec.CaseID,
		"old_status", rec.OldStatus,
		"new_status", rec.NewStatus,
		"updated_by", rec.UpdatedBy,
	)

	if uc.notifier == nil {
		return
	}
	notified := *rec
	async.Dispatch(ctx, func(ctx context.Context) error {
		return uc.notifier.NotifyCaseStatusChanged(ctx, &notified)
	})
}
