package interfaces

import (
	"context"

	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
)

// CaseRepository defines the interface for Case data access. Cases are
// addressed by their caller-assigned case_id.
type CaseRepository interface {
	// Create inserts a new case. It fails with model.ErrConflict when the
	// case_id already exists. CreatedAt and UpdatedAt are set by the store.
	Create(ctx context.Context, c *model.Case) (*model.Case, error)

	// Get retrieves a case by case_id
	Get(ctx context.Context, caseID string) (*model.Case, error)

	// List retrieves cases matching every given filter
	List(ctx context.Context, opts ...ListCaseOption) ([]*model.Case, error)

	// Update replaces the editable fields of a case. CaseID, CreatedBy and
	// CreatedAt are preserved. When the status changes, a history record
	// authored by actor is appended in the same operation and returned.
	Update(ctx context.Context, c *model.Case, actor string) (*model.Case, *model.StatusHistoryRecord, error)

	// UpdateStatus atomically replaces the status and appends a history
	// record holding the replaced value. It fails with model.ErrNotModified
	// when the case already has the requested status.
	UpdateStatus(ctx context.Context, caseID string, status types.CaseStatus, actor string) (*model.StatusHistoryRecord, error)

	// AppendEvidence adds one evidence item without overwriting concurrent
	// appends.
	AppendEvidence(ctx context.Context, caseID string, item model.EvidenceItem) error

	// ListStatusHistory returns the history of a case, newest first.
	ListStatusHistory(ctx context.Context, caseID string) ([]*model.StatusHistoryRecord, error)

	CountByViolation(ctx context.Context, opts ...ListCaseOption) ([]model.ViolationCount, error)
	CountByCountry(ctx context.Context, opts ...ListCaseOption) ([]model.CountryCount, error)
	CountByMonth(ctx context.Context, opts ...ListCaseOption) ([]model.TimelinePoint, error)
}
