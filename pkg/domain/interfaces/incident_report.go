package interfaces

import (
	"context"

	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
)

// IncidentReportRepository defines the interface for incident report data
// access. Reports are addressed by report_id.
type IncidentReportRepository interface {
	// NextReportID issues the next report id of year. Ids are never reused,
	// including under concurrent calls.
	NextReportID(ctx context.Context, year int) (string, error)

	// Create inserts a report. CreatedAt is kept when already set.
	Create(ctx context.Context, r *model.IncidentReport) (*model.IncidentReport, error)

	Get(ctx context.Context, reportID string) (*model.IncidentReport, error)

	// List returns one page of reports matching filter. Stored documents
	// that fail validation are skipped.
	List(ctx context.Context, filter *model.ReportFilter) ([]*model.IncidentReport, error)

	// UpdateStatus sets the status and returns the updated report. It fails
	// with model.ErrNotModified when the report already has the status.
	UpdateStatus(ctx context.Context, reportID string, status types.ReportStatus) (*model.IncidentReport, error)

	// CountByViolation counts reports per violation type, at most limit
	// groups.
	CountByViolation(ctx context.Context, limit int) ([]model.ViolationCount, error)
}
