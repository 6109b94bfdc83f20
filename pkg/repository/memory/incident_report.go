package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
	"github.com/hrmonitor/hrmonitor/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

type incidentReportRepository struct {
	mu       sync.RWMutex
	reports  map[string]*model.IncidentReport
	counters map[int]int
	now      func() time.Time
}

func newIncidentReportRepository(now func() time.Time) *incidentReportRepository {
	return &incidentReportRepository{
		reports:  make(map[string]*model.IncidentReport),
		counters: make(map[int]int),
		now:      now,
	}
}

func copyReport(r *model.IncidentReport) *model.IncidentReport {
	copied := *r
	if r.ContactInfo != nil {
		contact := *r.ContactInfo
		copied.ContactInfo = &contact
	}
	copied.IncidentDetails.ViolationTypes = append([]string(nil), r.IncidentDetails.ViolationTypes...)
	if p := r.IncidentDetails.Location.Coordinates; p != nil {
		copied.IncidentDetails.Location.Coordinates = model.NewGeoPoint(p.Longitude(), p.Latitude())
	}
	copied.Evidence = append([]model.ReportEvidence(nil), r.Evidence...)
	return &copied
}

func (r *incidentReportRepository) NextReportID(ctx context.Context, year int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seq, ok := r.counters[year]
	if !ok {
		seq = model.ReportSequenceBase
		prefix := model.ReportIDPrefix(year)
		for id := range r.reports {
			if !strings.HasPrefix(id, prefix) {
				continue
			}
			if _, n, ok := model.ParseReportID(id); ok && n > seq {
				seq = n
			}
		}
	}
	seq++
	r.counters[year] = seq
	return model.FormatReportID(year, seq), nil
}

func (r *incidentReportRepository) Create(ctx context.Context, report *model.IncidentReport) (*model.IncidentReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reports[report.ReportID]; exists {
		return nil, goerr.Wrap(model.ErrConflict, "duplicate report id", goerr.V(model.ReportIDKey, report.ReportID))
	}

	created := copyReport(report)
	created.ID = uuid.NewString()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = r.now()
	}
	r.reports[created.ReportID] = created
	return copyReport(created), nil
}

func (r *incidentReportRepository) Get(ctx context.Context, reportID string) (*model.IncidentReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, exists := r.reports[reportID]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "report not found", goerr.V(model.ReportIDKey, reportID))
	}
	return copyReport(report), nil
}

func (r *incidentReportRepository) List(ctx context.Context, filter *model.ReportFilter) ([]*model.IncidentReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*model.IncidentReport, 0)
	for _, report := range r.reports {
		if !filter.Match(report) {
			continue
		}
		report = copyReport(report)
		if err := report.Validate(); err != nil {
			logging.From(ctx).Warn("skipping invalid incident report", "report_id", report.ReportID, "error", err)
			continue
		}
		matched = append(matched, report)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ReportID > matched[j].ReportID
	})

	if filter.Skip >= len(matched) {
		return []*model.IncidentReport{}, nil
	}
	matched = matched[filter.Skip:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	return matched, nil
}

func (r *incidentReportRepository) UpdateStatus(ctx context.Context, reportID string, status types.ReportStatus) (*model.IncidentReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, exists := r.reports[reportID]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "report not found", goerr.V(model.ReportIDKey, reportID))
	}
	if report.Status == status {
		return nil, goerr.Wrap(model.ErrNotModified, "report status not updated",
			goerr.V(model.ReportIDKey, reportID), goerr.V(model.StatusKey, status))
	}
	report.Status = status
	return copyReport(report), nil
}

func (r *incidentReportRepository) CountByViolation(ctx context.Context, limit int) ([]model.ViolationCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reports := make([]*model.IncidentReport, 0, len(r.reports))
	for _, report := range r.reports {
		reports = append(reports, report)
	}
	return model.CountReportViolations(reports, limit), nil
}
