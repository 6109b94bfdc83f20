package interfaces

import (
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
)

// ListCaseOption is a functional option for filtering cases in List and the
// case aggregations
type ListCaseOption func(*model.CaseFilter)

// WithCountry keeps cases whose country contains s, case-insensitively
func WithCountry(s string) ListCaseOption {
	return func(f *model.CaseFilter) {
		f.Country = s
	}
}

// WithViolation keeps cases with a violation type containing s,
// case-insensitively
func WithViolation(s string) ListCaseOption {
	return func(f *model.CaseFilter) {
		f.Violation = s
	}
}

// WithStatus filters cases by status
func WithStatus(status types.CaseStatus) ListCaseOption {
	return func(f *model.CaseFilter) {
		f.Status = status
	}
}

// WithDateFrom keeps cases that occurred at or after t
func WithDateFrom(t time.Time) ListCaseOption {
	return func(f *model.CaseFilter) {
		f.DateFrom = &t
	}
}

// WithDateTo keeps cases that occurred at or before t
func WithDateTo(t time.Time) ListCaseOption {
	return func(f *model.CaseFilter) {
		f.DateTo = &t
	}
}

// WithQueryText keeps cases whose case_id, title or description contains s
func WithQueryText(s string) ListCaseOption {
	return func(f *model.CaseFilter) {
		f.QueryText = s
	}
}

// BuildCaseFilter builds a CaseFilter from options
func BuildCaseFilter(opts ...ListCaseOption) *model.CaseFilter {
	f := &model.CaseFilter{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}
