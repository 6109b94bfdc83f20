package model

import (
	"strings"
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
)

// CaseFilter holds the conjunctive filters of a case query. Zero values
// mean "no constraint".
type CaseFilter struct {
	Country   string
	Violation string
	Status    types.CaseStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	QueryText string
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Match evaluates the filter in memory. Backends that push filters down to
// the store must produce the same result.
func (f *CaseFilter) Match(c *Case) bool {
	if f.Country != "" && !containsFold(c.Location.Country, f.Country) {
		return false
	}
	if f.Violation != "" {
		found := false
		for _, v := range c.ViolationTypes {
			if containsFold(v, f.Violation) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.DateFrom != nil && c.DateOccurred.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && c.DateOccurred.After(*f.DateTo) {
		return false
	}
	if f.QueryText != "" &&
		!containsFold(c.CaseID, f.QueryText) &&
		!containsFold(c.Title, f.QueryText) &&
		!containsFold(c.Description, f.QueryText) {
		return false
	}
	return true
}

const (
	DefaultReportLimit = 20
	MaxReportLimit     = 100
)

// ReportFilter holds the filters and page window of a report listing.
// StartDate and EndDate are absolute instants; see DayStart and DayEnd.
type ReportFilter struct {
	Status    types.ReportStatus
	StartDate *time.Time
	EndDate   *time.Time
	Country   string
	Skip      int
	Limit     int
}

func (f *ReportFilter) Match(r *IncidentReport) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.StartDate != nil && r.IncidentDetails.Date.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && r.IncidentDetails.Date.After(*f.EndDate) {
		return false
	}
	if f.Country != "" && r.IncidentDetails.Location.Country != f.Country {
		return false
	}
	return true
}

// DayStart returns 00:00:00 UTC of the calendar day of t.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayEnd returns 23:59:59.999999 UTC of the calendar day of t.
func DayEnd(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999999000, time.UTC)
}
