package types

import "github.com/m-mizutani/goerr/v2"

// ReportStatus represents the triage status of an incident report
type ReportStatus string

const (
	ReportStatusNew        ReportStatus = "new"
	ReportStatusInProgress ReportStatus = "in_progress"
	ReportStatusClosed     ReportStatus = "closed"
	ReportStatusResolved   ReportStatus = "resolved"
	ReportStatusOnHold     ReportStatus = "on_hold"
)

// AllReportStatuses returns all valid report statuses
func AllReportStatuses() []ReportStatus {
	return []ReportStatus{
		ReportStatusNew,
		ReportStatusInProgress,
		ReportStatusClosed,
		ReportStatusResolved,
		ReportStatusOnHold,
	}
}

// IsValid checks if the report status is valid
func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportStatusNew,
		ReportStatusInProgress,
		ReportStatusClosed,
		ReportStatusResolved,
		ReportStatusOnHold:
		return true
	default:
		return false
	}
}

func (s ReportStatus) String() string {
	return string(s)
}

// ParseReportStatus parses a string into a ReportStatus
func ParseReportStatus(s string) (ReportStatus, error) {
	status := ReportStatus(s)
	if !status.IsValid() {
		return "", goerr.New("invalid report status", goerr.V("status", s))
	}
	return status, nil
}
