package types

import "github.com/m-mizutani/goerr/v2"

// CaseStatus represents the workflow status of a case
type CaseStatus string

const (
	CaseStatusNew                CaseStatus = "new"
	CaseStatusUnderInvestigation CaseStatus = "under_investigation"
	CaseStatusResolved           CaseStatus = "resolved"
	CaseStatusArchived           CaseStatus = "archived"
)

// AllCaseStatuses returns all valid case statuses
func AllCaseStatuses() []CaseStatus {
	return []CaseStatus{
		CaseStatusNew,
		CaseStatusUnderInvestigation,
		CaseStatusResolved,
		CaseStatusArchived,
	}
}

// IsValid checks if the case status is valid
func (s CaseStatus) IsValid() bool {
	switch s {
	case CaseStatusNew,
		CaseStatusUnderInvestigation,
		CaseStatusResolved,
		CaseStatusArchived:
		return true
	default:
		return false
	}
}

// Normalize returns the status, treating empty as CaseStatusNew.
func (s CaseStatus) Normalize() CaseStatus {
	if s == "" {
		return CaseStatusNew
	}
	return s
}

func (s CaseStatus) String() string {
	return string(s)
}

// ParseCaseStatus parses a string into a CaseStatus
func ParseCaseStatus(s string) (CaseStatus, error) {
	status := CaseStatus(s)
	if !status.IsValid() {
		return "", goerr.New("invalid case status", goerr.V("status", s))
	}
	return status, nil
}
