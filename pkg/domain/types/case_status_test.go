package types_test

import (
	"testing"

	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestCaseStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status types.CaseStatus
		want   bool
	}{
		{name: "new", status: types.CaseStatusNew, want: true},
		{name: "under investigation", status: types.CaseStatusUnderInvestigation, want: true},
		{name: "resolved", status: types.CaseStatusResolved, want: true},
		{name: "archived", status: types.CaseStatusArchived, want: true},
		{name: "upper case is not accepted", status: types.CaseStatus("NEW"), want: false},
		{name: "report status is not a case status", status: types.CaseStatus("on_hold"), want: false},
		{name: "empty status", status: types.CaseStatus(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tt.status.IsValid()).Equal(tt.want)
		})
	}
}

func TestParseCaseStatus(t *testing.T) {
	got, err := types.ParseCaseStatus("under_investigation")
	gt.NoError(t, err)
	gt.V(t, got).Equal(types.CaseStatusUnderInvestigation)

	_, err = types.ParseCaseStatus("closed")
	gt.Error(t, err)
}

func TestAllCaseStatuses(t *testing.T) {
	statuses := types.AllCaseStatuses()
	gt.A(t, statuses).Length(4)
	for _, status := range statuses {
		gt.B(t, status.IsValid()).
			Describef("Status %s should be valid", status).
			True()
	}
}

func TestCaseStatus_Normalize(t *testing.T) {
	gt.V(t, types.CaseStatus("").Normalize()).Equal(types.CaseStatusNew)
	gt.V(t, types.CaseStatusResolved.Normalize()).Equal(types.CaseStatusResolved)
}
