package model_test

import (
	"testing"
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func TestCaseAggregations(t *testing.T) {
	mk := func(country string, occurred time.Time, violations ...string) *model.Case {
		return &model.Case{
			Location:       model.Location{Country: country},
			DateOccurred:   occurred,
			ViolationTypes: violations,
		}
	}
	march := time.Date(2023, 3, 10, 0, 0, 0, 0, time.UTC)
	april := time.Date(2023, 4, 2, 0, 0, 0, 0, time.UTC)

	cases := []*model.Case{
		mk("Palestine", march, "torture", "arbitrary_detention"),
		mk("Palestine", april, "torture"),
		mk("Syria", march, "forced_displacement"),
		mk("Yemen", time.Time{}, "arbitrary_detention"),
	}

	t.Run("violations counted per type", func(t *testing.T) {
		got := model.CountCaseViolations(cases)
		gt.A(t, got).Length(3)
		gt.V(t, got[0]).Equal(model.ViolationCount{ViolationType: "arbitrary_detention", Count: 2})
		gt.V(t, got[1]).Equal(model.ViolationCount{ViolationType: "torture", Count: 2})
		gt.V(t, got[2]).Equal(model.ViolationCount{ViolationType: "forced_displacement", Count: 1})
	})

	t.Run("countries descending", func(t *testing.T) {
		got := model.CountCaseCountries(cases)
		gt.V(t, got[0]).Equal(model.CountryCount{Country: "Palestine", Count: 2})
		gt.A(t, got).Length(3)
	})

	t.Run("timeline skips missing dates", func(t *testing.T) {
		got := model.CountCasesByMonth(cases)
		gt.A(t, got).Length(2)
		gt.V(t, got[0]).Equal(model.TimelinePoint{Date: "2023-03", Count: 2})
		gt.V(t, got[1]).Equal(model.TimelinePoint{Date: "2023-04", Count: 1})
	})
}

func TestCountReportViolations_Limit(t *testing.T) {
	reports := []*model.IncidentReport{
		{IncidentDetails: model.IncidentDetails{ViolationTypes: []string{"a", "b", "c"}}},
		{IncidentDetails: model.IncidentDetails{ViolationTypes: []string{"c"}}},
	}
	got := model.CountReportViolations(reports, 2)
	gt.A(t, got).Length(2)
	gt.V(t, got[0]).Equal(model.ViolationCount{ViolationType: "c", Count: 2})
	gt.V(t, got[1]).Equal(model.ViolationCount{ViolationType: "a", Count: 1})
}
