package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func TestAnalyticsUseCase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seed := []struct {
		id         string
		country    string
		violations []string
		occurred   time.Time
	}{
		{"HRM-1", "Kenya", []string{"torture", "detention"}, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"HRM-2", "Kenya", []string{"torture"}, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)},
		{"HRM-3", "Peru", []string{"land_rights"}, time.Date(2023, 11, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, s := range seed {
		c := newTestCase(s.id)
		c.Location.Country = s.country
		c.ViolationTypes = s.violations
		c.DateOccurred = s.occurred
		_, err := env.uc.Case.CreateCase(ctx, c)
		gt.NoError(t, err).Required()
	}

	t.Run("violations count each type", func(t *testing.T) {
		counts, err := env.uc.Analytics.Violations(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, counts).Equal([]model.ViolationCount{
			{ViolationType: "torture", Count: 2},
			{ViolationType: "detention", Count: 1},
			{ViolationType: "land_rights", Count: 1},
		})
	})

	t.Run("geodata with filter", func(t *testing.T) {
		counts, err := env.uc.Analytics.Geodata(ctx, interfaces.WithViolation("torture"))
		gt.NoError(t, err).Required()
		gt.Value(t, counts).Equal([]model.CountryCount{{Country: "Kenya", Count: 2}})
	})

	t.Run("timeline is chronological", func(t *testing.T) {
		points, err := env.uc.Analytics.Timeline(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, points).Equal([]model.TimelinePoint{
			{Date: "2023-11", Count: 1},
			{Date: "2024-01", Count: 2},
		})
	})

	t.Run("summary bundles all three", func(t *testing.T) {
		summary, err := env.uc.Analytics.Summary(ctx, interfaces.WithCountry("peru"))
		gt.NoError(t, err).Required()
		gt.Value(t, summary.Violations).Equal([]model.ViolationCount{{ViolationType: "land_rights", Count: 1}})
		gt.Value(t, summary.Geodata).Equal([]model.CountryCount{{Country: "Peru", Count: 1}})
		gt.Value(t, summary.Timeline).Equal([]model.TimelinePoint{{Date: "2023-11", Count: 1}})
	})
}
