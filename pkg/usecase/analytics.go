package usecase

import (
	"context"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

// AnalyticsUseCase aggregates cases for the dashboard. Every aggregation
// accepts the same filters as case listing.
type AnalyticsUseCase struct {
	repo interfaces.Repository
}

func (uc *AnalyticsUseCase) Violations(ctx context.Context, opts ...interfaces.ListCaseOption) ([]model.ViolationCount, error) {
	counts, err := uc.repo.Case().CountByViolation(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count cases by violation")
	}
	return counts, nil
}

func (uc *AnalyticsUseCase) Geodata(ctx context.Context, opts ...interfaces.ListCaseOption) ([]model.CountryCount, error) {
	counts, err := uc.repo.Case().CountByCountry(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count cases by country")
	}
	return counts, nil
}

func (uc *AnalyticsUseCase) Timeline(ctx context.Context, opts ...interfaces.ListCaseOption) ([]model.TimelinePoint, error) {
	points, err := uc.repo.Case().CountByMonth(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count cases by month")
	}
	return points, nil
}

// Summary runs the three aggregations concurrently.
func (uc *AnalyticsUseCase) Summary(ctx context.Context, opts ...interfaces.ListCaseOption) (*model.AnalyticsSummary, error) {
	var summary model.AnalyticsSummary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := uc.Violations(ctx, opts...)
		summary.Violations = v
		return err
	})
	g.Go(func() error {
		v, err := uc.Geodata(ctx, opts...)
		summary.Geodata = v
		return err
	})
	g.Go(func() error {
		v, err := uc.Timeline(ctx, opts...)
		summary.Timeline = v
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &summary, nil
}
