package http

import (
	"context"
	"net/http"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/usecase"
)

// analyticsHandler adapts one case aggregation to a GET endpoint taking the
// case filters as query parameters.
func analyticsHandler[T any](aggregate func(ctx context.Context, opts ...interfaces.ListCaseOption) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := caseFilterOptions(r.URL.Query())
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		result, err := aggregate(r.Context(), opts...)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, result)
	}
}

func violationsHandler(uc *usecase.AnalyticsUseCase) http.HandlerFunc {
	return analyticsHandler(uc.Violations)
}

func geodataHandler(uc *usecase.AnalyticsUseCase) http.HandlerFunc {
	return analyticsHandler(uc.Geodata)
}

func timelineHandler(uc *usecase.AnalyticsUseCase) http.HandlerFunc {
	return analyticsHandler(uc.Timeline)
}

func summaryHandler(uc *usecase.AnalyticsUseCase) http.HandlerFunc {
	return analyticsHandler(uc.Summary)
}
