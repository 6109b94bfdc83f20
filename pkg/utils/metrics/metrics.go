package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrmonitor_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hrmonitor_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	casesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hrmonitor_cases_created_total",
			Help: "Total number of cases created",
		},
	)

	caseStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrmonitor_case_status_changes_total",
			Help: "Total number of case status transitions",
		},
		[]string{"from_status", "to_status"},
	)

	reportsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrmonitor_incident_reports_created_total",
			Help: "Total number of incident reports submitted",
		},
		[]string{"anonymous"},
	)

	evidenceStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrmonitor_evidence_stored_total",
			Help: "Total number of evidence files stored",
		},
		[]string{"owner", "type"},
	)

	geocodeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hrmonitor_geocode_failures_total",
			Help: "Total number of reverse geocoding lookups that fell back to Unknown",
		},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency per chi route pattern, which
// keeps label cardinality bounded regardless of path parameters.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func RecordCaseCreated() {
	casesCreated.Inc()
}

func RecordCaseStatusChange(from, to string) {
	caseStatusChanges.WithLabelValues(from, to).Inc()
}

func RecordReportCreated(anonymous bool) {
	reportsCreated.WithLabelValues(strconv.FormatBool(anonymous)).Inc()
}

// RecordEvidenceStored counts one stored file. owner is "case" or "report".
func RecordEvidenceStored(owner, evidenceType string) {
	evidenceStored.WithLabelValues(owner, evidenceType).Inc()
}

func RecordGeocodeFailure() {
	geocodeFailures.Inc()
}
