package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hrmonitor/hrmonitor/pkg/usecase"
	"github.com/hrmonitor/hrmonitor/pkg/utils/metrics"
)

const (
	// DefaultReportRateLimit is the sustained per-IP rate of report
	// submissions and logins, in requests per second.
	DefaultReportRateLimit = 1.0
	DefaultReportRateBurst = 5

	// maxReportFiles bounds the number of files in one report submission
	maxReportFiles = 10
	// multipartMemory is kept in memory while parsing a form; larger parts
	// spill to temporary files
	multipartMemory = 8 << 20
	// formOverhead allows for the non-file fields of a multipart body
	formOverhead = 1 << 20
)

type Server struct {
	router      *chi.Mux
	uc          *usecase.UseCases
	corsOrigins []string
	rateLimit   float64
	rateBurst   int
	trustProxy  bool
	now         func() time.Time
}

type Options func(*Server)

// WithCORSOrigins allows browser requests from origins. "*" allows any.
func WithCORSOrigins(origins []string) Options {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithRateLimit sets the per-IP limit of public write endpoints. A
// non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Options {
	return func(s *Server) {
		s.rateLimit = rps
		s.rateBurst = burst
	}
}

// WithTrustProxy takes the client address from True-Client-IP, X-Real-IP
// or X-Forwarded-For. Enable it only behind a proxy that sets them.
func WithTrustProxy(trust bool) Options {
	return func(s *Server) {
		s.trustProxy = trust
	}
}

func WithClock(now func() time.Time) Options {
	return func(s *Server) {
		s.now = now
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:    r,
		uc:        uc,
		rateLimit: DefaultReportRateLimit,
		rateBurst: DefaultReportRateBurst,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	if s.trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	if len(s.corsOrigins) > 0 {
		r.Use(cors(s.corsOrigins))
	}

	limit := func(next http.Handler) http.Handler { return next }
	if s.rateLimit > 0 {
		limit = newIPRateLimiter(s.rateLimit, s.rateBurst, maxLimiters, s.now).Middleware
	}

	r.Get("/health", healthHandler)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(limit).Post("/login", loginHandler(uc.Auth))
		r.Get("/cases.csv", exportCasesHandler(uc.Case))

		r.Route("/cases", func(r chi.Router) {
			r.Post("/", createCaseHandler(uc.Case))
			r.Get("/", listCasesHandler(uc.Case))

			r.Route("/{case_id}", func(r chi.Router) {
				r.Get("/", getCaseHandler(uc.Case))
				r.Put("/", updateCaseHandler(uc.Case))
				r.Patch("/", updateCaseStatusHandler(uc.Case))
				r.Patch("/status", updateCaseStatusHandler(uc.Case))
				r.Delete("/", archiveCaseHandler(uc.Case))
				r.Get("/history", caseHistoryHandler(uc.Case))
				r.Post("/upload", uploadEvidenceHandler(uc.Evidence, uc.MaxUploadSize()))
				r.Get("/dossier.pdf", dossierHandler(uc.Case, s.now))
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.With(limit).Post("/", createReportHandler(uc.Report, uc.MaxUploadSize()))
			r.Get("/", listReportsHandler(uc.Report))
			r.Get("/analytics", reportAnalyticsHandler(uc.Report))
			r.Get("/{report_id}", getReportHandler(uc.Report))
			r.Patch("/{report_id}", updateReportStatusHandler(uc.Report))
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/violations", violationsHandler(uc.Analytics))
			r.Get("/geodata", geodataHandler(uc.Analytics))
			r.Get("/timeline", timelineHandler(uc.Analytics))
			r.Get("/summary", summaryHandler(uc.Analytics))
		})
	})

	r.Get("/uploads/*", uploadsHandler(uc.Blobs()))

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
