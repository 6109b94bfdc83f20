package http

import (
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/usecase"
	"github.com/hrmonitor/hrmonitor/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

type updateReportStatusRequest struct {
	Status string `json:"status"`
}

// reportSubmission reads the report form. Required fields missing from the
// form are validation errors.
func reportSubmission(r *http.Request) (*usecase.ReportSubmission, error) {
	s := &usecase.ReportSubmission{
		ReporterType:     r.FormValue("reporter_type"),
		Email:            r.FormValue("email"),
		Phone:            r.FormValue("phone"),
		PreferredContact: r.FormValue("preferred_contact"),
		Country:          r.FormValue("country"),
		City:             r.FormValue("city"),
		Description:      r.FormValue("description"),
		ViolationTypes:   r.FormValue("violation_types"),
	}

	var err error
	if s.Anonymous, err = parseBool("anonymous", r.FormValue("anonymous")); err != nil {
		return nil, err
	}
	for _, field := range []string{"date", "longitude", "latitude"} {
		if r.FormValue(field) == "" {
			return nil, goerr.Wrap(model.ErrValidation, field+" is required", goerr.V(model.FieldKey, field))
		}
	}
	if s.Date, err = parseTime("date", r.FormValue("date")); err != nil {
		return nil, err
	}
	if s.Longitude, err = parseFloat("longitude", r.FormValue("longitude")); err != nil {
		return nil, err
	}
	if s.Latitude, err = parseFloat("latitude", r.FormValue("latitude")); err != nil {
		return nil, err
	}
	return s, nil
}

func createReportHandler(uc *usecase.IncidentReportUseCase, maxUploadSize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if maxUploadSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxReportFiles*maxUploadSize+formOverhead)
		}
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			handleError(ctx, w, formError(err))
			return
		}
		defer removeMultipartFiles(r)

		s, err := reportSubmission(r)
		if err != nil {
			handleError(ctx, w, err)
			return
		}

		headers := r.MultipartForm.File["files"]
		if len(headers) > maxReportFiles {
			handleError(ctx, w, goerr.Wrap(model.ErrValidation, "too many files", goerr.V("files", len(headers))))
			return
		}
		for _, h := range headers {
			f, err := h.Open()
			if err != nil {
				handleError(ctx, w, goerr.Wrap(err, "failed to open uploaded file", goerr.V(model.FilenameKey, h.Filename)))
				return
			}
			defer safe.Close(ctx, f)
			s.Files = append(s.Files, reportFile(h, f))
		}

		report, err := uc.CreateReport(ctx, s)
		if err != nil {
			handleError(ctx, w, err)
			return
		}
		writeJSON(ctx, w, http.StatusCreated, report)
	}
}

func reportFile(h *multipart.FileHeader, f multipart.File) usecase.ReportFile {
	return usecase.ReportFile{
		Filename:    h.Filename,
		ContentType: h.Header.Get("Content-Type"),
		Body:        f,
	}
}

func listReportsHandler(uc *usecase.IncidentReportUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := reportFilter(r)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		reports, err := uc.ListReports(r.Context(), filter)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, reports)
	}
}

func getReportHandler(uc *usecase.IncidentReportUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := uc.GetReport(r.Context(), chi.URLParam(r, "report_id"))
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, report)
	}
}

func updateReportStatusHandler(uc *usecase.IncidentReportUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateReportStatusRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		report, err := uc.UpdateStatus(r.Context(), chi.URLParam(r, "report_id"), req.Status)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, report)
	}
}

func reportAnalyticsHandler(uc *usecase.IncidentReportUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := uc.Analytics(r.Context())
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, counts)
	}
}
