package http

import (
	"bytes"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/service/dossier"
	"github.com/hrmonitor/hrmonitor/pkg/usecase"
	"github.com/hrmonitor/hrmonitor/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

type createCaseResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
	CaseID  string `json:"case_id"`
}

type updateStatusRequest struct {
	Status    string `json:"status"`
	UpdatedBy string `json:"updated_by"`
}

type updateStatusResponse struct {
	Message   string `json:"message"`
	NewStatus string `json:"new_status"`
}

type uploadEvidenceResponse struct {
	Message string              `json:"message"`
	File    *model.EvidenceItem `json:"file"`
}

func createCaseHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body caseBody
		if err := decodeJSON(r, &body); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		created, err := uc.CreateCase(r.Context(), body.toCase())
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		writeJSON(r.Context(), w, http.StatusCreated, createCaseResponse{
			Message: "Case added successfully!",
			ID:      created.ID,
			CaseID:  created.CaseID,
		})
	}
}

func listCasesHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := caseFilterOptions(r.URL.Query())
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		cases, err := uc.ListCases(r.Context(), opts...)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, cases)
	}
}

func getCaseHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := uc.GetCase(r.Context(), chi.URLParam(r, "case_id"))
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, c)
	}
}

func updateCaseHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body caseBody
		if err := decodeJSON(r, &body); err != nil {
			handleError(r.Context(), w, err)
			return
		}
		c := body.toCase()
		// the path names the case; a case_id in the body is ignored
		c.CaseID = chi.URLParam(r, "case_id")

		updated, err := uc.UpdateCase(r.Context(), c, body.UpdatedBy)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, updated)
	}
}

func updateCaseStatusHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateStatusRequest
		if err := decodeJSON(r, &req); err != nil {
			handleError(r.Context(), w, err)
			return
		}

		rec, err := uc.UpdateStatus(r.Context(), chi.URLParam(r, "case_id"), req.Status, req.UpdatedBy)
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, updateStatusResponse{
			Message:   "Case status updated successfully",
			NewStatus: rec.NewStatus.String(),
		})
	}
}

func archiveCaseHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseID := chi.URLParam(r, "case_id")
		if err := uc.ArchiveCase(r.Context(), caseID, r.URL.Query().Get("updated_by")); err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, messageResponse{
			Message: "Case " + caseID + " archived successfully",
		})
	}
}

func caseHistoryHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history, err := uc.GetStatusHistory(r.Context(), chi.URLParam(r, "case_id"))
		if err != nil {
			handleError(r.Context(), w, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, history)
	}
}

func uploadEvidenceHandler(uc *usecase.EvidenceUseCase, maxUploadSize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if maxUploadSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+formOverhead)
		}
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			handleError(ctx, w, formError(err))
			return
		}
		defer removeMultipartFiles(r)

		file, header, err := r.FormFile("file")
		if err != nil {
			handleError(ctx, w, goerr.Wrap(model.ErrValidation, "file is required", goerr.V(model.FieldKey, "file")))
			return
		}
		defer safe.Close(ctx, file)

		up := &usecase.EvidenceUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
			Type:        r.FormValue("type"),
			Description: strings.TrimSpace(r.FormValue("description")),
		}
		if v := r.FormValue("date_captured"); v != "" {
			t, err := parseTime("date_captured", v)
			if err != nil {
				handleError(ctx, w, err)
				return
			}
			up.DateCaptured = &t
		}

		item, err := uc.AttachEvidence(ctx, chi.URLParam(r, "case_id"), up)
		if err != nil {
			handleError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, uploadEvidenceResponse{
			Message: "File uploaded and linked to case",
			File:    item,
		})
	}
}

func dossierHandler(uc *usecase.CaseUseCase, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		caseID := chi.URLParam(r, "case_id")

		c, err := uc.GetCase(ctx, caseID)
		if err != nil {
			handleError(ctx, w, err)
			return
		}
		history, err := uc.GetStatusHistory(ctx, caseID)
		if err != nil {
			handleError(ctx, w, err)
			return
		}

		// render fully before writing so a failure still gets a JSON error
		var buf bytes.Buffer
		if err := dossier.Render(&buf, c, history, now()); err != nil {
			handleError(ctx, w, err)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
			"filename": c.CaseID + ".pdf",
		}))
		w.WriteHeader(http.StatusOK)
		safe.Copy(ctx, w, &buf)
	}
}
