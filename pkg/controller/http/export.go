package http

import (
	"bytes"
	"encoding/csv"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/usecase"
	"github.com/hrmonitor/hrmonitor/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

var caseExportHeader = []string{
	"case_id", "title", "status", "priority", "violation_types",
	"country", "region", "city", "longitude", "latitude", "date_occurred", "date_reported",
}

func caseExportRecord(c *model.Case) []string {
	var lon, lat string
	if c.Location.Coordinates != nil {
		lon = strconv.FormatFloat(c.Location.Coordinates.Longitude(), 'f', -1, 64)
		lat = strconv.FormatFloat(c.Location.Coordinates.Latitude(), 'f', -1, 64)
	}
	return []string{
		c.CaseID,
		c.Title,
		string(c.Status),
		string(c.Priority),
		strings.Join(c.ViolationTypes, ", "),
		c.Location.Country,
		c.Location.Region,
		c.Location.City,
		lon,
		lat,
		formatDate(c.DateOccurred),
		formatDate(c.DateReported),
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func writeCaseCSV(w io.Writer, cases []*model.Case) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(caseExportHeader); err != nil {
		return goerr.Wrap(err, "failed to write csv header")
	}
	for _, c := range cases {
		if err := cw.Write(caseExportRecord(c)); err != nil {
			return goerr.Wrap(err, "failed to write csv record", goerr.V(model.CaseIDKey, c.CaseID))
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return goerr.Wrap(err, "failed to flush csv")
	}
	return nil
}

// exportCasesHandler serves the cases matching the list filters as a CSV
// spreadsheet.
func exportCasesHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		opts, err := caseFilterOptions(r.URL.Query())
		if err != nil {
			handleError(ctx, w, err)
			return
		}

		cases, err := uc.ListCases(ctx, opts...)
		if err != nil {
			handleError(ctx, w, err)
			return
		}

		var buf bytes.Buffer
		if err := writeCaseCSV(&buf, cases); err != nil {
			handleError(ctx, w, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
			"filename": "cases_report.csv",
		}))
		w.WriteHeader(http.StatusOK)
		safe.Copy(ctx, w, &buf)
	}
}
