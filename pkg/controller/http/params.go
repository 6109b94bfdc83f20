package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

const dateLayout = "2006-01-02"

// timeLayouts are tried in order. Values without a zone are UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	dateLayout,
}

// parseTime accepts RFC 3339 timestamps, naive timestamps and plain dates.
func parseTime(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, goerr.Wrap(model.ErrValidation, "invalid date",
		goerr.V(model.FieldKey, field), goerr.V("value", value))
}

// parseDate accepts a calendar date, or a timestamp whose date is used.
func parseDate(field, value string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, strings.TrimSpace(value)); err == nil {
		return t, nil
	}
	return parseTime(field, value)
}

func parseFloat(field, value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, goerr.Wrap(model.ErrValidation, "invalid number",
			goerr.V(model.FieldKey, field), goerr.V("value", value))
	}
	return f, nil
}

func parseInt(field, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, goerr.Wrap(model.ErrValidation, "invalid integer",
			goerr.V(model.FieldKey, field), goerr.V("value", value))
	}
	return n, nil
}

// parseBool treats an absent value as false and also accepts the "on" sent
// by HTML checkboxes.
func parseBool(field, value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return false, nil
	case "on", "yes":
		return true, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, goerr.Wrap(model.ErrValidation, "invalid boolean",
			goerr.V(model.FieldKey, field), goerr.V("value", value))
	}
	return b, nil
}

// caseFilterOptions reads the case filters shared by listing and analytics.
func caseFilterOptions(q url.Values) ([]interfaces.ListCaseOption, error) {
	var opts []interfaces.ListCaseOption

	if v := strings.TrimSpace(q.Get("country")); v != "" {
		opts = append(opts, interfaces.WithCountry(v))
	}
	if v := strings.TrimSpace(q.Get("violation")); v != "" {
		opts = append(opts, interfaces.WithViolation(v))
	}
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		status, err := types.ParseCaseStatus(v)
		if err != nil {
			return nil, goerr.Wrap(model.ErrValidation, "invalid case status", goerr.V(model.StatusKey, v))
		}
		opts = append(opts, interfaces.WithStatus(status))
	}
	if v := q.Get("date_from"); v != "" {
		t, err := parseTime("date_from", v)
		if err != nil {
			return nil, err
		}
		opts = append(opts, interfaces.WithDateFrom(t))
	}
	if v := q.Get("date_to"); v != "" {
		t, err := parseTime("date_to", v)
		if err != nil {
			return nil, err
		}
		opts = append(opts, interfaces.WithDateTo(t))
	}
	if v := strings.TrimSpace(q.Get("query_text")); v != "" {
		opts = append(opts, interfaces.WithQueryText(v))
	}
	return opts, nil
}

// reportFilter reads report listing filters and the page window.
func reportFilter(r *http.Request) (model.ReportFilter, error) {
	q := r.URL.Query()
	var f model.ReportFilter

	if v := strings.TrimSpace(q.Get("status")); v != "" {
		status, err := types.ParseReportStatus(v)
		if err != nil {
			return f, goerr.Wrap(model.ErrValidation, "invalid report status", goerr.V(model.StatusKey, v))
		}
		f.Status = status
	}
	if v := q.Get("start_date"); v != "" {
		t, err := parseDate("start_date", v)
		if err != nil {
			return f, err
		}
		start := model.DayStart(t)
		f.StartDate = &start
	}
	if v := q.Get("end_date"); v != "" {
		t, err := parseDate("end_date", v)
		if err != nil {
			return f, err
		}
		end := model.DayEnd(t)
		f.EndDate = &end
	}
	f.Country = strings.TrimSpace(q.Get("country"))

	if v := q.Get("skip"); v != "" {
		n, err := parseInt("skip", v)
		if err != nil {
			return f, err
		}
		f.Skip = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := parseInt("limit", v)
		if err != nil {
			return f, err
		}
		if n < 1 {
			return f, goerr.Wrap(model.ErrValidation, "limit out of range", goerr.V("limit", n))
		}
		f.Limit = n
	}
	return f, nil
}
