package http_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	server "github.com/hrmonitor/hrmonitor/pkg/controller/http"
	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/repository/memory"
	"github.com/hrmonitor/hrmonitor/pkg/service/auth"
	"github.com/hrmonitor/hrmonitor/pkg/service/storage"
	"github.com/hrmonitor/hrmonitor/pkg/usecase"
	"github.com/hrmonitor/hrmonitor/pkg/utils/async"
	"github.com/m-mizutani/gt"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC)

type staticGeocoder struct{}

func (staticGeocoder) Reverse(ctx context.Context, latitude, longitude float64) (*interfaces.Place, error) {
	return &interfaces.Place{Country: "Kenya", City: "Nairobi"}, nil
}

type testServer struct {
	handler http.Handler
	root    string
}

func newTestServer(t *testing.T, opts ...server.Options) *testServer {
	t.Helper()

	root := t.TempDir()
	blobs, err := storage.NewLocal(root)
	gt.NoError(t, err).Required()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	gt.NoError(t, err).Required()
	authenticator := auth.NewAuthenticator([]model.Account{
		{Username: "alice", PasswordHash: string(hash), Role: "admin"},
	})

	uc := usecase.New(memory.New(),
		usecase.WithBlobStore(blobs),
		usecase.WithGeocoder(staticGeocoder{}),
		usecase.WithAuthenticator(authenticator),
		usecase.WithClock(func() time.Time { return testNow }),
	)
	t.Cleanup(async.Wait)

	return &testServer{handler: server.New(uc, opts...), root: root}
}

func (s *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *testServer) doJSON(t *testing.T, method, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if v != nil {
		raw, err := json.Marshal(v)
		gt.NoError(t, err).Required()
		body = bytes.NewReader(raw)
	}
	return s.do(t, method, path, body, "application/json")
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &v)).Required()
	return v
}

func detailOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["detail"]
}

func caseBody(caseID string) map[string]any {
	return map[string]any{
		"case_id":         caseID,
		"title":           "Detention of journalists",
		"description":     "Three journalists were detained without charge",
		"violation_types": []string{"torture"},
		"status":          "new",
		"location": map[string]any{
			"country": "Kenya",
			"region":  "Nairobi",
			"coordinates": map[string]any{
				"type":        "Point",
				"coordinates": []float64{36.8219, -1.2921},
			},
		},
		"date_occurred": "2024-03-10T00:00:00Z",
		"date_reported": "2024-03-12T00:00:00Z",
		"victims":       []string{"victim-1"},
		"created_by":    "alice",
	}
}

type formFile struct {
	field, name, content string
}

func multipartBody(t *testing.T, fields map[string]string, files []formFile) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		gt.NoError(t, mw.WriteField(k, v)).Required()
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		gt.NoError(t, err).Required()
		_, err = fw.Write([]byte(f.content))
		gt.NoError(t, err).Required()
	}
	gt.NoError(t, mw.Close()).Required()
	return &buf, mw.FormDataContentType()
}

func countFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			n++
		}
		return nil
	})
	gt.NoError(t, err).Required()
	return n
}

func TestCaseStatusScenario(t *testing.T) {
	s := newTestServer(t)

	w := s.doJSON(t, http.MethodPost, "/api/cases", caseBody("HRM-TEST-1"))
	gt.Value(t, w.Code).Equal(http.StatusCreated)
	created := decode[map[string]string](t, w)
	gt.Value(t, created["case_id"]).Equal("HRM-TEST-1")
	gt.Value(t, created["id"]).NotEqual("")

	w = s.doJSON(t, http.MethodPatch, "/api/cases/HRM-TEST-1", map[string]string{"status": "resolved"})
	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.Value(t, decode[map[string]string](t, w)["new_status"]).Equal("resolved")

	w = s.doJSON(t, http.MethodGet, "/api/cases/HRM-TEST-1/history", nil)
	gt.Value(t, w.Code).Equal(http.StatusOK)
	history := decode[[]model.StatusHistoryRecord](t, w)
	gt.Array(t, history).Length(1).Required()
	gt.Value(t, string(history[0].OldStatus)).Equal("new")
	gt.Value(t, string(history[0].NewStatus)).Equal("resolved")
	gt.Value(t, history[0].UpdatedBy).Equal(model.DefaultActor)

	w = s.doJSON(t, http.MethodGet, "/api/cases/HRM-TEST-1", nil)
	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.Value(t, string(decode[model.Case](t, w).Status)).Equal("resolved")
}

func TestCaseEndpoints(t *testing.T) {
	s := newTestServer(t)
	gt.Value(t, s.doJSON(t, http.MethodPost, "/api/cases", caseBody("HRM-1")).Code).Equal(http.StatusCreated)

	t.Run("duplicate case id", func(t *testing.T) {
		body := caseBody("HRM-1")
		body["title"] = "Other"
		w := s.doJSON(t, http.MethodPost, "/api/cases", body)
		gt.Value(t, w.Code).Equal(http.StatusConflict)
		gt.String(t, detailOf(t, w)).Contains("duplicate case id")

		got := decode[model.Case](t, s.doJSON(t, http.MethodGet, "/api/cases/HRM-1", nil))
		gt.Value(t, got.Title).Equal("Detention of journalists")
	})

	t.Run("invalid body", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/cases", strings.NewReader("{"), "application/json")
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)

		body := caseBody("HRM-2")
		body["violation_types"] = []string{}
		w = s.doJSON(t, http.MethodPost, "/api/cases", body)
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
	})

	t.Run("unknown case", func(t *testing.T) {
		w := s.doJSON(t, http.MethodGet, "/api/cases/HRM-404", nil)
		gt.Value(t, w.Code).Equal(http.StatusNotFound)
		gt.String(t, detailOf(t, w)).Contains("not found")
	})

	t.Run("status update errors", func(t *testing.T) {
		testCases := []struct {
			name   string
			path   string
			status string
			expect int
		}{
			{"invalid status", "/api/cases/HRM-1", "closed", http.StatusBadRequest},
			{"same status", "/api/cases/HRM-1", "new", http.StatusConflict},
			{"unknown case", "/api/cases/HRM-404", "resolved", http.StatusNotFound},
			{"status alias", "/api/cases/HRM-1/status", "under_investigation", http.StatusOK},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				w := s.doJSON(t, http.MethodPatch, tc.path, map[string]string{"status": tc.status, "updated_by": "bob"})
				gt.Value(t, w.Code).Equal(tc.expect)
			})
		}
	})

	t.Run("list filters", func(t *testing.T) {
		body := caseBody("HRM-PE")
		body["location"] = map[string]any{"country": "Peru"}
		gt.Value(t, s.doJSON(t, http.MethodPost, "/api/cases", body).Code).Equal(http.StatusCreated)

		w := s.doJSON(t, http.MethodGet, "/api/cases?country=peru", nil)
		gt.Value(t, w.Code).Equal(http.StatusOK)
		cases := decode[[]model.Case](t, w)
		gt.Array(t, cases).Length(1).Required()
		gt.Value(t, cases[0].CaseID).Equal("HRM-PE")

		w = s.doJSON(t, http.MethodGet, "/api/cases?date_from=2024-03-01&date_to=2024-03-31&query_text=journalists", nil)
		gt.Value(t, w.Code).Equal(http.StatusOK)
		gt.Array(t, decode[[]model.Case](t, w)).Length(2)

		gt.Value(t, s.doJSON(t, http.MethodGet, "/api/cases?status=closed", nil).Code).Equal(http.StatusBadRequest)
		gt.Value(t, s.doJSON(t, http.MethodGet, "/api/cases?date_from=yesterday", nil).Code).Equal(http.StatusBadRequest)
	})

	t.Run("full edit", func(t *testing.T) {
		body := caseBody("ignored")
		body["title"] = "Edited"
		body["updated_by"] = "carol"
		w := s.doJSON(t, http.MethodPut, "/api/cases/HRM-1", body)
		gt.Value(t, w.Code).Equal(http.StatusOK)
		got := decode[model.Case](t, w)
		gt.Value(t, got.CaseID).Equal("HRM-1")
		gt.Value(t, got.Title).Equal("Edited")
	})

	t.Run("archive twice", func(t *testing.T) {
		gt.Value(t, s.doJSON(t, http.MethodDelete, "/api/cases/HRM-1", nil).Code).Equal(http.StatusOK)
		gt.Value(t, s.doJSON(t, http.MethodDelete, "/api/cases/HRM-1", nil).Code).Equal(http.StatusOK)

		got := decode[model.Case](t, s.doJSON(t, http.MethodGet, "/api/cases/HRM-1", nil))
		gt.Value(t, string(got.Status)).Equal("archived")

		gt.Value(t, s.doJSON(t, http.MethodDelete, "/api/cases/HRM-404", nil).Code).Equal(http.StatusNotFound)
	})

	t.Run("dossier", func(t *testing.T) {
		w := s.doJSON(t, http.MethodGet, "/api/cases/HRM-1/dossier.pdf", nil)
		gt.Value(t, w.Code).Equal(http.StatusOK)
		gt.Value(t, w.Header().Get("Content-Type")).Equal("application/pdf")
		gt.Bool(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-"))).True()

		gt.Value(t, s.doJSON(t, http.MethodGet, "/api/cases/HRM-404/dossier.pdf", nil).Code).Equal(http.StatusNotFound)
	})
}

func TestCaseBodyDates(t *testing.T) {
	s := newTestServer(t)
	gt.Value(t, s.doJSON(t, http.MethodPost, "/api/cases", caseBody("HRM-D-1")).Code).Equal(http.StatusCreated)

	testCases := []struct {
		name     string
		occurred any
		expect   int
		want     time.Time
	}{
		{"plain date", "2024-03-10", http.StatusOK, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"naive timestamp", "2024-03-10T10:00:00", http.StatusOK, time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)},
		{"space separated", "2024-03-10 10:00:00", http.StatusOK, time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)},
		{"with offset", "2024-03-10T12:00:00+02:00", http.StatusOK, time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)},
		{"not a date", "last week", http.StatusBadRequest, time.Time{}},
		{"number", 20240310, http.StatusBadRequest, time.Time{}},
		{"missing", nil, http.StatusBadRequest, time.Time{}},
	}

	for _, tc := range testCases {
		t.Run("update with "+tc.name, func(t *testing.T) {
			body := caseBody("HRM-D-1")
			body["date_occurred"] = tc.occurred
			body["date_reported"] = "2024-03-12"
			w := s.doJSON(t, http.MethodPut, "/api/cases/HRM-D-1", body)
			gt.Value(t, w.Code).Equal(tc.expect)
			if tc.expect != http.StatusOK {
				return
			}
			got := decode[model.Case](t, w)
			gt.Value(t, got.DateOccurred).Equal(tc.want)
			gt.Value(t, got.DateReported).Equal(time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC))
		})
	}

	t.Run("create with naive timestamps", func(t *testing.T) {
		body := caseBody("HRM-D-2")
		body["date_occurred"] = "2024-03-10T10:00:00"
		body["date_reported"] = "2024-03-11"
		body["evidence"] = []map[string]any{
			{"type": "photo", "url": "https://example.org/a.jpg", "date_captured": "2024-03-10"},
			{"type": "document", "url": "https://example.org/b.pdf"},
		}
		gt.Value(t, s.doJSON(t, http.MethodPost, "/api/cases", body).Code).Equal(http.StatusCreated)

		got := decode[model.Case](t, s.doJSON(t, http.MethodGet, "/api/cases/HRM-D-2", nil))
		gt.Value(t, got.DateOccurred).Equal(time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC))
		gt.Value(t, got.DateReported).Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
		gt.Array(t, got.Evidence).Length(2).Required()
		gt.Value(t, got.Evidence[0].DateCaptured).Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
		gt.Value(t, got.Evidence[1].DateCaptured).Equal(testNow)
	})
}

func TestCaseExport(t *testing.T) {
	s := newTestServer(t)
	body := caseBody("HRM-1")
	body["title"] = "Detention, \"quoted\""
	body["violation_types"] = []string{"torture", "arbitrary_detention"}
	gt.Value(t, s.doJSON(t, http.MethodPost, "/api/cases", body).Code).Equal(http.StatusCreated)

	other := caseBody("HRM-2")
	other["location"] = map[string]any{"country": "Peru"}
	gt.Value(t, s.doJSON(t, http.MethodPost, "/api/cases", other).Code).Equal(http.StatusCreated)

	testCases := []struct {
		name   string
		query  string
		expect int
		ids    []string
	}{
		{"all cases", "", http.StatusOK, []string{"HRM-1", "HRM-2"}},
		{"country filter", "?country=kenya", http.StatusOK, []string{"HRM-1"}},
		{"no match", "?country=chile", http.StatusOK, []string{}},
		{"invalid status", "?status=closed", http.StatusBadRequest, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.doJSON(t, http.MethodGet, "/api/cases.csv"+tc.query, nil)
			gt.Value(t, w.Code).Equal(tc.expect)
			if tc.expect != http.StatusOK {
				return
			}
			gt.String(t, w.Header().Get("Content-Type")).HasPrefix("text/csv")
			gt.String(t, w.Header().Get("Content-Disposition")).Contains("cases_report.csv")

			records, err := csv.NewReader(w.Body).ReadAll()
			gt.NoError(t, err).Required()
			gt.Array(t, records).Length(len(tc.ids) + 1).Required()
			gt.Value(t, records[0][0]).Equal("case_id")

			got := make([]string, 0, len(tc.ids))
			for _, rec := range records[1:] {
				got = append(got, rec[0])
			}
			sort.Strings(got)
			gt.Array(t, got).Equal(tc.ids)
		})
	}

	t.Run("record fields", func(t *testing.T) {
		w := s.doJSON(t, http.MethodGet, "/api/cases.csv?country=kenya", nil)
		records, err := csv.NewReader(w.Body).ReadAll()
		gt.NoError(t, err).Required()
		gt.Array(t, records).Length(2).Required()
		gt.Array(t, records[1]).Equal([]string{
			"HRM-1", "Detention, \"quoted\"", "new", "", "torture, arbitrary_detention",
			"Kenya", "Nairobi", "", "36.8219", "-1.2921", "2024-03-10", "2024-03-12",
		})
	})
}

func TestEvidenceUpload(t *testing.T) {
	s := newTestServer(t)
	gt.Value(t, s.doJSON(t, http.MethodPost, "/api/cases", caseBody("HRM-1")).Code).Equal(http.StatusCreated)

	t.Run("upload and serve", func(t *testing.T) {
		body, ct := multipartBody(t,
			map[string]string{"type": "photo", "description": "Scene"},
			[]formFile{{field: "file", name: "scene.png", content: "png bytes"}},
		)
		w := s.do(t, http.MethodPost, "/api/cases/HRM-1/upload", body, ct)
		gt.Value(t, w.Code).Equal(http.StatusOK)

		var resp struct {
			Message string             `json:"message"`
			File    model.EvidenceItem `json:"file"`
		}
		gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp)).Required()
		gt.Value(t, resp.Message).Equal("File uploaded and linked to case")
		gt.Value(t, string(resp.File.Type)).Equal("photo")
		gt.Value(t, resp.File.Description).Equal("Scene")

		w = s.doJSON(t, http.MethodGet, resp.File.URL, nil)
		gt.Value(t, w.Code).Equal(http.StatusOK)
		gt.Value(t, w.Body.String()).Equal("png bytes")
		gt.Value(t, w.Header().Get("Content-Type")).Equal("image/png")
	})

	t.Run("unknown case writes nothing", func(t *testing.T) {
		before := countFiles(t, s.root)
		body, ct := multipartBody(t, nil, []formFile{{field: "file", name: "a.txt", content: "a"}})
		w := s.do(t, http.MethodPost, "/api/cases/HRM-404/upload", body, ct)
		gt.Value(t, w.Code).Equal(http.StatusNotFound)
		gt.Value(t, countFiles(t, s.root)).Equal(before)
	})

	t.Run("missing file", func(t *testing.T) {
		body, ct := multipartBody(t, map[string]string{"type": "photo"}, nil)
		w := s.do(t, http.MethodPost, "/api/cases/HRM-1/upload", body, ct)
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
	})

	t.Run("unknown blob", func(t *testing.T) {
		gt.Value(t, s.doJSON(t, http.MethodGet, "/uploads/cases/HRM-1/missing.png", nil).Code).Equal(http.StatusNotFound)
	})
}

func reportFields() map[string]string {
	return map[string]string{
		"reporter_type":   "witness",
		"anonymous":       "false",
		"email":           "witness@example.org",
		"date":            "2024-05-03",
		"longitude":       "36.8219",
		"latitude":        "-1.2921",
		"description":     "Peaceful protesters were dispersed with tear gas",
		"violation_types": "freedom_of_assembly,torture",
	}
}

func TestReportEndpoints(t *testing.T) {
	s := newTestServer(t, server.WithRateLimit(0, 0))

	t.Run("non-anonymous report without contact", func(t *testing.T) {
		fields := reportFields()
		delete(fields, "email")
		body, ct := multipartBody(t, fields, []formFile{{field: "files", name: "a.jpg", content: "a"}})

		w := s.do(t, http.MethodPost, "/api/reports/", body, ct)
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
		gt.Value(t, countFiles(t, s.root)).Equal(0)

		w = s.doJSON(t, http.MethodGet, "/api/reports/", nil)
		gt.Value(t, w.Code).Equal(http.StatusOK)
		gt.Array(t, decode[[]model.IncidentReport](t, w)).Length(0)
	})

	t.Run("missing coordinates", func(t *testing.T) {
		fields := reportFields()
		delete(fields, "latitude")
		body, ct := multipartBody(t, fields, nil)
		gt.Value(t, s.do(t, http.MethodPost, "/api/reports/", body, ct).Code).Equal(http.StatusBadRequest)
	})

	var reportID string
	t.Run("create", func(t *testing.T) {
		body, ct := multipartBody(t, reportFields(), []formFile{
			{field: "files", name: "scene.jpg", content: "jpeg"},
			{field: "files", name: "statement.pdf", content: "pdf"},
		})
		w := s.do(t, http.MethodPost, "/api/reports/", body, ct)
		gt.Value(t, w.Code).Equal(http.StatusCreated)

		report := decode[model.IncidentReport](t, w)
		gt.Value(t, report.ReportID).Equal("IR-2024-1001")
		gt.Value(t, report.IncidentDetails.Location.Country).Equal("Kenya")
		gt.Array(t, report.Evidence).Length(2).Required()
		gt.Value(t, string(report.Evidence[0].Type)).Equal("photo")
		gt.Value(t, string(report.Evidence[1].Type)).Equal("document")
		gt.Value(t, countFiles(t, s.root)).Equal(2)
		reportID = report.ReportID

		w = s.doJSON(t, http.MethodGet, report.Evidence[0].URL, nil)
		gt.Value(t, w.Code).Equal(http.StatusOK)
		gt.Value(t, w.Body.String()).Equal("jpeg")
	})

	t.Run("get", func(t *testing.T) {
		w := s.doJSON(t, http.MethodGet, "/api/reports/"+reportID, nil)
		gt.Value(t, w.Code).Equal(http.StatusOK)
		gt.Value(t, s.doJSON(t, http.MethodGet, "/api/reports/IR-2024-9999", nil).Code).Equal(http.StatusNotFound)
	})

	t.Run("list", func(t *testing.T) {
		testCases := []struct {
			query  string
			expect int
			count  int
		}{
			{"", http.StatusOK, 1},
			{"?country=Kenya&status=new", http.StatusOK, 1},
			{"?country=kenya", http.StatusOK, 0},
			{"?start_date=2024-05-03&end_date=2024-05-03", http.StatusOK, 1},
			{"?start_date=2024-05-04", http.StatusOK, 0},
			{"?skip=1", http.StatusOK, 0},
			{"?limit=0", http.StatusBadRequest, 0},
			{"?limit=101", http.StatusBadRequest, 0},
			{"?skip=-1", http.StatusBadRequest, 0},
			{"?status=unknown", http.StatusBadRequest, 0},
		}
		for _, tc := range testCases {
			t.Run(tc.query, func(t *testing.T) {
				w := s.doJSON(t, http.MethodGet, "/api/reports/"+tc.query, nil)
				gt.Value(t, w.Code).Equal(tc.expect)
				if tc.expect == http.StatusOK {
					gt.Array(t, decode[[]model.IncidentReport](t, w)).Length(tc.count)
				}
			})
		}
	})

	t.Run("update status", func(t *testing.T) {
		w := s.doJSON(t, http.MethodPatch, "/api/reports/"+reportID, map[string]string{"status": "in_progress"})
		gt.Value(t, w.Code).Equal(http.StatusOK)
		gt.Value(t, string(decode[model.IncidentReport](t, w).Status)).Equal("in_progress")

		w = s.doJSON(t, http.MethodPatch, "/api/reports/"+reportID, map[string]string{"status": "in_progress"})
		gt.Value(t, w.Code).Equal(http.StatusConflict)

		w = s.doJSON(t, http.MethodPatch, "/api/reports/"+reportID, map[string]string{"status": "bogus"})
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
	})

	t.Run("analytics", func(t *testing.T) {
		w := s.doJSON(t, http.MethodGet, "/api/reports/analytics", nil)
		gt.Value(t, w.Code).Equal(http.StatusOK)
		gt.Value(t, decode[[]model.ViolationCount](t, w)).Equal([]model.ViolationCount{
			{ViolationType: "freedom_of_assembly", Count: 1},
			{ViolationType: "torture", Count: 1},
		})
	})
}

func TestAnalyticsEndpoints(t *testing.T) {
	s := newTestServer(t)
	for _, id := range []string{"HRM-1", "HRM-2"} {
		gt.Value(t, s.doJSON(t, http.MethodPost, "/api/cases", caseBody(id)).Code).Equal(http.StatusCreated)
	}

	w := s.doJSON(t, http.MethodGet, "/api/analytics/violations", nil)
	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.Value(t, decode[[]model.ViolationCount](t, w)).Equal([]model.ViolationCount{{ViolationType: "torture", Count: 2}})

	w = s.doJSON(t, http.MethodGet, "/api/analytics/geodata?country=peru", nil)
	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.Array(t, decode[[]model.CountryCount](t, w)).Length(0)

	w = s.doJSON(t, http.MethodGet, "/api/analytics/timeline", nil)
	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.Value(t, decode[[]model.TimelinePoint](t, w)).Equal([]model.TimelinePoint{{Date: "2024-03", Count: 2}})

	w = s.doJSON(t, http.MethodGet, "/api/analytics/summary", nil)
	gt.Value(t, w.Code).Equal(http.StatusOK)
	summary := decode[model.AnalyticsSummary](t, w)
	gt.Array(t, summary.Geodata).Length(1)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, server.WithRateLimit(0, 0))

	w := s.doJSON(t, http.MethodPost, "/api/login", map[string]string{"username": "alice", "password": "s3cret"})
	gt.Value(t, w.Code).Equal(http.StatusOK)
	resp := decode[map[string]string](t, w)
	gt.Value(t, resp["message"]).Equal("Login successful")
	gt.Value(t, resp["role"]).Equal("admin")

	for _, creds := range []map[string]string{
		{"username": "alice", "password": "wrong"},
		{"username": "mallory", "password": "s3cret"},
	} {
		w := s.doJSON(t, http.MethodPost, "/api/login", creds)
		gt.Value(t, w.Code).Equal(http.StatusUnauthorized)
		gt.Value(t, detailOf(t, w)).Equal("Invalid username or password")
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, server.WithRateLimit(0.001, 1))
	creds := map[string]string{"username": "alice", "password": "s3cret"}

	gt.Value(t, s.doJSON(t, http.MethodPost, "/api/login", creds).Code).Equal(http.StatusOK)
	w := s.doJSON(t, http.MethodPost, "/api/login", creds)
	gt.Value(t, w.Code).Equal(http.StatusTooManyRequests)
	gt.Value(t, w.Header().Get("Retry-After")).Equal("1")

	// other endpoints are not limited
	gt.Value(t, s.doJSON(t, http.MethodGet, "/api/cases", nil).Code).Equal(http.StatusOK)
}

func TestRateLimitKeysOnPeerAddress(t *testing.T) {
	creds := map[string]string{"username": "alice", "password": "s3cret"}
	login := func(s *testServer, remote, forwarded string) int {
		raw, err := json.Marshal(creds)
		gt.NoError(t, err).Required()
		req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = remote
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		w := httptest.NewRecorder()
		s.handler.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("forwarded header is ignored by default", func(t *testing.T) {
		s := newTestServer(t, server.WithRateLimit(0.001, 5))
		throttled := 0
		for i := range 50 {
			if login(s, "192.0.2.1:1234", fmt.Sprintf("203.0.113.%d", i)) == http.StatusTooManyRequests {
				throttled++
			}
		}
		gt.Value(t, throttled).Equal(45)
	})

	t.Run("distinct peers have separate buckets", func(t *testing.T) {
		s := newTestServer(t, server.WithRateLimit(0.001, 1))
		gt.Value(t, login(s, "192.0.2.1:1234", "")).Equal(http.StatusOK)
		gt.Value(t, login(s, "192.0.2.1:5678", "")).Equal(http.StatusTooManyRequests)
		gt.Value(t, login(s, "192.0.2.2:1234", "")).Equal(http.StatusOK)
	})

	t.Run("trusted proxy forwards client address", func(t *testing.T) {
		s := newTestServer(t, server.WithRateLimit(0.001, 1), server.WithTrustProxy(true))
		gt.Value(t, login(s, "10.0.0.1:1234", "203.0.113.1")).Equal(http.StatusOK)
		gt.Value(t, login(s, "10.0.0.1:1234", "203.0.113.2")).Equal(http.StatusOK)
		gt.Value(t, login(s, "10.0.0.1:1234", "203.0.113.1")).Equal(http.StatusTooManyRequests)
	})
}

func TestRateLimiterEviction(t *testing.T) {
	now := testNow
	clock := func() time.Time { return now }

	t.Run("capacity evicts least recently seen", func(t *testing.T) {
		l := server.NewRateLimiterForTest(0.001, 1, 3, clock)
		for i := range 10 {
			now = now.Add(time.Second)
			gt.Bool(t, l.Allow(fmt.Sprintf("198.51.100.%d", i))).True()
		}
		gt.Value(t, l.Size()).Equal(3)

		// the most recent address keeps its exhausted bucket
		gt.Bool(t, l.Allow("198.51.100.9")).False()
		// an evicted address starts over
		gt.Bool(t, l.Allow("198.51.100.0")).True()
	})

	t.Run("idle buckets are swept", func(t *testing.T) {
		l := server.NewRateLimiterForTest(0.001, 1, 100, clock)
		gt.Bool(t, l.Allow("198.51.100.1")).True()
		gt.Bool(t, l.Allow("198.51.100.2")).True()
		gt.Value(t, l.Size()).Equal(2)

		now = now.Add(time.Hour)
		gt.Bool(t, l.Allow("198.51.100.3")).True()
		gt.Value(t, l.Size()).Equal(1)
	})
}

func TestHealthAndCORS(t *testing.T) {
	s := newTestServer(t, server.WithCORSOrigins([]string{"http://localhost:8501"}))

	w := s.doJSON(t, http.MethodGet, "/health", nil)
	gt.Value(t, w.Code).Equal(http.StatusOK)

	req := httptest.NewRequest(http.MethodOptions, "/api/cases", nil)
	req.Header.Set("Origin", "http://localhost:8501")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusNoContent)
	gt.Value(t, rec.Header().Get("Access-Control-Allow-Origin")).Equal("http://localhost:8501")

	req = httptest.NewRequest(http.MethodGet, "/api/cases", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	gt.Value(t, rec.Code).Equal(http.StatusOK)
	gt.Value(t, rec.Header().Get("Access-Control-Allow-Origin")).Equal("")
}
