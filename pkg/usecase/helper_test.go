package usecase_test

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
	"github.com/hrmonitor/hrmonitor/pkg/repository/memory"
	"github.com/hrmonitor/hrmonitor/pkg/service/storage"
	"github.com/hrmonitor/hrmonitor/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

var testNow = time.Date(2024, 5, 4, 12, 30, 45, 123456000, time.UTC)

func testClock() time.Time {
	return testNow
}

func newTestCase(caseID string) *model.Case {
	return &model.Case{
		CaseID:         caseID,
		Title:          "Detention of journalists",
		Description:    "Three journalists were detained without charge",
		ViolationTypes: []string{"torture"},
		Status:         types.CaseStatusNew,
		Location: model.Location{
			Country:     "Kenya",
			Region:      "Nairobi",
			Coordinates: model.NewGeoPoint(36.8219, -1.2921),
		},
		DateOccurred: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		DateReported: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		Victims:      []string{"victim-1"},
		CreatedBy:    "alice",
	}
}

type fakeGeocoder struct {
	place *interfaces.Place
	err   error
	calls int
}

func (g *fakeGeocoder) Reverse(ctx context.Context, latitude, longitude float64) (*interfaces.Place, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.place, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	reports  []*model.IncidentReport
	statuses []*model.StatusHistoryRecord
}

func (n *fakeNotifier) NotifyReportCreated(ctx context.Context, r *model.IncidentReport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, r)
	return nil
}

func (n *fakeNotifier) NotifyCaseStatusChanged(ctx context.Context, rec *model.StatusHistoryRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, rec)
	return nil
}

// failingRepository wraps a repository and fails the evidence append and
// the report insert.
type failingRepository struct {
	interfaces.Repository
}

func (r *failingRepository) Case() interfaces.CaseRepository {
	return &failingCaseRepository{CaseRepository: r.Repository.Case()}
}

func (r *failingRepository) IncidentReport() interfaces.IncidentReportRepository {
	return &failingReportRepository{IncidentReportRepository: r.Repository.IncidentReport()}
}

type failingCaseRepository struct {
	interfaces.CaseRepository
}

func (r *failingCaseRepository) AppendEvidence(ctx context.Context, caseID string, item model.EvidenceItem) error {
	return errInjected
}

type failingReportRepository struct {
	interfaces.IncidentReportRepository
}

func (r *failingReportRepository) Create(ctx context.Context, report *model.IncidentReport) (*model.IncidentReport, error) {
	return nil, errInjected
}

type testEnv struct {
	repo     *memory.Memory
	blobs    *storage.Local
	root     string
	geocoder *fakeGeocoder
	notifier *fakeNotifier
	uc       *usecase.UseCases
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	blobs, err := storage.NewLocal(root)
	gt.NoError(t, err).Required()

	env := &testEnv{
		repo:     memory.New(),
		blobs:    blobs,
		root:     root,
		geocoder: &fakeGeocoder{place: &interfaces.Place{Country: "Kenya", City: "Nairobi"}},
		notifier: &fakeNotifier{},
	}
	env.uc = usecase.New(env.repo,
		usecase.WithBlobStore(blobs),
		usecase.WithGeocoder(env.geocoder),
		usecase.WithNotifier(env.notifier),
		usecase.WithClock(testClock),
	)
	return env
}

var errInjected = goerr.New("injected failure")

// storedFiles lists the blob keys under root, ignoring temporary files.
func storedFiles(t *testing.T, root string) []string {
	t.Helper()

	var keys []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	gt.NoError(t, err).Required()
	return keys
}
