package usecase

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/domain/types"
	"github.com/hrmonitor/hrmonitor/pkg/utils/async"
	"github.com/hrmonitor/hrmonitor/pkg/utils/logging"
	"github.com/hrmonitor/hrmonitor/pkg/utils/metrics"
	"github.com/hrmonitor/hrmonitor/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

// reportFileTimestamp renders the upload time embedded in report blob keys,
// down to the microsecond.
const reportFileTimestamp = "20060102150405.000000"

type IncidentReportUseCase struct {
	repo          interfaces.Repository
	blobs         interfaces.BlobStore
	geocoder      interfaces.Geocoder
	notifier      interfaces.Notifier
	clock         func() time.Time
	maxUploadSize int64
}

// ReportFile is one file submitted with a report.
type ReportFile struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ReportSubmission holds the fields of the public report form.
// ViolationTypes is the raw comma separated list.
type ReportSubmission struct {
	ReporterType     string
	Anonymous        bool
	Email            string
	Phone            string
	PreferredContact string
	Date             time.Time
	Country          string
	City             string
	Longitude        float64
	Latitude         float64
	Description      string
	ViolationTypes   string
	Files            []ReportFile
}

func (s *ReportSubmission) contactInfo() *model.ContactInfo {
	if s.Anonymous {
		return nil
	}
	return &model.ContactInfo{
		Email:            strings.TrimSpace(s.Email),
		Phone:            strings.TrimSpace(s.Phone),
		PreferredContact: strings.TrimSpace(s.PreferredContact),
	}
}

// check rejects a submission before anything is resolved or written.
func (s *ReportSubmission) check() error {
	// a malformed email is rejected even when it is dropped as anonymous
	contact := &model.ContactInfo{Email: strings.TrimSpace(s.Email), Phone: strings.TrimSpace(s.Phone)}
	if err := model.ValidateContact(s.Anonymous, contact); err != nil {
		return err
	}
	if strings.TrimSpace(s.ReporterType) == "" {
		return goerr.Wrap(model.ErrValidation, "reporter type is required", goerr.V(model.FieldKey, "reporter_type"))
	}
	if s.Date.IsZero() {
		return goerr.Wrap(model.ErrValidation, "incident date is required", goerr.V(model.FieldKey, "date"))
	}
	if err := model.ValidateLongLat(s.Longitude, s.Latitude); err != nil {
		return err
	}
	if len(strings.TrimSpace(s.Description)) < model.MinDescriptionLength {
		return goerr.Wrap(model.ErrValidation, "description is too short", goerr.V(model.FieldKey, "description"))
	}
	if len(model.SplitViolationTypes(s.ViolationTypes)) == 0 {
		return goerr.Wrap(model.ErrValidation, "at least one violation type is required", goerr.V(model.FieldKey, "violation_types"))
	}
	return nil
}

// resolvePlace reverse geocodes the coordinates. A lookup failure degrades to
// an unknown country and never aborts the submission.
func (uc *IncidentReportUseCase) resolvePlace(ctx context.Context, latitude, longitude float64) interfaces.Place {
	unknown := interfaces.Place{Country: model.UnknownCountry}
	if uc.geocoder == nil {
		return unknown
	}

	place, err := uc.geocoder.Reverse(ctx, latitude, longitude)
	if err != nil {
		metrics.RecordGeocodeFailure()
		logging.From(ctx).Warn("reverse geocoding failed",
			"latitude", latitude,
			"longitude", longitude,
			"error", err,
		)
		return unknown
	}
	if place == nil || place.Country == "" {
		return unknown
	}
	return *place
}

// overridePlace prefers the values given in the form when they differ from
// the geocoded ones, ignoring case.
func overridePlace(resolved interfaces.Place, country, city string) interfaces.Place {
	if country = strings.TrimSpace(country); country != "" && !strings.EqualFold(country, resolved.Country) {
		resolved.Country = country
	}
	if city = strings.TrimSpace(city); city != "" && !strings.EqualFold(city, resolved.City) {
		resolved.City = city
	}
	return resolved
}

func reportFileKey(reportID string, at time.Time, filename string) string {
	base, ext := SanitizeFilename(filename)
	ts := strings.ReplaceAll(at.Format(reportFileTimestamp), ".", "")
	return "reports/" + reportID + "_" + ts + "_" + base + ext
}

func (uc *IncidentReportUseCase) deleteBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		safe.Undo(ctx, "delete orphaned report blob", func(ctx context.Context) error {
			return uc.blobs.Delete(ctx, key)
		})
	}
}

// storeFiles writes every file and returns the evidence entries. On failure
// the blobs already written are removed.
func (uc *IncidentReportUseCase) storeFiles(ctx context.Context, reportID string, files []ReportFile) ([]model.ReportEvidence, []string, error) {
	evidence := make([]model.ReportEvidence, 0, len(files))
	keys := make([]string, 0, len(files))

	for _, f := range files {
		key := reportFileKey(reportID, uc.clock(), f.Filename)
		if err := putLimited(ctx, uc.blobs, key, f.Body, f.ContentType, uc.maxUploadSize); err != nil {
			uc.deleteBlobs(ctx, keys)
			return nil, nil, goerr.Wrap(err, "failed to store report file",
				goerr.V(model.ReportIDKey, reportID), goerr.V(model.FilenameKey, f.Filename))
		}
		keys = append(keys, key)

		evType := types.EvidenceTypeFromFilename(key)
		evidence = append(evidence, model.ReportEvidence{
			Type:        evType,
			URL:         model.BlobURL(key),
			Description: f.Filename,
		})
		metrics.RecordEvidenceStored("report", evType.String())
	}
	return evidence, keys, nil
}

// CreateReport validates a public submission, resolves its place, issues a
// report id and stores the attached files with the report.
func (uc *IncidentReportUseCase) CreateReport(ctx context.Context, s *ReportSubmission) (*model.IncidentReport, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if len(s.Files) > 0 && uc.blobs == nil {
		return nil, goerr.Wrap(ErrBlobStoreNotConfigured, "cannot store report files")
	}

	place := overridePlace(uc.resolvePlace(ctx, s.Latitude, s.Longitude), s.Country, s.City)
	now := uc.clock()

	reportID, err := uc.repo.IncidentReport().NextReportID(ctx, now.Year())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to issue report id")
	}

	report := &model.IncidentReport{
		ReportID:     reportID,
		ReporterType: strings.TrimSpace(s.ReporterType),
		Anonymous:    s.Anonymous,
		ContactInfo:  s.contactInfo(),
		IncidentDetails: model.IncidentDetails{
			Date: s.Date.UTC(),
			Location: model.Location{
				Country:     place.Country,
				City:        place.City,
				Coordinates: model.NewGeoPoint(s.Longitude, s.Latitude),
			},
			Description:    s.Description,
			ViolationTypes: model.SplitViolationTypes(s.ViolationTypes),
		},
		Evidence:  []model.ReportEvidence{},
		Status:    types.ReportStatusNew,
		CreatedAt: now,
	}
	if err := report.Validate(); err != nil {
		return nil, err
	}

	evidence, keys, err := uc.storeFiles(ctx, reportID, s.Files)
	if err != nil {
		return nil, err
	}
	report.Evidence = evidence

	created, err := uc.repo.IncidentReport().Create(ctx, report)
	if err != nil {
		uc.deleteBlobs(ctx, keys)
		return nil, goerr.Wrap(err, "failed to create report", goerr.V(model.ReportIDKey, reportID))
	}

	metrics.RecordReportCreated(created.Anonymous)
	logging.From(ctx).Info("incident report created",
		"report_id", created.ReportID,
		"country", created.IncidentDetails.Location.Country,
		"files", len(created.Evidence),
	)

	if uc.notifier != nil {
		notified := *created
		async.Dispatch(ctx, func(ctx context.Context) error {
			return uc.notifier.NotifyReportCreated(ctx, &notified)
		})
	}
	return created, nil
}

// ListReports checks the page window, applying the default limit when it
// is zero.
func (uc *IncidentReportUseCase) ListReports(ctx context.Context, filter model.ReportFilter) ([]*model.IncidentReport, error) {
	if filter.Skip < 0 {
		return nil, goerr.Wrap(model.ErrValidation, "skip must not be negative", goerr.V("skip", filter.Skip))
	}
	if filter.Limit == 0 {
		filter.Limit = model.DefaultReportLimit
	}
	if filter.Limit < 1 || filter.Limit > model.MaxReportLimit {
		return nil, goerr.Wrap(model.ErrValidation, "limit out of range", goerr.V("limit", filter.Limit))
	}

	reports, err := uc.repo.IncidentReport().List(ctx, &filter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list reports")
	}
	return reports, nil
}

func (uc *IncidentReportUseCase) GetReport(ctx context.Context, reportID string) (*model.IncidentReport, error) {
	report, err := uc.repo.IncidentReport().Get(ctx, reportID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get report", goerr.V(model.ReportIDKey, reportID))
	}
	return report, nil
}

// UpdateStatus sets the status of a report. Setting the current status
// fails with model.ErrNotModified.
func (uc *IncidentReportUseCase) UpdateStatus(ctx context.Context, reportID, status string) (*model.IncidentReport, error) {
	to, err := types.ParseReportStatus(status)
	if err != nil {
		return nil, goerr.Wrap(model.ErrValidation, "invalid report status",
			goerr.V(model.ReportIDKey, reportID), goerr.V(model.StatusKey, status))
	}

	updated, err := uc.repo.IncidentReport().UpdateStatus(ctx, reportID, to)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update report status",
			goerr.V(model.ReportIDKey, reportID), goerr.V(model.StatusKey, to))
	}

	logging.From(ctx).Info("incident report status changed", "report_id", reportID, "status", to)
	return updated, nil
}

// Analytics counts reports per violation type.
func (uc *IncidentReportUseCase) Analytics(ctx context.Context) ([]model.ViolationCount, error) {
	counts, err := uc.repo.IncidentReport().CountByViolation(ctx, model.MaxReportViolationGroups)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count report violations")
	}
	return counts, nil
}
