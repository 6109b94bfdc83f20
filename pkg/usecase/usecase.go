package usecase

import (
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
)

// DefaultMaxUploadSize bounds a single uploaded file
const DefaultMaxUploadSize int64 = 32 << 20

type UseCases struct {
	repo          interfaces.Repository
	blobs         interfaces.BlobStore
	geocoder      interfaces.Geocoder
	notifier      interfaces.Notifier
	authenticator interfaces.Authenticator
	clock         func() time.Time
	maxUploadSize int64

	Case      *CaseUseCase
	Evidence  *EvidenceUseCase
	Report    *IncidentReportUseCase
	Analytics *AnalyticsUseCase
	Auth      *AuthUseCase
}

type Option func(*UseCases)

func WithBlobStore(blobs interfaces.BlobStore) Option {
	return func(uc *UseCases) {
		uc.blobs = blobs
	}
}

func WithGeocoder(geocoder interfaces.Geocoder) Option {
	return func(uc *UseCases) {
		uc.geocoder = geocoder
	}
}

// WithNotifier enables event notifications. Notifications are sent
// asynchronously and never fail the request.
func WithNotifier(notifier interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = notifier
	}
}

func WithAuthenticator(authenticator interfaces.Authenticator) Option {
	return func(uc *UseCases) {
		uc.authenticator = authenticator
	}
}

// WithClock overrides the time source. Tests use it to pin report ids and
// evidence timestamps.
func WithClock(clock func() time.Time) Option {
	return func(uc *UseCases) {
		uc.clock = clock
	}
}

func WithMaxUploadSize(n int64) Option {
	return func(uc *UseCases) {
		uc.maxUploadSize = n
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:          repo,
		clock:         func() time.Time { return time.Now().UTC() },
		maxUploadSize: DefaultMaxUploadSize,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Case = &CaseUseCase{repo: repo, notifier: uc.notifier, clock: uc.clock}
	uc.Evidence = &EvidenceUseCase{repo: repo, blobs: uc.blobs, clock: uc.clock, maxUploadSize: uc.maxUploadSize}
	uc.Report = &IncidentReportUseCase{
		repo:          repo,
		blobs:         uc.blobs,
		geocoder:      uc.geocoder,
		notifier:      uc.notifier,
		clock:         uc.clock,
		maxUploadSize: uc.maxUploadSize,
	}
	uc.Analytics = &AnalyticsUseCase{repo: repo}
	uc.Auth = &AuthUseCase{authenticator: uc.authenticator}

	return uc
}

// MaxUploadSize returns the configured per-file upload limit
func (uc *UseCases) MaxUploadSize() int64 {
	return uc.maxUploadSize
}

// Blobs returns the blob store used for evidence. It is nil when uploads
// are disabled.
func (uc *UseCases) Blobs() interfaces.BlobStore {
	return uc.blobs
}
