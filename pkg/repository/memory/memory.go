package memory

import (
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
)

// Memory is an in-process repository. It is used by tests and by the
// memory backend of the serve command.
type Memory struct {
	caseRepo   *caseRepository
	reportRepo *incidentReportRepository
}

var _ interfaces.Repository = &Memory{}

type Option func(*options)

type options struct {
	clock func() time.Time
}

// WithClock sets the source of created_at, updated_at and status history
// timestamps.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func New(opts ...Option) *Memory {
	o := options{
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	now := func() time.Time { return o.clock().UTC() }

	return &Memory{
		caseRepo:   newCaseRepository(now),
		reportRepo: newIncidentReportRepository(now),
	}
}

func (m *Memory) Case() interfaces.CaseRepository {
	return m.caseRepo
}

func (m *Memory) IncidentReport() interfaces.IncidentReportRepository {
	return m.reportRepo
}

func (m *Memory) Close() error {
	return nil
}
