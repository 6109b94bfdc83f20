package interfaces

import (
	"context"
	"io"

	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
)

// BlobStore durably stores uploaded files under generated keys
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	// Open returns model.ErrNotFound when key does not exist
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Place is the result of a reverse geocoding lookup
type Place struct {
	Country string
	City    string
}

// Geocoder resolves coordinates to a place
type Geocoder interface {
	Reverse(ctx context.Context, latitude, longitude float64) (*Place, error)
}

// Authenticator verifies credentials. It returns model.ErrUnauthorized for
// unknown users and wrong passwords alike.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*model.Principal, error)
}

// Notifier announces domain events to staff
type Notifier interface {
	NotifyReportCreated(ctx context.Context, r *model.IncidentReport) error
	NotifyCaseStatusChanged(ctx context.Context, rec *model.StatusHistoryRecord) error
}
