package geocode

import (
	"context"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
)

// Noop resolves every point to model.UnknownCountry. It is selected with
// --geocoder=none for offline deployments.
type Noop struct{}

var _ interfaces.Geocoder = Noop{}

func (Noop) Reverse(ctx context.Context, latitude, longitude float64) (*interfaces.Place, error) {
	return &interfaces.Place{Country: model.UnknownCountry}, nil
}
