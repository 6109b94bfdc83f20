package config

import (
	"log/slog"
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/service/geocode"
	"github.com/hrmonitor/hrmonitor/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Geocoder holds CLI flags for reverse geocoding of report coordinates
type Geocoder struct {
	provider  string
	url       string
	userAgent string
	timeout   time.Duration
}

func (x *Geocoder) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "geocoder",
			Usage:       "Reverse geocoder (nominatim or none)",
			Category:    "Geocoder",
			Value:       "nominatim",
			Sources:     cli.EnvVars("HRMONITOR_GEOCODER"),
			Destination: &x.provider,
		},
		&cli.StringFlag{
			Name:        "nominatim-url",
			Usage:       "Nominatim base URL",
			Category:    "Geocoder",
			Value:       geocode.DefaultNominatimURL,
			Sources:     cli.EnvVars("HRMONITOR_NOMINATIM_URL"),
			Destination: &x.url,
		},
		&cli.StringFlag{
			Name:        "geocoder-user-agent",
			Usage:       "User-Agent sent to the geocoder",
			Category:    "Geocoder",
			Value:       geocode.DefaultUserAgent,
			Sources:     cli.EnvVars("HRMONITOR_GEOCODER_USER_AGENT"),
			Destination: &x.userAgent,
		},
		&cli.DurationFlag{
			Name:        "geocoder-timeout",
			Usage:       "Timeout of a single geocoding request",
			Category:    "Geocoder",
			Value:       geocode.DefaultTimeout,
			Sources:     cli.EnvVars("HRMONITOR_GEOCODER_TIMEOUT"),
			Destination: &x.timeout,
		},
	}
}

func (x Geocoder) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", x.provider),
		slog.String("url", x.url),
		slog.Duration("timeout", x.timeout),
	)
}

func (x *Geocoder) Configure() (interfaces.Geocoder, error) {
	switch x.provider {
	case "nominatim":
		if x.timeout <= 0 {
			return nil, goerr.Wrap(ErrInvalidConfig, "geocoder-timeout must be positive", goerr.V("timeout", x.timeout))
		}
		logging.Default().Info("Using Nominatim geocoder", "url", x.url)
		return geocode.NewNominatim(
			geocode.WithBaseURL(x.url),
			geocode.WithUserAgent(x.userAgent),
			geocode.WithTimeout(x.timeout),
		), nil

	case "none":
		logging.Default().Info("Geocoding disabled, report locations default to Unknown")
		return geocode.Noop{}, nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid geocoder", goerr.V("geocoder", x.provider))
	}
}
