package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/interfaces"
	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	DefaultUserAgent    = "hrmonitor"
	DefaultTimeout      = 10 * time.Second

	maxResponseBytes = 1 << 20
)

// Nominatim resolves coordinates with the OpenStreetMap Nominatim reverse
// API. Requests are throttled to one per second as the public instance
// requires.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ interfaces.Geocoder = &Nominatim{}

type Option func(*Nominatim)

func WithBaseURL(u string) Option {
	return func(n *Nominatim) {
		n.baseURL = strings.TrimRight(u, "/")
	}
}

func WithUserAgent(ua string) Option {
	return func(n *Nominatim) {
		n.userAgent = ua
	}
}

func WithTimeout(d time.Duration) Option {
	return func(n *Nominatim) {
		n.httpClient.Timeout = d
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(n *Nominatim) {
		n.httpClient = c
	}
}

// WithRateLimit overrides the request rate. A zero limit disables
// throttling.
func WithRateLimit(limit rate.Limit) Option {
	return func(n *Nominatim) {
		if limit == 0 {
			n.limiter = nil
			return
		}
		n.limiter = rate.NewLimiter(limit, 1)
	}
}

func NewNominatim(opts ...Option) *Nominatim {
	n := &Nominatim{
		baseURL:    DefaultNominatimURL,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type nominatimAddress struct {
	Country string `json:"country"`
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	State   string `json:"state"`
	County  string `json:"county"`
}

type nominatimResponse struct {
	Address *nominatimAddress `json:"address"`
	Error   string            `json:"error"`
}

// locality picks the most specific populated place name
func (a *nominatimAddress) locality() string {
	for _, v := range []string{a.City, a.Town, a.Village, a.State, a.County} {
		if v != "" {
			return v
		}
	}
	return ""
}

// Reverse looks up the country and locality of a point. A point with no
// address, such as the open sea, yields model.UnknownCountry. Transport and
// upstream failures are wrapped with model.ErrUpstreamUnavailable.
func (n *Nominatim) Reverse(ctx context.Context, latitude, longitude float64) (*interfaces.Place, error) {
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return nil, goerr.Wrap(model.ErrUpstreamUnavailable, "geocoder throttled", goerr.V("error", err.Error()))
		}
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(longitude, 'f', -1, 64))
	q.Set("accept-language", "en")
	u := n.baseURL + "/reverse?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build geocode request")
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(model.ErrUpstreamUnavailable, "geocode request failed", goerr.V("error", err.Error()))
	}
	defer safe.Close(ctx, resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, goerr.Wrap(model.ErrUpstreamUnavailable, "failed to read geocode response", goerr.V("error", err.Error()))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, goerr.Wrap(model.ErrUpstreamUnavailable, "geocoder returned error status",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", strings.TrimSpace(string(body))))
	}

	var out nominatimResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, goerr.Wrap(model.ErrUpstreamUnavailable, "failed to decode geocode response", goerr.V("error", err.Error()))
	}

	if out.Address == nil {
		return &interfaces.Place{Country: model.UnknownCountry}, nil
	}
	place := &interfaces.Place{
		Country: out.Address.Country,
		City:    out.Address.locality(),
	}
	if place.Country == "" {
		place.Country = model.UnknownCountry
	}
	return place, nil
}
