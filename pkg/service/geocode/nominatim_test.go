package geocode_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hrmonitor/hrmonitor/pkg/domain/model"
	"github.com/hrmonitor/hrmonitor/pkg/service/geocode"
	"github.com/m-mizutani/gt"
)

func newTestNominatim(t *testing.T, handler http.HandlerFunc) *geocode.Nominatim {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return geocode.NewNominatim(
		geocode.WithBaseURL(srv.URL),
		geocode.WithUserAgent("hrmonitor-test"),
		geocode.WithRateLimit(0),
	)
}

func TestNominatimReverse(t *testing.T) {
	testCases := []struct {
		name        string
		body        string
		wantCountry string
		wantCity    string
	}{
		{"city", `{"address":{"country":"Kenya","city":"Nairobi","state":"Nairobi County"}}`, "Kenya", "Nairobi"},
		{"town fallback", `{"address":{"country":"Peru","town":"Pisac","state":"Cusco"}}`, "Peru", "Pisac"},
		{"village fallback", `{"address":{"country":"Nepal","village":"Namche"}}`, "Nepal", "Namche"},
		{"state fallback", `{"address":{"country":"Chad","state":"Ennedi"}}`, "Chad", "Ennedi"},
		{"county fallback", `{"address":{"country":"Ireland","county":"Kerry"}}`, "Ireland", "Kerry"},
		{"no address", `{"error":"Unable to geocode"}`, model.UnknownCountry, ""},
		{"no country", `{"address":{"city":"Somewhere"}}`, model.UnknownCountry, "Somewhere"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var gotUA, gotLat, gotLon, gotLang string
			g := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
				gotUA = r.Header.Get("User-Agent")
				gotLat = r.URL.Query().Get("lat")
				gotLon = r.URL.Query().Get("lon")
				gotLang = r.URL.Query().Get("accept-language")
				gt.Value(t, r.URL.Path).Equal("/reverse")
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			})

			place, err := g.Reverse(context.Background(), -1.2921, 36.8219)
			gt.NoError(t, err).Required()
			gt.Value(t, place.Country).Equal(tc.wantCountry)
			gt.Value(t, place.City).Equal(tc.wantCity)
			gt.Value(t, gotUA).Equal("hrmonitor-test")
			gt.Value(t, gotLat).Equal("-1.2921")
			gt.Value(t, gotLon).Equal("36.8219")
			gt.Value(t, gotLang).Equal("en")
		})
	}
}

func TestNominatimUpstreamFailure(t *testing.T) {
	t.Run("error status", func(t *testing.T) {
		g := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		_, err := g.Reverse(context.Background(), 0, 0)
		gt.Error(t, err).Is(model.ErrUpstreamUnavailable)
	})

	t.Run("malformed body", func(t *testing.T) {
		g := newTestNominatim(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		})
		_, err := g.Reverse(context.Background(), 0, 0)
		gt.Error(t, err).Is(model.ErrUpstreamUnavailable)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		t.Cleanup(srv.Close)

		g := geocode.NewNominatim(
			geocode.WithBaseURL(srv.URL),
			geocode.WithTimeout(20*time.Millisecond),
			geocode.WithRateLimit(0),
		)
		_, err := g.Reverse(context.Background(), 0, 0)
		gt.Error(t, err).Is(model.ErrUpstreamUnavailable)
	})
}

func TestNoop(t *testing.T) {
	place, err := geocode.Noop{}.Reverse(context.Background(), 10, 20)
	gt.NoError(t, err).Required()
	gt.Value(t, place.Country).Equal(model.UnknownCountry)
	gt.Value(t, place.City).Equal("")
}
