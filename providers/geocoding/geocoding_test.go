package geocoding_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SwiftFiat/SwiftFiat-Queue/internal/testutil"
	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/SwiftFiat/SwiftFiat-Queue/providers/geocoding"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/security"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
)

const sampleResponse = `{
  "status": "OK",
  "results": [
    {"address_components": [{"long_name": "Santo Domingo", "types": ["locality"]}]},
    {"address_components": [
      {"long_name": "Piantini", "types": ["neighborhood", "political"]},
      {"long_name": "Ensanche Naco", "types": ["sublocality", "political"]},
      {"long_name": "Distrito Nacional", "types": ["administrative_area_level_2"]}
    ]}
  ]
}`

func newProvider(t *testing.T, h http.HandlerFunc) *geocoding.GeocodingProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	logger, _ := testutil.Logger(t)
	cache := security.NewCache(time.Minute, time.Minute)
	return geocoding.NewGeocodingProvider(&utils.Config{GeocodingBaseURL: srv.URL, GoogleMapsAPIKey: "k"}, cache, logger)
}

func TestReverse_GivenFullMatch_ThenAreaResolvedAndCached(t *testing.T) {
	calls := 0
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("latlng") != "18.47,-69.9" || r.URL.Query().Get("key") != "k" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(sampleResponse))
	})

	for i := 0; i < 2; i++ {
		loc, err := p.Reverse(context.Background(), 18.47, -69.9)
		if err != nil {
			t.Fatalf("Reverse() error = %v", err)
		}
		if loc.FullArea != "Piantini, Ensanche Naco, Distrito Nacional" || loc.Latitude != 18.47 {
			t.Errorf("Reverse() = %+v", loc)
		}
	}
	if calls != 1 {
		t.Errorf("geocoder called %d times, want 1", calls)
	}
}

func TestReverse_GivenNoCompleteMatch_ThenCoordinatesOnly(t *testing.T) {
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})
	loc, err := p.Reverse(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("Reverse() error = %v", err)
	}
	if loc.FullArea != "" || loc.Latitude != 1 || loc.Longitude != 2 {
		t.Errorf("Reverse() = %+v", loc)
	}
}

func TestReverse_GivenDeniedRequest_ThenTransient(t *testing.T) {
	p := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"REQUEST_DENIED","error_message":"bad key","results":[]}`))
	})
	if _, err := p.Reverse(context.Background(), 1, 2); models.KindOf(err) != models.KindTransient {
		t.Errorf("Reverse() error = %v, want transient", err)
	}
}
