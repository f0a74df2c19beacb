package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/SwiftFiat/SwiftFiat-Queue/providers"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/monitoring/logging"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/security"
	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
	"github.com/sirupsen/logrus"
)

const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// GeocodingProvider resolves coordinates into the neighbourhood,
// sublocality and municipality they fall in.
type GeocodingProvider struct {
	providers.BaseProvider
	cache *security.Cache
}

func NewGeocodingProvider(c *utils.Config, cache *security.Cache, logger *logging.Logger) *GeocodingProvider {
	return &GeocodingProvider{
		BaseProvider: providers.BaseProvider{
			Name:    providers.Geocoding,
			BaseURL: c.GeocodingBaseURL,
			APIKey:  c.GoogleMapsAPIKey,
			Client: &http.Client{
				Timeout: time.Second * 10,
			},
			Logger: logger,
		},
		cache: cache,
	}
}

func cacheKey(lat, lng float64) string {
	return fmt.Sprintf("geo:%.5f,%.5f", lat, lng)
}

// Reverse looks lat/lng up. Coordinates without a complete area match come
// back with only the coordinates set.
func (p *GeocodingProvider) Reverse(ctx context.Context, lat, lng float64) (*Location, error) {
	key := cacheKey(lat, lng)
	if v, err := p.cache.Get(key); err == nil {
		loc := v.(Location)
		return &loc, nil
	}

	base, err := url.Parse(p.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid geocoding url: %w", err)
	}
	params := url.Values{}
	params.Add("latlng", strconv.FormatFloat(lat, 'f', -1, 64)+","+strconv.FormatFloat(lng, 'f', -1, 64))
	params.Add("key", p.APIKey)
	base.RawQuery = params.Encode()

	// the key travels in the query string, not as a bearer token
	resp, err := p.MakeRequest(ctx, http.MethodGet, base.String(), nil, map[string]string{"Authorization": ""})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.Logger.WithFields(logrus.Fields{"status_code": resp.StatusCode}).Error("Unexpected response from geocoding API")
		return nil, models.Transient(p.Name, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("error decoding response body: %w", err)
	}
	if body.Status != statusOK && body.Status != statusZeroResults {
		return nil, models.Transient(p.Name, fmt.Errorf("geocoding status %s: %s", body.Status, body.ErrorMessage))
	}

	loc := Location{Latitude: lat, Longitude: lng}
	for _, r := range body.Results {
		sub, ok1 := r.component("sublocality")
		hood, ok2 := r.component("neighborhood")
		adm, ok3 := r.component("administrative_area_level_2")
		if ok1 && ok2 && ok3 {
			loc.Neighbourhood = hood.LongName
			loc.Sublocality = sub.LongName
			loc.Municipality = adm.LongName
			loc.FullArea = fmt.Sprintf("%s, %s, %s", hood.LongName, sub.LongName, adm.LongName)
			break
		}
	}

	p.cache.Insert(key, loc)
	return &loc, nil
}
