package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/i474232898/date-planner/internal/common"
	"github.com/i474232898/date-planner/internal/location"
	"github.com/i474232898/date-planner/internal/upstream"
)

// BigDataCloudProvider uses the keyless client-side reverse geocoding endpoint.
type BigDataCloudProvider struct {
	name    string
	baseURL string
	httpCfg upstream.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewBigDataCloudProvider(client *http.Client, baseURL string) *BigDataCloudProvider {
	if baseURL == "" {
		baseURL = "https://api.bigdatacloud.net"
	}
	return &BigDataCloudProvider{
		name:    "bigdatacloud",
		baseURL: baseURL,
		httpCfg: upstream.DefaultConfig(client),
		circuit: upstream.NewBreaker("bigdatacloud"),
	}
}

func (p *BigDataCloudProvider) Name() string {
	return p.name
}

func (p *BigDataCloudProvider) Reverse(ctx context.Context, pos location.Position) (location.Snapshot, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", pos.Latitude))
		values.Set("longitude", fmt.Sprintf("%f", pos.Longitude))
		values.Set("localityLanguage", "en")
		return http.NewRequest(http.MethodGet, p.baseURL+"/data/reverse-geocode-client?"+values.Encode(), nil)
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return location.Snapshot{}, err
	}

	var payload struct {
		City                 string `json:"city"`
		Locality             string `json:"locality"`
		PrincipalSubdivision string `json:"principalSubdivision"`
		CountryName          string `json:"countryName"`
	}
	if err := upstream.DecodeJSON(resp, &payload); err != nil {
		return location.Snapshot{}, err
	}

	city := common.FirstNonEmpty(payload.City, payload.Locality, payload.PrincipalSubdivision)
	if city == "" {
		return location.Snapshot{}, fmt.Errorf("bigdatacloud: no locality for %f,%f", pos.Latitude, pos.Longitude)
	}

	return location.Snapshot{
		City:    city,
		Region:  payload.PrincipalSubdivision,
		Country: payload.CountryName,
	}, nil
}
