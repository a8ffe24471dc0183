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

// NominatimProvider reverse geocodes through OpenStreetMap Nominatim.
type NominatimProvider struct {
	name      string
	baseURL   string
	userAgent string
	httpCfg   upstream.HTTPClientConfig
	circuit   *gobreaker.CircuitBreaker
}

func NewNominatimProvider(client *http.Client, baseURL, userAgent string) *NominatimProvider {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	return &NominatimProvider{
		name:      "nominatim",
		baseURL:   baseURL,
		userAgent: userAgent,
		httpCfg:   upstream.DefaultConfig(client),
		circuit:   upstream.NewBreaker("nominatim"),
	}
}

func (p *NominatimProvider) Name() string {
	return p.name
}

func (p *NominatimProvider) Reverse(ctx context.Context, pos location.Position) (location.Snapshot, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("format", "json")
		values.Set("lat", fmt.Sprintf("%f", pos.Latitude))
		values.Set("lon", fmt.Sprintf("%f", pos.Longitude))
		values.Set("zoom", "10")
		values.Set("addressdetails", "1")

		req, err := http.NewRequest(http.MethodGet, p.baseURL+"/reverse?"+values.Encode(), nil)
		if err != nil {
			return nil, err
		}
		// Nominatim's usage policy rejects anonymous clients.
		req.Header.Set("User-Agent", p.userAgent)
		return req, nil
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return location.Snapshot{}, err
	}

	var payload struct {
		Address struct {
			City         string `json:"city"`
			Town         string `json:"town"`
			Village      string `json:"village"`
			Hamlet       string `json:"hamlet"`
			Municipality string `json:"municipality"`
			County       string `json:"county"`
			State        string `json:"state"`
			Province     string `json:"province"`
			Region       string `json:"region"`
			Country      string `json:"country"`
		} `json:"address"`
	}
	if err := upstream.DecodeJSON(resp, &payload); err != nil {
		return location.Snapshot{}, err
	}

	a := payload.Address
	city := common.FirstNonEmpty(a.City, a.Town, a.Village, a.Hamlet, a.Municipality, a.County)
	if city == "" {
		return location.Snapshot{}, fmt.Errorf("nominatim: no locality for %f,%f", pos.Latitude, pos.Longitude)
	}

	return location.Snapshot{
		City:    city,
		Region:  common.FirstNonEmpty(a.State, a.Province, a.Region),
		Country: a.Country,
	}, nil
}
