package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/i474232898/date-planner/internal/location"
	"github.com/i474232898/date-planner/internal/upstream"
)

// IPAPICoProvider looks up an address through ipapi.co.
type IPAPICoProvider struct {
	name    string
	baseURL string
	httpCfg upstream.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewIPAPICoProvider(client *http.Client, baseURL string) *IPAPICoProvider {
	if baseURL == "" {
		baseURL = "https://ipapi.co"
	}
	return &IPAPICoProvider{
		name:    "ipapi.co",
		baseURL: baseURL,
		httpCfg: upstream.DefaultConfig(client),
		circuit: upstream.NewBreaker("ipapi.co"),
	}
}

func (p *IPAPICoProvider) Name() string {
	return p.name
}

func (p *IPAPICoProvider) Lookup(ctx context.Context, ip string) (location.Snapshot, error) {
	endpoint := p.baseURL + "/json/"
	if ip != "" {
		endpoint = p.baseURL + "/" + url.PathEscape(ip) + "/json/"
	}
	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return location.Snapshot{}, err
	}

	var payload struct {
		City        string   `json:"city"`
		Region      string   `json:"region"`
		CountryName string   `json:"country_name"`
		Latitude    *float64 `json:"latitude"`
		Longitude   *float64 `json:"longitude"`
		Error       bool     `json:"error"`
		Reason      string   `json:"reason"`
	}
	if err := upstream.DecodeJSON(resp, &payload); err != nil {
		return location.Snapshot{}, err
	}
	if payload.Error {
		return location.Snapshot{}, fmt.Errorf("%w: %s", upstream.ErrUpstream, payload.Reason)
	}
	if payload.City == "" {
		return location.Snapshot{}, fmt.Errorf("ipapi.co: no city in response")
	}

	return location.Snapshot{
		City:      payload.City,
		Region:    payload.Region,
		Country:   payload.CountryName,
		Latitude:  payload.Latitude,
		Longitude: payload.Longitude,
		Source:    location.SourceIP,
	}, nil
}

// IPAPIComProvider looks up an address through ip-api.com.
type IPAPIComProvider struct {
	name    string
	baseURL string
	httpCfg upstream.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewIPAPIComProvider(client *http.Client, baseURL string) *IPAPIComProvider {
	if baseURL == "" {
		// The free tier only serves plain http.
		baseURL = "http://ip-api.com"
	}
	return &IPAPIComProvider{
		name:    "ip-api.com",
		baseURL: baseURL,
		httpCfg: upstream.DefaultConfig(client),
		circuit: upstream.NewBreaker("ip-api.com"),
	}
}

func (p *IPAPIComProvider) Name() string {
	return p.name
}

func (p *IPAPIComProvider) Lookup(ctx context.Context, ip string) (location.Snapshot, error) {
	endpoint := p.baseURL + "/json/" + url.PathEscape(ip)
	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return location.Snapshot{}, err
	}

	var payload struct {
		Status     string   `json:"status"`
		Message    string   `json:"message"`
		City       string   `json:"city"`
		RegionName string   `json:"regionName"`
		Country    string   `json:"country"`
		Lat        *float64 `json:"lat"`
		Lon        *float64 `json:"lon"`
	}
	if err := upstream.DecodeJSON(resp, &payload); err != nil {
		return location.Snapshot{}, err
	}
	if payload.Status != "success" {
		return location.Snapshot{}, fmt.Errorf("%w: ip-api.com status %q %s", upstream.ErrUpstream, payload.Status, payload.Message)
	}
	if payload.City == "" {
		return location.Snapshot{}, fmt.Errorf("ip-api.com: no city in response")
	}

	return location.Snapshot{
		City:      payload.City,
		Region:    payload.RegionName,
		Country:   payload.Country,
		Latitude:  payload.Lat,
		Longitude: payload.Lon,
		Source:    location.SourceIP,
	}, nil
}
