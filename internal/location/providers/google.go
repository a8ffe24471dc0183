package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/date-planner/internal/location"
	"github.com/i474232898/date-planner/internal/upstream"
)

// geocoder keeps its key in a package variable.
var googleKeyMu sync.Mutex

// GoogleProvider reverse geocodes through the Google Geocoding API.
type GoogleProvider struct {
	name    string
	apiKey  string
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

func NewGoogleProvider(apiKey string) *GoogleProvider {
	return &GoogleProvider{
		name:    "google",
		apiKey:  apiKey,
		reverse: geocoder.GeocodingReverse,
	}
}

func (p *GoogleProvider) Name() string {
	return p.name
}

func (p *GoogleProvider) Reverse(ctx context.Context, pos location.Position) (location.Snapshot, error) {
	if p.apiKey == "" {
		return location.Snapshot{}, fmt.Errorf("google geocoding: %w", upstream.ErrConfigMissing)
	}

	type result struct {
		addrs []geocoder.Address
		err   error
	}
	done := make(chan result, 1)

	go func() {
		googleKeyMu.Lock()
		defer googleKeyMu.Unlock()
		geocoder.ApiKey = p.apiKey
		addrs, err := p.reverse(geocoder.Location{Latitude: pos.Latitude, Longitude: pos.Longitude})
		done <- result{addrs: addrs, err: err}
	}()

	select {
	case <-ctx.Done():
		return location.Snapshot{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return location.Snapshot{}, fmt.Errorf("google geocoding: %w", r.err)
		}
		for _, a := range r.addrs {
			if a.City != "" {
				return location.Snapshot{City: a.City, Region: a.State, Country: a.Country}, nil
			}
		}
		return location.Snapshot{}, fmt.Errorf("google geocoding: no locality for %f,%f", pos.Latitude, pos.Longitude)
	}
}
