package location

import (
	"context"
	"errors"
	"net/netip"
	"time"

	"github.com/i474232898/date-planner/pkg/logger"
)

const (
	// DefaultDeviceTimeout bounds the wait for a device position.
	DefaultDeviceTimeout = 10 * time.Second
	// DefaultMaxAge is how old a cached device position may be.
	DefaultMaxAge = 5 * time.Minute
)

// ErrUnavailable is returned by a DeviceLocator that has no usable position.
var ErrUnavailable = errors.New("position unavailable")

// DeviceLocator yields the device's own position.
type DeviceLocator interface {
	Locate(ctx context.Context) (Position, error)
}

// ReverseGeocoder names a coordinate pair. It must return an error unless it
// found a locality name.
type ReverseGeocoder interface {
	Name() string
	Reverse(ctx context.Context, p Position) (Snapshot, error)
}

// IPLocator resolves a position from a public IP. An empty ip looks up the
// address the request leaves from.
type IPLocator interface {
	Name() string
	Lookup(ctx context.Context, ip string) (Snapshot, error)
}

// Resolver walks the device, reverse geocoding and IP strategies in order.
type Resolver struct {
	device        DeviceLocator
	geocoders     []ReverseGeocoder
	ipLocators    []IPLocator
	deviceTimeout time.Duration
	// selfLookup allows an IP lookup of our own address when the client's
	// is unknown. Only valid when we run on the user's machine.
	selfLookup bool
}

// NewResolver creates a resolver without a device locator.
func NewResolver(geocoders []ReverseGeocoder, ipLocators []IPLocator) *Resolver {
	return &Resolver{
		geocoders:     geocoders,
		ipLocators:    ipLocators,
		deviceTimeout: DefaultDeviceTimeout,
	}
}

// WithDevice returns a copy of the resolver that asks d first.
func (r *Resolver) WithDevice(d DeviceLocator) *Resolver {
	cp := *r
	cp.device = d
	return &cp
}

// WithDeviceTimeout returns a copy of the resolver with a different wait
// for the device position.
func (r *Resolver) WithDeviceTimeout(d time.Duration) *Resolver {
	cp := *r
	if d > 0 {
		cp.deviceTimeout = d
	}
	return &cp
}

// WithSelfLookup returns a copy of the resolver that falls back to looking
// up its own public address when no client address is given.
func (r *Resolver) WithSelfLookup() *Resolver {
	cp := *r
	cp.selfLookup = true
	return &cp
}

// ResolveFor resolves with d as the device locator and clientIP as the
// address for the IP strategies. Either may be empty.
func (r *Resolver) ResolveFor(ctx context.Context, d DeviceLocator, clientIP string) Snapshot {
	return r.WithDevice(d).resolve(ctx, clientIP)
}

// Resolve never fails: the worst case is an Unknown snapshot.
func (r *Resolver) Resolve(ctx context.Context) Snapshot {
	return r.resolve(ctx, "")
}

func (r *Resolver) resolve(ctx context.Context, clientIP string) Snapshot {
	if snap, ok := r.fromDevice(ctx); ok {
		return snap
	}
	if snap, ok := r.fromIP(ctx, clientIP); ok {
		return snap
	}

	logger.Infof("location: all strategies failed, continuing without location")
	return Unknown()
}

func (r *Resolver) fromIP(ctx context.Context, clientIP string) (Snapshot, bool) {
	switch {
	case clientIP == "" && !r.selfLookup:
		logger.Infof("location: no client address, skipping ip lookup")
		return Snapshot{}, false
	case clientIP != "" && !publicAddr(clientIP):
		logger.Infof("location: client address %s is not public, skipping ip lookup", clientIP)
		return Snapshot{}, false
	}

	for _, ip := range r.ipLocators {
		snap, err := ip.Lookup(ctx, clientIP)
		if err != nil {
			logger.Warnf("location: ip locator %s failed: %v", ip.Name(), err)
			continue
		}
		if snap.City == "" {
			logger.Warnf("location: ip locator %s returned no city", ip.Name())
			continue
		}
		snap.Source = SourceIP
		return snap, true
	}
	return Snapshot{}, false
}

func publicAddr(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return addr.IsGlobalUnicast() && !addr.IsPrivate()
}

func (r *Resolver) fromDevice(ctx context.Context) (Snapshot, bool) {
	if r.device == nil {
		return Snapshot{}, false
	}

	dctx, cancel := context.WithTimeout(ctx, r.deviceTimeout)
	pos, err := r.device.Locate(dctx)
	cancel()
	if err != nil {
		logger.Infof("location: device position unavailable: %v", err)
		return Snapshot{}, false
	}

	for _, g := range r.geocoders {
		snap, err := g.Reverse(ctx, pos)
		if err != nil {
			logger.Warnf("location: reverse geocoder %s failed: %v", g.Name(), err)
			continue
		}
		if snap.City == "" {
			logger.Warnf("location: reverse geocoder %s returned no locality", g.Name())
			continue
		}
		named := FromPosition(pos)
		named.City, named.Region, named.Country = snap.City, snap.Region, snap.Country
		return named, true
	}

	return FromPosition(pos), true
}
