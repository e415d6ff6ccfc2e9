// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/binnurersoz/ortho-insight-web/utils/httputils"
)

// DefaultIPAccuracy is the accuracy, in meters, reported for IP based fixes.
const DefaultIPAccuracy = 5000

// IPProvider locates the host through an IP geolocation service answering
// {"status": "success", "lat": .., "lon": ..} (ip-api.com) or
// {"latitude": .., "longitude": ..} (ipapi.co style).
//
// HighAccuracy cannot be honored; MaximumAge is, against the last fix.
type IPProvider struct {
	URL            string
	Client         *http.Client
	AccuracyMeters float64

	now    func() time.Time
	mu     sync.Mutex
	last   *Coordinate
	lastAt time.Time
}

// NewIPProvider creates a provider for the service at url.
func NewIPProvider(url string, client *http.Client, accuracyMeters float64) *IPProvider {
	if client == nil {
		client = httputils.NewClient(httputils.Options{})
	}

	if accuracyMeters <= 0 {
		accuracyMeters = DefaultIPAccuracy
	}

	return &IPProvider{
		URL:            url,
		Client:         client,
		AccuracyMeters: accuracyMeters,
		now:            time.Now,
	}
}

type ipLookupResponse struct {
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (r *ipLookupResponse) coordinates() (float64, float64, bool) {
	switch {
	case r.Lat != nil && r.Lon != nil:
		return *r.Lat, *r.Lon, true
	case r.Latitude != nil && r.Longitude != nil:
		return *r.Latitude, *r.Longitude, true
	default:
		return 0, 0, false
	}
}

func (p *IPProvider) cached(maxAge time.Duration) *Coordinate {
	p.mu.Lock()
	defer p.mu.Unlock()

	if maxAge <= 0 || p.last == nil || p.now().Sub(p.lastAt) > maxAge {
		return nil
	}

	c := *p.last

	return &c
}

func (p *IPProvider) remember(c Coordinate) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.last = &c
	p.lastAt = p.now()
}

func positionErrorFor(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &PositionError{Code: Timeout, Message: err.Error()}
	}

	return &PositionError{Code: PositionUnavailable, Message: err.Error()}
}

// CurrentPosition implements Provider.
func (p *IPProvider) CurrentPosition(ctx context.Context, opts PositionOptions) (*Coordinate, error) {
	if c := p.cached(opts.MaximumAge); c != nil {
		return c, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating lookup request: %w", err)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, positionErrorFor(ctx, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		terr := httputils.ReadTransportError("ip lookup", resp)

		return nil, &PositionError{Code: PermissionDenied, Message: terr.Error()}
	case !httputils.IsSuccess(resp.StatusCode):
		terr := httputils.ReadTransportError("ip lookup", resp)

		return nil, &PositionError{Code: PositionUnavailable, Message: terr.Error()}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, positionErrorFor(ctx, err)
	}

	var lookup ipLookupResponse
	if err := json.Unmarshal(body, &lookup); err != nil {
		return nil, &PositionError{Code: PositionUnavailable, Message: fmt.Sprintf("decoding lookup: %v", err)}
	}

	if lookup.Status != "" && lookup.Status != "success" {
		return nil, &PositionError{Code: PositionUnavailable, Message: lookup.Message}
	}

	lat, lon, ok := lookup.coordinates()
	if !ok {
		return nil, &PositionError{Code: PositionUnavailable, Message: "lookup carried no coordinates"}
	}

	accuracy := p.AccuracyMeters
	c := Coordinate{Latitude: lat, Longitude: lon, Accuracy: &accuracy}

	if !c.Point().Valid() {
		return nil, &PositionError{Code: PositionUnavailable, Message: fmt.Sprintf("lookup returned %s", c.Point())}
	}

	p.remember(c)

	return &c, nil
}
