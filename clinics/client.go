// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

// Package clinics queries the orthodontist directory and normalizes its
// loosely shaped answers into canonical clinic records.
package clinics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/binnurersoz/ortho-insight-web/spatial"
	"github.com/binnurersoz/ortho-insight-web/utils/httputils"
	"go.uber.org/zap"
)

// DefaultRadiusKm is used by FindNearby when no radius is given.
const DefaultRadiusKm = 50

// Client talks to the clinic directory API.
type Client struct {
	apiBase    *url.URL
	client     *http.Client
	logger     *zap.Logger
	normalizer Normalizer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithLogger sets the logger used by the client and its normalizer.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a directory client. apiBase is the prefix the endpoint
// names are appended to, e.g. "https://example.com/api/".
func NewClient(apiBase string, opts ...Option) (*Client, error) {
	if !strings.HasSuffix(apiBase, "/") {
		apiBase += "/"
	}

	u, err := url.Parse(apiBase)
	if err != nil {
		return nil, fmt.Errorf("parsing clinic api base: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("clinic api base %q must be http or https", apiBase)
	}

	c := &Client{
		apiBase: u,
		client:  httputils.NewClient(httputils.Options{}),
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.normalizer = Normalizer{Logger: c.logger}

	return c, nil
}

type nearbyRequest struct {
	Location spatial.Point `json:"location"`

	// The directory reads the radius in meters under "radius".
	Radius float64 `json:"radius"`
}

type clinicListRequest struct {
	CityID string `json:"cityId,omitempty"`
}

// postJSON sends payload to the named endpoint and returns the body of a 2xx
// answer.
func (c *Client) postJSON(ctx context.Context, op, endpoint string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encoding request: %w", op, err)
	}

	target := c.apiBase.ResolveReference(&url.URL{Path: endpoint}).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", op, err)
	}

	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("calling clinic directory", zap.String("op", op), zap.String("endpoint", target))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, httputils.NewNetworkError(op, err)
	}
	defer resp.Body.Close()

	if !httputils.IsSuccess(resp.StatusCode) {
		terr := httputils.ReadTransportError(op, resp)
		c.logger.Warn("clinic directory failed",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("body", terr.Body),
		)

		return nil, terr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, httputils.NewNetworkError(op, fmt.Errorf("reading response: %w", err))
	}

	return body, nil
}

// normalizeBody peels the directory's own result envelope, when it holds a
// value, before normalizing. The normalizer then peels up to two more.
func (c *Client) normalizeBody(body []byte) Result {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return c.normalizer.NormalizeJSON(body)
	}

	if m, ok := decoded.(map[string]any); ok && m["result"] != nil {
		decoded = m["result"]
	}

	return c.normalizer.Normalize(decoded)
}

// FindNearby lists clinics within radiusKm of (lat, lon). The directory wants
// the radius in meters.
func (c *Client) FindNearby(ctx context.Context, lat, lon, radiusKm float64) (*Result, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}

	body, err := c.postJSON(ctx, "near-clinic search", "near-clinic", nearbyRequest{
		Location: spatial.Point{Lng: lon, Lat: lat},
		Radius:   radiusKm * 1000,
	})
	if err != nil {
		return nil, err
	}

	res := c.normalizeBody(body)
	c.logger.Info("nearby clinics", zap.Int("total", res.Total), zap.Float64("radius_km", radiusKm))

	return &res, nil
}

// ClinicList lists the clinics of a city, or every clinic when cityID is
// empty.
func (c *Client) ClinicList(ctx context.Context, cityID string) (*Result, error) {
	body, err := c.postJSON(ctx, "clinic list", "clinic", clinicListRequest{CityID: cityID})
	if err != nil {
		return nil, err
	}

	res := c.normalizeBody(body)
	c.logger.Info("clinic list", zap.Int("total", res.Total), zap.String("city_id", cityID))

	return &res, nil
}

// Cities returns the directory's city list.
func (c *Client) Cities(ctx context.Context) ([]City, error) {
	body, err := c.postJSON(ctx, "city list", "city", struct{}{})
	if err != nil {
		return nil, err
	}

	cities, err := parseCities(body)
	if err != nil {
		return nil, fmt.Errorf("city list: %w", err)
	}

	return cities, nil
}
