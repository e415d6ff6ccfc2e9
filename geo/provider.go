// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"fmt"
	"time"

	"github.com/binnurersoz/ortho-insight-web/spatial"
)

// Coordinate is a position fix. Accuracy is the radius in meters, when known.
type Coordinate struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// Point returns the fix as a spatial.Point.
func (c Coordinate) Point() spatial.Point {
	return spatial.Point{Lat: c.Latitude, Lng: c.Longitude}
}

// PositionOptions mirror what platform location APIs accept.
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration // 0 forbids cached fixes
}

// Provider is the platform location capability.
type Provider interface {
	CurrentPosition(ctx context.Context, opts PositionOptions) (*Coordinate, error)
}

// PositionErrorCode follows the platform error codes.
type PositionErrorCode int

const (
	PermissionDenied    PositionErrorCode = 1
	PositionUnavailable PositionErrorCode = 2
	Timeout             PositionErrorCode = 3
)

func (c PositionErrorCode) String() string {
	switch c {
	case PermissionDenied:
		return "permission denied"
	case PositionUnavailable:
		return "position unavailable"
	case Timeout:
		return "timeout"
	default:
		return fmt.Sprintf("code %d", int(c))
	}
}

// PositionError is what a Provider returns when it cannot produce a fix.
type PositionError struct {
	Code    PositionErrorCode
	Message string
}

func (e *PositionError) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
