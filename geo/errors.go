// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"errors"
	"fmt"
)

// LocationError is the terminal failure of Locator.CurrentLocation.
type LocationError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// ErrorKind classifies location failures.
type ErrorKind int

const (
	// KindUnknown is any failure without a recognizable cause.
	KindUnknown ErrorKind = iota
	// KindPermissionDenied the user or the platform refused access.
	KindPermissionDenied
	// KindPositionUnavailable no fix could be computed.
	KindPositionUnavailable
	// KindTimeout no fix arrived in time.
	KindTimeout
	// KindCapabilityUnavailable there is no location provider at all.
	KindCapabilityUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission denied"
	case KindPositionUnavailable:
		return "position unavailable"
	case KindTimeout:
		return "timeout"
	case KindCapabilityUnavailable:
		return "capability unavailable"
	default:
		return "unknown"
	}
}

var messages = map[ErrorKind]string{
	KindUnknown:               "An unknown error occurred while retrieving location",
	KindPermissionDenied:      "Location access denied by user. Please enable location permissions in your settings.",
	KindPositionUnavailable:   "Location information is unavailable. Please check your internet connection and GPS settings.",
	KindTimeout:               "Location request timed out. Please try again or check your GPS signal.",
	KindCapabilityUnavailable: "Geolocation is not supported on this platform",
}

func newLocationError(kind ErrorKind, err error) *LocationError {
	return &LocationError{Kind: kind, Message: messages[kind], Err: err}
}

func (e *LocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *LocationError) Unwrap() error {
	return e.Err
}

// classify maps a provider failure to its ErrorKind.
func classify(err error) ErrorKind {
	var perr *PositionError
	if errors.As(err, &perr) {
		switch perr.Code {
		case PermissionDenied:
			return KindPermissionDenied
		case PositionUnavailable:
			return KindPositionUnavailable
		case Timeout:
			return KindTimeout
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	return KindUnknown
}

func kindOf(err error) (ErrorKind, bool) {
	var lerr *LocationError
	if errors.As(err, &lerr) {
		return lerr.Kind, true
	}

	return KindUnknown, false
}

// IsPermissionDenied reports whether err is a denied location request.
func IsPermissionDenied(err error) bool {
	k, ok := kindOf(err)

	return ok && k == KindPermissionDenied
}

// IsPositionUnavailable reports whether no fix could be computed.
func IsPositionUnavailable(err error) bool {
	k, ok := kindOf(err)

	return ok && k == KindPositionUnavailable
}

// IsTimeout reports whether the location request ran out of time.
func IsTimeout(err error) bool {
	k, ok := kindOf(err)

	return ok && k == KindTimeout
}

// IsCapabilityUnavailable reports whether there was no provider to ask.
func IsCapabilityUnavailable(err error) bool {
	k, ok := kindOf(err)

	return ok && k == KindCapabilityUnavailable
}
