// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

// Package geo acquires the caller's position with a bounded, layered set of
// attempts: a precise fix first, a longer refinement when that fix is coarse,
// and a relaxed fallback accepting cached fixes when the first one fails.
package geo

import (
	"context"
	"reflect"
	"time"

	"go.uber.org/zap"
)

// Attempt is one request to the provider.
type Attempt struct {
	Name    string
	Options PositionOptions
}

// Plan is the sequence of attempts CurrentLocation may make.
type Plan struct {
	// Initial is always tried first.
	Initial Attempt
	// Refine is tried when Initial's accuracy is worse than MaxAccuracy.
	Refine Attempt
	// Fallback is tried when Initial fails.
	Fallback Attempt
	// MaxAccuracy is the coarsest accuracy, in meters, accepted without
	// refinement.
	MaxAccuracy float64
}

// DefaultPlan is 10s precise, then 20s precise refinement, or 15s relaxed
// accepting fixes up to 5 minutes old.
func DefaultPlan() Plan {
	return Plan{
		Initial: Attempt{
			Name:    "initial",
			Options: PositionOptions{HighAccuracy: true, Timeout: 10 * time.Second},
		},
		Refine: Attempt{
			Name:    "refine",
			Options: PositionOptions{HighAccuracy: true, Timeout: 20 * time.Second},
		},
		Fallback: Attempt{
			Name:    "fallback",
			Options: PositionOptions{HighAccuracy: false, Timeout: 15 * time.Second, MaximumAge: 5 * time.Minute},
		},
		MaxAccuracy: 100,
	}
}

// Locator runs a Plan against a Provider.
type Locator struct {
	provider Provider
	plan     Plan
	logger   *zap.Logger
}

// LocatorOption configures a Locator.
type LocatorOption func(*Locator)

// WithPlan replaces DefaultPlan.
func WithPlan(plan Plan) LocatorOption {
	return func(l *Locator) {
		l.plan = plan
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) LocatorOption {
	return func(l *Locator) {
		l.logger = logger
	}
}

// NewLocator creates a Locator. A nil provider, typed or not, means the
// platform has no location capability.
func NewLocator(provider Provider, opts ...LocatorOption) *Locator {
	l := &Locator{
		provider: provider,
		plan:     DefaultPlan(),
		logger:   zap.NewNop(),
	}

	if isNil(provider) {
		l.provider = nil
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// isNil also catches a nil pointer stored in the interface.
func isNil(provider Provider) bool {
	if provider == nil {
		return true
	}

	v := reflect.ValueOf(provider)

	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

func (l *Locator) try(ctx context.Context, a Attempt) (*Coordinate, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, a.Options.Timeout)
	defer cancel()

	pos, err := l.provider.CurrentPosition(attemptCtx, a.Options)
	if err == nil && pos == nil {
		err = &PositionError{Code: PositionUnavailable, Message: "provider returned no fix"}
	}

	if err != nil {
		l.logger.Debug("location attempt failed", zap.String("attempt", a.Name), zap.Error(err))

		return nil, err
	}

	l.logger.Debug("location attempt succeeded", zap.String("attempt", a.Name), zap.Float64p("accuracy_m", pos.Accuracy))

	return pos, nil
}

func (l *Locator) precise(pos *Coordinate) bool {
	return pos.Accuracy == nil || *pos.Accuracy <= l.plan.MaxAccuracy
}

// CurrentLocation returns the best fix the plan can get. Attempts run one
// after the other, never concurrently; only the final failure is reported.
func (l *Locator) CurrentLocation(ctx context.Context) (*Coordinate, error) {
	if l.provider == nil {
		return nil, newLocationError(KindCapabilityUnavailable, nil)
	}

	first, err := l.try(ctx, l.plan.Initial)
	if err == nil {
		if l.precise(first) {
			return first, nil
		}

		l.logger.Info("location fix is coarse, refining", zap.Float64p("accuracy_m", first.Accuracy))

		better, err := l.try(ctx, l.plan.Refine)
		if err != nil {
			l.logger.Warn("refinement failed, keeping coarse fix", zap.Error(err))

			return first, nil
		}

		return better, nil
	}

	if ctx.Err() != nil {
		return nil, newLocationError(classify(ctx.Err()), ctx.Err())
	}

	l.logger.Warn("precise location failed, trying relaxed settings", zap.Error(err))

	fallback, err := l.try(ctx, l.plan.Fallback)
	if err != nil {
		lerr := newLocationError(classify(err), err)
		l.logger.Error("location unavailable", zap.Stringer("kind", lerr.Kind), zap.Error(err))

		return nil, lerr
	}

	return fallback, nil
}
