// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// step is one scripted provider answer. A blocking step waits for the
// attempt deadline.
type step struct {
	pos   *Coordinate
	err   error
	block bool
}

type scriptedProvider struct {
	mu    sync.Mutex
	steps []step
	calls []PositionOptions
}

func (p *scriptedProvider) CurrentPosition(ctx context.Context, opts PositionOptions) (*Coordinate, error) {
	p.mu.Lock()
	i := len(p.calls)
	p.calls = append(p.calls, opts)
	p.mu.Unlock()

	if i >= len(p.steps) {
		return nil, errors.New("unexpected call")
	}

	s := p.steps[i]
	if s.block {
		<-ctx.Done()

		return nil, ctx.Err()
	}

	return s.pos, s.err
}

func fix(lat, lng, accuracy float64) *Coordinate {
	return &Coordinate{Latitude: lat, Longitude: lng, Accuracy: &accuracy}
}

func fastPlan() Plan {
	plan := DefaultPlan()
	plan.Initial.Options.Timeout = 20 * time.Millisecond
	plan.Refine.Options.Timeout = 20 * time.Millisecond
	plan.Fallback.Options.Timeout = 20 * time.Millisecond

	return plan
}

func TestDefaultPlan(t *testing.T) {
	plan := DefaultPlan()

	assert.Equal(t, PositionOptions{HighAccuracy: true, Timeout: 10 * time.Second}, plan.Initial.Options)
	assert.Equal(t, PositionOptions{HighAccuracy: true, Timeout: 20 * time.Second}, plan.Refine.Options)
	assert.Equal(t, PositionOptions{HighAccuracy: false, Timeout: 15 * time.Second, MaximumAge: 5 * time.Minute}, plan.Fallback.Options)
	assert.Equal(t, 100.0, plan.MaxAccuracy)
}

func TestCurrentLocationPreciseFirstFix(t *testing.T) {
	p := &scriptedProvider{steps: []step{{pos: fix(41, 29, 50)}}}

	got, err := NewLocator(p).CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fix(41, 29, 50), got)
	assert.Len(t, p.calls, 1, "no refinement nor fallback")
	assert.Equal(t, DefaultPlan().Initial.Options, p.calls[0])
}

func TestCurrentLocationBoundaryAccuracy(t *testing.T) {
	p := &scriptedProvider{steps: []step{{pos: fix(41, 29, 100)}}}

	got, err := NewLocator(p).CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100.0, *got.Accuracy)
	assert.Len(t, p.calls, 1)
}

func TestCurrentLocationUnknownAccuracyIsAccepted(t *testing.T) {
	p := &scriptedProvider{steps: []step{{pos: &Coordinate{Latitude: 1, Longitude: 2}}}}

	got, err := NewLocator(p).CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got.Accuracy)
	assert.Len(t, p.calls, 1)
}

func TestCurrentLocationRefinesCoarseFix(t *testing.T) {
	p := &scriptedProvider{steps: []step{
		{pos: fix(41, 29, 500)},
		{pos: fix(41.001, 29.001, 20)},
	}}

	got, err := NewLocator(p).CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fix(41.001, 29.001, 20), got)
	require.Len(t, p.calls, 2)
	assert.Equal(t, DefaultPlan().Refine.Options, p.calls[1])
}

func TestCurrentLocationKeepsCoarseFixWhenRefinementFails(t *testing.T) {
	p := &scriptedProvider{steps: []step{
		{pos: fix(41, 29, 500)},
		{err: &PositionError{Code: PositionUnavailable}},
	}}

	got, err := NewLocator(p).CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fix(41, 29, 500), got)
	assert.Len(t, p.calls, 2)
}

func TestCurrentLocationKeepsCoarseFixWhenRefinementTimesOut(t *testing.T) {
	p := &scriptedProvider{steps: []step{
		{pos: fix(41, 29, 500)},
		{block: true},
	}}

	got, err := NewLocator(p, WithPlan(fastPlan())).CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fix(41, 29, 500), got)
}

func TestCurrentLocationFallback(t *testing.T) {
	p := &scriptedProvider{steps: []step{
		{err: &PositionError{Code: Timeout}},
		{pos: fix(40, 30, 3000)},
	}}

	got, err := NewLocator(p).CurrentLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fix(40, 30, 3000), got, "fallback fixes are not refined")
	require.Len(t, p.calls, 2)
	assert.Equal(t, DefaultPlan().Fallback.Options, p.calls[1])
}

func TestCurrentLocationTerminalFailures(t *testing.T) {
	tests := []struct {
		name  string
		final step
		kind  ErrorKind
		check func(error) bool
	}{
		{"permission denied", step{err: &PositionError{Code: PermissionDenied}}, KindPermissionDenied, IsPermissionDenied},
		{"unavailable", step{err: &PositionError{Code: PositionUnavailable}}, KindPositionUnavailable, IsPositionUnavailable},
		{"timeout code", step{err: &PositionError{Code: Timeout}}, KindTimeout, IsTimeout},
		{"deadline", step{block: true}, KindTimeout, IsTimeout},
		{"unknown", step{err: errors.New("gps driver crashed")}, KindUnknown, func(err error) bool {
			k, ok := kindOf(err)

			return ok && k == KindUnknown
		}},
		{"nil fix", step{}, KindPositionUnavailable, IsPositionUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &scriptedProvider{steps: []step{
				{err: &PositionError{Code: PositionUnavailable}},
				tt.final,
			}}

			got, err := NewLocator(p, WithPlan(fastPlan())).CurrentLocation(context.Background())
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, tt.check(err))
			assert.Len(t, p.calls, 2, "no attempt after the fallback")

			var lerr *LocationError
			require.ErrorAs(t, err, &lerr)
			assert.Equal(t, tt.kind, lerr.Kind)
			assert.Contains(t, err.Error(), messages[tt.kind])
		})
	}
}

func TestCurrentLocationPermissionDeniedMessage(t *testing.T) {
	p := &scriptedProvider{steps: []step{
		{err: &PositionError{Code: PermissionDenied}},
		{err: &PositionError{Code: PermissionDenied}},
	}}

	_, err := NewLocator(p).CurrentLocation(context.Background())
	require.Error(t, err)
	assert.True(t, IsPermissionDenied(err))
	assert.False(t, IsTimeout(err))
	assert.Contains(t, err.Error(), "Location access denied")
}

func TestCurrentLocationWithoutProvider(t *testing.T) {
	_, err := NewLocator(nil).CurrentLocation(context.Background())
	require.Error(t, err)
	assert.True(t, IsCapabilityUnavailable(err))
	assert.Equal(t, "Geolocation is not supported on this platform", err.Error())
}

func TestCurrentLocationWithTypedNilProvider(t *testing.T) {
	var ip *IPProvider

	_, err := NewLocator(ip).CurrentLocation(context.Background())
	require.Error(t, err)
	assert.True(t, IsCapabilityUnavailable(err))

	var scripted *scriptedProvider

	_, err = NewLocator(scripted).CurrentLocation(context.Background())
	assert.True(t, IsCapabilityUnavailable(err))
}

func TestCurrentLocationCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &scriptedProvider{steps: []step{{block: true}, {pos: fix(1, 1, 1)}}}

	_, err := NewLocator(p, WithPlan(fastPlan())).CurrentLocation(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, p.calls, 1, "fallback skipped once the caller gave up")
}

func TestErrorHelpersOnForeignErrors(t *testing.T) {
	err := errors.New("boom")
	assert.False(t, IsPermissionDenied(err))
	assert.False(t, IsPositionUnavailable(err))
	assert.False(t, IsTimeout(err))
	assert.False(t, IsCapabilityUnavailable(err))
}

func TestPositionErrorString(t *testing.T) {
	assert.Equal(t, "permission denied", (&PositionError{Code: PermissionDenied}).Error())
	assert.Equal(t, "timeout: no satellites", (&PositionError{Code: Timeout, Message: "no satellites"}).Error())
	assert.Equal(t, "code 9", PositionErrorCode(9).String())
	assert.Equal(t, "capability unavailable", KindCapabilityUnavailable.String())
}
