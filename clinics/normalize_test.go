// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package clinics

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func km(v float64) *float64 { return &v }

func TestNormalizeShapes(t *testing.T) {
	item := `{"id": "c1", "name": "Gülüş Ortodonti", "lat": 41.0, "lng": 29.0}`
	want := Result{
		Clinics: []Clinic{{
			ID:        "c1",
			Name:      "Gülüş Ortodonti",
			Specialty: DefaultSpecialty,
			Latitude:  41,
			Longitude: 29,
		}},
		Total: 1,
	}

	tests := []struct {
		name string
		body string
	}{
		{"bare list", `[` + item + `]`},
		{"orthodontists", `{"orthodontists": [` + item + `]}`},
		{"clinics", `{"clinics": [` + item + `]}`},
		{"results", `{"results": [` + item + `]}`},
		{"data", `{"data": [` + item + `]}`},
		{"result envelope", `{"result": [` + item + `]}`},
		{"double envelope", `{"result": {"result": [` + item + `]}}`},
		{"envelope with alias", `{"result": {"result": {"clinics": [` + item + `]}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeJSON([]byte(tt.body))
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("NormalizeJSON() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeEmptyAliasIsTruthy(t *testing.T) {
	// An empty list is still "set", so later aliases are not consulted.
	got := NormalizeJSON([]byte(`{"orthodontists": [], "clinics": [{"id": 1}]}`))
	assert.Equal(t, 0, got.Total)
	assert.NotNil(t, got.Clinics)
}

func TestNormalizeTripleEnvelopeIsNotUnwrapped(t *testing.T) {
	// Client.FindNearby and Client.ClinicList peel the third level themselves.
	got := NormalizeJSON([]byte(`{"result": {"result": {"result": [{"id": 1}]}}}`))
	assert.Equal(t, 0, got.Total)
}

func TestNormalizeGeoJSONCoordinatesAreUnswapped(t *testing.T) {
	got := Normalize(map[string]any{
		"clinics": []any{
			map[string]any{
				"id":       "g1",
				"location": map[string]any{"type": "Point", "coordinates": []any{10.0, 20.0}},
				"lat":      99.0,
				"lng":      99.0,
			},
		},
	})

	require.Len(t, got.Clinics, 1)
	assert.Equal(t, 20.0, got.Clinics[0].Latitude)
	assert.Equal(t, 10.0, got.Clinics[0].Longitude)
}

func TestNormalizeFieldAliases(t *testing.T) {
	body := `[
		{
			"clinicId": 17,
			"clinicName": "Beyaz Diş",
			"branch": "Pedodonti",
			"street": "Atatürk Cd. 5",
			"district": "Kadıköy",
			"cityName": "İstanbul",
			"phoneNumber": "+90 216 000 00 00",
			"latitude": "40.99",
			"longitude": " 29.03 ",
			"km": "2.5"
		},
		{
			"_id": "mongo-1",
			"title": "Smile Center",
			"addressLine": "Line 1",
			"town": "Ankara",
			"tel": 3121234567,
			"y": 39.9,
			"x": 32.8,
			"distance": 0
		},
		{
			"clinicLatitude": 38.4,
			"clinicLongitude": 27.1,
			"city": "İzmir",
			"address": ""
		}
	]`

	want := []Clinic{
		{
			ID:        "17",
			Name:      "Beyaz Diş",
			Specialty: "Pedodonti",
			Address:   "Atatürk Cd. 5, Kadıköy, İstanbul",
			City:      "İstanbul",
			Phone:     "+90 216 000 00 00",
			Latitude:  40.99,
			Longitude: 29.03,
			Distance:  km(2.5),
		},
		{
			ID:        "mongo-1",
			Name:      "Smile Center",
			Specialty: DefaultSpecialty,
			Address:   "Line 1",
			City:      "Ankara",
			Phone:     "3121234567",
			Latitude:  39.9,
			Longitude: 32.8,
			Distance:  km(0),
		},
		{
			ID:        "2",
			Name:      DefaultName,
			Specialty: DefaultSpecialty,
			Address:   "İzmir",
			City:      "İzmir",
			Latitude:  38.4,
			Longitude: 27.1,
		},
	}

	got := NormalizeJSON([]byte(body))
	if diff := cmp.Diff(want, got.Clinics); diff != "" {
		t.Errorf("NormalizeJSON() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 3, got.Total)
}

func TestNormalizeMalformedItemsDegrade(t *testing.T) {
	body := `[
		null,
		42,
		"clinic",
		{"id": 0, "lat": "north", "lng": {"deg": 1}, "location": {"coordinates": "bad"}},
		{"lat": null, "latitude": 12.5, "lon": "1e400"}
	]`

	got := NormalizeJSON([]byte(body))
	require.Equal(t, 5, got.Total)

	for i, c := range got.Clinics {
		assert.Equal(t, fmt.Sprint(i), c.ID, "positional id for item %d", i)
		assert.Equal(t, DefaultName, c.Name)
		assert.False(t, math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0))
		assert.False(t, math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0))
		assert.Nil(t, c.Distance)
	}

	assert.Zero(t, got.Clinics[3].Latitude)
	assert.Zero(t, got.Clinics[3].Longitude)
	assert.Equal(t, 12.5, got.Clinics[4].Latitude)
}

func TestNormalizeFirstPresentValueWins(t *testing.T) {
	// latitude is present but unreadable; lat is never consulted.
	got := Normalize([]any{map[string]any{"latitude": "n/a", "lat": 41.0}})
	require.Len(t, got.Clinics, 1)
	assert.Zero(t, got.Clinics[0].Latitude)
}

func TestNormalizeWellFormedBatch(t *testing.T) {
	const n = 25

	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"id": "clinic-%d", "lat": %d.5, "lng": "%d.25"}`, i, i, i)
	}

	got := NormalizeJSON([]byte(`{"result": {"orthodontists": [` + strings.Join(items, ",") + `]}}`))
	require.Equal(t, n, got.Total)
	require.Len(t, got.Clinics, n)

	seen := map[string]bool{}
	for i, c := range got.Clinics {
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true

		assert.Equal(t, fmt.Sprintf("clinic-%d", i), c.ID, "source order kept")
		assert.Equal(t, float64(i)+0.5, c.Latitude)
		assert.Equal(t, float64(i)+0.25, c.Longitude)
	}
}

func TestNormalizeInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"not json", "<html>502 Bad Gateway</html>"},
		{"truncated json", `{"clinics": [`},
		{"empty string", ""},
		{"json number", "42"},
		{"json string", `"clinics"`},
		{"null", nil},
		{"bool", true},
		{"object without list", map[string]any{"message": "ok"}},
		{"null envelope", `{"result": null}`},
		{"alias not a list", `{"clinics": {"id": 1}}`},
		{"bytes", []byte("nope")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			assert.Equal(t, Result{Clinics: []Clinic{}, Total: 0}, got)
		})
	}
}

func TestNormalizeLogsDegradation(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	n := Normalizer{Logger: zap.New(core)}

	n.NormalizeJSON([]byte("not json"))
	n.NormalizeJSON([]byte(`{"data": "oops"}`))
	n.NormalizeJSON([]byte(`[{"id": 1}]`))

	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, 1, logs.FilterMessage("clinic payload is not JSON, returning empty list").Len())
	assert.Equal(t, 1, logs.FilterMessage("clinic payload has an unexpected shape, returning empty list").Len())
}

func TestRulePrecedence(t *testing.T) {
	keys := func(rules []rule) []string {
		out := make([]string, len(rules))
		for i, r := range rules {
			out[i] = r.key
		}

		return out
	}

	assert.Equal(t,
		[]string{"location.coordinates[1]", "latitude", "lat", "y", "clinicLatitude"},
		keys(latitudeRules))
	assert.Equal(t,
		[]string{"location.coordinates[0]", "longitude", "lng", "lon", "x", "clinicLongitude"},
		keys(longitudeRules))
	assert.Equal(t, []string{"id", "clinicId", "_id"}, keys(idRules))
	assert.Equal(t, []string{"distance", "km"}, keys(distanceRules))
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{12.5, 12.5},
		{"41.01", 41.01},
		{"  -3.5 ", -3.5},
		{"2.5km", 2.5},
		{".5", 0.5},
		{"1e3", 1000},
		{"abc", 0},
		{"", 0},
		{nil, 0},
		{true, 0},
		{"Infinity", 0},
		{"1e400", 0},
		{map[string]any{}, 0},
		{[]any{7.0}, 7},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, toNumber(tt.in))
		})
	}
}

func TestToText(t *testing.T) {
	assert.Equal(t, "17", toText(17.0))
	assert.Equal(t, "1.5", toText(1.5))
	assert.Equal(t, "true", toText(true))
	assert.Equal(t, "a,1", toText([]any{"a", 1.0}))
	assert.Equal(t, "[object Object]", toText(map[string]any{}))
	assert.Equal(t, "", toText(nil))
}
