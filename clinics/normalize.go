// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package clinics

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// maxEnvelopeDepth is how many {"result": ...} wrappers are peeled off.
const maxEnvelopeDepth = 2

// listAliases are the fields that may hold the clinic list, in priority order.
var listAliases = []string{"orthodontists", "clinics", "results", "data"}

// Normalizer turns whatever the directory returns into a Result. It never
// fails: malformed payloads degrade to an empty batch and malformed items to
// default records. Degradations are logged at warn level.
type Normalizer struct {
	Logger *zap.Logger
}

// Normalize uses a silent Normalizer.
func Normalize(raw any) Result {
	return Normalizer{}.Normalize(raw)
}

// NormalizeJSON uses a silent Normalizer.
func NormalizeJSON(body []byte) Result {
	return Normalizer{}.NormalizeJSON(body)
}

func (n Normalizer) logger() *zap.Logger {
	if n.Logger == nil {
		return zap.NewNop()
	}

	return n.Logger
}

// NormalizeJSON normalizes a raw response body.
func (n Normalizer) NormalizeJSON(body []byte) Result {
	return n.Normalize(string(body))
}

// Normalize accepts a decoded JSON value, or a string holding JSON.
func (n Normalizer) Normalize(raw any) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			n.logger().Warn("clinic normalization failed, returning empty list", zap.Any("panic", r))
			res = emptyResult()
		}
	}()

	switch t := raw.(type) {
	case string:
		var decoded any
		if err := json.Unmarshal([]byte(t), &decoded); err != nil {
			n.logger().Warn("clinic payload is not JSON, returning empty list", zap.Error(err))

			return emptyResult()
		}

		raw = decoded
	case []byte:
		return n.Normalize(string(t))
	case json.RawMessage:
		return n.Normalize(string(t))
	}

	items, err := locateList(unwrap(raw))
	if err != nil {
		n.logger().Warn("clinic payload has an unexpected shape, returning empty list", zap.Error(err))

		return emptyResult()
	}

	clinics := make([]Clinic, len(items))
	for i, item := range items {
		clinics[i] = normalizeItem(item, i)
	}

	return Result{Clinics: clinics, Total: len(clinics)}
}

// unwrap peels up to maxEnvelopeDepth result envelopes. A present key unwraps
// even when it holds null.
func unwrap(data any) any {
	for range maxEnvelopeDepth {
		m, ok := data.(map[string]any)
		if !ok {
			break
		}

		inner, ok := m["result"]
		if !ok {
			break
		}

		data = inner
	}

	return data
}

// locateList finds the clinic-like items: the value itself when it is a list,
// else the first set alias field.
func locateList(data any) ([]any, error) {
	switch t := data.(type) {
	case []any:
		return t, nil
	case map[string]any:
		for _, alias := range listAliases {
			v := t[alias]
			if !truthy(v) {
				continue
			}

			list, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("field %q holds %T, not a list", alias, v)
			}

			return list, nil
		}
	}

	return nil, nil
}

func normalizeItem(raw any, index int) Clinic {
	item, ok := raw.(map[string]any)
	if !ok {
		item = map[string]any{}
	}

	city := stringField(item, cityRules, "")

	address, ok := firstTruthy(item, addressRules)
	if !ok {
		var parts []string

		for _, r := range addressParts {
			if v, ok := r.probe(item); ok && truthy(v) {
				parts = append(parts, toText(v))
			}
		}

		if city != "" {
			parts = append(parts, city)
		}

		address = strings.Join(parts, ", ")
	}

	if address == "" {
		address = city
	}

	lat, _ := numberField(item, latitudeRules)
	lng, _ := numberField(item, longitudeRules)

	clinic := Clinic{
		ID:        stringField(item, idRules, strconv.Itoa(index)),
		Name:      stringField(item, nameRules, DefaultName),
		Specialty: stringField(item, specialtyRules, DefaultSpecialty),
		Address:   address,
		City:      city,
		Phone:     stringField(item, phoneRules, ""),
		Latitude:  lat,
		Longitude: lng,
	}

	if d, ok := numberField(item, distanceRules); ok {
		clinic.Distance = &d
	}

	return clinic
}
