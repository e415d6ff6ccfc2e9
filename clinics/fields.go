// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package clinics

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// The directory answers with loosely typed JSON. Each canonical field is read
// through an ordered table of rules; the first rule yielding a value wins.

// probe reads one candidate value from an item. ok is false when the value is
// absent or null.
type probe func(item map[string]any) (any, bool)

type rule struct {
	key   string
	probe probe
}

func field(key string) rule {
	return rule{
		key: key,
		probe: func(item map[string]any) (any, bool) {
			v, ok := item[key]

			return v, ok && v != nil
		},
	}
}

// geoJSONCoordinate reads location.coordinates[index]. GeoJSON positions are
// [longitude, latitude].
func geoJSONCoordinate(index int) rule {
	return rule{
		key: "location.coordinates[" + strconv.Itoa(index) + "]",
		probe: func(item map[string]any) (any, bool) {
			location, ok := item["location"].(map[string]any)
			if !ok {
				return nil, false
			}

			coordinates, ok := location["coordinates"].([]any)
			if !ok || index >= len(coordinates) {
				return nil, false
			}

			v := coordinates[index]

			return v, v != nil
		},
	}
}

var (
	idRules        = []rule{field("id"), field("clinicId"), field("_id")}
	nameRules      = []rule{field("name"), field("clinicName"), field("title")}
	specialtyRules = []rule{field("specialty"), field("branch")}
	cityRules      = []rule{field("city"), field("cityName"), field("town")}
	addressRules   = []rule{field("address"), field("addressLine")}
	addressParts   = []rule{field("street"), field("district")}
	phoneRules     = []rule{field("phone"), field("phoneNumber"), field("tel")}
	distanceRules  = []rule{field("distance"), field("km")}

	latitudeRules = []rule{
		geoJSONCoordinate(1),
		field("latitude"),
		field("lat"),
		field("y"),
		field("clinicLatitude"),
	}
	longitudeRules = []rule{
		geoJSONCoordinate(0),
		field("longitude"),
		field("lng"),
		field("lon"),
		field("x"),
		field("clinicLongitude"),
	}
)

// truthy mirrors what the directory's own clients treat as "set": empty
// strings, zero and false do not count.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case string:
		return t != ""
	default:
		return true
	}
}

// firstPresent returns the first non null candidate.
func firstPresent(item map[string]any, rules []rule) (any, bool) {
	for _, r := range rules {
		if v, ok := r.probe(item); ok {
			return v, true
		}
	}

	return nil, false
}

// firstTruthy returns the first candidate that is set, as text.
func firstTruthy(item map[string]any, rules []rule) (string, bool) {
	for _, r := range rules {
		if v, ok := r.probe(item); ok && truthy(v) {
			return toText(v), true
		}
	}

	return "", false
}

// stringField resolves a text field, falling back to def.
func stringField(item map[string]any, rules []rule, def string) string {
	if s, ok := firstTruthy(item, rules); ok {
		return s
	}

	return def
}

// numberField resolves a numeric field; the first non null candidate is
// coerced even when a later one would have parsed.
func numberField(item map[string]any, rules []rule) (float64, bool) {
	v, ok := firstPresent(item, rules)
	if !ok {
		return 0, false
	}

	return toNumber(v), true
}

func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = toText(e)
		}

		return strings.Join(parts, ",")
	default:
		return "[object Object]"
	}
}

var leadingFloatRe = regexp.MustCompile(`^\s*[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// toNumber accepts numbers and numeric strings ("41.2", " 28.9 ", "3.5km").
// Anything else, or anything non finite, is 0.
func toNumber(v any) float64 {
	f, ok := v.(float64)
	if !ok {
		m := leadingFloatRe.FindString(toText(v))
		if m == "" {
			return 0
		}

		var err error

		f, err = strconv.ParseFloat(strings.TrimSpace(m), 64)
		if err != nil {
			return 0
		}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	return f
}
