// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package clinics

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/binnurersoz/ortho-insight-web/utils/textutils"
)

var (
	cityIDRules   = []rule{field("id"), field("cityId"), field("code")}
	cityNameRules = []rule{field("name"), field("cityName"), field("title")}
	cityListAlias = []string{"data", "cities"}
)

// parseCities reads {"result": [...]}, a bare list, or an object holding the
// list under data or cities. The first set alias must hold a list. Items keep
// their position as id when they have none.
func parseCities(body []byte) ([]City, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if m, ok := raw.(map[string]any); ok {
		if inner, ok := m["result"]; ok && inner != nil {
			raw = inner
		}
	}

	var items []any

	switch t := raw.(type) {
	case []any:
		items = t
	case map[string]any:
		for _, alias := range cityListAlias {
			v := t[alias]
			if !truthy(v) {
				continue
			}

			list, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("field %q holds %T, not a list", alias, v)
			}

			items = list

			break
		}
	}

	cities := make([]City, 0, len(items))

	for i, it := range items {
		item, ok := it.(map[string]any)
		if !ok {
			item = map[string]any{}
		}

		city := City{ID: strconv.Itoa(i)}
		if v, ok := firstPresent(item, cityIDRules); ok {
			city.ID = toText(v)
		}

		if v, ok := firstPresent(item, cityNameRules); ok {
			city.Name = toText(v)
		}

		cities = append(cities, city)
	}

	return cities, nil
}

// FindCity looks a city up by id, or by name ignoring case and diacritics.
func FindCity(cities []City, query string) (City, bool) {
	for _, c := range cities {
		if c.ID == query {
			return c, true
		}
	}

	for _, c := range cities {
		if textutils.SameName(c.Name, query) {
			return c, true
		}
	}

	return City{}, false
}

// ResolveCityID turns a city id or name into the id the directory expects.
// Numeric input is passed through without a lookup.
func (c *Client) ResolveCityID(ctx context.Context, query string) (string, error) {
	if query == "" || textutils.IsDigits(query) {
		return query, nil
	}

	cities, err := c.Cities(ctx)
	if err != nil {
		return "", err
	}

	city, ok := FindCity(cities, query)
	if !ok {
		return "", fmt.Errorf("unknown city %q", query)
	}

	return city.ID, nil
}
