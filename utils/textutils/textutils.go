// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils holds the string folding used to match user supplied
// city names against the clinic directory.
package textutils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// dotless i survives NFD, it has no combining mark to strip.
var foldDotless = runes.Map(func(r rune) rune {
	if r == 'ı' {
		return 'i'
	}

	return r
})

// LowerASCIIFolding normalizes a string by removing accents, lowercasing, and
// trimming spaces. "İzmir", "IZMIR" and "izmir" fold to the same value.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			foldDotless,
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// SameName reports whether a and b are equal after folding.
func SameName(a, b string) bool {
	return LowerASCIIFolding(a) == LowerASCIIFolding(b)
}

// IsDigits reports whether s is a non-empty run of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
