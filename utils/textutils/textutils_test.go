// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package textutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowerASCIIFolding(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello world"},
		{"  Spaces  ", "spaces"},
		{"Áéíóú", "aeiou"},
		{"İstanbul", "istanbul"},
		{"Eskişehir", "eskisehir"},
		{"Muğla", "mugla"},
		{"Diyarbakır", "diyarbakir"},
		{"", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, LowerASCIIFolding(tc.input))
		})
	}
}

func TestSameName(t *testing.T) {
	assert.True(t, SameName("İzmir", "izmir"))
	assert.True(t, SameName(" Çanakkale", "canakkale "))
	assert.False(t, SameName("Ankara", "Antalya"))
}

func TestIsDigits(t *testing.T) {
	assert.True(t, IsDigits("34"))
	assert.False(t, IsDigits(""))
	assert.False(t, IsDigits("3a"))
	assert.False(t, IsDigits("-1"))
}
