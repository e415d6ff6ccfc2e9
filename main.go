// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/binnurersoz/ortho-insight-web/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
