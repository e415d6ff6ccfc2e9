// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package classify

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// Diagnosis is a malocclusion label produced by the pipeline.
type Diagnosis string

// Labels. NotClassIII is only ever an intermediate answer of AnalyzeClassIII.
const (
	ClassI      Diagnosis = "Class I"
	ClassII     Diagnosis = "Class II"
	ClassIII    Diagnosis = "Class III"
	NotClassIII Diagnosis = "Not Class III"
)

// Final reports whether d is one of the three labels the pipeline may return.
func (d Diagnosis) Final() bool {
	return d == ClassI || d == ClassII || d == ClassIII
}

// Outcome of a posture check.
type Outcome string

const (
	Valid   Outcome = "valid"
	Invalid Outcome = "invalid"
)

// Validation is the answer of the posture check.
type Validation struct {
	Result  Outcome `json:"result"`
	Message string  `json:"message,omitempty"`
}

// Stage identifies a pipeline step, reported to the progress hook.
type Stage int

const (
	StageValidate Stage = iota
	StageClassIII
	StageClassII
)

func (s Stage) String() string {
	switch s {
	case StageValidate:
		return "validating posture"
	case StageClassIII:
		return "checking class III"
	case StageClassII:
		return "checking class II"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Image is a profile photo kept in memory, so every step can send it again.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// LoadImage reads a photo from disk and sniffs its content type.
func LoadImage(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("reading image: %w", err)
	}

	if len(data) == 0 {
		return Image{}, fmt.Errorf("image %s is empty", path)
	}

	return Image{
		Filename:    filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}
