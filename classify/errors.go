// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package classify

import "errors"

// ValidationFailure stops the pipeline when the photo is not a usable right
// side profile. Its message is meant to be shown to the user as is.
type ValidationFailure struct {
	Message string
}

func (e *ValidationFailure) Error() string {
	return e.Message
}

// IsValidationFailure reports whether err carries a ValidationFailure.
func IsValidationFailure(err error) bool {
	var vf *ValidationFailure

	return errors.As(err, &vf)
}
