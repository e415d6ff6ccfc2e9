// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package httputils

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4 << 10

// TransportError is returned when a remote call fails, either because the
// exchange itself failed (Err is set, StatusCode is 0) or because the
// endpoint answered with a non-2xx status.
type TransportError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}

	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}

	if e.Body == "" {
		return fmt.Sprintf("%s failed: %s", e.Op, status)
	}

	return fmt.Sprintf("%s failed: %s - %s", e.Op, status, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err carries a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError

	return errors.As(err, &te)
}

// NewNetworkError wraps a failure to complete the exchange.
func NewNetworkError(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

// ReadTransportError builds the TransportError for a non-2xx response. The
// body is read (capped) but not closed.
func ReadTransportError(op string, resp *http.Response) *TransportError {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		body = []byte(fmt.Sprintf("<unreadable body: %v>", err))
	}

	return &TransportError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}
