// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package classify

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ResultCode is the numeric answer of an inference endpoint. Valid is false
// when the body carried no number at all. Text is the code in decimal as the
// server sent it, also for codes too large for Value.
type ResultCode struct {
	Value int
	Valid bool
	Text  string
}

func (c ResultCode) String() string {
	if !c.Valid {
		return "NaN"
	}

	return c.Text
}

// Is reports whether c is a readable code equal to v.
func (c ResultCode) Is(v int) bool {
	return c.Valid && c.Text == strconv.Itoa(v)
}

var (
	leadingIntRe = regexp.MustCompile(`^\s*([+-]?\d+)`)
	integerRe    = regexp.MustCompile(`^[+-]?\d+$`)
)

// codeFromDigits builds the code for an optionally signed run of digits.
func codeFromDigits(digits string) ResultCode {
	digits = strings.TrimPrefix(digits, "+")

	v, err := strconv.Atoi(digits)
	if err != nil {
		return ResultCode{Valid: true, Text: digits}
	}

	return ResultCode{Value: v, Valid: true, Text: strconv.Itoa(v)}
}

// leadingInt reads the integer prefix of s, ignoring leading blanks and
// anything after the digits.
func leadingInt(s string) ResultCode {
	m := leadingIntRe.FindStringSubmatch(s)
	if m == nil {
		return ResultCode{}
	}

	return codeFromDigits(m[1])
}

// numberCode truncates a JSON number towards zero.
func numberCode(n json.Number) ResultCode {
	s := n.String()
	if integerRe.MatchString(s) {
		return codeFromDigits(s)
	}

	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return ResultCode{Valid: true, Text: s}
	}

	return codeFromDigits(strconv.FormatFloat(math.Trunc(f), 'f', -1, 64))
}

// decodeEnvelope decodes body keeping numbers exact. Trailing data makes the
// body unreadable as JSON.
func decodeEnvelope(body []byte) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var envelope map[string]any
	if err := dec.Decode(&envelope); err != nil {
		return nil, false
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}

	return envelope, true
}

// ParseJSONEnvelope reads a {"Result": ...} object. ok is false when body is
// not such an object, in which case the caller should try ParseBareInteger.
// A present but unreadable Result yields an invalid code with ok true.
func ParseJSONEnvelope(body []byte) (ResultCode, bool) {
	envelope, ok := decodeEnvelope(body)
	if !ok {
		return ResultCode{}, false
	}

	raw, ok := envelope["Result"]
	if !ok {
		return ResultCode{}, false
	}

	switch v := raw.(type) {
	case json.Number:
		return numberCode(v), true
	case string:
		return leadingInt(v), true
	default:
		return ResultCode{}, true
	}
}
// ParseBareInteger reads a plain, optionally quoted, integer such as 1, "1"
// or '1'. ok is false when no integer could be read.
func ParseBareInteger(body []byte) (ResultCode, bool) {
	clean := strings.NewReplacer(`"`, "", `'`, "").Replace(string(body))
	code := leadingInt(clean)

	return code, code.Valid
}

// ParseResultCode accepts both encodings the inference service uses, JSON
// envelope first.
func ParseResultCode(body []byte) ResultCode {
	if code, ok := ParseJSONEnvelope(body); ok {
		return code
	}

	code, _ := ParseBareInteger(body)

	return code
}
