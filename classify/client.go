// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

// Package classify drives the remote malocclusion classifier: a posture check
// followed by a class III detector and, when that is negative, a class II/I
// detector. Adult and pediatric models are separate endpoints.
package classify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/binnurersoz/ortho-insight-web/utils/httputils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdultAgeThreshold is the first age served by the adult models.
const AdultAgeThreshold = 14

const validatePath = "/validate"

// Endpoints is the matched pair of detector paths for one age group.
type Endpoints struct {
	ClassIII string
	ClassII  string
}

var (
	pediatricEndpoints = Endpoints{ClassIII: "/kedi_api", ClassII: "/kedi_api_2"}
	adultEndpoints     = Endpoints{ClassIII: "/kedi_api_adult", ClassII: "/kedi_api_2_adult"}
)

// EndpointsFor returns the detector pair trained for age. Both detectors of a
// pipeline run must come from the same pair.
func EndpointsFor(age int) Endpoints {
	if age >= AdultAgeThreshold {
		return adultEndpoints
	}

	return pediatricEndpoints
}

// Client talks to the inference service.
type Client struct {
	baseURL  *url.URL
	client   *http.Client
	logger   *zap.Logger
	progress func(Stage)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithProgress registers a hook called before each pipeline step.
func WithProgress(fn func(Stage)) Option {
	return func(c *Client) {
		c.progress = fn
	}
}

// NewClient creates a client for the inference service rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing inference base url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("inference base url %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL: u,
		client:  httputils.NewClient(httputils.Options{}),
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = query.Encode()

	return u.String()
}

func (c *Client) report(stage Stage) {
	if c.progress != nil {
		c.progress(stage)
	}
}

func multipartBody(img Image) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	filename := img.Filename
	if filename == "" {
		filename = "image"
	}

	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}

	if _, err := part.Write(img.Data); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

// post uploads img and returns the body of a successful answer.
func (c *Client) post(ctx context.Context, op, path string, query url.Values, img Image) ([]byte, error) {
	body, contentType, err := multipartBody(img)
	if err != nil {
		return nil, fmt.Errorf("%s: building upload: %w", op, err)
	}

	target := c.endpoint(path, query)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", op, err)
	}

	req.Header.Set("Content-Type", contentType)

	c.logger.Debug("calling inference endpoint", zap.String("op", op), zap.String("endpoint", target))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, httputils.NewNetworkError(op, err)
	}
	defer resp.Body.Close()

	if !httputils.IsSuccess(resp.StatusCode) {
		terr := httputils.ReadTransportError(op, resp)
		c.logger.Warn("inference endpoint failed",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("body", terr.Body),
		)

		return nil, terr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, httputils.NewNetworkError(op, fmt.Errorf("reading response: %w", err))
	}

	return data, nil
}

func (c *Client) parse(op string, body []byte) ResultCode {
	code := ParseResultCode(body)
	if !code.Valid {
		// An unreadable answer is mapped like a negative one.
		c.logger.Warn("unreadable result code",
			zap.String("op", op),
			zap.ByteString("body", body),
		)
	} else {
		c.logger.Debug("result code", zap.String("op", op), zap.Stringer("code", code))
	}

	return code
}

// ValidatePosture checks that img is a right side profile. An unknown code is
// an invalid outcome, not an error; only transport failures are errors.
func (c *Client) ValidatePosture(ctx context.Context, img Image) (*Validation, error) {
	const op = "posture validation"

	body, err := c.post(ctx, op, validatePath, nil, img)
	if err != nil {
		return nil, err
	}

	code := c.parse(op, body)

	switch {
	case code.Is(0):
		return &Validation{Result: Valid, Message: "Correct side face posture detected"}, nil
	case code.Is(1):
		return &Validation{Result: Invalid, Message: "Wrong posture detected"}, nil
	case code.Is(2):
		return &Validation{Result: Invalid, Message: "Left side face detected - please use right side face"}, nil
	default:
		return &Validation{
			Result:  Invalid,
			Message: fmt.Sprintf("Unknown validation result: %s. Please try again.", code),
		}, nil
	}
}

func detectorQuery() url.Values {
	return url.Values{"left_side_face": {"false"}}
}

// AnalyzeClassIII asks the age appropriate detector whether img shows a class
// III malocclusion. It returns ClassIII or NotClassIII.
func (c *Client) AnalyzeClassIII(ctx context.Context, img Image, age int) (Diagnosis, error) {
	const op = "class III analysis"

	body, err := c.post(ctx, op, EndpointsFor(age).ClassIII, detectorQuery(), img)
	if err != nil {
		return "", err
	}

	if c.parse(op, body).Is(1) {
		return ClassIII, nil
	}

	return NotClassIII, nil
}

// AnalyzeClassII tells class II from class I with the age appropriate
// detector.
func (c *Client) AnalyzeClassII(ctx context.Context, img Image, age int) (Diagnosis, error) {
	const op = "class II analysis"

	body, err := c.post(ctx, op, EndpointsFor(age).ClassII, detectorQuery(), img)
	if err != nil {
		return "", err
	}

	if c.parse(op, body).Is(1) {
		return ClassII, nil
	}

	return ClassI, nil
}

// PerformComprehensiveAnalysis runs the whole pipeline. Steps are sequential,
// each depends on the answer of the previous one. A rejected posture is
// returned as a *ValidationFailure before any detector is called, and the
// class II detector is skipped once class III is found.
func (c *Client) PerformComprehensiveAnalysis(ctx context.Context, img Image, age int) (Diagnosis, error) {
	if age < 0 {
		return "", fmt.Errorf("invalid age %d", age)
	}

	logger := c.logger.With(zap.String("analysis_id", uuid.NewString()), zap.Int("age", age))
	logger.Info("starting analysis")

	c.report(StageValidate)

	validation, err := c.ValidatePosture(ctx, img)
	if err != nil {
		logger.Error("analysis aborted", zap.Error(err))

		return "", err
	}

	if validation.Result != Valid {
		msg := validation.Message
		if msg == "" {
			msg = "Invalid photo posture"
		}

		logger.Info("posture rejected", zap.String("message", msg))

		return "", &ValidationFailure{Message: msg}
	}

	c.report(StageClassIII)

	diagnosis, err := c.AnalyzeClassIII(ctx, img, age)
	if err != nil {
		logger.Error("analysis aborted", zap.Error(err))

		return "", err
	}

	if diagnosis == ClassIII {
		logger.Info("analysis finished", zap.String("diagnosis", string(diagnosis)))

		return ClassIII, nil
	}

	c.report(StageClassII)

	diagnosis, err = c.AnalyzeClassII(ctx, img, age)
	if err != nil {
		logger.Error("analysis aborted", zap.Error(err))

		return "", err
	}

	logger.Info("analysis finished", zap.String("diagnosis", string(diagnosis)))

	return diagnosis, nil
}
