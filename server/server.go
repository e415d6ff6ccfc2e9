// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the classifier and the clinic directory to a browser
// UI over a small JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/binnurersoz/ortho-insight-web/classify"
	"github.com/binnurersoz/ortho-insight-web/clinics"
	"github.com/binnurersoz/ortho-insight-web/spatial"
	"github.com/binnurersoz/ortho-insight-web/utils/httputils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxImageBytes = 16 << 20

// Classifier is the part of classify.Client the facade needs.
type Classifier interface {
	ValidatePosture(ctx context.Context, img classify.Image) (*classify.Validation, error)
	PerformComprehensiveAnalysis(ctx context.Context, img classify.Image, age int) (classify.Diagnosis, error)
}

// ClinicFinder is the part of clinics.Client the facade needs.
type ClinicFinder interface {
	FindNearby(ctx context.Context, lat, lon, radiusKm float64) (*clinics.Result, error)
	ClinicList(ctx context.Context, cityID string) (*clinics.Result, error)
	Cities(ctx context.Context) ([]clinics.City, error)
}

type Server struct {
	classifier Classifier
	finder     ClinicFinder
	logger     *zap.Logger
	metrics    *Metrics
}

func NewServer(classifier Classifier, finder ClinicFinder, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		classifier: classifier,
		finder:     finder,
		logger:     logger,
		metrics:    NewMetrics(),
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog)
	r.MaxMultipartMemory = maxImageBytes

	api := r.Group("/api")
	api.POST("/validate", s.validate)
	api.POST("/analyze", s.analyze)
	api.POST("/near-clinic", s.nearClinic)
	api.GET("/cities", s.cities)
	api.GET("/clinics", s.clinicList)

	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	return r
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)

	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) accessLog(ctx *gin.Context) {
	start := time.Now()

	ctx.Next()

	s.logger.Debug("request",
		zap.String("method", ctx.Request.Method),
		zap.String("path", ctx.FullPath()),
		zap.Int("status", ctx.Writer.Status()),
		zap.Duration("latency", time.Since(start)),
	)
}

func (s *Server) fail(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case classify.IsValidationFailure(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		// Client timeouts arrive as a TransportError wrapping the deadline.
		status = http.StatusGatewayTimeout
	case httputils.IsTransportError(err):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", ctx.FullPath()), zap.Error(err))
	}

	ctx.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(ctx *gin.Context, format string, args ...any) {
	ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf(format, args...)})
}

func readImage(ctx *gin.Context) (classify.Image, error) {
	header, err := ctx.FormFile("image")
	if err != nil {
		return classify.Image{}, fmt.Errorf("image upload is required: %w", err)
	}

	if header.Size > maxImageBytes {
		return classify.Image{}, fmt.Errorf("image is larger than %d bytes", maxImageBytes)
	}

	f, err := header.Open()
	if err != nil {
		return classify.Image{}, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return classify.Image{}, fmt.Errorf("reading upload: %w", err)
	}

	if len(data) == 0 {
		return classify.Image{}, errors.New("image is empty")
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	return classify.Image{Filename: header.Filename, ContentType: contentType, Data: data}, nil
}

func (s *Server) validate(ctx *gin.Context) {
	img, err := readImage(ctx)
	if err != nil {
		badRequest(ctx, "%v", err)

		return
	}

	start := time.Now()
	validation, err := s.classifier.ValidatePosture(ctx.Request.Context(), img)
	s.metrics.observeUpstream("validate", start)

	if err != nil {
		s.fail(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, validation)
}

func analysisOutcome(diagnosis classify.Diagnosis, err error) string {
	switch {
	case err == nil:
		return strings.ToLower(strings.ReplaceAll(string(diagnosis), " ", "_"))
	case classify.IsValidationFailure(err):
		return "rejected"
	default:
		return "error"
	}
}

func (s *Server) analyze(ctx *gin.Context) {
	age, err := strconv.Atoi(strings.TrimSpace(ctx.PostForm("age")))
	if err != nil || age < 0 {
		badRequest(ctx, "age must be a non negative integer, got %q", ctx.PostForm("age"))

		return
	}

	img, err := readImage(ctx)
	if err != nil {
		badRequest(ctx, "%v", err)

		return
	}

	start := time.Now()
	diagnosis, err := s.classifier.PerformComprehensiveAnalysis(ctx.Request.Context(), img, age)
	s.metrics.observeUpstream("analyze", start)
	s.metrics.countAnalysis(analysisOutcome(diagnosis, err))

	if err != nil {
		s.fail(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"diagnosis": diagnosis})
}

type nearClinicRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	RadiusKm  float64  `json:"radius_km"`
}

func (s *Server) nearClinic(ctx *gin.Context) {
	var req nearClinicRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request: %v", err)

		return
	}

	p := spatial.Point{Lat: *req.Latitude, Lng: *req.Longitude}
	if !p.Valid() {
		badRequest(ctx, "invalid coordinates %s", p)

		return
	}

	start := time.Now()
	result, err := s.finder.FindNearby(ctx.Request.Context(), p.Lat, p.Lng, req.RadiusKm)
	s.metrics.observeUpstream("near_clinic", start)

	if err != nil {
		s.fail(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, result)
}

func (s *Server) cities(ctx *gin.Context) {
	start := time.Now()
	cities, err := s.finder.Cities(ctx.Request.Context())
	s.metrics.observeUpstream("cities", start)

	if err != nil {
		s.fail(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, cities)
}

func (s *Server) clinicList(ctx *gin.Context) {
	start := time.Now()
	result, err := s.finder.ClinicList(ctx.Request.Context(), ctx.Query("city_id"))
	s.metrics.observeUpstream("clinics", start)

	if err != nil {
		s.fail(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, result)
}
