// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/binnurersoz/ortho-insight-web/classify"
	"github.com/binnurersoz/ortho-insight-web/clinics"
	"github.com/binnurersoz/ortho-insight-web/config"
	"github.com/binnurersoz/ortho-insight-web/geo"
	"github.com/binnurersoz/ortho-insight-web/utils/httputils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var rootCmd = &cobra.Command{
	Use:   "ortho",
	Short: "orthodontic profile analysis and clinic finder",
	Long: `
ortho classifies a side profile photo into a malocclusion class (I, II or III)
using the remote inference service, and looks up orthodontist clinics near the
current location or in a given city.
`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var Version = "dev"

var (
	settings   = config.New(Version)
	configFile string

	cfg    *config.Config
	logger = zap.NewNop()
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "YAML configuration file")
	flags.Bool("verbose", false, "debug logging")
	flags.String("inference-url", "", "base url of the inference service")
	flags.String("clinics-api", "", "base url of the clinic directory api")
	flags.Duration("timeout", 0, "timeout of every remote call")
	flags.Bool("trace", false, "dump HTTP exchanges to stderr")
	flags.Bool("trace-body", false, "include bodies in HTTP dumps")

	for key, flag := range map[string]string{
		config.KeyLogVerbose:       "verbose",
		config.KeyInferenceBaseURL: "inference-url",
		config.KeyClinicsAPIBase:   "clinics-api",
		config.KeyHTTPTimeout:      "timeout",
		config.KeyHTTPTrace:        "trace",
		config.KeyHTTPTraceBody:    "trace-body",
	} {
		cobra.CheckErr(settings.BindPFlag(key, flags.Lookup(flag)))
	}
}

// bindFlag binds a subcommand flag to a configuration key.
func bindFlag(cmd *cobra.Command, key, flag string) {
	cobra.CheckErr(settings.BindPFlag(key, cmd.Flags().Lookup(flag)))
}

func newLogger(verbose bool) (*zap.Logger, error) {
	var zc zap.Config
	if verbose {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.Encoding = "console"
		zc.Sampling = nil
	}

	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}

func setup(_ *cobra.Command, _ []string) error {
	if err := config.ReadFile(settings, configFile); err != nil {
		return err
	}

	loaded, err := config.Load(settings)
	if err != nil {
		return err
	}

	l, err := newLogger(loaded.Log.Verbose)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	cfg, logger = loaded, l
	zap.RedirectStdLog(logger)

	return nil
}

func httpClient() *http.Client {
	options := httputils.Options{
		UserAgent: cfg.HTTP.UserAgent,
		Timeout:   cfg.HTTP.Timeout,
		TraceBody: cfg.HTTP.TraceBody,
	}

	if cfg.HTTP.Trace {
		options.TraceWriter = os.Stderr
	}

	return httputils.NewClient(options)
}

func newClassifier(opts ...classify.Option) (*classify.Client, error) {
	opts = append([]classify.Option{
		classify.WithHTTPClient(httpClient()),
		classify.WithLogger(logger.Named("classify")),
	}, opts...)

	return classify.NewClient(cfg.Inference.BaseURL, opts...)
}

func newClinicDirectory() (*clinics.Client, error) {
	return clinics.NewClient(cfg.Clinics.APIBase,
		clinics.WithHTTPClient(httpClient()),
		clinics.WithLogger(logger.Named("clinics")),
	)
}

func newLocator() *geo.Locator {
	provider := geo.NewIPProvider(cfg.Geo.ProviderURL, httpClient(), cfg.Geo.IPAccuracyM)

	return geo.NewLocator(provider, geo.WithLogger(logger.Named("geo")))
}

func Execute(version string) {
	Version = version
	settings.SetDefault(config.KeyHTTPUserAgent, "ortho/"+version)

	err := rootCmd.Execute()

	_ = logger.Sync()

	if err != nil {
		os.Exit(1)
	}
}
