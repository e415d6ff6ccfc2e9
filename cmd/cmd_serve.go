// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/binnurersoz/ortho-insight-web/config"
	"github.com/binnurersoz/ortho-insight-web/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the analysis and clinic API for the web UI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !cfg.Log.Verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		classifier, err := newClassifier()
		if err != nil {
			return err
		}

		directory, err := newClinicDirectory()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.NewServer(classifier, directory, logger.Named("server")).Run(ctx, cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address")
	bindFlag(serveCmd, config.KeyServerAddr, "addr")

	rootCmd.AddCommand(serveCmd)
}
