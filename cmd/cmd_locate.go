// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/binnurersoz/ortho-insight-web/config"
	"github.com/binnurersoz/ortho-insight-web/geo"
	"github.com/spf13/cobra"
)

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Prints the current location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		pos, err := newLocator().CurrentLocation(cmd.Context())
		if err != nil {
			return err
		}

		return printCoordinate(cmd.OutOrStdout(), pos)
	},
}

func printCoordinate(w io.Writer, pos *geo.Coordinate) error {
	accuracy := "unknown"
	if pos.Accuracy != nil {
		accuracy = fmt.Sprintf("%.0fm", *pos.Accuracy)
	}

	_, err := fmt.Fprintf(w, "%.6f, %.6f (accuracy %s)\n", pos.Latitude, pos.Longitude, accuracy)

	return err
}

func init() {
	locateCmd.Flags().String("provider-url", "", "IP geolocation service")
	bindFlag(locateCmd, config.KeyGeoProviderURL, "provider-url")

	rootCmd.AddCommand(locateCmd)
}
