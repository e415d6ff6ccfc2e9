// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/binnurersoz/ortho-insight-web/clinics"
	"github.com/spf13/cobra"
)

var clinicsCmd = &cobra.Command{
	Use:   "clinics",
	Short: "Orthodontist clinic directory",
}

var nearbyOptions struct {
	lat, lon, radius float64
}

var clinicsNearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "Lists clinics around a position, the current one by default",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		latSet, lonSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon")
		if latSet != lonSet {
			return fmt.Errorf("--lat and --lon go together")
		}

		lat, lon := nearbyOptions.lat, nearbyOptions.lon
		if !latSet {
			pos, err := newLocator().CurrentLocation(cmd.Context())
			if err != nil {
				return err
			}

			lat, lon = pos.Latitude, pos.Longitude
		}

		directory, err := newClinicDirectory()
		if err != nil {
			return err
		}

		result, err := directory.FindNearby(cmd.Context(), lat, lon, nearbyOptions.radius)
		if err != nil {
			return err
		}

		return printClinics(cmd.OutOrStdout(), result)
	},
}

var clinicsCitiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "Lists the cities known to the directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		directory, err := newClinicDirectory()
		if err != nil {
			return err
		}

		cities, err := directory.Cities(cmd.Context())
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		for _, city := range cities {
			fmt.Fprintf(w, "%6s  %s\n", city.ID, city.Name)
		}

		return nil
	},
}

var clinicsListCity string

var clinicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists clinics, optionally of one city given by id or name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		directory, err := newClinicDirectory()
		if err != nil {
			return err
		}

		cityID, err := directory.ResolveCityID(cmd.Context(), clinicsListCity)
		if err != nil {
			return err
		}

		result, err := directory.ClinicList(cmd.Context(), cityID)
		if err != nil {
			return err
		}

		return printClinics(cmd.OutOrStdout(), result)
	},
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-1]) + "…"
}

func printClinics(w io.Writer, result *clinics.Result) error {
	a, b, c := strings.Repeat("─", 30), strings.Repeat("─", 40), strings.Repeat("─", 8)

	fmt.Fprintf(w, "%d clinics\n", result.Total)
	fmt.Fprintf(w, "╭─%s─┬─%s─┬─%s─╮\n", a, b, c)
	fmt.Fprintf(w, "│ %-30s │ %-40s │ %8s │\n", "Name", "Address", "Km")
	fmt.Fprintf(w, "├─%s─┼─%s─┼─%s─┤\n", a, b, c)

	for _, clinic := range result.Clinics {
		distance := ""
		if clinic.Distance != nil {
			distance = fmt.Sprintf("%.1f", *clinic.Distance)
		}

		fmt.Fprintf(w, "│ %-30s │ %-40s │ %8s │\n", truncate(clinic.Name, 30), truncate(clinic.Address, 40), distance)
	}

	_, err := fmt.Fprintf(w, "╰─%s─┴─%s─┴─%s─╯\n", a, b, c)

	return err
}

func init() {
	nearby := clinicsNearbyCmd.Flags()
	nearby.Float64Var(&nearbyOptions.lat, "lat", 0, "latitude, located automatically when omitted")
	nearby.Float64Var(&nearbyOptions.lon, "lon", 0, "longitude, located automatically when omitted")
	nearby.Float64Var(&nearbyOptions.radius, "radius", clinics.DefaultRadiusKm, "search radius in kilometers")

	clinicsListCmd.Flags().StringVar(&clinicsListCity, "city", "", "city id or name")

	clinicsCmd.AddCommand(clinicsNearbyCmd, clinicsCitiesCmd, clinicsListCmd)
	rootCmd.AddCommand(clinicsCmd)
}
