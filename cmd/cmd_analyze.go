// Copyright 2025 The OrthoInsight Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/binnurersoz/ortho-insight-web/classify"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var analyzeAge int

var analyzeCmd = &cobra.Command{
	Use:   "analyze <photo>",
	Short: "Classifies the malocclusion shown in a right side profile photo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := classify.LoadImage(args[0])
		if err != nil {
			return err
		}

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(3,
				progressbar.OptionSetDescription("Analyzing "+img.Filename),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		client, err := newClassifier(classify.WithProgress(func(stage classify.Stage) {
			if bar != nil {
				bar.Describe(stage.String())
				_ = bar.Set(int(stage))
			}
		}))
		if err != nil {
			return err
		}

		diagnosis, err := client.PerformComprehensiveAnalysis(cmd.Context(), img, analyzeAge)

		if bar != nil {
			_ = bar.Finish()
		}

		if err != nil {
			if classify.IsValidationFailure(err) {
				return fmt.Errorf("photo rejected: %w", err)
			}

			return err
		}

		return printDiagnosis(cmd.OutOrStdout(), args[0], analyzeAge, diagnosis)
	},
}

func printDiagnosis(w io.Writer, photo string, age int, diagnosis classify.Diagnosis) error {
	group := "pediatric"
	if age >= classify.AdultAgeThreshold {
		group = "adult"
	}

	_, err := fmt.Fprintf(w, "%s (age %d, %s model): %s\n", photo, age, group, diagnosis)

	return err
}

var validateCmd = &cobra.Command{
	Use:   "validate <photo>",
	Short: "Checks that a photo is a usable right side profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := classify.LoadImage(args[0])
		if err != nil {
			return err
		}

		client, err := newClassifier()
		if err != nil {
			return err
		}

		validation, err := client.ValidatePosture(cmd.Context(), img)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s - %s\n", args[0], validation.Result, validation.Message)

		if validation.Result != classify.Valid {
			return &classify.ValidationFailure{Message: validation.Message}
		}

		return nil
	},
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeAge, "age", -1, "age of the patient in years")
	cobra.CheckErr(analyzeCmd.MarkFlagRequired("age"))

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(validateCmd)
}
