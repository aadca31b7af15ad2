package main

import (
	"os"

	"github.com/spf13/cobra"

	"gvif/internal/errors"
	"gvif/internal/testkit"
)

func newSampleCmd() *cobra.Command {
	config := testkit.DefaultHousingConfig()
	var out string

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a synthetic predictor table with known collinearity",
		Long: `Write a deterministic housing table as CSV: sqft and rooms are collinear,
median_income is driven by region, age is independent.

Example: gvif sample --rows 1000 --seed 7 --out houses.csv && gvif compute houses.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := testkit.NewHousingDataGenerator(config).Generate()
			if err != nil {
				return errors.WithCode(errors.CodeConfigInvalid, err)
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return errors.WithCode(errors.CodeIOError, err)
				}
				defer f.Close()
				w = f
			}
			if err := testkit.WriteCSV(w, table); err != nil {
				return errors.WithCode(errors.CodeIOError, err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&config.Rows, "rows", config.Rows, "Number of rows")
	cmd.Flags().Int64Var(&config.Seed, "seed", config.Seed, "RNG seed (deterministic)")
	cmd.Flags().Float64Var(&config.RegionNoise, "region-noise", config.RegionNoise, "Spread of median_income within a region")
	cmd.Flags().Float64Var(&config.MissingRate, "missing-rate", config.MissingRate, "Share of blank region labels")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output CSV path (default stdout)")
	return cmd
}
