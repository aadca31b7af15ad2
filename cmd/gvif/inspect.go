package main

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/spf13/cobra"

	"gvif/domain/dataset"
	"gvif/internal"
	"gvif/internal/analysis/collinearity"
	"gvif/internal/config"
)

func newInspectCmd(cfg *config.Config) *cobra.Command {
	var data dataFlags

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Show inferred column types and their encoded columns",
		Long: `Read a table and print, per column, the inferred type, a short summary
(levels for categorical columns, mean and standard deviation for numeric ones)
and the encoded columns it expands into.

Example: gvif inspect houses.csv --drop price`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := internal.NewLoggerTo(cmd.ErrOrStderr(), internal.ParseLogLevel(cfg.LogLevel))
			source, err := data.source(args[0], logger)
			if err != nil {
				return err
			}
			t, err := source.LoadTable(cmd.Context())
			if err != nil {
				return err
			}
			return runInspect(cmd, t)
		},
	}

	data.register(cmd, cfg)
	return cmd
}

func runInspect(cmd *cobra.Command, t *dataset.Table) error {
	encoded, err := collinearity.Encode(t)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"column", "type", "summary", "encoded as"})

	for i, col := range t.Columns {
		meta := encoded.ColumnMeta[i]
		names := make([]string, len(meta.DerivedColumns))
		for j, d := range meta.DerivedColumns {
			names[j] = d.Name
		}

		summary, err := summarize(col, meta)
		if err != nil {
			return err
		}
		tw.AppendRow(table.Row{col.Name, col.Type, summary, strings.Join(names, ", ")})
	}
	tw.Render()

	writeLine(w, "\n%d rows, %d columns, %d encoded columns", t.RowCount(), t.ColumnCount(), encoded.ColumnCount())
	return nil
}

func summarize(col dataset.Column, meta dataset.ColumnMeta) (string, error) {
	if col.IsCategorical() {
		levels := col.EncodingLevels()
		missing := 0
		for _, label := range col.Labels {
			if label == "" {
				missing++
			}
		}
		s := strconv.Itoa(len(levels)) + " levels" + ", baseline " + meta.Baseline
		if missing > 0 {
			s += ", " + strconv.Itoa(missing) + " missing"
		}
		return s, nil
	}

	data := stats.Float64Data(col.Values)
	mean, err := stats.Mean(data)
	if err != nil {
		return "", err
	}
	sd, err := stats.StandardDeviationSample(data)
	if err != nil {
		return "", err
	}
	lo, err := stats.Min(data)
	if err != nil {
		return "", err
	}
	hi, err := stats.Max(data)
	if err != nil {
		return "", err
	}
	return "mean " + formatFloat(mean) + ", sd " + formatFloat(sd) + ", range [" + formatFloat(lo) + ", " + formatFloat(hi) + "]", nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}
