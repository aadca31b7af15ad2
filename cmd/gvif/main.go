package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gvif/adapters/excel"
	"gvif/app"
	"gvif/domain/core"
	"gvif/internal"
	"gvif/internal/analysis/collinearity"
	"gvif/internal/config"
	"gvif/internal/errors"
	"gvif/internal/report"
	"gvif/ports"
)

// errFlagged is returned by compute --fail-on-flag when a factor meets the threshold
var errFlagged = stderrors.New("collinear factors flagged")

func main() {
	// A missing .env is fine; the environment alone is enough.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}

	rootCmd := newRootCmd(cfg)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(errors.ExitCode(err))
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gvif",
		Short:         "Generalized variance inflation factors for predictor tables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newComputeCmd(cfg),
		newInspectCmd(cfg),
		newSampleCmd(),
	)
	return rootCmd
}

// dataFlags are shared by every command that reads a table
type dataFlags struct {
	sheet        string
	drop         []string
	categorical  []string
	levels       []string
	integerCodes bool
}

func (f *dataFlags) register(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVar(&f.sheet, "sheet", cfg.Data.Sheet, "Worksheet name (default: first sheet)")
	cmd.Flags().StringSliceVar(&f.drop, "drop", cfg.Data.Drop, "Columns to exclude, e.g. the response")
	cmd.Flags().StringSliceVar(&f.categorical, "categorical", cfg.Data.Categorical, "Columns to treat as categorical")
	cmd.Flags().StringArrayVar(&f.levels, "levels", nil, "Level order for a categorical column, e.g. region=north,south,west")
	cmd.Flags().BoolVar(&f.integerCodes, "integer-codes", cfg.Data.IntegerCodesAsCategorical, "Treat low-cardinality integer columns as categorical")
}

func (f *dataFlags) source(path string, logger *internal.Logger) (ports.TableSourcePort, error) {
	levels, err := parseLevels(f.levels)
	if err != nil {
		return nil, err
	}

	readerCfg := excel.DefaultExcelConfig()
	readerCfg.FilePath = path
	readerCfg.SheetName = f.sheet
	readerCfg.CoercionConfig.IntegerCodesAsCategorical = f.integerCodes

	return excel.NewDataReader(readerCfg, logger).Source(excel.TableOptions{
		Drop:        f.drop,
		Categorical: f.categorical,
		Levels:      levels,
	}), nil
}

// parseLevels turns "col=a,b,c" flags into a level map
func parseLevels(specs []string) (map[string][]string, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	levels := make(map[string][]string, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.TrimSpace(list) == "" {
			return nil, errors.ConfigInvalid(fmt.Sprintf("invalid --levels %q (want column=level1,level2,...)", spec))
		}
		for _, level := range strings.Split(list, ",") {
			levels[name] = append(levels[name], strings.TrimSpace(level))
		}
	}
	return levels, nil
}

func newComputeCmd(cfg *config.Config) *cobra.Command {
	var data dataFlags
	var failOnFlag bool
	var runIDFlag string

	cmd := &cobra.Command{
		Use:   "compute [file]",
		Short: "Compute GVIF for every column of a CSV or XLSX table",
		Long: `Compute the generalized variance inflation factor of every predictor column.

Categorical columns are one-hot encoded with the first level dropped. Factors
whose GVIF^(1/2Df)^2 reaches the threshold are listed as flagged.

Defaults are read from GVIF_* environment variables (and .env).

Example: gvif compute houses.csv --drop price --categorical zip --threshold 10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.Data.InputFile = args[0]
			}
			if cfg.Data.InputFile == "" {
				return errors.ConfigInvalid("no input file (pass one or set GVIF_INPUT)")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			var runID core.RunID
			if cmd.Flags().Changed("run-id") {
				id, err := core.ParseRunID(runIDFlag)
				if err != nil {
					return errors.WithCode(errors.CodeConfigInvalid, err)
				}
				runID = id
			}
			return runCompute(cmd, cfg, &data, failOnFlag, runID)
		},
	}

	data.register(cmd, cfg)
	cmd.Flags().Float64Var(&cfg.Analysis.Threshold, "threshold", cfg.Analysis.Threshold, "Flag factors with GVIF^(1/2Df)^2 at or above this value")
	cmd.Flags().Float64Var(&cfg.Analysis.SingularTolerance, "tolerance", cfg.Analysis.SingularTolerance, "Smallest reciprocal condition number of a correlation block")
	cmd.Flags().IntVar(&cfg.Analysis.Workers, "workers", cfg.Analysis.Workers, "Factors computed in parallel")
	cmd.Flags().StringVar(&cfg.Output.Format, "format", cfg.Output.Format, "Output format: "+strings.Join(config.Formats, "|"))
	cmd.Flags().StringVar(&cfg.Output.WorkbookPath, "xlsx", cfg.Output.WorkbookPath, "Also write the result to this workbook")
	cmd.Flags().BoolVar(&failOnFlag, "fail-on-flag", false, "Exit with status 1 when any factor is flagged")
	cmd.Flags().StringVar(&runIDFlag, "run-id", "", "Label the report with this run ID (default: generated)")

	return cmd
}

func runCompute(cmd *cobra.Command, cfg *config.Config, data *dataFlags, failOnFlag bool, runID core.RunID) error {
	logger := internal.NewLoggerTo(cmd.ErrOrStderr(), internal.ParseLogLevel(cfg.LogLevel))

	source, err := data.source(cfg.Data.InputFile, logger)
	if err != nil {
		return err
	}

	sinks := []ports.ResultSinkPort{report.Sink{W: cmd.OutOrStdout(), Format: cfg.Output.Format}}
	if cfg.Output.WorkbookPath != "" {
		sinks = append(sinks, excel.WorkbookSink{Path: cfg.Output.WorkbookPath})
	}

	service := app.NewCollinearityService(collinearity.NewCalculator(logger), logger, sinks...)
	req := cfg.Request()
	req.RunID = runID
	check, err := service.RunCheck(cmd.Context(), app.CheckRequest{
		Source:      source,
		Computation: req,
	})
	if err != nil {
		return err
	}

	if failOnFlag && len(check.Result.Flagged) > 0 {
		return fmt.Errorf("%w: %s", errFlagged, strings.Join(check.Result.FlaggedNames(), ", "))
	}
	return nil
}

func writeLine(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}
