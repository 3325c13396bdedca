// Package main provides the CLI entry point for myfigure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ukaji3/myfigure-go/internal/config"
	"github.com/ukaji3/myfigure-go/internal/logging"
	"github.com/ukaji3/myfigure-go/pkg/myfigure"
	"github.com/ukaji3/myfigure-go/pkg/myfigure/dataset"
	"github.com/ukaji3/myfigure-go/pkg/myfigure/output"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbosity int
	rootCmd := &cobra.Command{
		Use:   "myfigure",
		Short: "Styled bar figures with out-of-range value labels",
		Long: `myfigure renders grouped bar figures from data tables and reports
bars of workbook charts whose values fall outside the visible axis range.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
	}
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")

	rootCmd.AddCommand(newOutliersCmd(), newRenderCmd())
	return rootCmd
}

func newOutliersCmd() *cobra.Command {
	var (
		outputPath string
		pretty     bool
		format     string
		decimals   int
		all        bool
	)
	cmd := &cobra.Command{
		Use:   "outliers <book.xlsx>",
		Short: "Report bar chart values outside the value axis range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if decimals < 0 {
				return fmt.Errorf("%w: decimals must not be negative", myfigure.ErrInvalidOption)
			}
			opts := myfigure.AnalyzeOptions{DecimalPlaces: decimals, IncludeEmpty: &all}
			report, err := myfigure.AnalyzeWorkbook(args[0], opts)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			var data []byte
			switch strings.ToLower(format) {
			case "json":
				if data, err = output.ToJSON(report, pretty); err != nil {
					return fmt.Errorf("serialization failed: %w", err)
				}
				data = append(data, '\n')
			case "table":
				table, err := output.ToTable(report)
				if err != nil {
					return fmt.Errorf("rendering table failed: %w", err)
				}
				data = []byte(table)
			default:
				return fmt.Errorf("%w: invalid format %q (must be json or table)", myfigure.ErrInvalidOption, format)
			}

			if outputPath != "" {
				if err := os.WriteFile(outputPath, data, 0644); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
				return nil
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or table")
	cmd.Flags().IntVar(&decimals, "decimals", myfigure.DefaultAnalyzeOptions().DecimalPlaces, "Decimal places of outlier labels")
	cmd.Flags().BoolVar(&all, "all", false, "Also report charts without outliers")
	return cmd
}

func newRenderCmd() *cobra.Command {
	var (
		configPath  string
		sheet       string
		outPath     string
		filename    string
		formats     []string
		dpi         int
		transparent bool
		masked      bool
	)
	cmd := &cobra.Command{
		Use:   "render <data.csv|data.xlsx>",
		Short: "Render a grouped bar figure from a data table",
		Long: `render draws one grouped bar chart per axes from a table with the
columns group, series, mean and optionally std, significant and axis.
Figure options come from a YAML or TOML config file, MYFIGURE_ environment
variables and flags, in increasing precedence.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := make(map[string]interface{})
			flags := cmd.Flags()
			if flags.Changed("out") {
				overrides["save.out_path"] = outPath
			}
			if flags.Changed("name") {
				overrides["save.filename"] = filename
			}
			if flags.Changed("formats") {
				overrides["save.formats"] = formats
			}
			if flags.Changed("dpi") {
				overrides["save.dpi"] = dpi
			}
			if flags.Changed("transparent") {
				overrides["save.transparent"] = transparent
			}
			if flags.Changed("masked") {
				overrides["figure.masked_unsignificant_data"] = []bool{masked}
			}

			cfg, err := config.Load(configPath, overrides)
			if err != nil {
				return err
			}
			return render(args[0], sheet, cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default: myfigure/config.yaml in the XDG config directories)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet of an xlsx data file (default: first sheet)")
	cmd.Flags().StringVarP(&outPath, "out", "o", ".", "Output directory")
	cmd.Flags().StringVar(&filename, "name", "", "Output file name without extension (default: data file name)")
	cmd.Flags().StringSliceVar(&formats, "formats", []string{"png"}, "Output formats: png, jpg, tif, pdf, svg, eps")
	cmd.Flags().IntVar(&dpi, "dpi", myfigure.DefaultSaveOptions().DPI, "Resolution of raster outputs")
	cmd.Flags().BoolVar(&transparent, "transparent", false, "Transparent background")
	cmd.Flags().BoolVar(&masked, "masked", false, "Mask bars flagged as not significant")
	return cmd
}

func render(dataPath, sheet string, cfg *config.Config) error {
	logger := logging.GetLogger("render")

	tbl, err := dataset.Load(dataPath, sheet)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dataPath, err)
	}
	if n := tbl.Axes(); n > cfg.Figure.NAxes() {
		return fmt.Errorf("%w: data addresses %d axes, figure has %d", myfigure.ErrSizeMismatch, n, cfg.Figure.NAxes())
	}

	fig, err := myfigure.New(cfg.Figure)
	if err != nil {
		return err
	}
	for i := 0; i < tbl.Axes(); i++ {
		categories, series := tbl.Build(i)
		if err := fig.Ax(i).BarGroups(categories, series); err != nil {
			return err
		}
		logger.Debug().Int("axes", i).Int("groups", len(categories)).Int("series", len(series)).Msg("Bars drawn")
	}

	save := cfg.Save
	if save.Filename == "" {
		base := filepath.Base(dataPath)
		save.Filename = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return fig.Save(save)
}
