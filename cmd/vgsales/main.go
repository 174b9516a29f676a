package main

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"vgsales/internal/config"
	"vgsales/internal/engine"
	"vgsales/internal/models"
)

func main() {
	// stdout carries the command output
	log.SetOutput(os.Stderr)
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type filterFlags struct {
	data       string
	platforms  []string
	genres     []string
	publishers []string
	yearMin    int
	yearMax    int
}

func newRootCmd() *cobra.Command {
	cfg, err := config.Load()
	if err != nil {
		log.Warnf("ignoring configuration: %v", err)
		cfg = &config.Config{DataFile: "vgsales-clean.csv", LogLevel: log.INFO, TopN: 10}
	}
	log.SetLevel(cfg.LogLevel)

	f := &filterFlags{}
	rootCmd := &cobra.Command{
		Use:           "vgsales",
		Short:         "Filter and aggregate the video game sales dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.data, "data", cfg.DataFile, "Path to vgsales-clean.csv")
	pf.StringArrayVar(&f.platforms, "platform", nil, "Platform to include (repeatable)")
	pf.StringArrayVar(&f.genres, "genre", nil, "Genre to include (repeatable)")
	pf.StringArrayVar(&f.publishers, "publisher", nil, "Publisher to include (repeatable)")
	pf.IntVar(&f.yearMin, "year-min", 0, "First year to include (default: dataset minimum)")
	pf.IntVar(&f.yearMax, "year-max", 0, "Last year to include (default: dataset maximum)")

	rootCmd.AddCommand(
		newDashboardCmd(f, cfg.TopN),
		newOptionsCmd(f),
		newExportCmd(f),
	)
	return rootCmd
}

// criteria fills unset year bounds from the dataset.
func (f *filterFlags) criteria(store *engine.ColumnStore) models.Criteria {
	c := engine.DefaultCriteria(store)
	c.Platforms = f.platforms
	c.Genres = f.genres
	c.Publishers = f.publishers
	if f.yearMin != 0 {
		c.YearMin = f.yearMin
	}
	if f.yearMax != 0 {
		c.YearMax = f.yearMax
	}
	return c
}

func (f *filterFlags) apply() (models.Criteria, engine.Result, error) {
	store, err := engine.LoadColumnar(f.data)
	if err != nil {
		return models.Criteria{}, engine.Result{}, err
	}
	c := f.criteria(store)
	res := engine.ApplyFilters(store, c)
	if res.IsEmpty() {
		return c, res, fmt.Errorf("%s (%s)", res.Empty.Message(), res.Empty)
	}
	return c, res, nil
}

func newDashboardCmd(f *filterFlags, defaultTop int) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print metrics, regional split, top games and yearly trend as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, res, err := f.apply()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), engine.Aggregate(res.View, c, top))
		},
	}
	cmd.Flags().IntVar(&top, "top", defaultTop, "Number of top games by global sales")
	return cmd
}

func newOptionsCmd(f *filterFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List the distinct platforms, genres, publishers and the year range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := engine.LoadColumnar(f.data)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), engine.FilterOptions(store))
		},
	}
}

func newExportCmd(f *filterFlags) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered table as CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, res, err := f.apply()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				file, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer file.Close()
				w = file
			}

			switch format {
			case "csv":
				return engine.WriteCSV(w, res.View)
			case "xlsx":
				return engine.WriteXLSX(w, res.View)
			default:
				return fmt.Errorf("unknown format %q (use csv or xlsx)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "Output format: csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "Output file, - for stdout")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
