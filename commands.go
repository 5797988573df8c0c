package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"pcc-tenders/config"
	"pcc-tenders/models"
	"pcc-tenders/scraper/mirror"
	"pcc-tenders/scraper/pcc"
	"pcc-tenders/services"
	"pcc-tenders/storage"
	"pcc-tenders/utils"
)

// outputFlags are shared by the crawl and fetch commands.
type outputFlags struct {
	filter          string
	caseSensitive   bool
	csvPath         string
	rawLinks        bool
	archive         bool
	continueOnError bool
	preview         int
}

var (
	crawlAgencies []string
	crawlOut      outputFlags

	fetchUnits []string
	fetchMonth string
	fetchOut   outputFlags
)

var rootCmd = &cobra.Command{
	Use:   "pcc-tenders",
	Short: "pcc-tenders fetches the latest procurement tenders of a fixed set of agencies.",
	// main reports the returned error through the logger
	SilenceErrors: true,
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Query the bulletin portal through a headless browser, one agency at a time.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := setup(&crawlOut)

		agencies, err := config.Select(config.Agencies(), crawlAgencies)
		if err != nil {
			return err
		}

		open := func(ctx context.Context) (services.BrowserSession, error) {
			s, err := pcc.Open(ctx, cfg, logger)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
		orch := services.NewOrchestrator(cfg, open, nil,
			services.NewNormalizer(logger), utils.NewPacer(cfg.PauseMinMs, cfg.PauseMaxMs), logger)

		logger.Info("=== PCC tender crawl starting: %d agencies ===", len(agencies))
		result, err := orch.CrawlAgencies(cmd.Context(), agencies)
		if err != nil {
			return err
		}
		return present(cmd.OutOrStdout(), cfg, logger, result, &crawlOut)
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Query the REST mirror for the selected units and month.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := setup(&fetchOut)

		units, err := config.Select(config.Units(), fetchUnits)
		if err != nil {
			return err
		}

		orch := services.NewOrchestrator(cfg, nil, mirror.New(cfg, logger),
			services.NewNormalizer(logger), nil, logger)

		logger.Info("=== PCC mirror fetch starting: %d units ===", len(units))
		result, err := orch.FetchUnits(cmd.Context(), units, fetchMonth)
		if err != nil {
			return err
		}
		return present(cmd.OutOrStdout(), cfg, logger, result, &fetchOut)
	},
}

var agenciesCmd = &cobra.Command{
	Use:   "agencies",
	Short: "List the configured portal agencies and mirror units.",
	Run: func(cmd *cobra.Command, args []string) {
		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"#", "Portal agency", "Mirror unit"})

		agencies, units := config.Agencies(), config.Units()
		for i := 0; i < max(len(agencies), len(units)); i++ {
			row := table.Row{i + 1, "", ""}
			if i < len(agencies) {
				row[1] = agencies[i]
			}
			if i < len(units) {
				row[2] = units[i]
			}
			t.AppendRow(row)
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

func init() {
	bindOutputFlags(crawlCmd, &crawlOut)
	crawlCmd.Flags().StringSliceVar(&crawlAgencies, "agency", nil, "agencies to crawl (default: all)")

	bindOutputFlags(fetchCmd, &fetchOut)
	fetchCmd.Flags().StringSliceVar(&fetchUnits, "unit", nil, "units to fetch (default: all)")
	fetchCmd.Flags().StringVar(&fetchMonth, "month", "", "month as YYYYMM (default: latest)")

	rootCmd.AddCommand(crawlCmd, fetchCmd, agenciesCmd)
}

func bindOutputFlags(cmd *cobra.Command, o *outputFlags) {
	f := cmd.Flags()
	f.StringVar(&o.filter, "filter", "", "keep tenders whose name contains this text")
	f.BoolVar(&o.caseSensitive, "case-sensitive", false, "match --filter case-sensitively")
	f.StringVar(&o.csvPath, "csv", "", "CSV output path (default: CSV_OUTPUT_PATH)")
	f.BoolVar(&o.rawLinks, "raw-links", false, "write bare URLs instead of anchors to CSV")
	f.BoolVar(&o.archive, "archive", false, "also upsert tenders into PostgreSQL")
	f.BoolVar(&o.continueOnError, "continue-on-error", false, "turn per-unit failures into sentinel rows")
	f.IntVar(&o.preview, "preview", 20, "rows to print after the summary")
}

// setup loads config and lets command flags override it.
func setup(o *outputFlags) (*config.Config, *utils.Logger) {
	cfg := config.Load()
	if o.csvPath != "" {
		cfg.CSVOutputPath = o.csvPath
	}
	if o.archive {
		cfg.ArchiveEnabled = true
	}
	if o.continueOnError {
		cfg.ContinueOnError = true
	}
	return cfg, utils.NewLoggerTo(os.Stdout, os.Stderr, cfg.Debug)
}

// present filters the combined table, prints it to out, and writes the
// exports.
func present(out io.Writer, cfg *config.Config, logger *utils.Logger, result *models.DisplayTable, o *outputFlags) error {
	shown := services.Filter{Query: o.filter, CaseSensitive: o.caseSensitive}.Apply(result)
	logger.Info("Done: %d rows (%d after filter)", result.Len(), shown.Len())

	services.NewReporter(out, logger).Print(shown, o.preview)

	var pgWriter *storage.PostgresWriter
	writers := []storage.TableWriter{}
	csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputPath, o.rawLinks)
	if err != nil {
		return err
	}
	writers = append(writers, csvWriter)

	if cfg.ArchiveEnabled {
		pgWriter, err = storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			_ = csvWriter.Close()
			return fmt.Errorf("archive: %w", err)
		}
		writers = append(writers, pgWriter)
	}

	var firstErr error
	for _, w := range writers {
		if err := w.WriteTable(shown); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		logger.Info("CSV saved to %s", cfg.CSVOutputPath)
		if pgWriter != nil {
			if n, err := pgWriter.Count(); err == nil {
				logger.Info("Archive holds %d tenders", n)
			}
		}
	}
	for _, w := range writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
