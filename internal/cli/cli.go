package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"wowroster/internal/config"
	"wowroster/internal/convert"
	"wowroster/internal/export"
	"wowroster/internal/parser"
	"wowroster/internal/store"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries the configuration loaded once per invocation.
type app struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "wowroster",
		Short:         "Convert DataStore character rosters from saved variables to CSV",
		Long:          "Extracts the DataStore_Characters_Info table from a WoW addon's saved-variables Lua file and writes one spreadsheet row per character.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.cfg = config.Load()
			setLogLevel(a.cfg.LogLevel)
		},
	}

	rootCmd.AddCommand(a.convertCmd())
	rootCmd.AddCommand(a.batchCmd())
	rootCmd.AddCommand(a.ingestCmd())

	return rootCmd
}

func setLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func (a *app) convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <input.lua>",
		Short: "Convert one saved-variables file into a CSV, XLSX or JSON roster",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			format, _ := cmd.Flags().GetString("format")
			var input string
			if len(args) > 0 {
				input = args[0]
			}
			return runConvert(a.cfg, input, output, format)
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file path (default from ROSTER_OUTPUT or characters.csv)")
	cmd.Flags().String("format", "", "Output format: csv, xlsx or json (default: inferred from output extension)")

	return cmd
}

func (a *app) batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <wtf-dir> <output-dir>",
		Short: "Convert every saved-variables file under a directory",
		Long: `Walks a WTF (or SavedVariables) directory, converts each .lua file that
contains the character table, and mirrors the layout into the output directory.
Files without the table are reported as skipped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			report, _ := cmd.Flags().GetString("report")
			return runBatch(a.cfg, args[0], args[1], format, report)
		},
	}

	cmd.Flags().String("format", "", "Output format: csv, xlsx or json (default csv)")
	cmd.Flags().String("report", "", "Report path (default <output-dir>/report.csv)")

	return cmd
}

func (a *app) ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <input.lua>",
		Short: "Parse a saved-variables file and upsert its characters into PostgreSQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(a.cfg, args[0])
		},
	}
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func newConverter(cfg *config.Config, format string) (*convert.Converter, error) {
	if format == "" {
		format = cfg.Format
	}

	var f export.Format
	if format != "" {
		parsed, err := export.ParseFormat(format)
		if err != nil {
			return nil, err
		}
		f = parsed
	}

	p := parser.NewSavedVariablesParser(cfg.StartMarker, cfg.EndMarker)
	return convert.NewConverter(p, f, cfg.DefaultOutput), nil
}

// runConvert handles the `convert` command.
func runConvert(cfg *config.Config, input, output, format string) error {
	ctx, cancel := setupContext()
	defer cancel()

	log.Info().Msg(convert.StatusReady)

	converter, err := newConverter(cfg, format)
	if err != nil {
		log.Error().Msg(convert.ErrorStatus(err))
		return err
	}

	res, err := converter.Convert(ctx, input, output)
	if err != nil {
		log.Error().Msg(convert.ErrorStatus(err))
		return err
	}

	log.Info().
		Str("input", res.Input).
		Str("format", string(res.Format)).
		Msg(res.Status())
	return nil
}

// runBatch handles the `batch` command.
func runBatch(cfg *config.Config, root, outDir, format, reportPath string) error {
	ctx, cancel := setupContext()
	defer cancel()

	converter, err := newConverter(cfg, format)
	if err != nil {
		return err
	}

	rows, err := converter.Batch(ctx, root, outDir, cfg.WorkerCount)
	if rows == nil && err != nil {
		log.Error().Msg(convert.ErrorStatus(err))
		return err
	}

	if reportPath == "" {
		reportPath = filepath.Join(outDir, "report.csv")
	}
	if werr := convert.WriteReport(reportPath, rows); werr != nil {
		return werr
	}

	counts := convert.Summarize(rows)
	log.Info().
		Int("files", len(rows)).
		Int("converted", counts[convert.StatusConverted]).
		Int("skipped", counts[convert.StatusSkipped]).
		Int("failed", counts[convert.StatusFailed]).
		Str("report", reportPath).
		Msg("Batch conversion complete")

	if err != nil {
		return err
	}
	if n := counts[convert.StatusFailed]; n > 0 {
		return fmt.Errorf("%d file(s) failed to convert", n)
	}
	return nil
}

// runIngest handles the `ingest` command.
func runIngest(cfg *config.Config, input string) error {
	ctx, cancel := setupContext()
	defer cancel()

	p := parser.NewSavedVariablesParser(cfg.StartMarker, cfg.EndMarker)
	result, err := p.Parse(input)
	if err != nil {
		log.Error().Msg(convert.ErrorStatus(err))
		return err
	}

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	rosterStore := store.NewRosterStore(pool)
	if err := rosterStore.EnsureSchema(ctx); err != nil {
		return err
	}

	affected, err := rosterStore.Upsert(ctx, input, result.Records)
	if err != nil {
		return err
	}

	log.Info().
		Str("input", input).
		Int("characters", len(result.Records)).
		Int("rows", affected).
		Msg("Ingestion complete")
	return nil
}
