package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pfrederiksen/ade-events/internal/config"
	"github.com/pfrederiksen/ade-events/internal/job"
	"github.com/pfrederiksen/ade-events/internal/logger"
	"github.com/pfrederiksen/ade-events/internal/normalizer"
	"github.com/pfrederiksen/ade-events/internal/scraper"
	"github.com/pfrederiksen/ade-events/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	// ExitSkipped means the harvest published but left out some event pages
	ExitSkipped = 2
)

// exitError carries a process exit code through cobra
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

var (
	flagConfig   string
	flagLogLevel string
	flagFormat   string
	flagYear     int
	flagOnError  string
	flagFetcher  string
	flagStage    string
	flagSort     string
)

// app holds what every command needs once configuration is loaded
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	store  storage.Store
	keys   storage.Keys
	format OutputFormat
	out    io.Writer
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ade-events",
		Short: "Harvest and normalize Amsterdam Dance Event listings",
		Long: `A batch ETL for Amsterdam Dance Event listings.
harvest scrapes one edition from djguide.nl into a raw CSV, normalize turns
every raw CSV into edition-partitioned Parquet.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ./ade-events.yaml)")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "Output format: text or json")

	cmd.AddCommand(newHarvestCmd(), newNormalizeCmd(), newListCmd())

	return cmd
}

func newHarvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Scrape one edition's events into the raw stage",
		RunE:  runHarvest,
	}

	cmd.Flags().IntVar(&flagYear, "year", 0, "Edition year to harvest (required)")
	cmd.Flags().StringVar(&flagOnError, "on-error", "", "Bad event page policy: abort or skip")
	cmd.Flags().StringVar(&flagFetcher, "fetcher", "", "Page fetcher: http or browser")

	cmd.MarkFlagRequired("year") // nolint:errcheck

	return cmd
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize",
		Short: "Clean every raw CSV into edition-partitioned Parquet",
		RunE:  runNormalize,
	}
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the objects of a pipeline stage",
		RunE:  runList,
	}

	cmd.Flags().StringVar(&flagStage, "stage", "raw", "Stage to list: raw or clean")
	cmd.Flags().StringVar(&flagSort, "sort", string(SortByKey), "Sort order: key or size")

	return cmd
}

// setup loads configuration and builds the logger and store
func setup(ctx context.Context, cmd *cobra.Command) (*app, error) {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return nil, fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	flags := map[string]*pflag.Flag{
		"log.level": changed(cmd.Flags().Lookup("log-level")),
	}
	if cmd.Name() == "harvest" {
		flags["harvest.on_error"] = changed(cmd.Flags().Lookup("on-error"))
		flags["harvest.fetcher"] = changed(cmd.Flags().Lookup("fetcher"))
	}

	cfg, err := config.Load(flagConfig, flags)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(logger.ParseLevel(cfg.Log.Level), os.Stderr)

	store, err := newStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	return &app{
		cfg:   cfg,
		log:   log,
		store: store,
		keys: storage.Keys{
			Dataset:    cfg.Dataset.Name,
			RawStage:   cfg.Dataset.RawStage,
			CleanStage: cfg.Dataset.CleanStage,
		},
		format: format,
		out:    cmd.OutOrStdout(),
	}, nil
}

// changed returns f only when it was set on the command line
func changed(f *pflag.Flag) *pflag.Flag {
	if f == nil || !f.Changed {
		return nil
	}
	return f
}

func newStore(ctx context.Context, cfg config.StoreConfig) (storage.Store, error) {
	if cfg.Backend == config.BackendS3 {
		return storage.NewS3(ctx, storage.S3Config{
			Endpoint:     cfg.Endpoint,
			Region:       cfg.Region,
			Bucket:       cfg.Bucket,
			AccessKey:    cfg.AccessKey,
			SecretKey:    cfg.SecretKey,
			UseSSL:       cfg.UseSSL,
			CreateBucket: cfg.CreateBucket,
		})
	}
	return storage.NewFS(cfg.DataDir)
}

func newFetcher(ctx context.Context, cfg config.HarvestConfig) (scraper.Fetcher, func(), error) {
	if cfg.Fetcher == config.FetcherBrowser {
		f, err := scraper.NewBrowserFetcher(ctx, cfg.Timeout, cfg.UserAgent)
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	}
	return scraper.NewHTTPFetcher(cfg.Timeout, cfg.UserAgent), func() {}, nil
}

// runHarvest is the harvest command logic
func runHarvest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if flagYear < 1 {
		return fmt.Errorf("--year must be a positive year, got %d", flagYear)
	}

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync() // nolint:errcheck

	fetcher, closeFetcher, err := newFetcher(ctx, a.cfg.Harvest)
	if err != nil {
		return fmt.Errorf("initializing fetcher: %w", err)
	}
	defer closeFetcher()

	sc := scraper.New(fetcher, scraper.Options{
		IndexURL:        a.cfg.Harvest.IndexURL,
		BaseURL:         a.cfg.Harvest.BaseURL,
		DetailPrefix:    a.cfg.Harvest.DetailPrefix,
		ConsentSelector: a.cfg.Harvest.ConsentSelector,
		ConsentTimeout:  a.cfg.Harvest.ConsentTimeout,
		OnError:         scraper.OnError(a.cfg.Harvest.OnError),
	})

	jc := job.New("harvest", a.store, a.keys, a.log)
	started := jc.Now()

	result, err := sc.Harvest(ctx, jc, flagYear)
	a.writeMetrics(jc)
	if err != nil {
		jc.Logger.Error("Harvest failed", nil, err)
		return fmt.Errorf("harvesting %d: %w", flagYear, err)
	}

	out := &OutputResult{
		Command:    "harvest",
		RunID:      jc.RunID,
		StartedAt:  started.UTC(),
		FinishedAt: jc.Now().UTC(),
		Harvest:    result,
	}
	if err := WriteOutput(a.out, out, a.format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if result.Err != nil {
		return &exitError{code: ExitSkipped, err: fmt.Errorf("skipped %d event pages: %w", len(result.Skipped), result.Err)}
	}
	return nil
}

// runNormalize is the normalize command logic
func runNormalize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync() // nolint:errcheck

	jc := job.New("normalize", a.store, a.keys, a.log)
	started := jc.Now()

	result, err := normalizer.New(a.cfg.Normalize.Exclusions).Run(ctx, jc)
	a.writeMetrics(jc)
	if err != nil {
		jc.Logger.Error("Normalize failed", nil, err)
		return fmt.Errorf("normalizing: %w", err)
	}

	out := &OutputResult{
		Command:    "normalize",
		RunID:      jc.RunID,
		StartedAt:  started.UTC(),
		FinishedAt: jc.Now().UTC(),
		Normalize:  result,
	}
	if err := WriteOutput(a.out, out, a.format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// runList is the list command logic
func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var prefixFor func(storage.Keys) string
	switch flagStage {
	case "raw":
		prefixFor = storage.Keys.RawPrefix
	case "clean":
		prefixFor = storage.Keys.CleanPrefix
	default:
		return fmt.Errorf("invalid stage: %s (must be 'raw' or 'clean')", flagStage)
	}

	order := SortOrder(strings.ToLower(flagSort))
	if order != SortByKey && order != SortBySize {
		return fmt.Errorf("invalid sort order: %s (must be 'key' or 'size')", flagSort)
	}

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync() // nolint:errcheck

	objects, err := a.store.GetPrefix(ctx, prefixFor(a.keys))
	if err != nil {
		return fmt.Errorf("listing %s stage: %w", flagStage, err)
	}

	listing := make([]ObjectInfo, 0, len(objects))
	for _, obj := range objects {
		listing = append(listing, ObjectInfo{Key: obj.Key, Size: len(obj.Data)})
	}
	sortObjects(listing, order)

	out := &OutputResult{
		Command:    "list",
		StartedAt:  time.Now().UTC(),
		FinishedAt: time.Now().UTC(),
		Stage:      flagStage,
		Objects:    listing,
	}
	if err := WriteOutput(a.out, out, a.format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// writeMetrics exports the run's metrics when a textfile is configured
func (a *app) writeMetrics(jc *job.Context) {
	if a.cfg.Metrics.Textfile == "" {
		return
	}
	if err := jc.Metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		jc.Logger.Warn("Failed to write metrics textfile", logger.Fields{
			"path":  a.cfg.Metrics.Textfile,
			"error": err.Error(),
		})
	}
}

// Execute runs the CLI and exits with its status
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI with args and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return ExitError
	}
	return ExitSuccess
}
