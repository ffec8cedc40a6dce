package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/catalog-query/internal/config"
	"github.com/kailas-cloud/catalog-query/internal/domain"
	"github.com/kailas-cloud/catalog-query/internal/domain/query"
	logpkg "github.com/kailas-cloud/catalog-query/internal/logger"
	"github.com/kailas-cloud/catalog-query/internal/metrics"
	"github.com/kailas-cloud/catalog-query/internal/report"
	"github.com/kailas-cloud/catalog-query/internal/repository/history"
	"github.com/kailas-cloud/catalog-query/internal/transport/checker"
	"github.com/kailas-cloud/catalog-query/internal/transport/ckan"
	"github.com/kailas-cloud/catalog-query/internal/usecase/compliance"
	"github.com/kailas-cloud/catalog-query/internal/usecase/dataset"
	"github.com/kailas-cloud/catalog-query/internal/usecase/pipeline"
	"github.com/kailas-cloud/catalog-query/internal/usecase/search"
	"github.com/kailas-cloud/catalog-query/internal/version"
)

const shutdownTimeout = 5 * time.Second

// options are the command line flags. Flags left unset keep the config value.
type options struct {
	configPath string

	action      string
	catalogURL  string
	queryParams string
	tests       []string
	output      string
	errorOutput string
	operator    string
	format      string

	checkerBinary  string
	checkerTimeout time.Duration
	pause          time.Duration

	metricsAddr string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "catalog-query",
		Short: "Query a CKAN catalog and run compliance checks on its resources",
		Example: `  catalog-query -a resource_cc_check -q name:AOOS,resource_format:OPeNDAP -t cf,acdd
  catalog-query -a dataset_list_by_filter -q tags:ocean --format xlsx`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAction(ctx, cmd, o)
		},
	}

	bindFlags(cmd, &o)

	cmd.AddCommand(newHealthCmd(&o))
	cmd.AddCommand(newHistoryCmd(&o))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func bindFlags(cmd *cobra.Command, o *options) {
	cmd.PersistentFlags().StringVar(&o.configPath, "config", "", "Config file (default config/<ENV>.yaml)")
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	f := cmd.Flags()
	f.StringVarP(&o.action, "action", "a", "", "Action: dataset_list, dataset_list_by_filter, resource_cc_check")
	f.StringVarP(&o.catalogURL, "catalog_api_url", "c", "", "CKAN API endpoint (default "+config.DefaultCatalogURL+")")
	f.StringVarP(&o.queryParams, "query_params", "q", "", "Comma-separated key:value terms, e.g. name:AOOS,resource_format:OPeNDAP")
	f.StringSliceVarP(&o.tests, "cc_tests", "t", nil, "Compliance checker tests (default cf,acdd,ioos)")
	f.StringVarP(&o.output, "output", "o", "", "Results file path")
	f.StringVarP(&o.errorOutput, "error_output", "e", "", "Failed checks file path")
	f.StringVar(&o.operator, "operator", "", "Join operator for catalog search terms: AND or OR")
	f.StringVar(&o.format, "format", "", "Report format: csv or xlsx")
	f.StringVar(&o.checkerBinary, "checker", "", "Compliance checker executable")
	f.DurationVar(&o.checkerTimeout, "checker-timeout", 0, "Deadline for one checker invocation")
	f.DurationVar(&o.pause, "pause", 0, "Delay between resource URLs (0 disables)")
	f.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve /metrics and /healthz on this address during the run")
	_ = cmd.MarkFlagRequired("action")
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command, o options) (config.Config, error) {
	var cfg config.Config
	var err error
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.LoadOrDefault(config.GetEnv())
	}
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("catalog_api_url") {
		cfg.Catalog.BaseURL = o.catalogURL
	}
	if flags.Changed("cc_tests") {
		cfg.Checker.DefaultTests = o.tests
	}
	if flags.Changed("operator") {
		cfg.Catalog.Operator = o.operator
	}
	if flags.Changed("format") {
		cfg.Output.Format = o.format
	}
	if flags.Changed("checker") {
		cfg.Checker.Binary = o.checkerBinary
	}
	if flags.Changed("checker-timeout") {
		if o.checkerTimeout < time.Second {
			return config.Config{}, fmt.Errorf("--checker-timeout must be at least 1s, got %s", o.checkerTimeout)
		}
		cfg.Checker.TimeoutSec = int(math.Ceil(o.checkerTimeout.Seconds()))
	}
	if flags.Changed("pause") {
		cfg.Checker.PauseMS = int(o.pause.Milliseconds())
		if cfg.Checker.PauseMS == 0 {
			cfg.Checker.PauseMS = -1
		}
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = o.metricsAddr
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}

// buildPlan performs every check that must pass before a remote call.
func buildPlan(o options, cfg config.Config) (pipeline.Plan, report.Format, error) {
	action, err := pipeline.ParseAction(o.action)
	if err != nil {
		return pipeline.Plan{}, "", err
	}
	spec, err := query.Decode(o.queryParams)
	if err != nil {
		return pipeline.Plan{}, "", err
	}
	op, err := domain.ParseOperator(cfg.Catalog.Operator)
	if err != nil {
		return pipeline.Plan{}, "", err
	}
	plan, err := pipeline.NewPlan(action, spec, cfg.Checker.DefaultTests, op)
	if err != nil {
		return pipeline.Plan{}, "", err
	}
	if err := config.ValidateCatalogURL(cfg.Catalog.BaseURL); err != nil {
		return pipeline.Plan{}, "", fmt.Errorf("catalog API URL %w", err)
	}
	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return pipeline.Plan{}, "", err
	}
	return plan, format, nil
}

func runAction(ctx context.Context, cmd *cobra.Command, o options) error {
	env := config.GetEnv()
	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	plan, format, err := buildPlan(o, cfg)
	if err != nil {
		logger.Error("Invalid run configuration", zap.Error(err))
		return err
	}

	run, err := pipeline.OpenRun(logger, pipeline.RunOptions{
		Action:       plan.Action,
		Organization: plan.Organization(),
		Ext:          format.Ext(),
		Output:       o.output,
		ErrorOutput:  o.errorOutput,
	})
	if err != nil {
		logger.Error("Failed to prepare output", zap.Error(err))
		return err
	}
	defer func() { _ = run.Close() }()

	log := run.Logger
	log.Info("Starting catalog-query",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("action", plan.Action.String()),
		zap.String("catalog", cfg.Catalog.BaseURL),
		zap.Stringer("query", plan.Spec),
		zap.String("results", run.Paths.Results),
		zap.String("errors", run.Paths.Errors),
	)

	if cfg.Metrics.Addr != "" {
		srv := metrics.Serve(cfg.Metrics.Addr, run.Metrics, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("Error during metrics shutdown", zap.Error(err))
			}
		}()
	}

	p, closeDeps, err := buildPipeline(ctx, cfg, format, plan, run)
	if err != nil {
		log.Error("Failed to build pipeline", zap.Error(err))
		return err
	}
	defer closeDeps()

	start := time.Now()
	res, err := p.Execute(ctx, run, plan)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Run interrupted", zap.Error(err))
		} else {
			log.Error("Run failed", zap.Error(err))
		}
		return err
	}

	log.Info("Run complete",
		zap.Duration("duration", time.Since(start)),
		zap.Int("packages", res.Records),
		zap.Int("datasets", res.Datasets),
		zap.Int("urls", res.URLs),
		zap.Int("failures", len(res.Failures)),
		zap.Bool("results_written", res.ResultsWritten),
		zap.Bool("failures_written", res.FailuresWritten),
	)
	return nil
}

// buildPipeline is the composition root. The returned func releases the history store.
func buildPipeline(
	ctx context.Context, cfg config.Config, format report.Format, plan pipeline.Plan, run *pipeline.Run,
) (*pipeline.Pipeline, func(), error) {
	log := run.Logger

	client := ckan.NewClient(ckan.Config{
		BaseURL: cfg.Catalog.BaseURL,
		Timeout: cfg.Catalog.RequestTimeout(),
		Logger:  log,
		Metrics: run.Metrics,
	})
	searchSvc := search.New(client, log).WithPageSize(cfg.Catalog.PageSize)

	runner := checker.NewRunner(cfg.Checker.Binary, cfg.Checker.Timeout())
	checkSvc := compliance.New(runner, log).
		WithPause(cfg.Checker.Pause()).
		WithMetrics(run.Metrics)

	summarizer, err := dataset.NewSummarizer(cfg.Catalog.BaseURL)
	if err != nil {
		return nil, nil, err
	}

	p := pipeline.New(searchSvc, checkSvc, report.NewWriter(format, log), summarizer)

	closeFn := func() {}
	if plan.Action.RunsChecks() && cfg.History.Enabled() {
		store, err := openHistoryStore(ctx, cfg.History)
		if err != nil {
			// History is optional; a run never fails because the sink is down.
			log.Warn("History store unavailable, run summary will not be stored", zap.Error(err))
			return p, closeFn, nil
		}
		p.WithHistory(history.New(store, cfg.History.KeyPrefix, cfg.History.TTL()))
		closeFn = store.Close
		log.Info("Recording run history", zap.Strings("addrs", cfg.History.Addrs))
	}
	return p, closeFn, nil
}
