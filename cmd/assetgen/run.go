package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"assetgen/internal/adapter/repo"
	"assetgen/internal/batch"
	"assetgen/internal/catalog"
	"assetgen/internal/domain"
	"assetgen/internal/http/handlers"
	"assetgen/internal/http/httpapi"
	"assetgen/internal/infra"
	"assetgen/internal/infra/credentials"
	"assetgen/internal/poller"
	"assetgen/internal/providers/meshy"
	"assetgen/internal/storage"
	"assetgen/pkg/zip"
)

const persistTimeout = 15 * time.Second

type runFlags struct {
	catalogPath  string
	outputRoot   string
	interval     time.Duration
	maxAttempts  int
	maxUnknown   int
	concurrency  int
	reportFormat string
	reportPath   string
	archivePath  string
	statusAddr   string
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit the catalog, poll every job and download the finished models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := infra.LoadConfig()
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runBatch(cmd, cfg)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.catalogPath, "catalog", "", "YAML catalog file (default: built-in catalog)")
	fl.StringVar(&f.outputRoot, "output", "", "output root for downloaded models")
	fl.DurationVar(&f.interval, "interval", 0, "delay between status checks")
	fl.IntVar(&f.maxAttempts, "max-attempts", 0, "status checks per job before it times out")
	fl.IntVar(&f.maxUnknown, "max-unknown-streak", 0, "consecutive unknown statuses before a job fails (0 disables)")
	fl.IntVar(&f.concurrency, "concurrency", 0, "jobs polled at once")
	fl.StringVar(&f.reportFormat, "format", "", "report format on stdout: text, json or yaml")
	fl.StringVar(&f.reportPath, "report", "", "report file relative to the output root (empty disables)")
	fl.StringVar(&f.archivePath, "archive", "", "zip archive of the downloaded models and report")
	fl.StringVar(&f.statusAddr, "status-addr", "", "listen address of the live status API")
	return cmd
}

// apply copies explicitly set flags over the environment configuration.
func (f *runFlags) apply(cmd *cobra.Command, cfg *infra.Config) {
	changed := cmd.Flags().Changed
	if changed("catalog") {
		cfg.CatalogPath = f.catalogPath
	}
	if changed("output") {
		cfg.OutputRoot = f.outputRoot
	}
	if changed("interval") {
		cfg.PollInterval = f.interval
	}
	if changed("max-attempts") {
		cfg.MaxPollAttempts = f.maxAttempts
	}
	if changed("max-unknown-streak") {
		cfg.MaxUnknownStreak = f.maxUnknown
	}
	if changed("concurrency") {
		cfg.PollConcurrency = f.concurrency
	}
	if changed("format") {
		cfg.ReportFormat = f.reportFormat
	}
	if changed("report") {
		cfg.ReportPath = f.reportPath
	}
	if changed("archive") {
		cfg.ArchivePath = f.archivePath
	}
	if changed("status-addr") {
		cfg.StatusAddr = f.statusAddr
	}
}

func runBatch(cmd *cobra.Command, cfg *infra.Config) error {
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	specs, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	var runner *infra.SQLRunner
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn().Err(err).Msg("assetgen: database unavailable, continuing without ledger")
		} else {
			defer pool.Close()
			runner = infra.NewSQLRunner(pool, logger)
		}
	}

	var credStore domain.CredentialStore
	if runner != nil {
		credStore = credentials.NewStore(runner)
	}
	apiKey, err := resolveAPIKey(ctx, cfg.MeshyAPIKey, credStore, logger)
	if err != nil {
		return err
	}

	client, err := meshy.NewClient(meshy.Options{
		APIKey:          apiKey,
		BaseURL:         cfg.MeshyBaseURL,
		Mode:            cfg.MeshyMode,
		Topology:        cfg.MeshyTopology,
		NegativePrompt:  cfg.NegativePrompt,
		Logger:          &logger,
		RequestTimeout:  cfg.RequestTimeout,
		DownloadTimeout: cfg.DownloadTimeout,
	})
	if err != nil {
		return err
	}

	store, err := storage.NewFileStore(cfg.OutputRoot)
	if err != nil {
		return fmt.Errorf("%w: %w", batch.ErrOutputRoot, err)
	}

	orch, err := batch.New(batch.Options{
		Submitter: client,
		Poller: poller.New(client, poller.Options{
			Interval:         cfg.PollInterval,
			MaxAttempts:      cfg.MaxPollAttempts,
			MaxUnknownStreak: cfg.MaxUnknownStreak,
			Logger:           &logger,
		}),
		Fetcher:         client,
		Store:           store,
		Concurrency:     cfg.PollConcurrency,
		DownloadTimeout: cfg.DownloadTimeout,
		Logger:          &logger,
	})
	if err != nil {
		return err
	}

	if cfg.StatusAddr != "" {
		srv := infra.NewHTTPServer(cfg, httpapi.NewRouter(handlers.NewApp(orch, logger)))
		go func() {
			logger.Info().Str("addr", cfg.StatusAddr).Msg("assetgen: status api listening")
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("assetgen: status api stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	report, err := orch.Run(ctx, specs)
	if err != nil {
		return err
	}

	// Persisting the results must survive the interrupt that ended the run.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	reportData, err := batch.MarshalJSON(report)
	if err != nil {
		return err
	}
	if cfg.ReportPath != "" {
		if _, err := store.Write(persistCtx, cfg.ReportPath, reportData); err != nil {
			logger.Error().Err(err).Str("path", cfg.ReportPath).Msg("assetgen: failed to write report file")
		}
	}
	if cfg.ArchivePath != "" {
		if err := writeArchive(persistCtx, cfg.ArchivePath, report, reportData); err != nil {
			logger.Error().Err(err).Str("path", cfg.ArchivePath).Msg("assetgen: failed to write archive")
		} else {
			logger.Info().Str("path", cfg.ArchivePath).Msg("assetgen: archive written")
		}
	}
	if runner != nil {
		ledger := repo.NewRunRepository(runner)
		if err := ledger.EnsureSchema(persistCtx); err != nil {
			logger.Error().Err(err).Msg("assetgen: failed to prepare run ledger")
		} else if err := ledger.SaveReport(persistCtx, report); err != nil {
			logger.Error().Err(err).Msg("assetgen: failed to record run")
		}
	}

	return batch.Render(cmd.OutOrStdout(), report, cfg.ReportFormat)
}

// writeArchive zips every downloaded model plus the report into dst.
func writeArchive(ctx context.Context, dst string, report *domain.Report, reportData []byte) error {
	entries := make([]zip.Entry, 0, len(report.Outcomes)+1)
	for _, o := range report.Outcomes {
		if o.State != domain.OutcomeSucceeded || o.Path == "" {
			continue
		}
		entries = append(entries, zip.Entry{Name: domain.ArtifactKey(o.AssetID), Source: o.Path})
	}
	entries = append(entries, zip.Entry{Name: "report.json", Data: reportData})

	if abs, err := filepath.Abs(dst); err == nil {
		dst = abs
	}
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(zip.WriteArchive(ctx, pw, entries))
	}()
	_, err := storage.WriteAtomic(ctx, dst, pr)
	_ = pr.CloseWithError(err)
	return err
}
