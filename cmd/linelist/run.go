package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/linelist-curation/pkg/cleaner"
	"github.com/David-Botos/linelist-curation/pkg/config"
	"github.com/David-Botos/linelist-curation/pkg/connector"
	"github.com/David-Botos/linelist-curation/pkg/geocode"
	"github.com/David-Botos/linelist-curation/pkg/ioretry"
	"github.com/David-Botos/linelist-curation/pkg/logging"
	"github.com/David-Botos/linelist-curation/pkg/pipeline"
	"github.com/David-Botos/linelist-curation/pkg/publish"
	"github.com/David-Botos/linelist-curation/pkg/sheet"
)

// errRunFailed is returned when at least one source failed; details are logged
var errRunFailed = errors.New("run failed")

func newRunCommand(envFile *string) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Clean, validate, geocode and publish every configured source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBatch(ctx, *envFile, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Stop after the row count check without writing the published dataset")
	return cmd
}

func runBatch(ctx context.Context, envFile string, dryRun bool) error {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	fs := afero.NewOsFs()
	policy := ioretry.Policy{
		MaxRetries: uint64(cfg.RetryAttempts),
		BaseDelay:  cfg.RetryDelay,
		MaxDelay:   cfg.RetryMaxDelay,
	}

	sources, closeSources, err := openSources(fs, cfg.SourcesFile, policy, logger)
	if err != nil {
		return err
	}
	defer closeSources()

	cache, err := geocode.LoadCache(fs, cfg.GeocodeTable)
	if err != nil {
		return fmt.Errorf("failed to load geocode table: %w", err)
	}
	var fallback geocode.Fallback
	if cfg.FallbackEnabled {
		arcgis := geocode.NewArcGISFallback(cfg.ArcGISURL, cfg.GeocodeTimeout)
		fallback = geocode.WithRetry(arcgis, policy, logger)
	}
	resolver := geocode.NewResolver(cache, fallback, logger)

	var recorder cleaner.FixRecorder = cleaner.NopRecorder{}
	if cfg.Postgres != nil {
		pg, err := connector.NewPostgresConnector(ctx, cfg.Postgres, logger)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.Validate(ctx); err != nil {
			return err
		}
		pgRecorder, err := cleaner.NewPostgresRecorder(ctx, pg.DB(), logger.Named("recorder"))
		if err != nil {
			return err
		}
		recorder = pgRecorder
	}

	var pusher pipeline.Pusher
	if cfg.Git.Enabled {
		pusher = publish.NewGitPusher(publish.GitOptions{
			RepoDir:     cfg.OutDir,
			Remote:      cfg.Git.Remote,
			Branch:      cfg.Git.Branch,
			AuthorName:  cfg.Git.AuthorName,
			AuthorEmail: cfg.Git.AuthorEmail,
			Token:       cfg.Git.Token,
		}, logger)
	}

	processor, err := pipeline.NewProcessor(pipeline.NewRunID(), sources, fs, recorder, resolver, pusher, pipeline.Options{
		OutDir:         cfg.OutDir,
		GeocodeTable:   cfg.GeocodeTable,
		WriteBack:      cfg.WriteBack,
		MetricsPushURL: cfg.PushgatewayURL,
		DisablePublish: dryRun,
	}, logger)
	if err != nil {
		return err
	}

	summary, err := processor.Run(ctx)
	if err != nil {
		return err
	}
	if summary.Failed() {
		logger.Error("Run finished with failed sources",
			zap.String("run_id", summary.RunID),
			zap.Int("failed_sources", len(summary.FailedSources)))
		return errRunFailed
	}
	return nil
}

// openSources opens every configured workbook behind the retry decorator.
// The returned func closes them.
func openSources(fs afero.Fs, path string, policy ioretry.Policy, logger *zap.Logger) ([]sheet.Source, func(), error) {
	configs, err := config.LoadSources(fs, path)
	if err != nil {
		return nil, nil, err
	}

	var workbooks []*sheet.Workbook
	closeAll := func() {
		for _, wb := range workbooks {
			if err := wb.Close(); err != nil {
				logger.Warn("Failed to close workbook", zap.Error(err))
			}
		}
	}

	sources := make([]sheet.Source, 0, len(configs))
	for _, sc := range configs {
		wb, err := sheet.OpenWorkbook(sc.Workbook)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to open source %s: %w", sc.Name, err)
		}
		workbooks = append(workbooks, wb)
		sources = append(sources, sheet.Source{
			Name:   sc.Name,
			Sheet:  sc.Sheet,
			BaseID: sc.BaseID,
			Table:  sheet.WithRetry(wb, policy, logger.Named(sc.Name)),
		})
	}
	return sources, closeAll, nil
}
