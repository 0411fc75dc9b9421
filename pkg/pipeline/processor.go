// Package pipeline runs one curation batch over every configured source.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/David-Botos/linelist-curation/pkg/cleaner"
	"github.com/David-Botos/linelist-curation/pkg/expand"
	"github.com/David-Botos/linelist-curation/pkg/geocode"
	"github.com/David-Botos/linelist-curation/pkg/model"
	"github.com/David-Botos/linelist-curation/pkg/publish"
	"github.com/David-Botos/linelist-curation/pkg/sheet"
	"github.com/David-Botos/linelist-curation/pkg/validator"
)

// Defaults for Options
const (
	DefaultReadRange  = "A:AZ"
	DefaultTopMisses  = 10
	GeocodeMissesFile = "geocode_misses.csv"
)

// Pusher publishes written files to a remote
type Pusher interface {
	Push(ctx context.Context, paths []string) error
}

// Options configures a Processor
type Options struct {
	OutDir         string // Root of the published output
	GeocodeTable   string // Master geocode TSV, new entries are appended
	ReadRange      string // Cells read from every source tab
	CountField     string // Column holding the aggregated case count
	WriteBack      bool   // Push fixes back to the source tables
	TopMisses      int    // Number of geocode misses logged at the end of the run
	MetricsPushURL string // Optional Pushgateway
	DisablePublish bool   // Stop after the guard check
}

// Processor runs the batch. It is not safe for concurrent use.
type Processor struct {
	runID    string
	sources  []sheet.Source
	fs       afero.Fs
	opts     Options
	cleaner  *cleaner.DataCleaner
	resolver *geocode.Resolver
	pusher   Pusher
	errors   *ErrorHandler
	metrics  *RunMetrics
	logger   *zap.Logger
}

// NewProcessor creates a processor for one run. A nil recorder records
// nothing and a nil pusher leaves the output uncommitted.
func NewProcessor(
	runID string,
	sources []sheet.Source,
	fs afero.Fs,
	recorder cleaner.FixRecorder,
	resolver *geocode.Resolver,
	pusher Pusher,
	opts Options,
	logger *zap.Logger,
) (*Processor, error) {
	if resolver == nil {
		return nil, errors.New("geocode resolver cannot be nil")
	}
	if opts.ReadRange == "" {
		opts.ReadRange = DefaultReadRange
	}
	if opts.CountField == "" {
		opts.CountField = model.FieldAggregatedNumCases
	}
	if opts.TopMisses <= 0 {
		opts.TopMisses = DefaultTopMisses
	}

	dc, err := cleaner.NewDataCleaner(validator.NewEngine(validator.DefaultSpecs), recorder, runID, logger.Named("cleaner"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cleaner: %w", err)
	}

	return &Processor{
		runID:    runID,
		sources:  sources,
		fs:       fs,
		opts:     opts,
		cleaner:  dc,
		resolver: resolver,
		pusher:   pusher,
		errors:   NewErrorHandler(logger.Named("errors")),
		metrics:  NewRunMetrics(logger.Named("metrics")),
		logger:   logger.Named("pipeline"),
	}, nil
}

// Metrics returns the run metrics
func (p *Processor) Metrics() *RunMetrics {
	return p.metrics
}

// Errors returns the run error handler
func (p *Processor) Errors() *ErrorHandler {
	return p.errors
}

// Run processes every source, merges the clean records, geocodes them and
// publishes the result. A failed source skips publication. The returned
// error is set only when the run had to abort.
func (p *Processor) Run(ctx context.Context) (*RunSummary, error) {
	summary := NewRunSummary(p.runID)
	defer p.finish(ctx, summary)

	p.logger.Info("Starting run",
		zap.String("runId", p.runID),
		zap.Int("sources", len(p.sources)))

	cleanSets := make([]*model.Dataset, 0, len(p.sources))
	for _, src := range p.sources {
		result, clean, err := p.processSource(ctx, src)
		if err != nil {
			action := p.handle(summary, NewErrorRecord(err, CategorizeError(err)).WithSource(src.Name), result)
			result.Complete(false)
			summary.AddSourceResult(result)
			p.metrics.RecordSource(result)
			if action == ActionAbortRun {
				return summary, fmt.Errorf("run aborted on source %s: %w", src.Name, err)
			}
			continue
		}
		result.Complete(true)
		summary.AddSourceResult(result)
		summary.ErrorCategories[ErrorCategoryValidation] += result.Unresolved
		p.metrics.RecordSource(result)
		cleanSets = append(cleanSets, clean)
	}

	merged, err := publish.Merge(cleanSets)
	if err != nil {
		p.handle(summary, NewErrorRecord(err, ErrorCategoryFatal), nil)
		return summary, fmt.Errorf("failed to merge sources: %w", err)
	}

	if err := p.geocode(ctx, merged, summary); err != nil {
		p.handle(summary, NewErrorRecord(err, ErrorCategoryFatal), nil)
		return summary, err
	}

	guard := publish.NewGuard(p.fs, p.opts.OutDir, p.logger)
	report, err := guard.Check(merged.Len())
	if err != nil {
		p.handle(summary, NewErrorRecord(err, ErrorCategoryFatal), nil)
		return summary, fmt.Errorf("failed to check previous snapshot: %w", err)
	}
	summary.Guard = report
	if report.Shrunk {
		err := fmt.Errorf("dataset shrank from %d to %d rows", report.Old, report.New)
		p.handle(summary, NewErrorRecord(err, ErrorCategoryMonotonicity), nil)
	}

	if summary.Failed() {
		p.logger.Warn("Skipping publication, some sources failed",
			zap.Int("failedSources", len(summary.FailedSources)))
		return summary, nil
	}
	if p.opts.DisablePublish {
		p.logger.Info("Publication disabled")
		return summary, nil
	}

	pub, err := publish.NewPublisher(p.fs, p.opts.OutDir, p.logger).Publish(merged, report)
	if err != nil {
		p.handle(summary, NewErrorRecord(err, ErrorCategoryFatal), nil)
		return summary, fmt.Errorf("failed to publish: %w", err)
	}
	summary.Published = true
	summary.PublishedRows = merged.Len()
	summary.Publication = pub

	if p.pusher != nil {
		paths := append(pub.CommitPaths(), summary.ErrorReports...)
		if summary.NewGeocodes > 0 && insideDir(p.opts.OutDir, p.opts.GeocodeTable) {
			paths = append(paths, p.opts.GeocodeTable)
		}
		if err := p.pusher.Push(ctx, paths); err != nil {
			p.handle(summary, NewErrorRecord(err, ErrorCategoryFatal), nil)
			return summary, fmt.Errorf("failed to push output: %w", err)
		}
		summary.Pushed = true
	}
	return summary, nil
}

func (p *Processor) processSource(ctx context.Context, src sheet.Source) (*SourceResult, *model.Dataset, error) {
	result := NewSourceResult(p.runID, src.Name)
	p.logger.Info("Processing source", zap.String("source", src.Name), zap.String("sheet", src.Sheet))

	ds, schema, err := sheet.ReadDataset(ctx, src, p.opts.ReadRange, p.logger)
	if err != nil {
		return result, nil, err
	}
	result.RowsRead = ds.Len()

	ds.Records = expand.Expand(ds.Records, p.opts.CountField)
	expand.AssignIDs(ds.Records, src.BaseID)
	result.RecordsExpanded = ds.Len()

	cleaned, err := p.cleaner.Clean(ctx, ds)
	if err != nil {
		return result, nil, err
	}
	result.Fixes = len(cleaned.Fixes)
	result.Unresolved = len(cleaned.Unresolved)
	result.CleanRecords = cleaned.Clean.Len()
	result.RejectedRecords = len(cleaned.Rejected)
	for _, v := range cleaned.Unresolved {
		record := NewErrorRecord(fmt.Errorf("invalid %s value", v.Type), ErrorCategoryValidation).
			WithSource(src.Name).
			WithRow(v.Row, v.ID).
			WithColumn(v.Field, v.Value)
		p.errors.HandleError(record)
		p.metrics.RecordError(record.Category)
	}

	if p.opts.WriteBack {
		wb, err := sheet.WriteFixes(ctx, src, schema, cleaned.RuleFixes, p.logger)
		if err != nil {
			return result, nil, err
		}
		result.FixesWritten = wb.Written
		result.WritesSkipped = len(wb.Skipped)
	}

	reportPath, err := publish.WriteErrorReport(p.fs, p.opts.OutDir, src.Name, cleaned.Rejected, cleaned.Unresolved)
	if err != nil {
		return result, nil, err
	}
	result.ErrorReport = reportPath

	return result, cleaned.Clean, nil
}

func (p *Processor) geocode(ctx context.Context, merged *model.Dataset, summary *RunSummary) error {
	summary.Geocoded = p.resolver.Enrich(ctx, merged)
	misses := p.resolver.Misses()
	summary.GeocodeMisses = misses.Len()
	summary.FallbackCalls = p.resolver.FallbackCalls()

	p.logger.Info("Geocode matched",
		zap.Int("matched", summary.Geocoded),
		zap.Int("records", merged.Len()),
		zap.Int("fallbackCalls", summary.FallbackCalls))
	p.resolver.LogTopMisses(p.opts.TopMisses)

	for _, miss := range misses.Top(0) {
		record := NewErrorRecord(fmt.Errorf("no geocode for %q: %w", miss.Triple.Query(), geocode.ErrNoMatch), ErrorCategoryGeocodeFallback).
			WithColumn(model.FieldCity, miss.Triple.Key())
		p.errors.HandleError(record)
		p.metrics.RecordError(record.Category)
		summary.AddError(record.Category)
	}

	if err := p.fs.MkdirAll(p.opts.OutDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", p.opts.OutDir, err)
	}
	missPath := filepath.Join(p.opts.OutDir, GeocodeMissesFile)
	if err := misses.WriteCSV(p.fs, missPath); err != nil {
		return err
	}
	p.logger.Info("Wrote geocode misses", zap.String("path", missPath))

	if p.opts.GeocodeTable == "" {
		return nil
	}
	n, err := p.resolver.Cache().Append(p.fs, p.opts.GeocodeTable)
	if err != nil {
		return err
	}
	summary.NewGeocodes = n
	if n > 0 {
		p.logger.Info("Appended new geocodes", zap.String("path", p.opts.GeocodeTable), zap.Int("count", n))
	}
	return nil
}

func (p *Processor) handle(summary *RunSummary, record ErrorRecord, result *SourceResult) Action {
	action := p.errors.HandleError(record)
	summary.AddError(record.Category)
	p.metrics.RecordError(record.Category)
	if result != nil {
		result.AddError(record)
	}
	return action
}

func (p *Processor) finish(ctx context.Context, summary *RunSummary) {
	summary.Complete()
	p.metrics.RecordRun(summary)
	if p.opts.MetricsPushURL == "" {
		return
	}
	if err := p.metrics.Push(ctx, p.opts.MetricsPushURL, p.runID); err != nil {
		p.logger.Warn("Failed to push metrics", zap.Error(err))
	}
}

func insideDir(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
