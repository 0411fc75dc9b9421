package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/linelist-curation/pkg/cleaner"
	"github.com/David-Botos/linelist-curation/pkg/geocode"
	"github.com/David-Botos/linelist-curation/pkg/ioretry"
	"github.com/David-Botos/linelist-curation/pkg/sheet"
)

// Action defines the recommended action after an error
type Action int

const (
	// ActionContinue indicates processing should continue despite the error
	ActionContinue Action = iota
	// ActionAbortSource indicates the current source should be dropped from the run
	ActionAbortSource
	// ActionAbortRun indicates the entire run should be aborted
	ActionAbortRun
)

// String returns a string representation of the action
func (a Action) String() string {
	switch a {
	case ActionContinue:
		return "Continue"
	case ActionAbortSource:
		return "AbortSource"
	case ActionAbortRun:
		return "AbortRun"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// ErrorCategory defines categories of errors during a run
type ErrorCategory int

const (
	ErrorCategoryValidation ErrorCategory = iota
	ErrorCategoryGeocodeFallback
	ErrorCategoryMonotonicity
	ErrorCategoryTransientIO
	ErrorCategorySchemaDrift
	ErrorCategoryFatal
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryValidation:
		return "Validation"
	case ErrorCategoryGeocodeFallback:
		return "GeocodeFallback"
	case ErrorCategoryMonotonicity:
		return "Monotonicity"
	case ErrorCategoryTransientIO:
		return "TransientIO"
	case ErrorCategorySchemaDrift:
		return "SchemaDrift"
	case ErrorCategoryFatal:
		return "Fatal"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// ErrorRecord represents a single error during a run
type ErrorRecord struct {
	Category   ErrorCategory
	Source     string
	Row        int
	RecordID   string
	ColumnName string
	Value      string
	Error      error
	Message    string // Derived from Error but stored for serialization
	Timestamp  time.Time
}

// NewErrorRecord creates a new error record with current timestamp
func NewErrorRecord(err error, category ErrorCategory) ErrorRecord {
	record := ErrorRecord{
		Category:  category,
		Error:     err,
		Timestamp: time.Now(),
	}
	if err != nil {
		record.Message = err.Error()
	}
	return record
}

// WithSource adds source information to the error record
func (r ErrorRecord) WithSource(source string) ErrorRecord {
	r.Source = source
	return r
}

// WithRow adds row information to the error record
func (r ErrorRecord) WithRow(row int, recordID string) ErrorRecord {
	r.Row = row
	r.RecordID = recordID
	return r
}

// WithColumn adds column information to the error record
func (r ErrorRecord) WithColumn(columnName, value string) ErrorRecord {
	r.ColumnName = columnName
	r.Value = value
	return r
}

// String returns a formatted error message
func (r ErrorRecord) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] ", r.Category))

	if r.Source != "" {
		sb.WriteString(fmt.Sprintf("Source: %s ", r.Source))
	}
	if r.RecordID != "" {
		sb.WriteString(fmt.Sprintf("Record: %s (row %d) ", r.RecordID, r.Row))
	}
	if r.ColumnName != "" {
		sb.WriteString(fmt.Sprintf("Column: %s Value: %q ", r.ColumnName, r.Value))
	}

	if r.Error != nil {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Error.Error()))
	} else if r.Message != "" {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Message))
	}
	return sb.String()
}

// ErrorHandler counts run errors and decides how the run proceeds
type ErrorHandler struct {
	logger       *zap.Logger
	errorCounts  map[ErrorCategory]int
	sampleErrors map[ErrorCategory][]ErrorRecord
	sourceErrors map[string]int
	mu           sync.Mutex
	maxSamples   int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger,
		errorCounts:  make(map[ErrorCategory]int),
		sampleErrors: make(map[ErrorCategory][]ErrorRecord),
		sourceErrors: make(map[string]int),
		maxSamples:   5, // Store up to 5 sample errors per category
	}
}

// CategorizeError maps a source-level failure to a category. Anything not
// recognised is fatal.
func CategorizeError(err error) ErrorCategory {
	var (
		schemaErr *sheet.SchemaError
		exhausted *ioretry.ExhaustedError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return ErrorCategoryFatal
	case errors.Is(err, cleaner.ErrRecordingFailed):
		return ErrorCategoryTransientIO
	case errors.As(err, &schemaErr), errors.Is(err, sheet.ErrNoData):
		return ErrorCategorySchemaDrift
	case errors.Is(err, geocode.ErrNoMatch):
		return ErrorCategoryGeocodeFallback
	case errors.As(err, &exhausted), ioretry.IsRetryableError(err):
		return ErrorCategoryTransientIO
	default:
		return ErrorCategoryFatal
	}
}

// HandleError records an error and returns the action to take
func (eh *ErrorHandler) HandleError(record ErrorRecord) Action {
	eh.RecordError(record)

	switch record.Category {
	case ErrorCategoryValidation, ErrorCategoryGeocodeFallback:
		return ActionContinue

	case ErrorCategoryMonotonicity:
		if eh.logger != nil {
			eh.logger.Error("Monotonicity violated",
				zap.String("error", record.Message))
		}
		return ActionContinue

	case ErrorCategoryTransientIO, ErrorCategorySchemaDrift:
		if eh.logger != nil {
			eh.logger.Warn("Aborting source",
				zap.String("source", record.Source),
				zap.String("category", record.Category.String()),
				zap.String("error", record.Message))
		}
		return ActionAbortSource

	case ErrorCategoryFatal:
		if eh.logger != nil {
			eh.logger.Error("Fatal error during run",
				zap.String("source", record.Source),
				zap.String("error", record.Message))
		}
		return ActionAbortRun

	default:
		return ActionContinue
	}
}

// RecordError saves an error occurrence
func (eh *ErrorHandler) RecordError(record ErrorRecord) {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	eh.errorCounts[record.Category]++

	samples := eh.sampleErrors[record.Category]
	if len(samples) < eh.maxSamples {
		eh.sampleErrors[record.Category] = append(samples, record)
	}

	if record.Source != "" {
		eh.sourceErrors[record.Source]++
	}

	if eh.logger != nil {
		logLevel := zap.DebugLevel
		switch record.Category {
		case ErrorCategoryTransientIO, ErrorCategorySchemaDrift:
			logLevel = zap.WarnLevel
		case ErrorCategoryMonotonicity, ErrorCategoryFatal:
			logLevel = zap.ErrorLevel
		}

		eh.logger.Log(logLevel, "Run error",
			zap.String("category", record.Category.String()),
			zap.String("source", record.Source),
			zap.String("recordId", record.RecordID),
			zap.String("column", record.ColumnName),
			zap.String("error", record.Message))
	}
}

// GetErrorSummary returns the error counts by category
func (eh *ErrorHandler) GetErrorSummary() map[ErrorCategory]int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	summary := make(map[ErrorCategory]int, len(eh.errorCounts))
	for category, count := range eh.errorCounts {
		summary[category] = count
	}
	return summary
}

// GetErrorSamples returns sample errors for each category
func (eh *ErrorHandler) GetErrorSamples() map[ErrorCategory][]ErrorRecord {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	samples := make(map[ErrorCategory][]ErrorRecord, len(eh.sampleErrors))
	for category, records := range eh.sampleErrors {
		categorySamples := make([]ErrorRecord, len(records))
		copy(categorySamples, records)
		samples[category] = categorySamples
	}
	return samples
}

// GetSourceErrorCounts returns error counts by source
func (eh *ErrorHandler) GetSourceErrorCounts() map[string]int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	counts := make(map[string]int, len(eh.sourceErrors))
	for source, count := range eh.sourceErrors {
		counts[source] = count
	}
	return counts
}
