package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/David-Botos/linelist-curation/pkg/publish"
)

// NewRunID returns a unique identifier for one batch run
func NewRunID() string {
	return uuid.New().String()
}

// SourceResult represents the result of processing one source
type SourceResult struct {
	RunID           string
	Source          string
	Success         bool
	RowsRead        int
	RecordsExpanded int
	CleanRecords    int
	RejectedRecords int
	Fixes           int
	Unresolved      int
	FixesWritten    int
	WritesSkipped   int
	ErrorReport     string
	Errors          []ErrorRecord
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}

// NewSourceResult initializes a result for a source
func NewSourceResult(runID, source string) *SourceResult {
	return &SourceResult{
		RunID:     runID,
		Source:    source,
		StartTime: time.Now(),
		Errors:    make([]ErrorRecord, 0),
	}
}

// Complete marks the source as done and calculates duration
func (r *SourceResult) Complete(success bool) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = success
}

// AddError adds an error to the result
func (r *SourceResult) AddError(err ErrorRecord) {
	r.Errors = append(r.Errors, err)
}

// HasErrors checks if any errors occurred
func (r *SourceResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// RunSummary represents the final summary of a run
type RunSummary struct {
	RunID             string
	Sources           []string
	SuccessfulSources []string
	FailedSources     map[string]error
	ErrorReports      []string
	TotalRecords      int
	TotalFixes        int
	TotalUnresolved   int
	Published         bool
	PublishedRows     int
	Geocoded          int
	GeocodeMisses     int
	FallbackCalls     int
	NewGeocodes       int
	Guard             publish.GuardReport
	Publication       publish.Publication
	Pushed            bool
	ErrorCategories   map[ErrorCategory]int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}

// NewRunSummary initializes a new run summary
func NewRunSummary(runID string) *RunSummary {
	return &RunSummary{
		RunID:           runID,
		Sources:         make([]string, 0),
		FailedSources:   make(map[string]error),
		StartTime:       time.Now(),
		ErrorCategories: make(map[ErrorCategory]int),
	}
}

// AddSourceResult incorporates a source result into the summary
func (s *RunSummary) AddSourceResult(result *SourceResult) {
	s.Sources = append(s.Sources, result.Source)
	if result.Success {
		s.SuccessfulSources = append(s.SuccessfulSources, result.Source)
		s.TotalRecords += result.CleanRecords
		if result.ErrorReport != "" {
			s.ErrorReports = append(s.ErrorReports, result.ErrorReport)
		}
	} else if len(result.Errors) > 0 {
		s.FailedSources[result.Source] = fmt.Errorf("%s", result.Errors[len(result.Errors)-1].Message)
	} else {
		s.FailedSources[result.Source] = fmt.Errorf("unknown error")
	}
	s.TotalFixes += result.Fixes
	s.TotalUnresolved += result.Unresolved
}

// AddError counts an error by category
func (s *RunSummary) AddError(category ErrorCategory) {
	s.ErrorCategories[category]++
}

// Failed reports whether any source failed
func (s *RunSummary) Failed() bool {
	return len(s.FailedSources) > 0
}

// Complete marks the run as complete
func (s *RunSummary) Complete() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}
