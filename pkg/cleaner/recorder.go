package cleaner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/linelist-curation/pkg/model"
)

// FixRecorder persists the audit trail of cleaning operations
type FixRecorder interface {
	RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) error
}

// NopRecorder discards operations
type NopRecorder struct{}

// RecordCleaningOperations implements FixRecorder
func (NopRecorder) RecordCleaningOperations(context.Context, []model.CleaningOperation) error {
	return nil
}

// PostgresRecorder writes operations to the cleaned_on_ingress tracking table
type PostgresRecorder struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPostgresRecorder creates a recorder and ensures the tracking table exists
func NewPostgresRecorder(ctx context.Context, db *sqlx.DB, logger *zap.Logger) (*PostgresRecorder, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	recorder := &PostgresRecorder{db: db, logger: logger}
	if err := recorder.setupCleaningTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to setup cleaning table: %w", err)
	}
	return recorder, nil
}

const createCleaningTableSQL = `
	CREATE TABLE IF NOT EXISTS public.cleaned_on_ingress (
		id SERIAL PRIMARY KEY,
		run_id TEXT NOT NULL,
		source_name TEXT NOT NULL,
		row_number INTEGER NOT NULL,
		record_id TEXT NOT NULL,
		column_name TEXT NOT NULL,
		original_value TEXT,
		new_value TEXT NOT NULL,
		cleaning_operation TEXT NOT NULL,
		cleaning_reason TEXT NOT NULL,
		cleaned_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	)
`

const insertCleaningOperationSQL = `
	INSERT INTO public.cleaned_on_ingress
	(run_id, source_name, row_number, record_id, column_name,
	 original_value, new_value, cleaning_operation, cleaning_reason)
	VALUES (:run_id, :source_name, :row_number, :record_id, :column_name,
	 :original_value, :new_value, :cleaning_operation, :cleaning_reason)
`

// setupCleaningTable ensures the cleaned_on_ingress tracking table exists
func (r *PostgresRecorder) setupCleaningTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, createCleaningTableSQL); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	r.logger.Info("Ensured cleaned_on_ingress table exists")
	return nil
}

// operationRow is the database shape of a CleaningOperation
type operationRow struct {
	RunID             string `db:"run_id"`
	SourceName        string `db:"source_name"`
	RowNumber         int    `db:"row_number"`
	RecordID          string `db:"record_id"`
	ColumnName        string `db:"column_name"`
	OriginalValue     string `db:"original_value"`
	NewValue          string `db:"new_value"`
	CleaningOperation string `db:"cleaning_operation"`
	CleaningReason    string `db:"cleaning_reason"`
}

// RecordCleaningOperations batch inserts cleaning operations in one transaction
func (r *PostgresRecorder) RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) (err error) {
	if len(operations) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	stmt, err := tx.PrepareNamedContext(ctx, insertCleaningOperationSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, op := range operations {
		if _, err = stmt.ExecContext(ctx, operationRow{
			RunID:             op.RunID,
			SourceName:        op.SourceName,
			RowNumber:         op.RowNumber,
			RecordID:          op.RecordID,
			ColumnName:        op.ColumnName,
			OriginalValue:     op.OriginalValue,
			NewValue:          op.NewValue,
			CleaningOperation: op.CleaningOperation,
			CleaningReason:    op.CleaningReason,
		}); err != nil {
			return fmt.Errorf("failed to insert cleaning operation: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Recorded cleaning operations", zap.Int("count", len(operations)))
	return nil
}
