package sheet

import (
	"context"

	"go.uber.org/zap"

	"github.com/David-Botos/linelist-curation/pkg/ioretry"
)

// RetryingTable retries transient failures of the wrapped table
type RetryingTable struct {
	next   Table
	policy ioretry.Policy
	logger *zap.Logger
}

// WithRetry wraps a table in a retry policy
func WithRetry(next Table, policy ioretry.Policy, logger *zap.Logger) *RetryingTable {
	return &RetryingTable{next: next, policy: policy, logger: logger}
}

// ReadValues implements Table
func (t *RetryingTable) ReadValues(ctx context.Context, rng string) ([][]string, error) {
	var values [][]string
	err := ioretry.Do(ctx, t.policy, t.logger, "read "+rng, func(ctx context.Context) error {
		var err error
		values, err = t.next.ReadValues(ctx, rng)
		return err
	})
	return values, err
}

// WriteValues implements Table
func (t *RetryingTable) WriteValues(ctx context.Context, rng string, values [][]string) error {
	return ioretry.Do(ctx, t.policy, t.logger, "write "+rng, func(ctx context.Context) error {
		return t.next.WriteValues(ctx, rng, values)
	})
}
