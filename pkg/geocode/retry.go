package geocode

import (
	"context"

	"go.uber.org/zap"

	"github.com/David-Botos/linelist-curation/pkg/ioretry"
)

// RetryingFallback retries transient failures of the wrapped fallback
type RetryingFallback struct {
	next   Fallback
	policy ioretry.Policy
	logger *zap.Logger
}

// WithRetry wraps a fallback in a retry policy
func WithRetry(next Fallback, policy ioretry.Policy, logger *zap.Logger) *RetryingFallback {
	return &RetryingFallback{next: next, policy: policy, logger: logger}
}

// Geocode implements Fallback
func (f *RetryingFallback) Geocode(ctx context.Context, query string) (Point, error) {
	var point Point
	err := ioretry.Do(ctx, f.policy, f.logger, "geocode "+query, func(ctx context.Context) error {
		var err error
		point, err = f.next.Geocode(ctx, query)
		return err
	})
	return point, err
}
