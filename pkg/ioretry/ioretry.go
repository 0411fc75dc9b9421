// Package ioretry holds the retry policy applied at the spreadsheet and
// geocoder boundaries.
package ioretry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Policy bounds the retries of one I/O call
type Policy struct {
	MaxRetries uint64        // Retries after the first attempt
	BaseDelay  time.Duration // First backoff, doubled on every retry
	MaxDelay   time.Duration // Cap on a single backoff, 0 for none
}

// DefaultPolicy retries four times starting at ten seconds
var DefaultPolicy = Policy{MaxRetries: 4, BaseDelay: 10 * time.Second, MaxDelay: time.Minute}

func (p Policy) backoff() retry.Backoff {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	b := retry.NewExponential(base)
	if p.MaxDelay > 0 {
		b = retry.WithCappedDuration(p.MaxDelay, b)
	}
	return retry.WithMaxRetries(p.MaxRetries, b)
}

// TransientError marks a failure the remote side may not repeat
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a TransientError
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsRetryableError reports whether err is a transient failure: a
// TransientError, a network timeout, a reset or refused connection, or a
// deadline. Other errors, whatever their message, are final.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED)
}

// ExhaustedError is returned when a retryable failure outlives the policy
type ExhaustedError struct {
	Op  string
	Err error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: retries exhausted: %v", e.Op, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do runs fn under the policy. Only retryable errors are retried; when the
// last attempt still fails that way the error is an *ExhaustedError.
func Do(ctx context.Context, p Policy, logger *zap.Logger, op string, fn func(ctx context.Context) error) error {
	attempt := 0
	var lastErr error
	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsRetryableError(err) {
			return err
		}
		lastErr = err
		if logger != nil {
			logger.Warn("Retrying after transient error",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return retry.RetryableError(err)
	})
	if err != nil && lastErr != nil && errors.Is(err, lastErr) {
		return &ExhaustedError{Op: op, Err: err}
	}
	return err
}
