// Package poll waits for a bulk or crawl job to complete. The library
// itself never polls or retries; this is the caller-side loop the CLI
// uses for "wait".
package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/byteowlz/diffbot/pkg/diffbot"
)

const (
	DefaultInterval    = 10 * time.Second
	DefaultMaxInterval = 2 * time.Minute
)

// DefaultStopOn are the codes after which a job will not reach completed
// without intervention.
var DefaultStopOn = []diffbot.JobStatusCode{
	diffbot.StatusMaxRoundsReached,
	diffbot.StatusMaxToCrawlReached,
	diffbot.StatusMaxToProcess,
	diffbot.StatusNoURLsAdded,
	diffbot.StatusSeedsFailed,
}

// StatusFetcher is satisfied by *diffbot.JobOperator.
type StatusFetcher interface {
	Name() string
	FetchJobStatus(ctx context.Context) (diffbot.JobStatus, error)
}

// Options tune Wait. Zero values take the package defaults.
type Options struct {
	// Interval is the first delay between status checks.
	Interval time.Duration
	// MaxInterval caps the exponential growth of the delay.
	MaxInterval time.Duration
	// MaxWait bounds the whole wait; zero waits until ctx is done.
	MaxWait time.Duration
	// StopOn lists status codes that end the wait with an error. Nil
	// means DefaultStopOn.
	StopOn []diffbot.JobStatusCode
	// OnStatus, when set, sees every status read.
	OnStatus func(diffbot.JobStatus)
	Logger   *slog.Logger
}

var errPending = errors.New("job not completed yet")

// Wait polls f until the job completes. Transport errors are retried with
// the same backoff; any other error, a StopOn status, ctx cancellation or
// MaxWait ends the wait. The last status read is always returned.
func Wait(ctx context.Context, f StatusFetcher, opts Options) (diffbot.JobStatus, error) {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxInterval < opts.Interval {
		opts.MaxInterval = max(DefaultMaxInterval, opts.Interval)
	}
	if opts.StopOn == nil {
		opts.StopOn = DefaultStopOn
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.Interval
	b.MaxInterval = opts.MaxInterval
	b.MaxElapsedTime = opts.MaxWait

	var last diffbot.JobStatus
	attempt := 0
	op := func() error {
		attempt++
		status, err := f.FetchJobStatus(ctx)
		if err != nil {
			if diffbot.IsKind(err, diffbot.KindTransport) {
				logger.Warn("status check failed", "job", f.Name(), "attempt", attempt, "error", err)
				return err
			}
			return backoff.Permanent(err)
		}
		last = status
		logger.Debug("job status", "job", f.Name(), "status", int(status.Status), "message", status.Message)
		if opts.OnStatus != nil {
			opts.OnStatus(status)
		}
		switch {
		case status.Completed():
			return nil
		case slices.Contains(opts.StopOn, status.Status):
			return backoff.Permanent(&diffbot.Error{
				Kind:    diffbot.KindJobStatus,
				Job:     f.Name(),
				Status:  status.Status,
				Message: status.Message,
			})
		}
		return errPending
	}

	err := backoff.Retry(op, backoff.WithContext(b, ctx))
	if err == nil {
		return last, nil
	}
	if errors.Is(err, errPending) {
		return last, &diffbot.Error{
			Kind:    diffbot.KindJobStatus,
			Job:     f.Name(),
			Status:  last.Status,
			Message: fmt.Sprintf("still %s after %s", last.Status, opts.MaxWait),
		}
	}
	return last, err
}
