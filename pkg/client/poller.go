package client

import (
	"context"
	"fmt"
	"time"

	"github.com/axiomflow/api/internal/model"
)

const (
	// DefaultPollInterval is the fixed delay between status polls.
	DefaultPollInterval = 800 * time.Millisecond

	// DefaultMaxPollAttempts bounds a polling run. At the default interval
	// this is a little over three minutes.
	DefaultMaxPollAttempts = 240
)

// ErrPollTimeout is returned when the attempt bound is exhausted before the
// job reaches a terminal stage.
var ErrPollTimeout = fmt.Errorf("polling attempts exhausted")

// PollOptions tunes PollJob. The zero value uses the defaults.
type PollOptions struct {
	Interval    time.Duration
	MaxAttempts int

	// OnUpdate is invoked with every successfully fetched snapshot,
	// terminal or not.
	OnUpdate func(*model.Job)
}

// PollJob polls a job at a fixed interval until it reaches a terminal stage
// (success, failed or canceled), the attempt bound is exhausted, or ctx is
// done. Transient fetch errors are swallowed; each failed fetch still counts
// as an attempt, so a dead API cannot spin the poller forever.
//
// The returned job is the last terminal snapshot. ErrPollTimeout is returned
// with a nil job when the bound runs out first.
func (c *Client) PollJob(ctx context.Context, jobID string, opts *PollOptions) (*model.Job, error) {
	interval := DefaultPollInterval
	maxAttempts := DefaultMaxPollAttempts
	var onUpdate func(*model.Job)

	if opts != nil {
		if opts.Interval > 0 {
			interval = opts.Interval
		}
		if opts.MaxAttempts > 0 {
			maxAttempts = opts.MaxAttempts
		}
		onUpdate = opts.OnUpdate
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(interval):
			}
		}

		job, err := c.GetJob(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		if onUpdate != nil {
			onUpdate(job)
		}

		if job.Stage.Terminal() {
			return job, nil
		}
	}

	return nil, ErrPollTimeout
}
