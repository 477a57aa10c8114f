// Package retry drives candidate URLs through bounded attempts.
package retry

import (
	"context"
	"time"

	"github.com/wonny/sgxsync/internal/contracts"
	"github.com/wonny/sgxsync/pkg/logger"
)

// Attempter makes one download attempt
type Attempter interface {
	Attempt(ctx context.Context, url string) contracts.Outcome
}

// SleepFunc pauses cooperatively; it returns early with ctx's error
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options controls the retry budget and backoff
type Options struct {
	MaxAttempts int           // attempts per candidate URL
	Delay       time.Duration // first backoff
	MaxDelay    time.Duration // backoff cap
}

// Observer sees every state a candidate enters
type Observer func(url string, state State)

// Controller walks candidates in confidence order.
// It holds no per-target state, so one instance serves concurrent targets.
type Controller struct {
	attempter Attempter
	opts      Options
	sleep     SleepFunc
	observe   Observer
	logger    *logger.Logger
}

// New creates a controller
func New(attempter Attempter, opts Options, log *logger.Logger) *Controller {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.MaxDelay < opts.Delay {
		opts.MaxDelay = opts.Delay
	}
	return &Controller{
		attempter: attempter,
		opts:      opts,
		sleep:     Sleep,
		logger:    log.WithField("module", "retry"),
	}
}

// WithSleep replaces the backoff pause
func (c *Controller) WithSleep(fn SleepFunc) *Controller {
	c.sleep = fn
	return c
}

// WithObserver installs a state observer
func (c *Controller) WithObserver(fn Observer) *Controller {
	c.observe = fn
	return c
}

// Fetch returns the first Success across candidates.
//
// When nothing succeeds the result is NotFound if every candidate answered
// NotFound, otherwise ExhaustedRetries carrying the last transient outcome.
// Attempts on the returned outcome counts every attempt made.
func (c *Controller) Fetch(ctx context.Context, target contracts.DownloadTarget, candidates []contracts.ResolvedURL) contracts.Outcome {
	log := c.logger.WithField("target", target.String())

	if len(candidates) == 0 {
		return contracts.NotFound("", "no candidate URLs")
	}

	total := 0
	var last, lastTransient *contracts.Outcome

	for _, cand := range candidates {
		var state State
		enter := func(s State) {
			state = s
			if c.observe != nil {
				c.observe(cand.URL, s)
			}
		}

		enter(StatePending)
		attempts := 0
		delay := c.opts.Delay

		for !state.Terminal() {
			if err := ctx.Err(); err != nil {
				return c.cancelled(cand.URL, err, total)
			}

			enter(StateAttempting)
			out := c.attempter.Attempt(ctx, cand.URL)
			attempts++
			total++

			enter(next(out.Status, attempts < c.opts.MaxAttempts))
			last = &out
			if out.Status != contracts.StatusNotFound {
				lastTransient = &out
			}

			switch state {
			case StateSucceeded:
				out.Attempts = total
				return out

			case StateRetrying:
				log.WithFields(map[string]interface{}{
					"url":     cand.URL,
					"attempt": attempts,
					"delay":   delay.String(),
					"reason":  out.Describe(),
				}).Warn("retry scheduled")

				if err := c.sleep(ctx, delay); err != nil {
					return c.cancelled(cand.URL, err, total)
				}
				delay = c.backoff(delay)

			case StateExhausted:
				log.WithFields(map[string]interface{}{
					"url":      cand.URL,
					"attempts": attempts,
					"reason":   out.Describe(),
				}).Debug("Candidate exhausted")
			}
		}
	}

	if lastTransient == nil {
		nf := *last
		nf.Attempts = total
		return nf
	}
	return contracts.Exhausted(*lastTransient, total)
}

func (c *Controller) backoff(d time.Duration) time.Duration {
	d *= 2
	if d > c.opts.MaxDelay {
		d = c.opts.MaxDelay
	}
	return d
}

func (c *Controller) cancelled(url string, err error, total int) contracts.Outcome {
	return contracts.Exhausted(contracts.TransportError(url, err.Error()), total)
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
