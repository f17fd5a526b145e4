// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package run

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency = 10
	DefaultTimeout     = 10 * time.Minute
)

// Fanout dispatches one unit of work per target in parallel, bounded by a
// concurrency limit, and waits for every launched unit to report back. A
// failing target never interrupts its siblings; the caller inspects the
// returned errors instead.
type Fanout struct {
	concurrency int
	timeout     time.Duration
}

// Option configures a Fanout.
type Option func(*Fanout)

// WithConcurrency sets the maximum number of parallel workers.
func WithConcurrency(n int) Option {
	return func(f *Fanout) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithTimeout sets the per-target timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fanout) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// NewFanout creates a Fanout with the given options.
func NewFanout(opts ...Option) *Fanout {
	f := &Fanout{
		concurrency: DefaultConcurrency,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Do runs fn once per target with a per-target timeout context. Errors are
// returned in the same order as the targets slice, nil for targets that
// succeeded. Do only returns once every worker has finished.
func (f *Fanout) Do(ctx context.Context, targets []string, fn func(ctx context.Context, target string) error) []error {
	errs := make([]error, len(targets))
	if len(targets) == 0 {
		return errs
	}

	g := &errgroup.Group{}
	g.SetLimit(f.concurrency)

	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			targetCtx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()

			errs[i] = fn(targetCtx, target)
			return nil
		})
	}

	// Worker errors are collected in errs, never returned through the group.
	_ = g.Wait()
	return errs
}
