// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// TargetJob is one configured target to analyze: the target identity
// and the rule logic to run against a freshly constructed analysis
// environment.
type TargetJob struct {
	Target Target

	// NewConfig builds this job's Config. Called once per job, on the
	// goroutine that will own the resulting environment for its whole
	// lifetime.
	NewConfig func() Config

	// Analyze runs rule logic against env, registering artifacts and
	// actions. It must not call Seal; RunTargets does that.
	Analyze func(env *CachingAnalysisEnvironment) error
}

// RunTargets drives many CachingAnalysisEnvironment instances
// concurrently, bounded by maxConcurrency, demonstrating the
// "multiple instances in parallel across worker goroutines" resource
// model: each job gets its own environment, owned by one goroutine for
// its entire create → analyze → seal lifecycle. The first error any
// job returns (from New, Analyze or Seal) cancels the shared context,
// so jobs that have not started yet return the context error, while
// jobs already running finish; RunTargets returns that first error
// and discards any later ones (consistent with the core model's
// synchronous, single-owner semantics — this driver adds concurrency
// across targets, not within one).
func RunTargets(ctx context.Context, jobs []TargetJob, maxConcurrency int) error {
	group, groupCtx := errgroup.WithContext(ctx)
	if maxConcurrency > 0 {
		group.SetLimit(maxConcurrency)
	}

	for _, job := range jobs {
		job := job
		group.Go(func() error {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			default:
			}

			env, err := New(job.NewConfig())
			if err != nil {
				return err
			}
			if err := job.Analyze(env); err != nil {
				return err
			}
			return env.Seal(job.Target)
		})
	}

	return group.Wait()
}
