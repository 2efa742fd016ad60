// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/forgebuild/forge/lib/clock"
)

// InvocationContext carries the identity and collaborators shared by
// every analysis environment and by the option processor within a
// single process boot: an invocation ID for diagnostic correlation, a
// structured logger, and the clock used everywhere time.Now would
// otherwise appear.
type InvocationContext struct {
	InvocationID uuid.UUID
	Logger       *slog.Logger
	Clock        clock.Clock
}

// NewInvocationContext mints a fresh invocation ID and returns an
// InvocationContext wrapping it with logger and clk. Called once per
// process boot, before any target analysis begins.
func NewInvocationContext(logger *slog.Logger, clk clock.Clock) *InvocationContext {
	return &InvocationContext{
		InvocationID: uuid.New(),
		Logger:       logger,
		Clock:        clk,
	}
}

// String implements fmt.Stringer so an InvocationContext's ID can be
// passed anywhere a fmt.Stringer invocation ID is expected (see
// NewWorkspaceStatusProvider).
func (c *InvocationContext) String() string { return c.InvocationID.String() }
