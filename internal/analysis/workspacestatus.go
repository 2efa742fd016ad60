// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"fmt"
	"time"

	"github.com/forgebuild/forge/lib/clock"
)

// BuildInfoCollection holds the stamped and redacted projections of a
// build-info key. Stamped embeds volatile data (invocation, wall
// clock); redacted omits it for reproducible builds.
type BuildInfoCollection struct {
	Stamped  []Artifact
	Redacted []Artifact
}

// WorkspaceStatusNode is the Skyframe node value looked up under
// SkyframeKey{Kind: "WORKSPACE_STATUS"} when no eager
// WorkspaceStatusProvider was supplied at construction.
type WorkspaceStatusNode struct {
	Stable      Artifact
	Volatile    Artifact
	Collections map[string]BuildInfoCollection
}

// WorkspaceStatusProvider is the eager alternative to a Skyframe
// lookup for workspace-status artifacts: when present, build-info
// reads never suspend.
type WorkspaceStatusProvider interface {
	// StableArtifact returns the artifact carrying build information
	// that is stable across invocations at the same source state.
	StableArtifact() Artifact

	// VolatileArtifact returns the artifact carrying information that
	// changes on every invocation (wall-clock time, invocation id).
	VolatileArtifact() Artifact

	// BuildInfo returns the stamped or redacted artifact list for key,
	// depending on stamp.
	BuildInfo(key string, stamp bool) []Artifact
}

// NewWorkspaceStatusProvider mints the stable and volatile artifacts
// through factory and returns the default eager provider. The
// volatile artifact's stamped payload (see StampedPayload) embeds the
// invocation ID and the clock's current time, mirroring the original
// "user, date, changelist" volatile build-info contents.
func NewWorkspaceStatusProvider(factory ArtifactFactory, owner ArtifactOwner, root Root, clk clock.Clock, invocationID fmt.Stringer) *DefaultWorkspaceStatusProvider {
	return &DefaultWorkspaceStatusProvider{
		stable:       factory.DerivedArtifact("build-info.txt", root, owner),
		volatile:     factory.DerivedArtifact("build-info-volatile.txt", root, owner),
		clock:        clk,
		invocationID: invocationID,
		collections:  make(map[string]BuildInfoCollection),
	}
}

// DefaultWorkspaceStatusProvider is the default in-process
// WorkspaceStatusProvider adapter.
type DefaultWorkspaceStatusProvider struct {
	stable       Artifact
	volatile     Artifact
	clock        clock.Clock
	invocationID fmt.Stringer
	collections  map[string]BuildInfoCollection
}

func (p *DefaultWorkspaceStatusProvider) StableArtifact() Artifact   { return p.stable }
func (p *DefaultWorkspaceStatusProvider) VolatileArtifact() Artifact { return p.volatile }

// StampedPayload renders the volatile build-info contents this
// provider would embed into the volatile artifact: the invocation ID
// and the current wall-clock time, read through the injected Clock
// rather than time.Now so tests can control it.
func (p *DefaultWorkspaceStatusProvider) StampedPayload() string {
	return fmt.Sprintf("invocation=%s build-timestamp=%s", p.invocationID, p.clock.Now().Format(time.RFC3339))
}

// RegisterCollection makes a build-info key resolvable through
// BuildInfo.
func (p *DefaultWorkspaceStatusProvider) RegisterCollection(key string, collection BuildInfoCollection) {
	p.collections[key] = collection
}

func (p *DefaultWorkspaceStatusProvider) BuildInfo(key string, stamp bool) []Artifact {
	collection, ok := p.collections[key]
	if !ok {
		return nil
	}
	if stamp {
		return collection.Stamped
	}
	return collection.Redacted
}
