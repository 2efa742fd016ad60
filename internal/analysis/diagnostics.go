// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ActionCensusEntry summarizes one registered action for a
// diagnostics dump.
type ActionCensusEntry struct {
	Mnemonic string   `cbor:"mnemonic"`
	Class    string   `cbor:"class"`
	Outputs  []string `cbor:"outputs"`
}

// DiagnosticsDump is the CBOR-encoded structural snapshot emitted
// alongside a fatal orphan-artifact failure: every orphaned
// artifact's exec path and origin, plus a census of the actions that
// were registered, for offline tooling to cross-reference.
type DiagnosticsDump struct {
	InvocationID    string              `cbor:"invocation_id"`
	TargetLabel     string              `cbor:"target_label"`
	TargetKind      string              `cbor:"target_kind"`
	OrphanArtifacts []string            `cbor:"orphan_artifacts"`
	ActionCensus    []ActionCensusEntry `cbor:"action_census"`
}

// Encode serializes the dump to CBOR.
func (d *DiagnosticsDump) Encode() ([]byte, error) {
	data, err := cbor.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding diagnostics dump: %w", err)
	}
	return data, nil
}
