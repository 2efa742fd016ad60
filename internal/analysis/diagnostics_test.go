// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func TestDiagnosticsDumpEncodeRoundTrip(t *testing.T) {
	dump := &DiagnosticsDump{
		InvocationID:    "00000000-0000-0000-0000-000000000000",
		TargetLabel:     "//x:y",
		TargetKind:      "cc_binary",
		OrphanArtifacts: []string{"out/foo.o\n<origin tracking disabled>"},
		ActionCensus: []ActionCensusEntry{
			{Mnemonic: "Compile", Class: "SpawnAction", Outputs: []string{"out/bar.o"}},
		},
	}

	encoded, err := dump.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var decoded DiagnosticsDump
	if err := cbor.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.TargetLabel != dump.TargetLabel {
		t.Errorf("TargetLabel = %q, want %q", decoded.TargetLabel, dump.TargetLabel)
	}
	if len(decoded.OrphanArtifacts) != 1 || decoded.OrphanArtifacts[0] != dump.OrphanArtifacts[0] {
		t.Errorf("OrphanArtifacts = %v, want %v", decoded.OrphanArtifacts, dump.OrphanArtifacts)
	}
	if len(decoded.ActionCensus) != 1 || decoded.ActionCensus[0].Mnemonic != "Compile" {
		t.Errorf("ActionCensus = %v", decoded.ActionCensus)
	}
}

// Seal's orphan-check failure path writes a CBOR dump to
// Config.DiagnosticsWriter when one is supplied.
func TestSealWritesDiagnosticsDumpOnOrphanFailure(t *testing.T) {
	var sink bytes.Buffer
	env, err := New(Config{
		Factory:              NewArtifactFactory(),
		Owner:                testOwner{label: "//x:y"},
		Invocation:           newTestInvocation(),
		AllowRegisterActions: true,
		DiagnosticsWriter:    &sink,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := env.GetDerivedArtifact("out/foo.o", binRoot); err != nil {
		t.Fatalf("GetDerivedArtifact: %v", err)
	}

	if err := env.Seal(Target{Label: "//x:y", Kind: "cc_binary"}); err == nil {
		t.Fatal("Seal should fail with an orphan artifact")
	}

	if sink.Len() == 0 {
		t.Fatal("Seal should have written a diagnostics dump")
	}

	var dump DiagnosticsDump
	if err := cbor.Unmarshal(sink.Bytes(), &dump); err != nil {
		t.Fatalf("Unmarshal dump: %v", err)
	}
	if dump.TargetLabel != "//x:y" {
		t.Errorf("TargetLabel = %q, want //x:y", dump.TargetLabel)
	}
	if len(dump.OrphanArtifacts) != 1 || !strings.Contains(dump.OrphanArtifacts[0], "out/foo.o") {
		t.Errorf("OrphanArtifacts = %v, want an entry mentioning out/foo.o", dump.OrphanArtifacts)
	}
}
