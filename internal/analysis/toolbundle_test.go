// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"archive/tar"
	"bytes"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func buildTestBundle(t *testing.T, files map[string][]byte) []byte {
	t.Helper()

	var tarBuffer bytes.Buffer
	tarWriter := tar.NewWriter(&tarBuffer)
	for name, content := range files {
		header := &tar.Header{
			Name: name,
			Mode: 0o755,
			Size: int64(len(content)),
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			t.Fatalf("WriteHeader(%s): %v", name, err)
		}
		if _, err := tarWriter.Write(content); err != nil {
			t.Fatalf("Write(%s): %v", name, err)
		}
	}
	if err := tarWriter.Close(); err != nil {
		t.Fatalf("tar Close: %v", err)
	}

	var zstdBuffer bytes.Buffer
	encoder, err := zstd.NewWriter(&zstdBuffer)
	if err != nil {
		t.Fatalf("zstd.NewWriter: %v", err)
	}
	if _, err := encoder.Write(tarBuffer.Bytes()); err != nil {
		t.Fatalf("zstd Write: %v", err)
	}
	if err := encoder.Close(); err != nil {
		t.Fatalf("zstd Close: %v", err)
	}

	return zstdBuffer.Bytes()
}

func TestLoadToolBundleResolve(t *testing.T) {
	archive := buildTestBundle(t, map[string][]byte{
		"tools/wrapper.sh": []byte("#!/bin/sh\necho hi\n"),
	})

	bundle, err := LoadToolBundle(bytes.NewReader(archive), Root{Name: "tool-bundle"})
	if err != nil {
		t.Fatalf("LoadToolBundle: %v", err)
	}

	entry, ok := bundle.Resolve("tools/wrapper.sh")
	if !ok {
		t.Fatal("Resolve should find tools/wrapper.sh")
	}
	if !entry.Executable {
		t.Error("entry should be marked executable (mode 0755)")
	}
	if entry.Digest == ([16]byte{}) {
		t.Error("entry should carry a non-zero digest")
	}

	if _, ok := bundle.Resolve("missing"); ok {
		t.Error("Resolve should not find a nonexistent entry")
	}
}

func TestGetEmbeddedToolArtifact(t *testing.T) {
	archive := buildTestBundle(t, map[string][]byte{
		"tools/wrapper.sh": []byte("#!/bin/sh\n"),
	})
	bundle, err := LoadToolBundle(bytes.NewReader(archive), Root{Name: "tool-bundle"})
	if err != nil {
		t.Fatalf("LoadToolBundle: %v", err)
	}

	env, err := New(Config{
		Factory:    NewArtifactFactory(),
		Owner:      testOwner{label: "//x:y"},
		Invocation: newTestInvocation(),
		ToolBundle: bundle,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	artifact, err := env.GetEmbeddedToolArtifact("tools/wrapper.sh")
	if err != nil {
		t.Fatalf("GetEmbeddedToolArtifact: %v", err)
	}
	if artifact.Root().Name != "tool-bundle" {
		t.Errorf("Root().Name = %q, want tool-bundle", artifact.Root().Name)
	}

	if _, err := env.GetEmbeddedToolArtifact("missing"); err == nil {
		t.Error("GetEmbeddedToolArtifact should fail for an unresolved name")
	}
}
