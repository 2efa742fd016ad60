// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"archive/tar"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

// ToolBundleEntry describes one helper binary embedded in an
// EmbeddedToolBundle. It models the contract a ShBinaryRule-style
// producer must satisfy: a single executable output per entry,
// addressed by root-relative name.
type ToolBundleEntry struct {
	Name       string
	Executable bool
	Digest     [16]byte
}

// EmbeddedToolBundle is a content-addressed, compressed archive of
// helper binaries shipped alongside the server binary. It is loaded
// once per process and shared read-only across every analysis
// environment.
type EmbeddedToolBundle struct {
	entries        map[string]ToolBundleEntry
	extractionRoot Root
}

// LoadToolBundle decompresses and indexes a zstd-compressed tar
// stream. extractionRoot is the Root that minted artifacts will be
// rooted at when resolved through GetEmbeddedToolArtifact.
func LoadToolBundle(r io.Reader, extractionRoot Root) (*EmbeddedToolBundle, error) {
	zstdReader, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening tool bundle stream: %w", err)
	}
	defer zstdReader.Close()

	entries := make(map[string]ToolBundleEntry)
	tarReader := tar.NewReader(zstdReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tool bundle entry: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		hasher := blake3.New()
		if _, err := io.Copy(hasher, tarReader); err != nil {
			return nil, fmt.Errorf("hashing tool bundle entry %s: %w", header.Name, err)
		}
		var digest [16]byte
		copy(digest[:], hasher.Sum(nil))

		entries[header.Name] = ToolBundleEntry{
			Name:       header.Name,
			Executable: header.Mode&0o111 != 0,
			Digest:     digest,
		}
	}

	return &EmbeddedToolBundle{entries: entries, extractionRoot: extractionRoot}, nil
}

// Resolve looks up a bundle entry by root-relative name.
func (b *EmbeddedToolBundle) Resolve(name string) (ToolBundleEntry, bool) {
	entry, ok := b.entries[name]
	return entry, ok
}

// ExtractionRoot is the Root that artifacts minted against this
// bundle are rooted at.
func (b *EmbeddedToolBundle) ExtractionRoot() Root { return b.extractionRoot }
