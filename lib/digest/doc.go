// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest provides BLAKE3 content hashing of files.
//
// The analysis environment does not call this package: analysis-phase
// artifacts have no file content yet, so the artifact factory and the
// embedded tool bundle hash with BLAKE3 directly. This package hashes
// the bytes of a file on disk.
//
// The API surface is three functions:
//
//   - [HashFile] -- streams a file through BLAKE3, returning a
//     [32]byte digest with constant memory usage regardless of file
//     size
//   - [FormatDigest] -- converts a [32]byte digest to its canonical
//     hex-encoded string representation
//   - [ParseDigest] -- parses a hex-encoded digest string back to a
//     [32]byte array, validating length and encoding
//
// This package has no dependencies on other forge packages.
package digest
