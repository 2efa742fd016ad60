// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package rcfile tokenizes and parses rc-files into a per-command,
// insertion-ordered option map, following import directives with
// explicit cycle detection.
package rcfile
