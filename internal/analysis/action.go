// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

// Action is an opaque build step as seen from the analysis
// environment's viewpoint: its output artifacts, a human-readable
// mnemonic, and a class name used in diagnostics. Actual execution is
// out of scope for this package.
type Action struct {
	// Mnemonic is a short, human-readable label such as "CppCompile".
	Mnemonic string

	// Class names the action implementation for diagnostics, e.g.
	// "SpawnAction".
	Class string

	// Outputs is the ordered set of artifacts this action produces.
	// The caller is responsible for the disjointness invariant across
	// distinct actions; this package relies on it but does not
	// enforce it.
	Outputs []Artifact
}

// hasOutput reports whether a is among this action's declared outputs.
func (act Action) hasOutput(a Artifact) bool {
	for _, output := range act.Outputs {
		if output.key() == a.key() {
			return true
		}
	}
	return false
}

// PackageManager is the narrow external collaborator contract an
// analysis environment needs from the package-loading subsystem. The
// loading subsystem itself is out of scope; this interface exists
// only to let CachingAnalysisEnvironment take a package manager
// reference without depending on the real implementation's package.
type PackageManager interface {
	// PackageExists reports whether the named package has been loaded.
	PackageExists(name string) bool
}
