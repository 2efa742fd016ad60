// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"fmt"
	"path"
	"sync"

	"github.com/zeebo/blake3"
)

// Root identifies a directory an artifact's path is relative to (a
// source tree root or a derived-output root). Two artifacts with the
// same path but different roots are distinct.
type Root struct {
	// Name is the root's display name, used when formatting an
	// artifact's exec path (e.g. "bin" for a derived-output root).
	// The empty string names the workspace source root.
	Name string

	// IsSourceRoot marks every artifact under this root as a source
	// artifact (Artifact.IsSource) regardless of how it was obtained.
	IsSourceRoot bool
}

// ArtifactOwner is the configured target that an artifact was
// produced for. The analysis environment compares owners by Label
// equality, not by interface identity, so two distinct ArtifactOwner
// values with the same label are interchangeable.
type ArtifactOwner interface {
	// Label returns the owner's canonical target label, e.g. "//x:y".
	Label() string
}

// Artifact is the opaque identity of a file known to the build:
// structurally equal artifacts compare equal by path, root, and
// owner. Artifacts are interned by an ArtifactFactory; analysis code
// never constructs one directly.
type Artifact struct {
	relativePath string
	root         Root
	ownerLabel   string
	isSource     bool
	digest       *[32]byte
}

// Path returns the artifact's root-relative path.
func (a Artifact) Path() string { return a.relativePath }

// Root returns the root this artifact's path is relative to.
func (a Artifact) Root() Root { return a.root }

// OwnerLabel returns the label of the configured target that owns
// this artifact.
func (a Artifact) OwnerLabel() string { return a.ownerLabel }

// IsSource reports whether this artifact is a source file (as opposed
// to a derived, build-produced file).
func (a Artifact) IsSource() bool { return a.isSource }

// Digest returns the artifact's content digest and whether one was
// attached. Only artifacts minted through GetSpecialMetadataArtifact
// with forceDigest set carry a digest.
func (a Artifact) Digest() ([32]byte, bool) {
	if a.digest == nil {
		return [32]byte{}, false
	}
	return *a.digest, true
}

// ExecPath returns the path used to reference this artifact on the
// command line of an action: the root name joined with the
// root-relative path, or the bare path for the workspace source root.
func (a Artifact) ExecPath() string {
	if a.root.Name == "" {
		return a.relativePath
	}
	return path.Join(a.root.Name, a.relativePath)
}

func (a Artifact) key() artifactKey {
	return artifactKey{path: a.relativePath, rootName: a.root.Name, owner: a.ownerLabel}
}

type artifactKey struct {
	path     string
	rootName string
	owner    string
}

// ArtifactFactory canonicalizes (path, root, owner) identity into
// Artifact values. Implementations must be safe for concurrent use:
// the same factory instance is shared across every analysis
// environment running in a build.
type ArtifactFactory interface {
	// DerivedArtifact interns a generated-output artifact.
	DerivedArtifact(relativePath string, root Root, owner ArtifactOwner) Artifact

	// FilesetArtifact interns a fileset artifact. Identical identity
	// rules to DerivedArtifact; kept distinct because filesets carry
	// different downstream handling outside this package's scope.
	FilesetArtifact(relativePath string, root Root, owner ArtifactOwner) Artifact

	// SpecialMetadataArtifact interns a metadata artifact whose
	// provenance is managed externally. When forceDigest is true, the
	// returned artifact carries a content digest derived from its
	// identity. forceConstant is accepted for interface parity with
	// the original contract; this adapter does not distinguish it from
	// the non-constant case.
	SpecialMetadataArtifact(relativePath string, root Root, owner ArtifactOwner, forceConstant, forceDigest bool) Artifact
}

// NewArtifactFactory returns the default in-process ArtifactFactory
// adapter: a thread-safe interning table keyed on (path, root, owner).
func NewArtifactFactory() ArtifactFactory {
	return &defaultArtifactFactory{interned: make(map[artifactKey]Artifact)}
}

type defaultArtifactFactory struct {
	mu       sync.Mutex
	interned map[artifactKey]Artifact
}

func (f *defaultArtifactFactory) intern(candidate Artifact) Artifact {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := candidate.key()
	if existing, ok := f.interned[key]; ok {
		return existing
	}
	f.interned[key] = candidate
	return candidate
}

func (f *defaultArtifactFactory) DerivedArtifact(relativePath string, root Root, owner ArtifactOwner) Artifact {
	return f.intern(Artifact{
		relativePath: relativePath,
		root:         root,
		ownerLabel:   owner.Label(),
		isSource:     root.IsSourceRoot,
	})
}

func (f *defaultArtifactFactory) FilesetArtifact(relativePath string, root Root, owner ArtifactOwner) Artifact {
	return f.intern(Artifact{
		relativePath: relativePath,
		root:         root,
		ownerLabel:   owner.Label(),
		isSource:     root.IsSourceRoot,
	})
}

func (f *defaultArtifactFactory) SpecialMetadataArtifact(relativePath string, root Root, owner ArtifactOwner, forceConstant, forceDigest bool) Artifact {
	candidate := Artifact{
		relativePath: relativePath,
		root:         root,
		ownerLabel:   owner.Label(),
		isSource:     root.IsSourceRoot,
	}
	if forceDigest {
		digest := identityDigest(relativePath, root.Name, owner.Label())
		candidate.digest = &digest
	}
	return f.intern(candidate)
}

// identityDigest computes a BLAKE3 digest over an artifact's identity
// tuple. Analysis-phase artifacts have no on-disk content yet, so the
// digest models content-addressing over the identity rather than
// bytes read from a file (see lib/digest for the file-content variant
// used once actions actually execute).
func identityDigest(relativePath, rootName, owner string) [32]byte {
	hasher := blake3.New()
	fmt.Fprintf(hasher, "%s\x00%s\x00%s", rootName, relativePath, owner)
	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest
}
