// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"errors"
	"fmt"
	"sync"
)

// SkyframeKey identifies a node in the lazy dependency graph. Kind
// distinguishes node families ("WORKSPACE_STATUS",
// "BUILD_INFO_COLLECTION"); Name disambiguates within a family.
type SkyframeKey struct {
	Kind string
	Name string
}

func (k SkyframeKey) String() string {
	if k.Name == "" {
		return k.Kind
	}
	return fmt.Sprintf("%s:%s", k.Kind, k.Name)
}

// ErrMissingDependency is the sentinel a caller checks for with
// errors.Is when a Skyframe lookup signals "value not yet computed".
// It is a first-class control-flow marker, not a failure: the driver
// is expected to re-enqueue the target and retry.
var ErrMissingDependency = errors.New("skyframe: value not yet computed")

// MissingDependencyError wraps ErrMissingDependency with the key that
// was missing, so callers that want the key can use errors.As while
// callers that only care about the control signal can use
// errors.Is(err, ErrMissingDependency).
type MissingDependencyError struct {
	Key SkyframeKey
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("skyframe: %s not yet computed", e.Key)
}

func (e *MissingDependencyError) Is(target error) bool {
	return target == ErrMissingDependency
}

// SkyframeEnvironment is the lazy dependency-fetch collaborator: a
// memoizing key/value store that can signal "not yet computed"
// instead of blocking. The real evaluator is out of scope; this
// package depends only on this narrow contract.
type SkyframeEnvironment interface {
	// Get returns the node value for key, or an error satisfying
	// errors.Is(err, ErrMissingDependency) if the value has not been
	// computed yet.
	Get(key SkyframeKey) (any, error)
}

// NewFakeSkyframeEnvironment returns an in-memory SkyframeEnvironment
// for tests: values are set directly, and a key with no value
// registered signals ErrMissingDependency on every Get until a value
// is set via SetValue — callers that retry after that observe success
// with no partial state left over, matching the restart semantics in
// the specification this package implements.
func NewFakeSkyframeEnvironment() *FakeSkyframeEnvironment {
	return &FakeSkyframeEnvironment{values: make(map[SkyframeKey]any)}
}

// FakeSkyframeEnvironment is a restart-capable in-memory test double.
type FakeSkyframeEnvironment struct {
	mu     sync.Mutex
	values map[SkyframeKey]any
}

// SetValue makes key resolve successfully to value on every
// subsequent Get call.
func (f *FakeSkyframeEnvironment) SetValue(key SkyframeKey, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
}

func (f *FakeSkyframeEnvironment) Get(key SkyframeKey) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if value, ok := f.values[key]; ok {
		return value, nil
	}
	return nil, &MissingDependencyError{Key: key}
}
