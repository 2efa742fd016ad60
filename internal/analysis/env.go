// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package analysis implements the per-configured-target analysis
// facade: the object rule logic uses to mint artifacts, register
// actions, and read build-info during the analysis phase of a build,
// together with the collaborators (artifact factory, Skyframe
// environment, workspace-status provider, embedded tool bundle) it is
// built from.
package analysis

import (
	"io"
	"runtime/debug"
	"strings"

	"github.com/forgebuild/forge/lib/forgeerr"
)

// Target identifies the configured target an analysis environment was
// created for. Used only for diagnostics.
type Target struct {
	Label string
	Kind  string
}

// ArtifactOrigin records where a handed-out artifact came from: a
// captured stack trace (when extended sanity checks are enabled) or a
// fixed sentinel. Used solely in diagnostic messages.
type ArtifactOrigin string

const sentinelOrigin ArtifactOrigin = "<origin tracking disabled>"

func captureOrigin(extendedSanityChecks bool) ArtifactOrigin {
	if !extendedSanityChecks {
		return sentinelOrigin
	}
	return ArtifactOrigin(debug.Stack())
}

type state int

const (
	stateActive state = iota
	stateSealed
)

// Config holds every collaborator and flag a CachingAnalysisEnvironment
// is constructed from. Factory, Owner and Invocation are required;
// everything else may be the zero value only as documented on the
// field.
type Config struct {
	// Factory interns artifact identity. Required.
	Factory ArtifactFactory

	// PackageManager is consulted by rule logic through narrow,
	// out-of-scope calls; nil is accepted since this package never
	// calls it itself.
	PackageManager PackageManager

	// Owner is the configured target every minted artifact belongs to.
	// Required.
	Owner ArtifactOwner

	// StatusProvider is the eager workspace-status collaborator. If
	// nil, build-info reads fall through to Skyframe.
	StatusProvider WorkspaceStatusProvider

	// Skyframe is the lazy dependency-fetch collaborator used when
	// StatusProvider is nil. May be nil in tests that never read
	// build-info.
	Skyframe SkyframeEnvironment

	// ToolBundle resolves get-embedded-tool-artifact lookups. May be
	// nil if the environment never calls that operation.
	ToolBundle *EmbeddedToolBundle

	// Invocation is the process-wide invocation identity and logger.
	// Required.
	Invocation *InvocationContext

	// IsSystemEnv marks a system-level environment: HasErrors always
	// reports false (invariant I4) and ErrorSink defaults to a
	// process-global reporter if ErrorSink is nil.
	IsSystemEnv bool

	// ExtendedSanityChecks enables stack-trace capture at every
	// artifact-handout call site. Expensive; off by default.
	ExtendedSanityChecks bool

	// AllowRegisterActions gates whether RegisterAction actually
	// records actions and whether Seal runs the orphan check.
	AllowRegisterActions bool

	// ErrorSink receives RuleError reports. If nil, a buffered sink is
	// created automatically.
	ErrorSink ErrorSink

	// DiagnosticsWriter receives a CBOR-encoded DiagnosticsDump if Seal
	// fails the orphan check. Nil means no dump is written.
	DiagnosticsWriter io.Writer
}

// CachingAnalysisEnvironment is the per-configured-target facade
// through which rule logic obtains artifacts, registers actions, and
// reads build-info, then seals itself and runs the no-orphan-artifact
// structural check.
//
// An instance is owned by exactly one goroutine for its entire
// lifetime (construct, mutate, seal, drain); there is no internal
// locking.
type CachingAnalysisEnvironment struct {
	factory        ArtifactFactory
	packageManager PackageManager
	owner          ArtifactOwner
	statusProvider WorkspaceStatusProvider
	skyframe       SkyframeEnvironment
	toolBundle     *EmbeddedToolBundle
	invocation     *InvocationContext

	isSystemEnv           bool
	extendedSanityChecks  bool
	allowRegisterActions  bool
	errorSink             ErrorSink
	diagnosticsWriter     io.Writer

	state             state
	handedOut         map[artifactKey]handoutRecord
	registeredActions []Action
}

// handoutRecord is what the environment remembers about an artifact
// it handed out: enough to run the orphan check (isSource) and to
// report the offending call site (origin) if the check fails.
type handoutRecord struct {
	origin   ArtifactOrigin
	isSource bool
}

// New constructs a CachingAnalysisEnvironment in the active state.
func New(cfg Config) (*CachingAnalysisEnvironment, error) {
	if cfg.Factory == nil {
		return nil, forgeerr.ContractViolation("analysis environment requires a non-nil ArtifactFactory")
	}
	if cfg.Owner == nil {
		return nil, forgeerr.ContractViolation("analysis environment requires a non-nil owner")
	}
	if cfg.Invocation == nil {
		return nil, forgeerr.ContractViolation("analysis environment requires a non-nil InvocationContext")
	}

	sink := cfg.ErrorSink
	if sink == nil {
		if cfg.IsSystemEnv {
			sink = NewGlobalErrorSink(cfg.Invocation.Logger)
		} else {
			sink = NewBufferedErrorSink()
		}
	}

	return &CachingAnalysisEnvironment{
		factory:              cfg.Factory,
		packageManager:       cfg.PackageManager,
		owner:                cfg.Owner,
		statusProvider:       cfg.StatusProvider,
		skyframe:             cfg.Skyframe,
		toolBundle:           cfg.ToolBundle,
		invocation:            cfg.Invocation,
		isSystemEnv:          cfg.IsSystemEnv,
		extendedSanityChecks: cfg.ExtendedSanityChecks,
		allowRegisterActions: cfg.AllowRegisterActions,
		errorSink:            sink,
		diagnosticsWriter:    cfg.DiagnosticsWriter,
		state:                stateActive,
		handedOut:            make(map[artifactKey]handoutRecord),
	}, nil
}

func (e *CachingAnalysisEnvironment) requireActive(operation string) error {
	if e.state != stateActive {
		return forgeerr.ContractViolation("%s: analysis environment for %s is sealed", operation, e.owner.Label())
	}
	return nil
}

// GetDerivedArtifact mints a generated-output artifact and records it
// in the handed-out set. Re-requesting the same (path, root) pair
// returns the already-interned artifact without overwriting its
// recorded origin (R1).
func (e *CachingAnalysisEnvironment) GetDerivedArtifact(relativePath string, root Root) (Artifact, error) {
	if err := e.requireActive("GetDerivedArtifact"); err != nil {
		return Artifact{}, err
	}
	artifact := e.factory.DerivedArtifact(relativePath, root, e.owner)
	e.recordHandout(artifact)
	return artifact, nil
}

// GetFilesetArtifact mints a fileset artifact; otherwise identical to
// GetDerivedArtifact.
func (e *CachingAnalysisEnvironment) GetFilesetArtifact(relativePath string, root Root) (Artifact, error) {
	if err := e.requireActive("GetFilesetArtifact"); err != nil {
		return Artifact{}, err
	}
	artifact := e.factory.FilesetArtifact(relativePath, root, e.owner)
	e.recordHandout(artifact)
	return artifact, nil
}

func (e *CachingAnalysisEnvironment) recordHandout(artifact Artifact) {
	key := artifact.key()
	if _, alreadyRecorded := e.handedOut[key]; alreadyRecorded {
		return
	}
	e.handedOut[key] = handoutRecord{
		origin:   captureOrigin(e.extendedSanityChecks),
		isSource: artifact.IsSource(),
	}
}

// GetSpecialMetadataArtifact mints a metadata artifact whose
// provenance is managed externally; it is deliberately not tracked in
// the handed-out set; this provides the contract needed by other
// pages.
func (e *CachingAnalysisEnvironment) GetSpecialMetadataArtifact(relativePath string, root Root, forceConstant, forceDigest bool) (Artifact, error) {
	if err := e.requireActive("GetSpecialMetadataArtifact"); err != nil {
		return Artifact{}, err
	}
	return e.factory.SpecialMetadataArtifact(relativePath, root, e.owner, forceConstant, forceDigest), nil
}

// GetEmbeddedToolArtifact resolves name against the EmbeddedToolBundle
// supplied at construction and mints a derived artifact rooted at the
// bundle's extraction root.
func (e *CachingAnalysisEnvironment) GetEmbeddedToolArtifact(name string) (Artifact, error) {
	if err := e.requireActive("GetEmbeddedToolArtifact"); err != nil {
		return Artifact{}, err
	}
	if e.toolBundle == nil {
		return Artifact{}, forgeerr.ContractViolation("GetEmbeddedToolArtifact(%s): no tool bundle configured", name)
	}
	entry, ok := e.toolBundle.Resolve(name)
	if !ok {
		return Artifact{}, forgeerr.UserConfigError("embedded tool %q not found in tool bundle", name)
	}
	artifact := e.factory.DerivedArtifact(entry.Name, e.toolBundle.ExtractionRoot(), e.owner)
	e.recordHandout(artifact)
	return artifact, nil
}

// RegisterAction appends act to the registered-actions list if
// AllowRegisterActions is set; otherwise the call is a deliberate,
// silent no-op (a preliminary analysis pass may register actions that
// would collide with the real pass).
func (e *CachingAnalysisEnvironment) RegisterAction(act Action) error {
	if err := e.requireActive("RegisterAction"); err != nil {
		return err
	}
	if !e.allowRegisterActions {
		return nil
	}
	e.registeredActions = append(e.registeredActions, act)
	return nil
}

// GetLocalGeneratingAction returns the first registered action whose
// outputs contain a, or nil if none does. Only meaningful when
// AllowRegisterActions is set — the answer would otherwise be
// misleading, so that case is a contract violation.
func (e *CachingAnalysisEnvironment) GetLocalGeneratingAction(a Artifact) (*Action, error) {
	if !e.allowRegisterActions {
		return nil, forgeerr.ContractViolation("GetLocalGeneratingAction: action registration is disabled for %s", e.owner.Label())
	}
	for i := range e.registeredActions {
		if e.registeredActions[i].hasOutput(a) {
			return &e.registeredActions[i], nil
		}
	}
	return nil, nil
}

// GetRegisteredActions returns a read-only view of the actions
// registered so far, in registration order.
func (e *CachingAnalysisEnvironment) GetRegisteredActions() []Action {
	view := make([]Action, len(e.registeredActions))
	copy(view, e.registeredActions)
	return view
}

// GetBuildInfoArtifact returns the volatile build-info artifact: the
// eager provider's artifact if one was supplied, else a Skyframe
// lookup that may signal ErrMissingDependency (a restart, not an
// error).
func (e *CachingAnalysisEnvironment) GetBuildInfoArtifact() (Artifact, error) {
	if e.statusProvider != nil {
		return e.statusProvider.VolatileArtifact(), nil
	}
	node, err := e.workspaceStatusNode()
	if err != nil {
		return Artifact{}, err
	}
	return node.Volatile, nil
}

// GetBuildChangelistArtifact returns the stable build-info artifact
// (the changelist/VCS-identity artifact in the original terminology).
func (e *CachingAnalysisEnvironment) GetBuildChangelistArtifact() (Artifact, error) {
	if e.statusProvider != nil {
		return e.statusProvider.StableArtifact(), nil
	}
	node, err := e.workspaceStatusNode()
	if err != nil {
		return Artifact{}, err
	}
	return node.Stable, nil
}

func (e *CachingAnalysisEnvironment) workspaceStatusNode() (*WorkspaceStatusNode, error) {
	if e.skyframe == nil {
		return nil, forgeerr.InternalIOError("no workspace status provider and no skyframe environment configured")
	}
	value, err := e.skyframe.Get(SkyframeKey{Kind: "WORKSPACE_STATUS"})
	if err != nil {
		return nil, err
	}
	node, ok := value.(*WorkspaceStatusNode)
	if !ok {
		return nil, forgeerr.ContractViolation("workspace status node has unexpected type %T", value)
	}
	return node, nil
}

// GetBuildInfo returns the stamped or redacted artifact list for key,
// from the eager provider if present, else a Skyframe-backed
// BuildInfoCollection lookup.
func (e *CachingAnalysisEnvironment) GetBuildInfo(key string, stamp bool) ([]Artifact, error) {
	if e.statusProvider != nil {
		return e.statusProvider.BuildInfo(key, stamp), nil
	}
	if e.skyframe == nil {
		return nil, forgeerr.InternalIOError("no workspace status provider and no skyframe environment configured")
	}
	value, err := e.skyframe.Get(SkyframeKey{Kind: "BUILD_INFO_COLLECTION", Name: key})
	if err != nil {
		return nil, err
	}
	collection, ok := value.(*BuildInfoCollection)
	if !ok {
		return nil, forgeerr.ContractViolation("build info collection %q has unexpected type %T", key, value)
	}
	if stamp {
		return collection.Stamped, nil
	}
	return collection.Redacted, nil
}

// HasErrors reports whether any rule error has been reported to this
// environment's sink. A system environment always reports false
// regardless of sink contents (invariant I4).
func (e *CachingAnalysisEnvironment) HasErrors() bool {
	if e.isSystemEnv {
		return false
	}
	return e.errorSink.HasErrors()
}

// ReportError forwards a rule-reported error to this environment's
// sink. Does not abort analysis; suppresses the orphan check at Seal.
func (e *CachingAnalysisEnvironment) ReportError(err error) {
	e.errorSink.ReportError(forgeerr.RuleError("%s", err))
}

// Seal runs the orphan-artifact check (when action registration is
// enabled and no errors were reported) and transitions the
// environment to the sealed state. Every subsequent mutating or
// artifact-producing call fails with a ContractViolation.
func (e *CachingAnalysisEnvironment) Seal(target Target) error {
	if err := e.requireActive("Seal"); err != nil {
		return err
	}

	if e.allowRegisterActions && !e.HasErrors() {
		if err := e.checkForOrphanArtifacts(target); err != nil {
			return err
		}
	}

	e.state = stateSealed
	e.skyframe = nil
	return nil
}

func (e *CachingAnalysisEnvironment) checkForOrphanArtifacts(target Target) error {
	producedOutputs := make(map[artifactKey]struct{})
	for _, act := range e.registeredActions {
		for _, output := range act.Outputs {
			producedOutputs[output.key()] = struct{}{}
		}
	}

	var orphanRecords []string
	for key, record := range e.handedOut {
		if record.isSource {
			continue
		}
		if _, produced := producedOutputs[key]; produced {
			continue
		}
		execPath := Artifact{relativePath: key.path, root: Root{Name: key.rootName}}.ExecPath()
		orphanRecords = append(orphanRecords, execPath+"\n"+string(record.origin))
	}

	if len(orphanRecords) == 0 {
		return nil
	}

	census := make([]ActionCensusEntry, 0, len(e.registeredActions))
	censusLines := make([]string, 0, len(e.registeredActions))
	for _, act := range e.registeredActions {
		outputs := make([]string, len(act.Outputs))
		for i, output := range act.Outputs {
			outputs[i] = output.ExecPath()
		}
		census = append(census, ActionCensusEntry{Mnemonic: act.Mnemonic, Class: act.Class, Outputs: outputs})
		censusLines = append(censusLines, act.Class+" ("+act.Mnemonic+"): "+strings.Join(outputs, ", "))
	}

	if e.diagnosticsWriter != nil {
		dump := &DiagnosticsDump{
			InvocationID:    e.invocation.InvocationID.String(),
			TargetLabel:     target.Label,
			TargetKind:      target.Kind,
			OrphanArtifacts: orphanRecords,
			ActionCensus:    census,
		}
		if encoded, encodeErr := dump.Encode(); encodeErr == nil {
			e.diagnosticsWriter.Write(encoded)
		}
	}

	return forgeerr.ContractViolation(
		"%s %s: These artifacts miss a generating action:\n%s\nRegistered actions:\n%s",
		target.Kind, target.Label, strings.Join(orphanRecords, "\n"), strings.Join(censusLines, "\n"))
}
