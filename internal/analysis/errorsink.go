// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"log/slog"
	"sync"
)

// ErrorSink receives RuleError reports from rule logic during
// analysis. A non-system environment buffers reports per target; the
// process-global reporter used by a system environment forwards them
// immediately to the shared logger.
type ErrorSink interface {
	// ReportError records a rule-reported error.
	ReportError(err error)

	// HasErrors reports whether any error has been recorded.
	HasErrors() bool
}

// NewBufferedErrorSink returns a per-target ErrorSink that
// accumulates reported errors in memory without forwarding them
// anywhere. This is the sink a non-system analysis environment uses.
func NewBufferedErrorSink() *BufferedErrorSink {
	return &BufferedErrorSink{}
}

// BufferedErrorSink accumulates errors for later inspection.
type BufferedErrorSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *BufferedErrorSink) ReportError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *BufferedErrorSink) HasErrors() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errs) > 0
}

// Errors returns a copy of the errors recorded so far.
func (s *BufferedErrorSink) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]error, len(s.errs))
	copy(out, s.errs)
	return out
}

// NewGlobalErrorSink returns the process-global reporter used by a
// system analysis environment: every reported error is forwarded to
// logger immediately. Per invariant I4, a system environment's
// HasErrors is always false regardless of what reaches this sink —
// that rule lives in CachingAnalysisEnvironment.HasErrors, not here.
func NewGlobalErrorSink(logger *slog.Logger) *GlobalErrorSink {
	return &GlobalErrorSink{logger: logger}
}

// GlobalErrorSink forwards reported errors to a structured logger.
type GlobalErrorSink struct {
	logger *slog.Logger
}

func (s *GlobalErrorSink) ReportError(err error) {
	s.logger.Error("rule error reported to system environment", "error", err)
}

func (s *GlobalErrorSink) HasErrors() bool { return false }
