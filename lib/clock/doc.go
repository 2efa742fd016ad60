// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for stamping
// invocation timestamps deterministically.
//
// Production code accepts a Clock interface parameter instead of
// calling time.Now directly. Real() provides the standard library's
// clock; Fake() provides a fixed time that only moves forward when
// Advance is called, so tests of workspace status output can assert
// on an exact timestamp.
//
// # Wiring Pattern
//
// Add a Clock field to structs that stamp a time:
//
//	type InvocationContext struct {
//	    Clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	ic := &InvocationContext{Clock: clock.Real()}
//
// In tests:
//
//	ic := &InvocationContext{Clock: clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))}
package clock
