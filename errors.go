// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package poutine

import (
	"errors"
	"fmt"
)

// Usage errors are contract violations in model or handler code. They are
// fatal for the current execution: primitives panic with a [*UsageError]
// (model code has no error return path at arbitrary call depth), and run
// boundaries such as [RunTrace] recover exactly that type and return it as
// an ordinary error. Any other panic value propagates unchanged.
var (
	// ErrNameCollision reports two primitive calls with the same site name
	// within one traced execution.
	ErrNameCollision = errors.New("site name collision")

	// ErrDimExhausted reports that no free tensor dimension remains within
	// the plate dimension budget.
	ErrDimExhausted = errors.New("plate dimension exhausted")

	// ErrDimConflict reports an explicitly requested dimension that is
	// already claimed by another active frame.
	ErrDimConflict = errors.New("plate dimension conflict")

	// ErrShapeMismatch reports a value or distribution shape that is
	// incompatible with its declared independence frames or broadcast
	// partners.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrSubsample reports a subsample request that is inconsistent with
	// its plate's population: a size beyond the population, or an
	// explicit index outside it.
	ErrSubsample = errors.New("invalid subsample")

	// ErrEnumRestriction reports a violation of the structural restrictions
	// on parallel enumeration.
	ErrEnumRestriction = errors.New("enumeration restriction violated")

	// ErrUncaughtEscape reports an [*EscapeSignal] that unwound past every
	// installed handler.
	ErrUncaughtEscape = errors.New("no handler installed to catch escape")
)

// UsageError is the typed panic value for fatal usage errors. Site names
// the offending primitive call when known. UsageError unwraps to one of the
// sentinel errors above for errors.Is matching.
type UsageError struct {
	Site   string
	Err    error
	Detail string
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	if e.Site == "" {
		if e.Detail == "" {
			return "poutine: " + e.Err.Error()
		}
		return fmt.Sprintf("poutine: %v: %s", e.Err, e.Detail)
	}
	if e.Detail == "" {
		return fmt.Sprintf("poutine: site %q: %v", e.Site, e.Err)
	}
	return fmt.Sprintf("poutine: site %q: %v: %s", e.Site, e.Err, e.Detail)
}

// Unwrap returns the sentinel error kind.
func (e *UsageError) Unwrap() error { return e.Err }

// usagef panics with a *UsageError. Extracted as a noinline function so that
// the calling hot paths remain inlineable.
//
//go:noinline
func usagef(site string, kind error, format string, args ...any) {
	panic(&UsageError{Site: site, Err: kind, Detail: fmt.Sprintf(format, args...)})
}

// recoverUsage converts a recovered *UsageError, or an escape signal that no
// handler caught, into *err. It must be installed directly with defer.
// Non-usage panics are re-raised.
func recoverUsage(err *error) {
	r := recover()
	if r == nil {
		return
	}
	switch v := r.(type) {
	case *UsageError:
		*err = v
	case *EscapeSignal:
		*err = &UsageError{Site: v.Site, Err: ErrUncaughtEscape}
	default:
		panic(r)
	}
}
