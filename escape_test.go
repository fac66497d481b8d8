// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package poutine_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/poutine"
	"code.hybscloud.com/poutine/dist"
)

func escapeAt(name string) func(*poutine.Message) bool {
	return func(msg *poutine.Message) bool { return msg.Name == name }
}

func TestEscapeCarriesPartialTrace(t *testing.T) {
	env := poutine.NewEnv(poutine.WithSeed(51))
	esc := poutine.NewEscape(escapeAt("b"))
	reached := false
	sig := poutine.CatchEscape(esc, func() {
		poutine.Handled(func(e *poutine.Env) {
			e.Sample("a", dist.NewNormal(0, 1))
			e.Sample("b", dist.NewNormal(0, 1))
			reached = true
		}, esc)(env)
	})
	if sig == nil {
		t.Fatalf("no escape signal")
	}
	if reached {
		t.Fatalf("model continued past escape site")
	}
	if sig.Site != "b" {
		t.Fatalf("escape site = %q, want b", sig.Site)
	}
	if sig.Node == nil || !sig.Node.Value.Empty() {
		t.Fatalf("escape node should be an unresolved snapshot")
	}
	if sig.Partial.Len() != 1 || sig.Partial.Site("a") == nil {
		t.Fatalf("partial trace %v, want exactly site a", sig.Partial.Names())
	}
	if env.Depth() != 0 {
		t.Fatalf("stack depth %d after escape, want 0", env.Depth())
	}
}

func TestCatchEscapeNilOnCompletion(t *testing.T) {
	env := poutine.NewEnv(poutine.WithSeed(52))
	esc := poutine.NewEscape(func(*poutine.Message) bool { return false })
	sig := poutine.CatchEscape(esc, func() {
		poutine.Handled(func(e *poutine.Env) {
			e.Sample("a", dist.NewNormal(0, 1))
		}, esc)(env)
	})
	if sig != nil {
		t.Fatalf("unexpected signal at %q", sig.Site)
	}
}

// A catcher only handles signals from its own messenger; inner signals
// unwind through outer catchers untouched.
func TestCatchEscapeIgnoresForeignSignal(t *testing.T) {
	env := poutine.NewEnv(poutine.WithSeed(53))
	inner := poutine.NewEscape(escapeAt("x"))
	outer := poutine.NewEscape(escapeAt("x"))
	var innerSig *poutine.EscapeSignal
	outerSig := poutine.CatchEscape(outer, func() {
		innerSig = poutine.CatchEscape(inner, func() {
			// Only inner is installed, so only inner can match.
			poutine.Handled(func(e *poutine.Env) {
				e.Sample("x", dist.NewNormal(0, 1))
			}, inner)(env)
		})
	})
	if innerSig == nil {
		t.Fatalf("inner catcher missed its own signal")
	}
	if outerSig != nil {
		t.Fatalf("outer catcher stole a foreign signal")
	}
}

// Without a catcher the signal surfaces at the run boundary as
// ErrUncaughtEscape rather than a panic.
func TestUncaughtEscapeBecomesError(t *testing.T) {
	env := poutine.NewEnv(poutine.WithSeed(54))
	esc := poutine.NewEscape(escapeAt("a"))
	tr, err := poutine.RunTrace(env, func(e *poutine.Env) {
		e.Sample("a", dist.NewNormal(0, 1))
	}, esc)
	if !errors.Is(err, poutine.ErrUncaughtEscape) {
		t.Fatalf("err = %v, want ErrUncaughtEscape", err)
	}
	if tr != nil {
		t.Fatalf("trace should be nil on error")
	}
	if env.Depth() != 0 {
		t.Fatalf("stack depth %d after uncaught escape, want 0", env.Depth())
	}
}

// Re-running after an escape with a replay of the partial trace resumes the
// search with the prefix pinned.
func TestEscapeReplayResumesPrefix(t *testing.T) {
	env := poutine.NewEnv(poutine.WithSeed(55))
	model := func(e *poutine.Env) {
		e.Sample("a", dist.NewNormal(0, 1))
		e.Sample("b", dist.NewNormal(0, 1))
	}
	esc := poutine.NewEscape(escapeAt("b"))
	sig := poutine.CatchEscape(esc, func() {
		poutine.Handled(model, esc)(env)
	})
	if sig == nil {
		t.Fatalf("no escape signal")
	}
	a := sig.Partial.Site("a").Value

	tr, err := poutine.RunTrace(env, model, poutine.NewReplay(sig.Partial))
	if err != nil {
		t.Fatalf("RunTrace: %v", err)
	}
	if !tr.Site("a").Value.Equal(a) {
		t.Fatalf("replayed prefix diverged at a")
	}
	if tr.Site("b") == nil {
		t.Fatalf("resumed run missing site b")
	}
}
