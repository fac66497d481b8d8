// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package poutine_test

import (
	"errors"
	"math"
	"testing"

	"code.hybscloud.com/poutine"
	"code.hybscloud.com/poutine/dist"
)

func TestTraceRecordsSitesInModelOrder(t *testing.T) {
	env := poutine.NewEnv(poutine.WithSeed(1))
	tr, err := poutine.RunTrace(env, func(e *poutine.Env) {
		e.Sample("a", dist.NewBernoulli(0.5))
		e.Param("w", func() poutine.Value { return poutine.Scalar(0.1) })
		e.Sample("b", dist.NewNormal(0, 1))
	})
	if err != nil {
		t.Fatalf("RunTrace: %v", err)
	}
	names := tr.Names()
	want := []string{"a", "w", "b"}
	if len(names) != len(want) {
		t.Fatalf("names %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
	if tr.Site("w").Kind != poutine.KindParam {
		t.Fatalf("site w kind %v, want param", tr.Site("w").Kind)
	}
}

func TestTraceNameCollision(t *testing.T) {
	env := poutine.NewEnv(poutine.WithSeed(1))
	tr, err := poutine.RunTrace(env, func(e *poutine.Env) {
		e.Sample("x", dist.NewNormal(0, 1))
		e.Sample("x", dist.NewNormal(0, 1))
	})
	if !errors.Is(err, poutine.ErrNameCollision) {
		t.Fatalf("err = %v, want name collision", err)
	}
	if tr != nil {
		t.Fatalf("partial trace returned on fatal error")
	}
	if env.Depth() != 0 {
		t.Fatalf("stack not restored after fatal error: depth %d", env.Depth())
	}
}

func TestTraceIDsAreDistinct(t *testing.T) {
	env := poutine.NewEnv(poutine.WithSeed(1))
	model := func(e *poutine.Env) { e.Sample("x", dist.NewNormal(0, 1)) }
	t1, err := poutine.RunTrace(env, model)
	if err != nil {
		t.Fatalf("RunTrace: %v", err)
	}
	t2, err := poutine.RunTrace(env, model)
	if err != nil {
		t.Fatalf("RunTrace: %v", err)
	}
	if t1.ID == t2.ID {
		t.Fatalf("two executions share trace ID %v", t1.ID)
	}
}

func TestConditionScenario(t *testing.T) {
	// m() samples "a" ~ Bernoulli(0.5) then "b" ~ Normal(a, 1) observed
	// at 2.0; traced under Condition({"a": 1.0}).
	env := poutine.NewEnv(poutine.WithSeed(5))
	model := func(e *poutine.Env) {
		a := e.Sample("a", dist.NewBernoulli(0.5))
		e.Observe("b", dist.Normal{Mu: a, Sigma: poutine.Scalar(1)}, poutine.Scalar(2.0))
	}
	tr, err := poutine.RunTrace(env, model,
		poutine.NewCondition(map[string]poutine.Value{"a": poutine.Scalar(1.0)}))
	if err != nil {
		t.Fatalf("RunTrace: %v", err)
	}

	a := tr.Site("a")
	if a == nil || a.Value.Item() != 1.0 || !a.Observed {
		t.Fatalf("site a = %+v, want value 1.0 observed", a)
	}
	b := tr.Site("b")
	if b == nil || b.Value.Item() != 2.0 || !b.Observed {
		t.Fatalf("site b = %+v, want value 2.0 observed", b)
	}
}

func TestTraceLogProb(t *testing.T) {
	env := poutine.NewEnv(poutine.WithSeed(5))
	tr, err := poutine.RunTrace(env, func(e *poutine.Env) {
		e.Observe("x", dist.NewNormal(0, 1), poutine.Scalar(0))
		e.Observe("y", dist.NewBernoulli(0.5), poutine.Scalar(1))
	})
	if err != nil {
		t.Fatalf("RunTrace: %v", err)
	}
	lp, err := tr.LogProb()
	if err != nil {
		t.Fatalf("LogProb: %v", err)
	}
	want := -0.5*math.Log(2*math.Pi) + math.Log(0.5)
	if math.Abs(lp-want) > 1e-12 {
		t.Fatalf("log prob %v, want %v", lp, want)
	}
}

func TestTraceLogProbHonorsScaleAndMask(t *testing.T) {
	env := poutine.NewEnv(poutine.WithSeed(5))
	unit := func(e *poutine.Env) {
		e.Observe("x", dist.NewBernoulli(0.5), poutine.Scalar(1))
	}

	scaled, err := poutine.RunTrace(env, unit, poutine.NewScale(3))
	if err != nil {
		t.Fatalf("RunTrace: %v", err)
	}
	lp, err := scaled.LogProb()
	if err != nil {
		t.Fatalf("LogProb: %v", err)
	}
	if want := 3 * math.Log(0.5); math.Abs(lp-want) > 1e-12 {
		t.Fatalf("scaled log prob %v, want %v", lp, want)
	}

	masked, err := poutine.RunTrace(env, unit, poutine.NewMask(poutine.Scalar(0)))
	if err != nil {
		t.Fatalf("RunTrace: %v", err)
	}
	lp, err = masked.LogProb()
	if err != nil {
		t.Fatalf("LogProb: %v", err)
	}
	if lp != 0 {
		t.Fatalf("masked log prob %v, want 0", lp)
	}
}

// Masking exists to drop invalid entries, whose log density is -Inf; the
// scoring pass must select them out, not multiply -Inf by zero into NaN.
func TestTraceLogProbMasksInvalidEntries(t *testing.T) {
	env := poutine.NewEnv(poutine.WithSeed(26))
	tr, err := poutine.RunTrace(env, func(e *poutine.Env) {
		poutine.Handled(func(e *poutine.Env) {
			e.Observe("clamped", dist.NewDelta(poutine.Scalar(7)), poutine.Scalar(99))
		}, poutine.NewMask(poutine.Scalar(0)))(e)
		poutine.Handled(func(e *poutine.Env) {
			e.Observe("partial", dist.NewDelta(poutine.Scalar(7)), poutine.Vector(7, 99))
		}, poutine.NewMask(poutine.Vector(1, 0)))(e)
		e.Observe("kept", dist.NewNormal(0, 1), poutine.Scalar(0))
	})
	if err != nil {
		t.Fatalf("RunTrace: %v", err)
	}
	lp, err := tr.LogProb()
	if err != nil {
		t.Fatalf("LogProb: %v", err)
	}
	if math.IsNaN(lp) {
		t.Fatalf("log prob is NaN: masked -Inf entries leaked into the sum")
	}
	// clamped is fully masked, partial keeps only its matching entry
	// (log density 0), so only the kept site contributes.
	want := -0.5 * math.Log(2*math.Pi)
	if math.Abs(lp-want) > 1e-12 {
		t.Fatalf("log prob %v, want %v", lp, want)
	}
}

// A reused trace messenger starts a fresh trace per installation scope.
func TestTraceMessengerFreshPerScope(t *testing.T) {
	env := poutine.NewEnv(poutine.WithSeed(2))
	tm := poutine.NewTraceMessenger()
	model := poutine.Handled(func(e *poutine.Env) {
		e.Sample("x", dist.NewNormal(0, 1))
	}, tm)
	model(env)
	first := tm.Trace()
	model(env)
	second := tm.Trace()
	if first.ID == second.ID {
		t.Fatalf("trace not reset across scopes")
	}
	if second.Len() != 1 {
		t.Fatalf("second trace has %d sites, want 1", second.Len())
	}
}
