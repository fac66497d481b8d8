// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package poutine

import "strconv"

// Enumeration replaces random sampling at discrete sites with exhaustive
// expansion of the support, for exact marginalization. Parallel mode
// expands the support along a fresh tensor dimension within one execution;
// sequential mode re-executes the model once per support value, driven by
// the escape mechanism.

// EnumerateMessenger expands sample sites marked [EnumParallel] whose
// distribution has finite support. The enumerated axis is placed at a fresh
// dimension at or left of firstAvailableDim, never colliding with a
// dimension claimed by an active plate or another live enumerated site.
type EnumerateMessenger struct {
	BaseMessenger
	firstDim int
}

// NewEnumerate creates a parallel-enumeration messenger. firstAvailableDim
// is the rightmost (negative) dimension enumeration may claim; pass a
// dimension left of the model's deepest plate nesting.
func NewEnumerate(firstAvailableDim int) *EnumerateMessenger {
	if firstAvailableDim >= 0 {
		firstAvailableDim = -1
	}
	return &EnumerateMessenger{firstDim: firstAvailableDim}
}

// Process claims resolution of parallel-enumerated sites with the fully
// enumerated value.
func (m *EnumerateMessenger) Process(env *Env, msg *Message) {
	if msg.Kind != KindSample || msg.Done || msg.HasValue {
		return
	}
	if msg.Infer.Enumerate != EnumParallel {
		return
	}
	en, ok := msg.Dist.(Enumerable)
	if !ok {
		usagef(msg.Name, ErrEnumRestriction,
			"site is marked for enumeration but its distribution has no finite support")
	}
	support := en.SupportValues()
	dim := env.claimEnumDim(m.firstDim, msg.Name)
	msg.Value = enumValue(support, dim)
	msg.HasValue = true
	msg.Done = true
	msg.EnumDim = dim
}

// EnumerateSequential executes model once per combination of support
// values of its [EnumSequential]-marked sites, returning one complete
// trace per combination. Each pass runs under trace recording, an escape
// messenger matching the first unresolved enumerable site, and a replay of
// the partial assignment built so far; a raised escape forks the partial
// assignment across the matched site's support and the model is re-run.
// Fatal usage errors abort the whole search with no traces.
func EnumerateSequential(env *Env, model Model) (traces []*Trace, err error) {
	defer func() {
		if err != nil {
			traces = nil
		}
	}()
	defer recoverUsage(&err)

	queue := []*Trace{NewTrace()}
	for len(queue) > 0 {
		partial := queue[0]
		queue = queue[1:]

		tm := NewTraceMessenger()
		esc := NewEscape(func(msg *Message) bool {
			return msg.Infer.Enumerate == EnumSequential &&
				!msg.Done && !msg.HasValue
		})
		wrapped := Handled(model, tm, esc, NewReplay(partial))

		sig := CatchEscape(esc, func() { wrapped(env) })
		if sig == nil {
			traces = append(traces, tm.Trace())
			continue
		}
		en, ok := sig.Node.Dist.(Enumerable)
		if !ok {
			usagef(sig.Site, ErrEnumRestriction,
				"site is marked for enumeration but its distribution has no finite support")
		}
		for _, v := range en.SupportValues() {
			ext := sig.Partial.Copy()
			n := *sig.Node
			n.Value = Scalar(v)
			if err := ext.Add(&n); err != nil {
				panic(err.(*UsageError))
			}
			queue = append(queue, ext)
		}
	}
	return traces, nil
}

// vectorizedFrames returns the set of vectorized frames of a node, keyed
// by name and dimension.
func vectorizedFrames(n *Node) map[string]PlateFrame {
	out := map[string]PlateFrame{}
	for _, f := range n.CondIndepStack {
		if f.Vectorized() {
			out[frameKey(f)] = f
		}
	}
	return out
}

func frameKey(f PlateFrame) string {
	return f.Name + "\x00" + strconv.Itoa(f.Dim)
}

// frameSubset reports whether every frame of a is also a frame of b.
func frameSubset(a, b map[string]PlateFrame) bool {
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// sequentialSignature returns the node's sequential frames as
// (name, counter) pairs, innermost last.
func sequentialSignature(n *Node) []PlateFrame {
	var out []PlateFrame
	for _, f := range n.CondIndepStack {
		if !f.Vectorized() {
			out = append(out, f)
		}
	}
	return out
}

func sameSequentialSignature(a, b []PlateFrame) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Counter != b[i].Counter {
			return false
		}
	}
	return true
}

// dependsOn reports whether node t depends on the enumerated site s, using
// dimension occupancy as the dependency proxy: t's distribution batch shape
// or value occupies s's enumeration dimension. This is a best-effort check
// over one concrete execution, not a proof.
func dependsOn(t, s *Node) bool {
	if t.Name == s.Name {
		return false
	}
	if t.Dist != nil && dimOf(t.Dist.BatchShape(), s.EnumDim) > 1 {
		return true
	}
	return t.EnumDim != s.EnumDim && t.Value.Dim(s.EnumDim) > 1
}

// ValidateEnumeration checks the structural restrictions on parallel
// enumeration over one finished trace:
//
//  1. Two enumerated sites in the same iteration of a sequential loop,
//     with no distinguishing vectorized frame, violate conditional
//     independence.
//  2. A site depending on an enumerated value produced inside a vectorized
//     frame must itself be inside that frame.
//  3. The enumerated sites any one site depends on must be totally ordered
//     by independence-frame nesting (no diamond across unrelated frames).
//
// Violations are reported with the offending site name. Detection is
// best-effort over the concrete execution recorded in the trace.
func ValidateEnumeration(t *Trace) error {
	var enums []*Node
	for _, name := range t.Names() {
		n := t.Site(name)
		if n.Kind == KindSample && n.EnumDim != 0 {
			enums = append(enums, n)
		}
	}
	if len(enums) == 0 {
		return nil
	}

	// Restriction 1: pairs of enumerated sites sharing a sequential
	// iteration and an identical vectorized frame set.
	for i := 0; i < len(enums); i++ {
		for j := i + 1; j < len(enums); j++ {
			a, b := enums[i], enums[j]
			sa, sb := sequentialSignature(a), sequentialSignature(b)
			if len(sa) == 0 || !sameSequentialSignature(sa, sb) {
				continue
			}
			fa, fb := vectorizedFrames(a), vectorizedFrames(b)
			if frameSubset(fa, fb) && frameSubset(fb, fa) {
				return &UsageError{
					Site: b.Name,
					Err:  ErrEnumRestriction,
					Detail: "enumerated together with site \"" + a.Name +
						"\" in the same unvectorized loop body",
				}
			}
		}
	}

	// Restriction 2: dependents must be inside every vectorized frame of
	// the enumerated site they depend on.
	for _, s := range enums {
		fs := vectorizedFrames(s)
		if len(fs) == 0 {
			continue
		}
		for _, name := range t.Names() {
			n := t.Site(name)
			if n.Kind != KindSample || !dependsOn(n, s) {
				continue
			}
			if !frameSubset(fs, vectorizedFrames(n)) {
				return &UsageError{
					Site: n.Name,
					Err:  ErrEnumRestriction,
					Detail: "depends on enumerated site \"" + s.Name +
						"\" from outside its vectorized frame",
				}
			}
		}
	}

	// Restriction 3: each site's enumerated dependencies form a chain
	// under frame nesting.
	for _, name := range t.Names() {
		n := t.Site(name)
		if n.Kind != KindSample {
			continue
		}
		var deps []*Node
		for _, s := range enums {
			if dependsOn(n, s) {
				deps = append(deps, s)
			}
		}
		for i := 0; i < len(deps); i++ {
			for j := i + 1; j < len(deps); j++ {
				fi, fj := vectorizedFrames(deps[i]), vectorizedFrames(deps[j])
				if !frameSubset(fi, fj) && !frameSubset(fj, fi) {
					return &UsageError{
						Site: n.Name,
						Err:  ErrEnumRestriction,
						Detail: "enumerated dependencies \"" + deps[i].Name +
							"\" and \"" + deps[j].Name +
							"\" sit in unrelated vectorized frames",
					}
				}
			}
		}
	}
	return nil
}
