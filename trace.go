// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package poutine

import (
	"github.com/google/uuid"
)

// Node is the frozen snapshot of one resolved primitive call, as recorded
// into a [Trace]. Nodes are plain values: mutating one never affects the
// execution it was recorded from.
type Node struct {
	Kind           Kind
	Name           string
	Dist           Distribution
	Value          Value
	Observed       bool
	Scale          Value
	Mask           Value
	CondIndepStack []PlateFrame
	Infer          InferConfig
	EnumDim        int
}

// snapshotNode copies the final state of msg into a Node.
func snapshotNode(msg *Message) *Node {
	n := &Node{
		Kind:     msg.Kind,
		Name:     msg.Name,
		Dist:     msg.Dist,
		Value:    msg.Value,
		Observed: msg.Observed,
		Scale:    msg.Scale,
		Mask:     msg.Mask,
		Infer:    msg.Infer,
		EnumDim:  msg.EnumDim,
	}
	if len(msg.CondIndepStack) > 0 {
		n.CondIndepStack = make([]PlateFrame, len(msg.CondIndepStack))
		copy(n.CondIndepStack, msg.CondIndepStack)
	}
	return n
}

// Trace is the recorded snapshot of all primitive calls made during one
// model execution, in model order, keyed by site name. Each trace carries a
// UUID so downstream consumers and debug logs can correlate executions.
type Trace struct {
	// ID identifies this execution.
	ID uuid.UUID

	names []string
	nodes map[string]*Node
}

// NewTrace creates an empty trace with a fresh ID.
func NewTrace() *Trace {
	return &Trace{
		ID:    uuid.New(),
		nodes: map[string]*Node{},
	}
}

// Len returns the number of recorded sites.
func (t *Trace) Len() int { return len(t.names) }

// Names returns the recorded site names in model order. The returned slice
// must not be mutated.
func (t *Trace) Names() []string { return t.names }

// Site returns the node recorded under name, or nil.
func (t *Trace) Site(name string) *Node { return t.nodes[name] }

// Add records n, enforcing site-name uniqueness. A duplicate name returns
// a [ErrNameCollision] usage error.
func (t *Trace) Add(n *Node) error {
	if _, ok := t.nodes[n.Name]; ok {
		return &UsageError{Site: n.Name, Err: ErrNameCollision}
	}
	t.names = append(t.names, n.Name)
	t.nodes[n.Name] = n
	return nil
}

// Copy returns a shallow copy of the trace under a fresh ID: node pointers
// are shared, the name index is not.
func (t *Trace) Copy() *Trace {
	c := NewTrace()
	c.names = append([]string(nil), t.names...)
	for name, n := range t.nodes {
		c.nodes[name] = n
	}
	return c
}

// LogProb scores the trace: the sum over sample sites of the site's
// elementwise log density under its recorded distribution, restricted to
// mask-kept entries, weighted by its scale. Masked-out entries are dropped
// by selection rather than multiplied by zero, so masking an invalid entry
// (log density -Inf) contributes nothing instead of NaN. Scoring is a
// separate pass so that a recorded trace stays a pure snapshot.
func (t *Trace) LogProb() (lp float64, err error) {
	defer recoverUsage(&err)
	for _, name := range t.names {
		n := t.nodes[name]
		if n.Kind != KindSample || n.Dist == nil {
			continue
		}
		lp += maskedScaledSum(name, n.Dist.LogProb(n.Value), n.Mask, n.Scale)
	}
	return lp, nil
}

// hasEnumerated reports whether any recorded site was expanded by parallel
// enumeration.
func (t *Trace) hasEnumerated() bool {
	for _, n := range t.nodes {
		if n.EnumDim != 0 {
			return true
		}
	}
	return false
}

// TraceMessenger records every sample and param site flowing through it
// into a [Trace], snapshotting final state in the post-process phase.
// Entering its installation scope starts a fresh trace, so one messenger
// value can wrap repeated model invocations.
type TraceMessenger struct {
	BaseMessenger
	tr *Trace
}

// NewTraceMessenger creates a trace-recording messenger.
func NewTraceMessenger() *TraceMessenger {
	return &TraceMessenger{tr: NewTrace()}
}

// Enter implements [Lifecycle]: each installation records into a fresh
// trace.
func (m *TraceMessenger) Enter(*Env) { m.tr = NewTrace() }

// Exit implements [Lifecycle].
func (m *TraceMessenger) Exit(*Env) {}

// PostProcess records the final message state. A duplicate site name is a
// fatal usage error.
func (m *TraceMessenger) PostProcess(env *Env, msg *Message) {
	if msg.Kind != KindSample && msg.Kind != KindParam {
		return
	}
	if err := m.tr.Add(snapshotNode(msg)); err != nil {
		panic(err.(*UsageError))
	}
}

// Trace returns the recorded trace. After the wrapped model returns this is
// the complete execution; after an escape unwind it is the partial trace up
// to the matched site.
func (m *TraceMessenger) Trace() *Trace { return m.tr }

// RunTrace executes model under a trace recorder plus the given extra
// messengers (outermost first, all inside the recorder) and returns the
// finished trace. Fatal usage errors — site name collisions, dimension
// exhaustion, shape mismatches, invalid subsamples, enumeration restriction
// violations, and escapes that no handler caught — abort the execution and
// are returned as
// errors; no partial trace is returned.
//
// When the trace contains parallel-enumerated sites, the structural
// restrictions on enumeration are validated before the trace is returned.
func RunTrace(env *Env, model Model, msgrs ...Messenger) (tr *Trace, err error) {
	defer func() {
		if err != nil {
			log.Errorf("traced execution aborted: %v", err)
		}
	}()
	defer recoverUsage(&err)
	env.resetEnumDims()
	tm := NewTraceMessenger()
	wrapped := Handled(model, append([]Messenger{tm}, msgrs...)...)
	wrapped(env)
	got := tm.Trace()
	if got.hasEnumerated() {
		if err := ValidateEnumeration(got); err != nil {
			return nil, err
		}
	}
	return got, nil
}
