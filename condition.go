// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package poutine

// Value-substitution messengers: Condition fixes sites to observed data,
// Replay forces a previously recorded path, Uncondition strips observations
// so a fitted model can generate synthetic data again. Sites with no
// matching entry pass through untouched.

// ConditionMessenger fixes named sample sites to given values, marking
// them observed.
type ConditionMessenger struct {
	BaseMessenger
	data map[string]Value
}

// NewCondition creates a conditioning messenger from site name to value.
func NewCondition(data map[string]Value) *ConditionMessenger {
	return &ConditionMessenger{data: data}
}

// Process claims matching unresolved sample sites: sets the value, marks
// the site done and observed.
func (m *ConditionMessenger) Process(env *Env, msg *Message) {
	if msg.Kind != KindSample || msg.Done {
		return
	}
	v, ok := m.data[msg.Name]
	if !ok {
		return
	}
	msg.Value = v
	msg.HasValue = true
	msg.Done = true
	msg.Observed = true
}

// NewConditionFromTrace creates a conditioning messenger from the sample
// sites of a recorded trace, fixing each site to its recorded value.
func NewConditionFromTrace(tr *Trace) *ConditionMessenger {
	data := map[string]Value{}
	for _, name := range tr.Names() {
		if n := tr.Site(name); n.Kind == KindSample {
			data[name] = n.Value
		}
	}
	return NewCondition(data)
}

// ReplayMessenger forces sample sites to the values recorded in a previous
// trace, without marking them observed. Used to re-run a model
// deterministically along a sampled path.
type ReplayMessenger struct {
	BaseMessenger
	tr *Trace
}

// NewReplay creates a replaying messenger over a recorded trace.
func NewReplay(tr *Trace) *ReplayMessenger {
	return &ReplayMessenger{tr: tr}
}

// Process claims unresolved sample sites present in the trace.
func (m *ReplayMessenger) Process(env *Env, msg *Message) {
	if msg.Kind != KindSample || msg.Done {
		return
	}
	n := m.tr.Site(msg.Name)
	if n == nil {
		return
	}
	msg.Value = n.Value
	msg.HasValue = true
	msg.Done = true
}

// UnconditionMessenger strips the observed flag from every sample site, so
// the sites draw fresh values instead of keeping their conditioning data.
type UnconditionMessenger struct {
	BaseMessenger
}

// NewUncondition creates an unconditioning messenger.
func NewUncondition() *UnconditionMessenger { return &UnconditionMessenger{} }

// Process drops the observation from observed sample sites.
func (m *UnconditionMessenger) Process(env *Env, msg *Message) {
	if msg.Kind != KindSample || !msg.Observed || msg.Done {
		return
	}
	msg.Observed = false
	msg.HasValue = false
	msg.Value = Value{}
}
