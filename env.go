// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package poutine

import "math/rand/v2"

// Model is a generative model: an ordinary function that issues primitive
// calls through the env handle. Model code stays unaware of which handlers
// are active.
type Model func(env *Env)

// Distribution is the upward boundary to an external distribution object.
// Implementations live outside the core (see the dist package).
type Distribution interface {
	// Sample draws a batch of values shaped like BatchShape.
	Sample(rng *rand.Rand) Value

	// LogProb computes elementwise log densities of v, broadcast against
	// BatchShape.
	LogProb(v Value) Value

	// BatchShape is the shape of independent draws implied by the
	// distribution's parameters.
	BatchShape() []int

	// EventShape is the shape of a single event.
	EventShape() []int
}

// Enumerable is implemented by distributions with finite support, making
// them eligible for enumeration.
type Enumerable interface {
	Distribution

	// SupportValues lists the support in a fixed order.
	SupportValues() []float64
}

// ParamStore is the upward boundary to parameter storage. The core only
// needs get-or-initialize semantics; persistence and constraints belong to
// the store implementation.
type ParamStore interface {
	GetOrInit(name string, init func() Value) Value
}

// memStore is the default in-memory ParamStore.
type memStore map[string]Value

func (s memStore) GetOrInit(name string, init func() Value) Value {
	if v, ok := s[name]; ok {
		return v
	}
	v := init()
	s[name] = v
	return v
}

// DefaultMaxPlateDim is the dimension budget for vectorized frames:
// claimed dimensions range over -1..-DefaultMaxPlateDim.
const DefaultMaxPlateDim = 25

// stackEntry wraps an installed messenger. Uninstall matches on the entry
// pointer, not the messenger value, so non-comparable messenger types (such
// as [MessengerFunc]) and re-entrant installs both work.
type stackEntry struct {
	m Messenger
}

// Env is the call-scoped runtime handle threaded through a model execution:
// the active handler stack, the tensor dimension allocator, the random
// source, and the parameter store. An Env is single-goroutine state; use
// one Env per concurrently executing model.
type Env struct {
	stack  []*stackEntry
	rng    *rand.Rand
	params ParamStore
	maxDim int

	plateDims map[int]bool
	enumDims  map[int]bool
	markov    []*markovCtx
}

// EnvOption configures an [Env].
type EnvOption func(*Env)

// WithSeed seeds the env's random source.
func WithSeed(seed uint64) EnvOption {
	return func(e *Env) { e.rng = rand.New(rand.NewPCG(seed, seed)) }
}

// WithMaxPlateDim overrides the vectorized dimension budget
// ([DefaultMaxPlateDim]).
func WithMaxPlateDim(n int) EnvOption {
	return func(e *Env) { e.maxDim = n }
}

// WithParamStore installs a parameter store other than the in-memory
// default.
func WithParamStore(ps ParamStore) EnvOption {
	return func(e *Env) { e.params = ps }
}

// NewEnv creates an execution environment with an empty handler stack.
func NewEnv(opts ...EnvOption) *Env {
	e := &Env{
		rng:       rand.New(rand.NewPCG(1, 1)),
		params:    memStore{},
		maxDim:    DefaultMaxPlateDim,
		plateDims: map[int]bool{},
		enumDims:  map[int]bool{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// RNG returns the env's random source.
func (e *Env) RNG() *rand.Rand { return e.rng }

// Depth returns the number of currently installed messengers.
func (e *Env) Depth() int { return len(e.stack) }

// Install pushes m onto the handler stack and returns the matching
// uninstall. Callers must arrange for uninstall to run on every exit path
// of the installing scope, normally via defer; [Handled] does this.
// Re-entrant messengers may be installed at several positions at once;
// uninstall removes the innermost occurrence.
func (e *Env) Install(m Messenger) (uninstall func()) {
	if l, ok := m.(Lifecycle); ok {
		l.Enter(e)
	}
	entry := &stackEntry{m: m}
	e.stack = append(e.stack, entry)
	return func() {
		for i := len(e.stack) - 1; i >= 0; i-- {
			if e.stack[i] == entry {
				e.stack = append(e.stack[:i], e.stack[i+1:]...)
				if l, ok := m.(Lifecycle); ok {
					l.Exit(e)
				}
				return
			}
		}
		panic("poutine: uninstall of messenger that is not on the stack")
	}
}

// apply threads msg through the active stack: process phase from the
// innermost messenger outward, default resolution, then the mirrored
// post-process phase over exactly the messengers that processed it.
func (e *Env) apply(msg *Message) Value {
	first := 0
	for i := len(e.stack) - 1; i >= 0; i-- {
		e.stack[i].m.Process(e, msg)
		if msg.Stop {
			first = i
			break
		}
	}

	if !msg.Done {
		if !msg.HasValue {
			switch msg.Kind {
			case KindSample:
				if msg.Dist != nil {
					msg.Value = msg.Dist.Sample(e.rng)
					msg.HasValue = true
				}
			case KindParam:
				if msg.Init != nil {
					msg.Value = e.params.GetOrInit(msg.Name, msg.Init)
					msg.HasValue = true
				}
			}
		}
		msg.Done = true
	}
	if msg.Kind == KindSample && msg.HasValue {
		e.validateFrames(msg)
	}

	for i := first; i < len(e.stack); i++ {
		e.stack[i].m.PostProcess(e, msg)
	}
	return msg.Value
}

// validateFrames checks the resolved value against every active vectorized
// frame: the value's size at a frame's dimension must be 1 or the frame's
// realized size.
func (e *Env) validateFrames(msg *Message) {
	for _, f := range msg.CondIndepStack {
		if !f.Vectorized() {
			continue
		}
		got := msg.Value.Dim(f.Dim)
		if want := f.EffectiveSize(); got != 1 && got != want {
			usagef(msg.Name, ErrShapeMismatch,
				"value has size %d at dim %d of plate %q, want 1 or %d",
				got, f.Dim, f.Name, want)
		}
	}
}

// SampleOption configures one sample site.
type SampleOption func(*Message)

// Observed fixes the site's value to conditioning data.
func Observed(v Value) SampleOption {
	return func(m *Message) {
		m.Value = v
		m.HasValue = true
		m.Observed = true
	}
}

// Infer attaches inference hints to the site.
func Infer(cfg InferConfig) SampleOption {
	return func(m *Message) { m.Infer = cfg }
}

// Sample issues a sample primitive: draws from d unless an active handler
// or an observation resolves the value first. Site names must be unique
// within one traced execution.
func (e *Env) Sample(name string, d Distribution, opts ...SampleOption) Value {
	msg := acquireMessage()
	msg.Kind = KindSample
	msg.Name = name
	msg.Dist = d
	for _, o := range opts {
		o(msg)
	}
	v := e.apply(msg)
	releaseMessage(msg)
	return v
}

// Observe issues a sample primitive conditioned on obs.
// Equivalent to Sample(name, d, Observed(obs)).
func (e *Env) Observe(name string, d Distribution, obs Value) Value {
	return e.Sample(name, d, Observed(obs))
}

// Param issues a parameter-declaration primitive, resolving through the
// env's parameter store with get-or-initialize semantics.
func (e *Env) Param(name string, init func() Value) Value {
	msg := acquireMessage()
	msg.Kind = KindParam
	msg.Name = name
	msg.Init = init
	v := e.apply(msg)
	releaseMessage(msg)
	return v
}

// emitPlate threads a plate-enter or plate-exit message through the stack
// so handlers can observe context boundaries. No value is resolved.
func (e *Env) emitPlate(kind Kind, name string) {
	msg := acquireMessage()
	msg.Kind = kind
	msg.Name = name
	e.apply(msg)
	releaseMessage(msg)
}

// dimClaimed reports whether negative dimension d is claimed by an active
// vectorized frame or a live enumerated site.
func (e *Env) dimClaimed(d int) bool {
	return e.plateDims[d] || e.enumDims[d]
}

// claimPlateDim claims a dimension for a vectorized frame. A negative
// requested dim is honored or fails with a dim-conflict error; zero
// requests automatic allocation, scanning outward from -1 within the
// budget.
func (e *Env) claimPlateDim(requested int, site string) int {
	if requested < 0 {
		if e.dimClaimed(requested) {
			usagef(site, ErrDimConflict, "dim %d is already claimed", requested)
		}
		e.plateDims[requested] = true
		return requested
	}
	for d := -1; d >= -e.maxDim; d-- {
		if !e.dimClaimed(d) {
			e.plateDims[d] = true
			return d
		}
	}
	usagef(site, ErrDimExhausted, "no free dim within budget %d", e.maxDim)
	return 0
}

// releasePlateDim releases a claimed frame dimension.
func (e *Env) releasePlateDim(d int) { delete(e.plateDims, d) }

// claimEnumDim claims a fresh dimension for an enumerated site, scanning
// leftward from first (inclusive) within the budget. The claim lives until
// the end of the traced execution unless an enclosing Markov context
// recycles it.
func (e *Env) claimEnumDim(first int, site string) int {
	for d := first; d >= -e.maxDim; d-- {
		if !e.dimClaimed(d) {
			e.enumDims[d] = true
			if len(e.markov) > 0 {
				e.markov[len(e.markov)-1].note(d)
			}
			return d
		}
	}
	usagef(site, ErrDimExhausted,
		"no free enumeration dim at or left of %d within budget %d", first, e.maxDim)
	return 0
}

// resetEnumDims releases all enumeration dimension claims. Run boundaries
// call this before each traced execution.
func (e *Env) resetEnumDims() {
	for d := range e.enumDims {
		delete(e.enumDims, d)
	}
}
