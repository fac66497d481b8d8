// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package poutine

// Escape is the one non-local exit in the core: a search procedure installs
// an escape messenger with a predicate, and the first matching site aborts
// the model mid-execution, unwinding uniformly past arbitrarily deep model
// code. The signal is a distinguished panic value caught by [CatchEscape]
// in exactly the frame that installed the raising messenger — never by a
// generic recover. An uncaught signal surfaces as [ErrUncaughtEscape] at
// the run boundary.

// EscapeSignal is the control-flow signal raised when an escape predicate
// matches. It carries the matched site (unresolved: the snapshot is taken
// during the process phase, before a value exists) and the partial trace of
// everything that resolved before it, which is enough for the catcher to
// resume a search with a different choice substituted.
type EscapeSignal struct {
	// Site is the matched site name.
	Site string

	// Node is the matched site's snapshot at interception time.
	Node *Node

	// Partial is the trace of sites resolved before the match.
	Partial *Trace

	src *EscapeMessenger
}

// Error implements the error interface, so an uncaught signal reads as an
// error at run boundaries.
func (s *EscapeSignal) Error() string {
	return "poutine: escape at site " + s.Site
}

// EscapeMessenger raises an [EscapeSignal] the first time its predicate
// matches a sample site during the process phase. It accumulates its own
// partial trace from the post-process phase so the signal is
// self-contained.
type EscapeMessenger struct {
	BaseMessenger
	pred    func(*Message) bool
	partial *Trace
}

// NewEscape creates an escape messenger with the given predicate.
func NewEscape(pred func(*Message) bool) *EscapeMessenger {
	return &EscapeMessenger{pred: pred, partial: NewTrace()}
}

// Enter implements [Lifecycle]: each installation accumulates into a fresh
// partial trace.
func (m *EscapeMessenger) Enter(*Env) { m.partial = NewTrace() }

// Exit implements [Lifecycle].
func (m *EscapeMessenger) Exit(*Env) {}

// Process raises the signal on the first matching sample site.
func (m *EscapeMessenger) Process(env *Env, msg *Message) {
	if msg.Kind != KindSample || !m.pred(msg) {
		return
	}
	panic(&EscapeSignal{
		Site:    msg.Name,
		Node:    snapshotNode(msg),
		Partial: m.partial,
		src:     m,
	})
}

// PostProcess accumulates resolved sites into the partial trace.
func (m *EscapeMessenger) PostProcess(env *Env, msg *Message) {
	if msg.Kind != KindSample && msg.Kind != KindParam {
		return
	}
	if err := m.partial.Add(snapshotNode(msg)); err != nil {
		panic(err.(*UsageError))
	}
}

// CatchEscape runs f, catching exactly the signals raised by m's escape
// messenger. It returns the signal, or nil when f completed. Signals from
// other escape messengers, usage errors, and unrelated panics propagate
// unchanged, so nested searches unwind to their own catchers.
func CatchEscape(m *EscapeMessenger, f func()) (sig *EscapeSignal) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if s, ok := r.(*EscapeSignal); ok && s.src == m {
			sig = s
			return
		}
		panic(r)
	}()
	f()
	return nil
}
