// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package poutine

// Messenger is the interface for handlers on the interception stack.
// A messenger sees every primitive call issued while it is installed,
// in two phases:
//
//   - Process runs top-down (innermost-installed messenger first) before
//     the value is resolved. A messenger may mutate the message, claim
//     resolution by setting Value and Done, or set Stop to hide the call
//     from every messenger installed outside itself.
//   - PostProcess runs in the mirrored order after the value is final.
//     It must not change Value.
//
// The two mirrored phases give each messenger the illusion of being the
// sole interceptor: it sees the call before anything outside it resolves
// the value, and sees the final result after everything inside it ran.
type Messenger interface {
	Process(env *Env, msg *Message)
	PostProcess(env *Env, msg *Message)
}

// Lifecycle is optionally implemented by messengers that need to observe
// their own installation scope. Enter runs just before the messenger is
// pushed onto the stack, Exit just after it is removed. [Env.Install]
// guarantees Exit on every exit path of the scope, panics included.
type Lifecycle interface {
	Enter(env *Env)
	Exit(env *Env)
}

// BaseMessenger is an embeddable no-op implementation of [Messenger].
// Concrete handlers embed it and override the hooks they need.
type BaseMessenger struct{}

// Process implements [Messenger] as a no-op.
func (BaseMessenger) Process(*Env, *Message) {}

// PostProcess implements [Messenger] as a no-op.
func (BaseMessenger) PostProcess(*Env, *Message) {}

// MessengerFunc adapts plain functions to the [Messenger] interface.
// Either hook may be nil.
type MessengerFunc struct {
	OnProcess     func(env *Env, msg *Message)
	OnPostProcess func(env *Env, msg *Message)
}

// Process implements [Messenger].
func (f MessengerFunc) Process(env *Env, msg *Message) {
	if f.OnProcess != nil {
		f.OnProcess(env, msg)
	}
}

// PostProcess implements [Messenger].
func (f MessengerFunc) PostProcess(env *Env, msg *Message) {
	if f.OnPostProcess != nil {
		f.OnPostProcess(env, msg)
	}
}

// Handled wraps a model so that each invocation runs with the given
// messengers installed, outermost first. Installation is scoped: the stack
// is restored to its pre-entry state on every exit path, panics included.
func Handled(model Model, msgrs ...Messenger) Model {
	return func(env *Env) {
		for _, m := range msgrs {
			defer env.Install(m)()
		}
		model(env)
	}
}
