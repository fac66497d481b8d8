// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package poutine provides composable effect handlers for probabilistic
// programs in Go.
//
// A generative model is an ordinary function issuing primitive stochastic
// operations — sample, observe, parameter declaration — through an [Env]
// handle. Handlers ([Messenger] values) installed around a model intercept
// those operations and rewrite their semantics: recording, conditioning,
// replaying, hiding, rescaling, enumerating. The model stays unaware of
// which handlers are active.
//
// # Dispatch Protocol
//
// Each primitive call builds a [Message] and threads it through the active
// handler stack in two mirrored phases:
//
//  1. Process, from the innermost-installed messenger outward. A messenger
//     may mutate the message, claim resolution (set Value and Done), or set
//     Stop to hide the call from everything installed outside itself.
//  2. Default resolution, if no handler claimed the value: draw from the
//     distribution, or resolve the parameter through the store.
//  3. PostProcess, over exactly the messengers that processed the message,
//     in the mirrored order. The value is final in this phase.
//
// The mirrored phases give each handler the illusion of being the sole
// interceptor: a trace wrapping a conditioner records post-conditioned
// values, while a scaler wrapping both sees the call before and after.
//
// # Handlers
//
//   - [TraceMessenger] / [RunTrace]: record every site into a [Trace]
//   - [ConditionMessenger]: fix sites to observed values
//   - [ReplayMessenger]: force a previously recorded path
//   - [UnconditionMessenger]: strip observations to generate synthetic data
//   - [BlockMessenger]: hide sites from outer handlers
//   - [ScaleMessenger], [MaskMessenger]: reweight and mask log densities
//   - [EscapeMessenger] / [CatchEscape]: predicate-triggered non-local exit
//   - [EnumerateMessenger], [EnumerateSequential]: exhaustive expansion of
//     finite supports
//   - [DebugMessenger]: log every site via commonlog
//
// Installation is scoped: [Env.Install] returns an uninstall that the
// installing scope must run on every exit path, and [Handled] wraps a model
// so this holds automatically, panics included (property: after the
// outermost scope exits, the stack equals its pre-entry state).
//
// # Independence Contexts
//
// [Plate] declares a vectorized independence context that claims a negative
// tensor dimension (allocation scans outward from -1 within the env's
// budget) and stamps enclosed sites with a [PlateFrame]; subsampled plates
// rescale enclosed sites by full/realized size. [Env.Range] is the
// sequential form, consuming no dimension. [Env.Markov] bounds the lifetime
// of enumeration dimensions in long loops so a bounded-lookback chain never
// exhausts the dimension budget.
//
// # Escape
//
// Escape is the only non-local exit: a distinguished [*EscapeSignal] panic
// raised at the first predicate match, caught by [CatchEscape] in exactly
// the frame that installed the raising messenger and converted into a
// retry or surfaced as an error. Sequential enumeration is built on it.
//
// # Errors
//
// Contract violations (site name collision, dimension exhaustion, shape
// mismatch, invalid subsamples, enumeration restrictions, uncaught escape)
// are fatal usage
// errors: primitives panic with [*UsageError], and run boundaries recover
// exactly that type and return it as an error. See [ErrNameCollision] and
// friends for errors.Is matching.
//
// # Boundaries
//
// The numeric heavy lifting is external: [Distribution] and [ParamStore]
// are the upward interfaces, [Value] a minimal shaped carrier, and the dist
// package provides gonum-backed distributions. Inference algorithms consume
// the [Trace] values this package produces.
package poutine
