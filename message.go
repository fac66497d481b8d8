// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package poutine

// Kind identifies the primitive operation a [Message] describes.
type Kind uint8

const (
	// KindSample is a stochastic sample (or observe) site.
	KindSample Kind = iota

	// KindParam is a learnable parameter declaration site.
	KindParam

	// KindPlateEnter marks entry into an independence context.
	KindPlateEnter

	// KindPlateExit marks exit from an independence context.
	KindPlateExit
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSample:
		return "sample"
	case KindParam:
		return "param"
	case KindPlateEnter:
		return "plate-enter"
	case KindPlateExit:
		return "plate-exit"
	default:
		return "unknown"
	}
}

// Enumeration modes for [InferConfig.Enumerate].
const (
	// EnumParallel expands the site's full support along a fresh tensor
	// dimension in a single execution.
	EnumParallel = "parallel"

	// EnumSequential re-executes the model once per support value (see
	// [EnumerateSequential]).
	EnumSequential = "sequential"
)

// InferConfig carries per-site inference hints attached by the model.
type InferConfig struct {
	// Enumerate selects an enumeration mode ([EnumParallel],
	// [EnumSequential], or empty for none).
	Enumerate string

	// IsAuxiliary marks sites introduced by inference machinery rather
	// than the model itself.
	IsAuxiliary bool
}

// PlateFrame records one active independence context at the time of a
// primitive call. Vectorized frames own a negative tensor dimension;
// sequential frames own none and instead carry the loop counter.
type PlateFrame struct {
	// Name identifies the plate.
	Name string

	// Size is the full population size.
	Size int

	// Subsample holds the indices realized in this execution. Nil means
	// the full population 0..Size-1.
	Subsample []int

	// Dim is the claimed tensor dimension, negative-indexed from the
	// right. Zero means the frame is sequential (not vectorized).
	Dim int

	// Counter is the current iteration index of a sequential frame.
	Counter int
}

// Vectorized reports whether the frame owns a tensor dimension.
func (f PlateFrame) Vectorized() bool { return f.Dim < 0 }

// EffectiveSize returns the number of indices realized in this execution:
// the subsample size when subsampled, the full size otherwise.
func (f PlateFrame) EffectiveSize() int {
	if f.Subsample != nil {
		return len(f.Subsample)
	}
	return f.Size
}

// ScaleFactor returns the multiplicative correction for subsampling bias:
// Size divided by the realized size, or 1 when not subsampled.
func (f PlateFrame) ScaleFactor() float64 {
	n := f.EffectiveSize()
	if n == 0 || n == f.Size {
		return 1
	}
	return float64(f.Size) / float64(n)
}

// sameFrame reports whether two frames denote the same context instance.
func sameFrame(a, b PlateFrame) bool {
	return a.Name == b.Name && a.Dim == b.Dim && a.Counter == b.Counter
}

// Message describes one intercepted primitive call. It is created by the
// primitive entry points on [Env], threaded once through the active handler
// stack (process phase top-down, post-process phase mirrored), and discarded
// when the call returns. Handlers may mutate it subject to the Done and
// Stop contracts below.
type Message struct {
	// Kind is the primitive operation kind.
	Kind Kind

	// Name is the site name, unique within one traced execution.
	Name string

	// Dist is the distribution being sampled from (sample sites only).
	Dist Distribution

	// Init produces the initial parameter value (param sites only).
	Init func() Value

	// Value is the resolved value. Valid only when HasValue is set.
	Value Value

	// HasValue reports whether Value has been set (by an observation, a
	// handler, or default resolution).
	HasValue bool

	// Observed marks the value as conditioning data rather than a draw.
	Observed bool

	// Scale is the multiplicative log-density weight. Nested scaling
	// handlers compose multiplicatively. Defaults to scalar 1.
	Scale Value

	// Mask is a boolean (0/1) tensor intersected by masking handlers.
	// The empty Value means all-true.
	Mask Value

	// CondIndepStack lists the active independence frames, innermost
	// first (appended in process order).
	CondIndepStack []PlateFrame

	// Infer carries inference hints.
	Infer InferConfig

	// Done reports that a handler fully resolved the value; once set no
	// handler may overwrite Value, and default resolution is skipped.
	Done bool

	// Stop short-circuits the process phase: handlers installed outside
	// the one that set it never see this message, in either phase.
	Stop bool

	// EnumDim is the dimension claimed by parallel enumeration for this
	// site, or 0 when the site is not enumerated.
	EnumDim int

	pooled bool
}
