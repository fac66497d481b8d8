// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package poutine

import (
	"iter"
	"math/rand/v2"
)

// Independence contexts. A vectorized [Plate] claims a tensor dimension
// for its lifetime and stamps every enclosed primitive call with a
// [PlateFrame]; a sequential [Env.Range] loop stamps frames carrying the
// loop counter and claims no dimension. Subsampled plates scale enclosed
// sites by full/realized size unless an explicit scale overrides it.

// plateMessenger stamps the active frame onto every enclosed message and
// applies the subsampling scale correction. Plate boundary messages pass
// through unstamped.
type plateMessenger struct {
	BaseMessenger
	frame PlateFrame
	scale float64
}

// Process appends the frame to the message's independence stack and
// applies the subsampling scale correction.
func (m *plateMessenger) Process(env *Env, msg *Message) {
	if msg.Kind == KindPlateEnter || msg.Kind == KindPlateExit {
		return
	}
	msg.CondIndepStack = append(msg.CondIndepStack, m.frame)
	if m.scale != 1 {
		msg.Scale = mulValues(msg.Name, msg.Scale, Scalar(m.scale))
	}
}

// Plate declares a vectorized independence context: the random variables
// inside are conditionally independent along one tensor dimension. A Plate
// value is reusable across executions; each [Plate.Do] claims a dimension
// on entry and releases it on exit.
type Plate struct {
	name          string
	size          int
	subsampleSize int
	indices       []int
	dim           int
	scale         float64
}

// PlateOption configures a [Plate].
type PlateOption func(*Plate)

// PlateDim requests a specific (negative) dimension instead of automatic
// allocation.
func PlateDim(d int) PlateOption {
	return func(p *Plate) { p.dim = d }
}

// PlateSubsampleSize subsamples the plate to n indices drawn without
// replacement on each entry. Requesting the full population size realizes
// the full population; requesting more is a usage error.
func PlateSubsampleSize(n int) PlateOption {
	return func(p *Plate) { p.subsampleSize = n }
}

// PlateSubsample supplies externally chosen subsample indices. Every index
// must lie within the population.
func PlateSubsample(indices []int) PlateOption {
	return func(p *Plate) { p.indices = indices }
}

// PlateScale overrides the automatic subsampling scale correction.
func PlateScale(s float64) PlateOption {
	return func(p *Plate) { p.scale = s }
}

// NewPlate creates a vectorized plate over a population of the given size.
func NewPlate(name string, size int, opts ...PlateOption) *Plate {
	p := &Plate{name: name, size: size}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Do runs body inside the plate: validates the subsample request, claims a
// dimension (automatic allocation scans outward from -1 within the env's
// budget), realizes the subsample,
// installs the frame-stamping messenger, and emits plate-enter/exit
// messages around the body. body receives the realized indices. The
// dimension and stack state are restored on every exit path.
func (p *Plate) Do(env *Env, body func(indices []int)) {
	if p.subsampleSize < 0 || p.subsampleSize > p.size {
		usagef(p.name, ErrSubsample,
			"subsample size %d of population %d", p.subsampleSize, p.size)
	}
	for _, i := range p.indices {
		if i < 0 || i >= p.size {
			usagef(p.name, ErrSubsample,
				"index %d outside population of size %d", i, p.size)
		}
	}
	indices := p.indices
	if indices == nil && p.subsampleSize > 0 && p.subsampleSize < p.size {
		indices = drawSubsample(env.rng, p.size, p.subsampleSize)
	}
	dim := env.claimPlateDim(p.dim, p.name)
	defer env.releasePlateDim(dim)

	frame := PlateFrame{Name: p.name, Size: p.size, Subsample: indices, Dim: dim}
	scale := p.scale
	if scale == 0 {
		scale = frame.ScaleFactor()
	}
	uninstall := env.Install(&plateMessenger{frame: frame, scale: scale})
	defer uninstall()

	env.emitPlate(KindPlateEnter, p.name)
	defer env.emitPlate(KindPlateExit, p.name)
	body(indices)
}

// Range declares a sequential independence context: an iterator over
// 0..size-1 whose iterations are conditionally independent but executed one
// at a time, consuming no tensor dimension. Enclosed sites are stamped with
// a frame carrying the current counter.
func (e *Env) Range(name string, size int) iter.Seq[int] {
	return func(yield func(int) bool) {
		m := &plateMessenger{
			frame: PlateFrame{Name: name, Size: size},
			scale: 1,
		}
		uninstall := e.Install(m)
		defer uninstall()
		for i := range size {
			m.frame.Counter = i
			if !yield(i) {
				return
			}
		}
	}
}

// drawSubsample draws k of n indices without replacement.
func drawSubsample(rng *rand.Rand, n, k int) []int {
	perm := rng.Perm(n)
	indices := make([]int, k)
	copy(indices, perm[:k])
	return indices
}
