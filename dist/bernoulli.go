// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dist

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"code.hybscloud.com/poutine"
)

// Bernoulli is the {0, 1}-valued distribution with success probability P.
// P broadcasts to the batch shape. Bernoulli satisfies
// [poutine.Enumerable].
type Bernoulli struct {
	P poutine.Value
}

// NewBernoulli creates a scalar Bernoulli.
func NewBernoulli(p float64) Bernoulli {
	return Bernoulli{P: poutine.Scalar(p)}
}

// BatchShape implements [poutine.Distribution].
func (d Bernoulli) BatchShape() []int { return d.P.Shape() }

// EventShape implements [poutine.Distribution].
func (d Bernoulli) EventShape() []int { return nil }

// Sample draws one value per batch element.
func (d Bernoulli) Sample(rng *rand.Rand) poutine.Value {
	shape := d.P.Shape()
	data := make([]float64, sizeOf(shape))
	for i := range data {
		b := distuv.Bernoulli{P: d.P.BroadcastAt(shape, i), Src: rng}
		data[i] = b.Rand()
	}
	return poutine.NewValue(shape, data)
}

// LogProb computes elementwise log masses of v broadcast against the batch
// shape.
func (d Bernoulli) LogProb(v poutine.Value) poutine.Value {
	shape := logProbShape(d, v)
	data := make([]float64, sizeOf(shape))
	for i := range data {
		b := distuv.Bernoulli{P: d.P.BroadcastAt(shape, i)}
		data[i] = b.LogProb(v.BroadcastAt(shape, i))
	}
	return poutine.NewValue(shape, data)
}

// SupportValues implements [poutine.Enumerable].
func (d Bernoulli) SupportValues() []float64 { return []float64{0, 1} }
