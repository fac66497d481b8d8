// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dist

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"code.hybscloud.com/poutine"
)

// Categorical is the distribution over {0..K-1} with the given (not
// necessarily normalized) weights. Its batch shape is scalar; the support
// size is the weight count. Categorical satisfies [poutine.Enumerable].
type Categorical struct {
	Weights []float64
}

// NewCategorical creates a Categorical over len(weights) categories.
func NewCategorical(weights ...float64) Categorical {
	w := make([]float64, len(weights))
	copy(w, weights)
	return Categorical{Weights: w}
}

// BatchShape implements [poutine.Distribution].
func (d Categorical) BatchShape() []int { return []int{} }

// EventShape implements [poutine.Distribution].
func (d Categorical) EventShape() []int { return nil }

// Sample draws one category index.
func (d Categorical) Sample(rng *rand.Rand) poutine.Value {
	c := distuv.NewCategorical(d.Weights, rng)
	return poutine.Scalar(c.Rand())
}

// LogProb computes elementwise log masses of the category indices in v.
func (d Categorical) LogProb(v poutine.Value) poutine.Value {
	c := distuv.NewCategorical(d.Weights, nil)
	shape := v.Shape()
	data := make([]float64, sizeOf(shape))
	for i := range data {
		data[i] = c.LogProb(v.BroadcastAt(shape, i))
	}
	return poutine.NewValue(shape, data)
}

// SupportValues implements [poutine.Enumerable].
func (d Categorical) SupportValues() []float64 {
	out := make([]float64, len(d.Weights))
	for i := range out {
		out[i] = float64(i)
	}
	return out
}
