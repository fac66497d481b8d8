// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dist

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"code.hybscloud.com/poutine"
)

// Normal is the univariate normal distribution with location Mu and
// standard deviation Sigma. Parameters broadcast to the batch shape.
type Normal struct {
	Mu    poutine.Value
	Sigma poutine.Value
}

// NewNormal creates a scalar Normal.
func NewNormal(mu, sigma float64) Normal {
	return Normal{Mu: poutine.Scalar(mu), Sigma: poutine.Scalar(sigma)}
}

// BatchShape implements [poutine.Distribution].
func (d Normal) BatchShape() []int {
	return batchShape(d.Mu, d.Sigma)
}

// EventShape implements [poutine.Distribution].
func (d Normal) EventShape() []int { return nil }

// Sample draws one value per batch element.
func (d Normal) Sample(rng *rand.Rand) poutine.Value {
	shape := d.BatchShape()
	data := make([]float64, sizeOf(shape))
	for i := range data {
		n := distuv.Normal{
			Mu:    d.Mu.BroadcastAt(shape, i),
			Sigma: d.Sigma.BroadcastAt(shape, i),
			Src:   rng,
		}
		data[i] = n.Rand()
	}
	return poutine.NewValue(shape, data)
}

// LogProb computes elementwise log densities of v broadcast against the
// batch shape.
func (d Normal) LogProb(v poutine.Value) poutine.Value {
	shape := logProbShape(d, v)
	data := make([]float64, sizeOf(shape))
	for i := range data {
		n := distuv.Normal{
			Mu:    d.Mu.BroadcastAt(shape, i),
			Sigma: d.Sigma.BroadcastAt(shape, i),
		}
		data[i] = n.LogProb(v.BroadcastAt(shape, i))
	}
	return poutine.NewValue(shape, data)
}
