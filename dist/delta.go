// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dist

import (
	"math"
	"math/rand/v2"

	"code.hybscloud.com/poutine"
)

// Delta is the point mass at V. Sampling returns V; the log mass is 0 at V
// and -Inf elsewhere. Useful for clamping auxiliary sites and in tests.
type Delta struct {
	V poutine.Value
}

// NewDelta creates a point mass at v.
func NewDelta(v poutine.Value) Delta { return Delta{V: v} }

// BatchShape implements [poutine.Distribution].
func (d Delta) BatchShape() []int { return d.V.Shape() }

// EventShape implements [poutine.Distribution].
func (d Delta) EventShape() []int { return nil }

// Sample returns the point.
func (d Delta) Sample(*rand.Rand) poutine.Value { return d.V }

// LogProb is 0 where v equals the point and -Inf elsewhere, elementwise
// under broadcasting.
func (d Delta) LogProb(v poutine.Value) poutine.Value {
	shape := logProbShape(d, v)
	data := make([]float64, sizeOf(shape))
	for i := range data {
		if d.V.BroadcastAt(shape, i) != v.BroadcastAt(shape, i) {
			data[i] = math.Inf(-1)
		}
	}
	return poutine.NewValue(shape, data)
}
