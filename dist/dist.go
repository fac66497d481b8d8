// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dist

import (
	"code.hybscloud.com/poutine"
)

// batchShape broadcasts parameter shapes into the distribution's batch
// shape. Incompatible parameters are a shape usage error.
func batchShape(params ...poutine.Value) []int {
	shape := []int{}
	for _, p := range params {
		s, err := poutine.BroadcastShapes(shape, p.Shape())
		if err != nil {
			panic(&poutine.UsageError{Err: poutine.ErrShapeMismatch, Detail: err.Error()})
		}
		shape = s
	}
	return shape
}

// logProbShape broadcasts the batch shape against the value being scored.
func logProbShape(d poutine.Distribution, v poutine.Value) []int {
	shape, err := poutine.BroadcastShapes(d.BatchShape(), v.Shape())
	if err != nil {
		panic(&poutine.UsageError{Err: poutine.ErrShapeMismatch, Detail: err.Error()})
	}
	return shape
}

// sizeOf returns the element count of a shape.
func sizeOf(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}
