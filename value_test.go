// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package poutine_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"code.hybscloud.com/poutine"
)

func TestBroadcastShapes(t *testing.T) {
	for _, tc := range []struct {
		a, b, want []int
	}{
		{[]int{}, []int{}, []int{}},
		{[]int{3}, []int{}, []int{3}},
		{[]int{3}, []int{1}, []int{3}},
		{[]int{2, 1}, []int{3}, []int{2, 3}},
		{[]int{4, 1, 3}, []int{2, 1}, []int{4, 2, 3}},
	} {
		got, err := poutine.BroadcastShapes(tc.a, tc.b)
		if err != nil {
			t.Fatalf("BroadcastShapes(%v, %v): %v", tc.a, tc.b, err)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("BroadcastShapes(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("BroadcastShapes(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		}
	}
}

func TestBroadcastShapesMismatch(t *testing.T) {
	_, err := poutine.BroadcastShapes([]int{3}, []int{2})
	if !errors.Is(err, poutine.ErrShapeMismatch) {
		t.Fatalf("err = %v, want ErrShapeMismatch", err)
	}
}

func TestBroadcastAt(t *testing.T) {
	v := poutine.NewValue([]int{2, 1}, []float64{10, 20})
	target := []int{2, 3}
	want := []float64{10, 10, 10, 20, 20, 20}
	for i, w := range want {
		if got := v.BroadcastAt(target, i); got != w {
			t.Fatalf("BroadcastAt(%v, %d) = %v, want %v", target, i, got, w)
		}
	}
	// Scalars broadcast to anything.
	s := poutine.Scalar(7)
	if got := s.BroadcastAt([]int{4, 4}, 13); got != 7 {
		t.Fatalf("scalar broadcast = %v, want 7", got)
	}
}

// BroadcastAt agrees with direct multi-index lookup on random shapes.
func TestBroadcastAtMatchesAt(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	for range 100 {
		shape := make([]int, 1+rng.IntN(3))
		n := 1
		for i := range shape {
			shape[i] = 1 + rng.IntN(3)
			n *= shape[i]
		}
		data := make([]float64, n)
		for i := range data {
			data[i] = rng.Float64()
		}
		v := poutine.NewValue(shape, data)
		idx := make([]int, len(shape))
		for flat := 0; flat < n; flat++ {
			if got, want := v.BroadcastAt(shape, flat), v.At(idx...); got != want {
				t.Fatalf("shape %v flat %d: BroadcastAt = %v, At = %v", shape, flat, got, want)
			}
			for i := len(idx) - 1; i >= 0; i-- {
				idx[i]++
				if idx[i] < shape[i] {
					break
				}
				idx[i] = 0
			}
		}
	}
}

func TestExpand(t *testing.T) {
	v := poutine.NewValue([]int{2, 1}, []float64{1, 2})
	got := v.Expand([]int{2, 3})
	want := poutine.NewValue([]int{2, 3}, []float64{1, 1, 1, 2, 2, 2})
	if !got.Equal(want) {
		t.Fatalf("Expand = %v %v, want %v", got.Shape(), got.Data(), want.Data())
	}

	func() {
		defer func() {
			ue, ok := recover().(*poutine.UsageError)
			if !ok || !errors.Is(ue, poutine.ErrShapeMismatch) {
				t.Fatalf("recovered %v, want shape usage error", ue)
			}
		}()
		v.Expand([]int{3, 1})
		t.Fatalf("invalid expand succeeded")
	}()
}

func TestValueDim(t *testing.T) {
	v := poutine.NewValue([]int{4, 3}, make([]float64, 12))
	if v.Dim(-1) != 3 || v.Dim(-2) != 4 {
		t.Fatalf("dims = %d, %d, want 3, 4", v.Dim(-1), v.Dim(-2))
	}
	// Dimensions beyond the rank have size 1.
	if v.Dim(-3) != 1 {
		t.Fatalf("Dim(-3) = %d, want 1", v.Dim(-3))
	}
}

func TestScalarAndVector(t *testing.T) {
	s := poutine.Scalar(2.5)
	if s.Rank() != 0 || s.Size() != 1 || s.Item() != 2.5 {
		t.Fatalf("scalar = rank %d size %d item %v", s.Rank(), s.Size(), s.Item())
	}
	v := poutine.Vector(1, 2, 3)
	if v.Rank() != 1 || v.Sum() != 6 {
		t.Fatalf("vector = rank %d sum %v", v.Rank(), v.Sum())
	}
	if v.Equal(poutine.Vector(1, 2)) || !v.Equal(poutine.Vector(1, 2, 3)) {
		t.Fatalf("Equal misbehaves")
	}
}

func TestEmptyValue(t *testing.T) {
	var v poutine.Value
	if !v.Empty() {
		t.Fatalf("zero Value should be empty")
	}
	if v.Sum() != 0 {
		t.Fatalf("empty sum = %v, want 0", v.Sum())
	}
	if poutine.Scalar(0).Empty() {
		t.Fatalf("scalar 0 should not be empty")
	}
}
