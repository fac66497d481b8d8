// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package poutine

import "fmt"

// Value is a minimal shaped float64 carrier. It stands in for the tensors of
// an external numeric library at the handler boundary: handlers only need
// shapes and raw numbers, never gradients or device placement.
//
// A Value is shape plus row-major data. The zero Value is "empty" and is
// used as the all-true default for [Message] masks. A rank-0 Value with one
// element is a scalar.
//
// Values are treated as immutable once constructed; the data slice is shared
// on copy, never written.
type Value struct {
	shape []int
	data  []float64
}

// Scalar creates a rank-0 Value holding x.
func Scalar(x float64) Value {
	return Value{shape: []int{}, data: []float64{x}}
}

// Vector creates a rank-1 Value holding xs.
func Vector(xs ...float64) Value {
	d := make([]float64, len(xs))
	copy(d, xs)
	return Value{shape: []int{len(xs)}, data: d}
}

// NewValue creates a Value with the given shape and row-major data.
// The slices are retained, not copied. Panics with a shape usage error
// if len(data) does not equal the product of shape.
func NewValue(shape []int, data []float64) Value {
	if numel(shape) != len(data) {
		usagef("", ErrShapeMismatch, "shape %v wants %d elements, data has %d",
			shape, numel(shape), len(data))
	}
	return Value{shape: shape, data: data}
}

// Empty reports whether v is the zero Value.
func (v Value) Empty() bool { return v.data == nil }

// Shape returns the shape of v. The returned slice must not be mutated.
func (v Value) Shape() []int { return v.shape }

// Rank returns the number of dimensions of v.
func (v Value) Rank() int { return len(v.shape) }

// Size returns the total number of elements of v.
func (v Value) Size() int { return len(v.data) }

// Data returns the row-major backing data. The returned slice must not be
// mutated.
func (v Value) Data() []float64 { return v.data }

// Item returns the single element of a scalar (or one-element) Value.
// Panics with a shape usage error otherwise.
func (v Value) Item() float64 {
	if len(v.data) != 1 {
		usagef("", ErrShapeMismatch, "Item on value of shape %v", v.shape)
	}
	return v.data[0]
}

// At returns the element at the given multi-index.
func (v Value) At(idx ...int) float64 {
	if len(idx) != len(v.shape) {
		usagef("", ErrShapeMismatch, "index %v into value of shape %v", idx, v.shape)
	}
	flat := 0
	for i, c := range idx {
		if c < 0 || c >= v.shape[i] {
			usagef("", ErrShapeMismatch, "index %v out of range for shape %v", idx, v.shape)
		}
		flat = flat*v.shape[i] + c
	}
	return v.data[flat]
}

// Dim returns the size of v at the negative-indexed dimension d
// (d = -1 is the rightmost). Dimensions beyond the rank have size 1,
// following broadcast convention.
func (v Value) Dim(d int) int { return dimOf(v.shape, d) }

// dimOf returns the size of shape at negative dimension d, with implicit
// size-1 padding on the left.
func dimOf(shape []int, d int) int {
	i := len(shape) + d
	if i < 0 || i >= len(shape) {
		return 1
	}
	return shape[i]
}

// numel returns the product of shape. The empty shape has one element;
// a nil shape (empty Value) has zero only when paired with nil data.
func numel(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// BroadcastShapes computes the minimal common broadcast shape of a and b,
// aligning on the right. A dimension broadcasts when the two sizes are
// equal or either is 1. Returns a shape-mismatch error otherwise.
func BroadcastShapes(a, b []int) ([]int, error) {
	rank := max(len(a), len(b))
	out := make([]int, rank)
	for i := 1; i <= rank; i++ {
		da, db := dimOf(a, -i), dimOf(b, -i)
		switch {
		case da == db:
			out[rank-i] = da
		case da == 1:
			out[rank-i] = db
		case db == 1:
			out[rank-i] = da
		default:
			return nil, fmt.Errorf("%w: cannot broadcast %v with %v at dim %d",
				ErrShapeMismatch, a, b, -i)
		}
	}
	return out, nil
}

// BroadcastAt returns the element of v addressed by the flat (row-major)
// index into the broadcast target shape. Size-1 dimensions of v are
// broadcast; dimensions of the target beyond v's rank are ignored.
// The target shape must be broadcast-compatible with v's shape.
func (v Value) BroadcastAt(shape []int, flat int) float64 {
	if len(v.data) == 1 {
		return v.data[0] // scalar fast path
	}
	vflat := 0
	vstride := 1
	offset := len(shape) - len(v.shape)
	rem := flat
	for i := len(shape) - 1; i >= 0; i-- {
		c := rem % shape[i]
		rem /= shape[i]
		j := i - offset
		if j >= 0 {
			if v.shape[j] != 1 {
				vflat += c * vstride
			}
			vstride *= v.shape[j]
		}
	}
	return v.data[vflat]
}

// Expand materializes v broadcast to the given shape. Panics with a shape
// usage error if v does not broadcast to exactly that shape.
func (v Value) Expand(shape []int) Value {
	common, err := BroadcastShapes(v.shape, shape)
	if err != nil || len(common) != len(shape) {
		usagef("", ErrShapeMismatch, "cannot expand %v to %v", v.shape, shape)
	}
	for i := range shape {
		if common[i] != shape[i] {
			usagef("", ErrShapeMismatch, "cannot expand %v to %v", v.shape, shape)
		}
	}
	data := make([]float64, numel(shape))
	for i := range data {
		data[i] = v.BroadcastAt(shape, i)
	}
	return Value{shape: shape, data: data}
}

// Equal reports whether v and w have identical shape and data.
func (v Value) Equal(w Value) bool {
	if len(v.shape) != len(w.shape) || len(v.data) != len(w.data) {
		return false
	}
	for i := range v.shape {
		if v.shape[i] != w.shape[i] {
			return false
		}
	}
	for i := range v.data {
		if v.data[i] != w.data[i] {
			return false
		}
	}
	return true
}

// Sum returns the sum of all elements of v. The empty Value sums to 0.
func (v Value) Sum() float64 {
	total := 0.0
	for _, x := range v.data {
		total += x
	}
	return total
}

// mulValues multiplies a and b elementwise under broadcasting.
// Panics with a shape usage error at site if the shapes are incompatible.
func mulValues(site string, a, b Value) Value {
	shape, err := BroadcastShapes(a.shape, b.shape)
	if err != nil {
		usagef(site, ErrShapeMismatch, "%v", err)
	}
	n := numel(shape)
	data := make([]float64, n)
	for i := range data {
		data[i] = a.BroadcastAt(shape, i) * b.BroadcastAt(shape, i)
	}
	return Value{shape: shape, data: data}
}

// maskedScaledSum sums the scale-weighted entries of lp whose mask element
// is nonzero. Masked-out entries are skipped, not multiplied: a masked
// entry contributes nothing even when its log density is -Inf, so masking
// invalid entries never turns the total into NaN. An empty mask keeps every
// entry; an empty scale means 1.
func maskedScaledSum(site string, lp, mask, scale Value) float64 {
	shape := lp.shape
	var err error
	if !mask.Empty() {
		if shape, err = BroadcastShapes(shape, mask.shape); err != nil {
			usagef(site, ErrShapeMismatch, "%v", err)
		}
	}
	if !scale.Empty() {
		if shape, err = BroadcastShapes(shape, scale.shape); err != nil {
			usagef(site, ErrShapeMismatch, "%v", err)
		}
	}
	total := 0.0
	for i := range numel(shape) {
		if !mask.Empty() && mask.BroadcastAt(shape, i) == 0 {
			continue
		}
		x := lp.BroadcastAt(shape, i)
		if !scale.Empty() {
			x *= scale.BroadcastAt(shape, i)
		}
		total += x
	}
	return total
}

// intersectMask intersects the boolean masks a and b (0 is false, anything
// else is true), treating an empty mask as all-true.
func intersectMask(site string, a, b Value) Value {
	if a.Empty() {
		return b
	}
	if b.Empty() {
		return a
	}
	return mulValues(site, a, b)
}

// enumValue builds the fully-enumerated value for a discrete support,
// placing the support axis at negative dimension dim: the result has shape
// [k, 1, ..., 1] with k = len(support) and rank -dim.
func enumValue(support []float64, dim int) Value {
	shape := make([]int, -dim)
	shape[0] = len(support)
	for i := 1; i < len(shape); i++ {
		shape[i] = 1
	}
	data := make([]float64, len(support))
	copy(data, support)
	return Value{shape: shape, data: data}
}
