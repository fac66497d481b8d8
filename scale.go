// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package poutine

// Reweighting messengers: Scale multiplies a site's log-density weight,
// Mask zeroes selected entries out of the log density without altering
// control flow. Both compose across nesting — scales multiply, masks
// intersect.

// ScaleMessenger multiplies the scale of every sample and param site by a
// fixed factor. Nested scale messengers compose multiplicatively.
type ScaleMessenger struct {
	BaseMessenger
	factor Value
}

// NewScale creates a scaling messenger with a scalar factor.
func NewScale(factor float64) *ScaleMessenger {
	return &ScaleMessenger{factor: Scalar(factor)}
}

// NewScaleValue creates a scaling messenger with a tensor factor, for
// per-element reweighting. The factor broadcasts against the site's scale.
func NewScaleValue(factor Value) *ScaleMessenger {
	return &ScaleMessenger{factor: factor}
}

// Process multiplies the message scale.
func (m *ScaleMessenger) Process(env *Env, msg *Message) {
	if msg.Kind != KindSample && msg.Kind != KindParam {
		return
	}
	msg.Scale = mulValues(msg.Name, msg.Scale, m.factor)
}

// MaskMessenger intersects the mask of every sample site with a boolean
// condition (0 is false, anything else true).
type MaskMessenger struct {
	BaseMessenger
	mask Value
}

// NewMask creates a masking messenger.
func NewMask(mask Value) *MaskMessenger {
	return &MaskMessenger{mask: mask}
}

// Process intersects the message mask.
func (m *MaskMessenger) Process(env *Env, msg *Message) {
	if msg.Kind != KindSample {
		return
	}
	msg.Mask = intersectMask(msg.Name, msg.Mask, m.mask)
}
