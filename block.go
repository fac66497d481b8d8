// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package poutine

// BlockMessenger hides matching sites from every messenger installed
// outside its own scope, by setting the stop bit during the process phase.
// Inner messengers and default resolution are unaffected — blocking is
// about visibility, not execution.
//
// Policy: with no options, everything is hidden. Expose lists flip the
// default to hidden-unless-exposed; Hide lists flip it to
// shown-unless-hidden. Name rules take precedence over kind rules.
type BlockMessenger struct {
	BaseMessenger
	hide        map[string]bool
	expose      map[string]bool
	hideKinds   map[Kind]bool
	exposeKinds map[Kind]bool
	hideAll     bool
}

// BlockOption configures a [BlockMessenger].
type BlockOption func(*BlockMessenger)

// Hide hides the named sites, exposing everything else by default.
func Hide(names ...string) BlockOption {
	return func(m *BlockMessenger) {
		for _, n := range names {
			m.hide[n] = true
		}
		m.hideAll = false
	}
}

// Expose exposes the named sites, hiding everything else by default.
func Expose(names ...string) BlockOption {
	return func(m *BlockMessenger) {
		for _, n := range names {
			m.expose[n] = true
		}
	}
}

// HideKinds hides all sites of the given kinds, exposing everything else
// by default.
func HideKinds(kinds ...Kind) BlockOption {
	return func(m *BlockMessenger) {
		for _, k := range kinds {
			m.hideKinds[k] = true
		}
		m.hideAll = false
	}
}

// ExposeKinds exposes all sites of the given kinds, hiding everything else
// by default.
func ExposeKinds(kinds ...Kind) BlockOption {
	return func(m *BlockMessenger) {
		for _, k := range kinds {
			m.exposeKinds[k] = true
		}
	}
}

// NewBlock creates a blocking messenger. With no options every site is
// hidden from outer messengers.
func NewBlock(opts ...BlockOption) *BlockMessenger {
	m := &BlockMessenger{
		hide:        map[string]bool{},
		expose:      map[string]bool{},
		hideKinds:   map[Kind]bool{},
		exposeKinds: map[Kind]bool{},
		hideAll:     true,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// hidden applies the blocking policy to one message.
func (m *BlockMessenger) hidden(msg *Message) bool {
	switch {
	case m.hide[msg.Name]:
		return true
	case m.expose[msg.Name]:
		return false
	case m.hideKinds[msg.Kind]:
		return true
	case m.exposeKinds[msg.Kind]:
		return false
	default:
		return m.hideAll
	}
}

// Process sets the stop bit on hidden sites, cutting off every outer
// messenger in both phases.
func (m *BlockMessenger) Process(env *Env, msg *Message) {
	if m.hidden(msg) {
		msg.Stop = true
	}
}
