// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package poutine

import (
	"github.com/tliron/commonlog"
)

// log is the package logger. commonlog is backend-agnostic: without a
// configured backend (e.g. commonlog/simple) every call is a no-op, so the
// core stays silent in library use.
var log = commonlog.GetLogger("poutine")

// DebugMessenger logs every site flowing through it in the post-process
// phase: name, kind, resolved shape, scale, and observation status. Install
// it outermost to see post-conditioned values; innermost to see raw plate
// stamping order.
type DebugMessenger struct {
	BaseMessenger
	log commonlog.Logger
}

// NewDebug creates a logging messenger. With no argument it logs to the
// "poutine.debug" scope.
func NewDebug(logger ...commonlog.Logger) *DebugMessenger {
	m := &DebugMessenger{log: commonlog.GetLogger("poutine.debug")}
	if len(logger) > 0 {
		m.log = logger[0]
	}
	return m
}

// PostProcess logs the final message state.
func (m *DebugMessenger) PostProcess(env *Env, msg *Message) {
	switch msg.Kind {
	case KindPlateEnter, KindPlateExit:
		m.log.Debugf("%s %q", msg.Kind, msg.Name)
	default:
		m.log.Debugf("%s %q shape=%v scale=%v observed=%t frames=%d",
			msg.Kind, msg.Name, msg.Value.Shape(), msg.Scale.Data(),
			msg.Observed, len(msg.CondIndepStack))
	}
}
