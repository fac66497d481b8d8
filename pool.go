// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package poutine

import "sync"

// Message pool for the per-primitive-call records threaded through the
// handler stack. A message lives exactly one dispatch: acquired when the
// primitive call begins, released after the post-process phase, zeroed on
// release. Trace handlers snapshot into [Node] values and never retain
// pooled pointers. A dispatch aborted by a panic leaks its message to the
// garbage collector.

var messagePool = sync.Pool{New: func() any { return new(Message) }}

// acquireMessage acquires a pooled single-use Message with default scale 1
// and an all-true mask.
func acquireMessage() *Message {
	m := messagePool.Get().(*Message)
	m.Scale = Scalar(1)
	m.pooled = true
	return m
}

// releaseMessage zeroes and returns m to the pool; no-op if not pooled.
func releaseMessage(m *Message) {
	if !m.pooled {
		return
	}
	*m = Message{}
	messagePool.Put(m)
}
