// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package poutine

import "iter"

// Markov contexts bound the lifetime of enumeration dimensions in
// sequential loops. Enumerated sites normally hold their dimension for the
// whole traced execution, so a long loop of enumerated variables exhausts
// the dimension budget. Declaring that dependencies span at most history
// steps lets dimensions claimed more than history iterations ago be
// recycled, bounding the simultaneously claimed dimensions at history+1
// regardless of sequence length.

// markovCtx tracks the enumeration dimensions claimed during the most
// recent iterations of one Markov loop.
type markovCtx struct {
	history int
	recent  [][]int
}

// step advances to the next iteration, releasing claims older than the
// history window.
func (c *markovCtx) step(e *Env) {
	c.recent = append(c.recent, nil)
	if len(c.recent) > c.history+1 {
		for _, d := range c.recent[0] {
			delete(e.enumDims, d)
		}
		c.recent = c.recent[1:]
	}
}

// note records a dimension claimed during the current iteration.
func (c *markovCtx) note(d int) {
	c.recent[len(c.recent)-1] = append(c.recent[len(c.recent)-1], d)
}

// release drops every claim still held by the context.
func (c *markovCtx) release(e *Env) {
	for _, dims := range c.recent {
		for _, d := range dims {
			delete(e.enumDims, d)
		}
	}
	c.recent = nil
}

// Markov iterates 0..size-1 under a Markov context with the given history
// length (the bounded lookback window; 1 for a first-order chain).
// Enumeration dimensions claimed inside an iteration are released once the
// loop has advanced more than history steps past it, and all remaining
// claims are released when the loop ends.
func (e *Env) Markov(size, history int) iter.Seq[int] {
	if history < 1 {
		history = 1
	}
	return func(yield func(int) bool) {
		ctx := &markovCtx{history: history}
		e.markov = append(e.markov, ctx)
		defer func() {
			ctx.release(e)
			e.markov = e.markov[:len(e.markov)-1]
		}()
		for i := range size {
			ctx.step(e)
			if !yield(i) {
				return
			}
		}
	}
}
