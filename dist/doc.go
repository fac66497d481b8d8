// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package dist provides distribution objects for the poutine handler core,
// backed by gonum's distuv for the scalar sampling and log-density math.
//
// Distributions take [poutine.Value] parameters; parameters broadcast
// against each other to form the batch shape, and Sample/LogProb operate
// elementwise over it. [Bernoulli] and [Categorical] have finite support
// and satisfy [poutine.Enumerable].
package dist
