// Copyright (c) 2024, The Dreamer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rssm

import (
	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
)

// ActFunc is the activation function applied after every hidden linear
// transform.  It is fixed at construction and applied uniformly wherever
// the model specifies "activation".
type ActFunc int

//go:generate stringer -type=ActFunc

var KiT_ActFunc = kit.Enums.AddEnum(ActFuncN, false, nil)

const (
	// ELU is the exponential linear unit: x for x >= 0, exp(x)-1 otherwise.
	// This is the default used by the Dreamer world model.
	ELU ActFunc = iota

	// Relu is the standard rectified linear unit, used by the
	// convolutional encoder and decoder.
	Relu

	// Tanh is the hyperbolic tangent.
	Tanh

	ActFuncN
)

// Apply applies the activation function to a single value.
func (af ActFunc) Apply(x float32) float32 {
	switch af {
	case Relu:
		if x < 0 {
			return 0
		}
		return x
	case Tanh:
		return mat32.Tanh(x)
	default: // ELU
		if x >= 0 {
			return x
		}
		return mat32.Exp(x) - 1
	}
}

// ApplyVec applies the activation function in place over a slice.
func (af ActFunc) ApplyVec(xs []float32) {
	for i := range xs {
		xs[i] = af.Apply(xs[i])
	}
}

// Softplus is log(1 + exp(x)), the smooth positive transform used for
// standard deviations.  For large x it returns x directly as the two are
// equal to within float32 precision there.
func Softplus(x float32) float32 {
	if x > 15 {
		return x
	}
	return mat32.Log1p(mat32.Exp(x))
}
