// Copyright (c) 2024, The Dreamer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rssm

import (
	"fmt"

	"github.com/emer/etable/etensor"
	"github.com/goki/mat32"
)

// Dense is a fully connected linear transform y = W x + b over batched
// inputs.  Weights are a flat Out x In row-major slice so the forward pass
// is a simple contiguous loop per output unit.
type Dense struct {
	In   int       `desc:"input feature width"`
	Out  int       `desc:"output feature width"`
	Wts  []float32 `view:"-" desc:"weights, Out x In row-major"`
	Bias []float32 `view:"-" desc:"bias, Out"`
}

// NewDense returns a Dense layer with weights drawn from N(0, 1/In) and
// zero bias.
func NewDense(in, out int, nz *Noise) *Dense {
	dn := &Dense{In: in, Out: out}
	dn.Wts = make([]float32, out*in)
	dn.Bias = make([]float32, out)
	sc := 1 / mat32.Sqrt(float32(in))
	for i := range dn.Wts {
		dn.Wts[i] = nz.Norm() * sc
	}
	return dn
}

// Forward applies the transform to a batch x In tensor, returning a fresh
// batch x Out tensor.
func (dn *Dense) Forward(x *etensor.Float32) (*etensor.Float32, error) {
	bsz, err := CheckMatrix("dense input", x, 0, dn.In)
	if err != nil {
		return nil, err
	}
	out := NewMatrix(bsz, dn.Out)
	for bi := 0; bi < bsz; bi++ {
		xv := rowVals(x, bi)
		ov := rowVals(out, bi)
		for oi := 0; oi < dn.Out; oi++ {
			wv := dn.Wts[oi*dn.In : (oi+1)*dn.In]
			sum := dn.Bias[oi]
			for ii, w := range wv {
				sum += w * xv[ii]
			}
			ov[oi] = sum
		}
	}
	return out, nil
}

// ForwardAct is Forward followed by the activation function, in place on
// the fresh output.
func (dn *Dense) ForwardAct(x *etensor.Float32, act ActFunc) (*etensor.Float32, error) {
	out, err := dn.Forward(x)
	if err != nil {
		return nil, err
	}
	act.ApplyVec(out.Values)
	return out, nil
}

// GRUCell is a single-step gated recurrent cell updating the deterministic
// state h.  The gating keeps long-horizon memory usable over extended
// imagined rollouts, which a plain linear recurrence does not.
//
//	r = sigmoid(Wir x + Whr h + br)
//	z = sigmoid(Wiz x + Whz h + bz)
//	n = tanh(Win x + r * (Whn h + bhn) + bn)
//	h' = (1-z) * n + z * h
type GRUCell struct {
	In     int       `desc:"input feature width"`
	Hidden int       `desc:"hidden (deterministic state) width"`
	WiR    []float32 `view:"-" desc:"reset gate input weights, Hidden x In"`
	WiZ    []float32 `view:"-" desc:"update gate input weights, Hidden x In"`
	WiN    []float32 `view:"-" desc:"candidate input weights, Hidden x In"`
	WhR    []float32 `view:"-" desc:"reset gate recurrent weights, Hidden x Hidden"`
	WhZ    []float32 `view:"-" desc:"update gate recurrent weights, Hidden x Hidden"`
	WhN    []float32 `view:"-" desc:"candidate recurrent weights, Hidden x Hidden"`
	BiR    []float32 `view:"-" desc:"reset gate bias"`
	BiZ    []float32 `view:"-" desc:"update gate bias"`
	BiN    []float32 `view:"-" desc:"candidate input bias"`
	BhN    []float32 `view:"-" desc:"candidate recurrent bias, gated by r"`
}

// NewGRUCell returns a GRUCell with weights drawn from N(0, 1/width) per
// weight matrix and zero biases.
func NewGRUCell(in, hidden int, nz *Noise) *GRUCell {
	gc := &GRUCell{In: in, Hidden: hidden}
	mk := func(rows, cols int) []float32 {
		ws := make([]float32, rows*cols)
		sc := 1 / mat32.Sqrt(float32(cols))
		for i := range ws {
			ws[i] = nz.Norm() * sc
		}
		return ws
	}
	gc.WiR, gc.WiZ, gc.WiN = mk(hidden, in), mk(hidden, in), mk(hidden, in)
	gc.WhR, gc.WhZ, gc.WhN = mk(hidden, hidden), mk(hidden, hidden), mk(hidden, hidden)
	gc.BiR = make([]float32, hidden)
	gc.BiZ = make([]float32, hidden)
	gc.BiN = make([]float32, hidden)
	gc.BhN = make([]float32, hidden)
	return gc
}

func sigmoid(x float32) float32 {
	return 1 / (1 + mat32.Exp(-x))
}

// matVec computes w x for one Rows x Cols weight slice and input row.
func matVec(w []float32, x []float32, out []float32) {
	cols := len(x)
	for oi := range out {
		wv := w[oi*cols : (oi+1)*cols]
		sum := float32(0)
		for ii, wx := range wv {
			sum += wx * x[ii]
		}
		out[oi] = sum
	}
}

// Forward advances the cell one step for a batch x In input and batch x
// Hidden previous state, returning the fresh next state.  The previous
// state tensor is not modified.
func (gc *GRUCell) Forward(x, h *etensor.Float32) (*etensor.Float32, error) {
	bsz, err := CheckMatrix("gru input", x, 0, gc.In)
	if err != nil {
		return nil, err
	}
	if _, err = CheckMatrix("gru hidden state", h, bsz, gc.Hidden); err != nil {
		return nil, err
	}
	out := NewMatrix(bsz, gc.Hidden)
	ir := make([]float32, gc.Hidden)
	iz := make([]float32, gc.Hidden)
	in := make([]float32, gc.Hidden)
	hr := make([]float32, gc.Hidden)
	hz := make([]float32, gc.Hidden)
	hn := make([]float32, gc.Hidden)
	for bi := 0; bi < bsz; bi++ {
		xv := rowVals(x, bi)
		hv := rowVals(h, bi)
		ov := rowVals(out, bi)
		matVec(gc.WiR, xv, ir)
		matVec(gc.WiZ, xv, iz)
		matVec(gc.WiN, xv, in)
		matVec(gc.WhR, hv, hr)
		matVec(gc.WhZ, hv, hz)
		matVec(gc.WhN, hv, hn)
		for j := 0; j < gc.Hidden; j++ {
			r := sigmoid(ir[j] + hr[j] + gc.BiR[j])
			z := sigmoid(iz[j] + hz[j] + gc.BiZ[j])
			n := mat32.Tanh(in[j] + gc.BiN[j] + r*(hn[j]+gc.BhN[j]))
			ov[j] = (1-z)*n + z*hv[j]
		}
	}
	return out, nil
}

// NParams returns the total number of learned parameters in the cell.
func (gc *GRUCell) NParams() int {
	return 3*gc.Hidden*gc.In + 3*gc.Hidden*gc.Hidden + 4*gc.Hidden
}

// String shows the cell geometry for diagnostics.
func (gc *GRUCell) String() string {
	return fmt.Sprintf("GRUCell(%d -> %d)", gc.In, gc.Hidden)
}
