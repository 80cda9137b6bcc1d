// Copyright (c) 2024, The Dreamer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package models

import (
	"github.com/Zuya14/Dreamer/rssm"
	"github.com/emer/etable/etensor"
)

// ObsModel reconstructs the image observation p(o_t | s_t, h_t) from a
// belief state: a linear lift to 1024 channels at 1 x 1 spatial, then four
// transposed convolutions back up to 3 x 64 x 64.  ReLU between layers,
// linear output.
type ObsModel struct {
	StateDim int       `desc:"stochastic state width"`
	DetDim   int       `desc:"deterministic state width"`
	FC       *rssm.Dense `desc:"concat(s, h) -> 1024"`
	Dc1      *Deconv2D `desc:"1024 -> 128 channels, kernel 5"`
	Dc2      *Deconv2D `desc:"128 -> 64 channels, kernel 5"`
	Dc3      *Deconv2D `desc:"64 -> 32 channels, kernel 6"`
	Dc4      *Deconv2D `desc:"32 -> 3 channels, kernel 6"`
}

// NewObsModel constructs the decoder for the given latent widths.
func NewObsModel(stateDim, detDim int, nz *rssm.Noise) *ObsModel {
	return &ObsModel{
		StateDim: stateDim,
		DetDim:   detDim,
		FC:       rssm.NewDense(stateDim+detDim, 1024, nz),
		Dc1:      NewDeconv2D(1024, 128, 5, 2, nz),
		Dc2:      NewDeconv2D(128, 64, 5, 2, nz),
		Dc3:      NewDeconv2D(64, 32, 6, 2, nz),
		Dc4:      NewDeconv2D(32, 3, 6, 2, nz),
	}
}

// Forward reconstructs a batch x 3 x 64 x 64 image from the stochastic and
// deterministic states.
func (om *ObsModel) Forward(state, detState *etensor.Float32) (*etensor.Float32, error) {
	sh, err := rssm.Concat(state, detState)
	if err != nil {
		return nil, err
	}
	h, err := om.FC.Forward(sh)
	if err != nil {
		return nil, err
	}
	bsz := h.Dim(0)
	// reshape batch x 1024 to batch x 1024 x 1 x 1 for the deconv stack
	hv := etensor.NewFloat32([]int{bsz, 1024, 1, 1}, nil, []string{"Batch", "Chan", "Y", "X"})
	copy(hv.Values, h.Values)
	out := hv
	for _, dc := range []*Deconv2D{om.Dc1, om.Dc2, om.Dc3} {
		if out, err = dc.Forward(out); err != nil {
			return nil, err
		}
		rssm.Relu.ApplyVec(out.Values)
	}
	return om.Dc4.Forward(out)
}
