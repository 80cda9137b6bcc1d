// Copyright (c) 2024, The Dreamer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package models

import (
	"fmt"

	"github.com/Zuya14/Dreamer/rssm"
	"github.com/emer/etable/etensor"
)

// ImgSize is the spatial size of observation images (3 x ImgSize x
// ImgSize), matching the visual control benchmarks.
const ImgSize = 64

// EmbedDim is the length of the observation embedding the Encoder
// produces and the RSSM posterior consumes.  It falls out of the conv
// stack geometry: 64 -> 31 -> 14 -> 6 -> 2 spatial, 256 channels,
// 256*2*2 = 1024.
const EmbedDim = 1024

// Encoder embeds a batch x 3 x 64 x 64 image observation into a
// batch x 1024 vector: four stride-2 kernel-4 convolutions with ReLU,
// then a flatten.
type Encoder struct {
	Cv1 *Conv2D `desc:"3 -> 32 channels"`
	Cv2 *Conv2D `desc:"32 -> 64 channels"`
	Cv3 *Conv2D `desc:"64 -> 128 channels"`
	Cv4 *Conv2D `desc:"128 -> 256 channels"`
}

// NewEncoder constructs the encoder with weights from the noise source.
func NewEncoder(nz *rssm.Noise) *Encoder {
	return &Encoder{
		Cv1: NewConv2D(3, 32, 4, 2, nz),
		Cv2: NewConv2D(32, 64, 4, 2, nz),
		Cv3: NewConv2D(64, 128, 4, 2, nz),
		Cv4: NewConv2D(128, 256, 4, 2, nz),
	}
}

// Forward embeds a batch of images, returning a fresh batch x 1024
// embedding tensor.
func (ec *Encoder) Forward(obs *etensor.Float32) (*etensor.Float32, error) {
	if obs.NumDims() != 4 || obs.Dim(1) != 3 || obs.Dim(2) != ImgSize || obs.Dim(3) != ImgSize {
		return nil, fmt.Errorf("models: encoder input must be batch x 3 x %d x %d", ImgSize, ImgSize)
	}
	h, err := ec.Cv1.Forward(obs)
	if err != nil {
		return nil, err
	}
	rssm.Relu.ApplyVec(h.Values)
	for _, cv := range []*Conv2D{ec.Cv2, ec.Cv3, ec.Cv4} {
		if h, err = cv.Forward(h); err != nil {
			return nil, err
		}
		rssm.Relu.ApplyVec(h.Values)
	}
	bsz := h.Dim(0)
	embed := rssm.NewMatrix(bsz, EmbedDim)
	copy(embed.Values, h.Values) // flatten: chan x 2 x 2 per row
	return embed, nil
}
