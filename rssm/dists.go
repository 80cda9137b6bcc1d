// Copyright (c) 2024, The Dreamer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rssm

import (
	"fmt"

	"github.com/emer/etable/etensor"
	"github.com/goki/mat32"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Noise is a seedable standard-normal source.  It supplies the independent
// noise for reparameterized sampling (sample = mean + stddev * eps, so the
// sample stays an affine function of the distribution parameters) and the
// random weight initialization.
type Noise struct {
	dist distuv.Normal
}

// NewNoise returns a standard-normal source with the given seed.
func NewNoise(seed uint64) *Noise {
	return &Noise{dist: distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(seed)}}
}

// Norm returns one standard-normal draw.
func (nz *Noise) Norm() float32 {
	return float32(nz.dist.Rand())
}

// Normal is a diagonal Gaussian over a batch of latent state vectors,
// parameterized by per-element mean and standard deviation tensors of
// identical batch x width shape.  The stddev is produced by the model's
// Softplus + floor transform and is therefore strictly positive.
type Normal struct {
	Mean   *etensor.Float32 `desc:"per-element means, batch x width"`
	Stddev *etensor.Float32 `desc:"per-element standard deviations, batch x width, strictly > 0"`
}

// Batch returns the batch size.
func (nd *Normal) Batch() int {
	return nd.Mean.Dim(0)
}

// Width returns the latent feature width.
func (nd *Normal) Width() int {
	return nd.Mean.Dim(1)
}

// Sample draws one reparameterized sample per batch row, returning a fresh
// batch x width tensor.  Ownership of the sample passes to the caller; the
// distribution is unchanged.
func (nd *Normal) Sample(nz *Noise) *etensor.Float32 {
	out := NewMatrix(nd.Batch(), nd.Width())
	for i := range out.Values {
		out.Values[i] = nd.Mean.Values[i] + nd.Stddev.Values[i]*nz.Norm()
	}
	return out
}

// Mode returns the distribution mean as a fresh tensor, for deterministic
// (evaluation-time) rollouts.
func (nd *Normal) Mode() *etensor.Float32 {
	out := NewMatrix(nd.Batch(), nd.Width())
	copy(out.Values, nd.Mean.Values)
	return out
}

// KL returns the KL divergence KL(nd || q) per batch row, summed over the
// latent dimensions.  This is the divergence term of the variational
// objective, comparing posterior against prior.  Both distributions must
// share shape.
func (nd *Normal) KL(q *Normal) (*etensor.Float32, error) {
	if nd.Batch() != q.Batch() || nd.Width() != q.Width() {
		return nil, fmt.Errorf("rssm: KL shape mismatch: %d x %d vs %d x %d", nd.Batch(), nd.Width(), q.Batch(), q.Width())
	}
	out := etensor.NewFloat32([]int{nd.Batch()}, nil, []string{"Batch"})
	w := nd.Width()
	for bi := 0; bi < nd.Batch(); bi++ {
		kl := float32(0)
		for j := bi * w; j < (bi+1)*w; j++ {
			ps, qs := nd.Stddev.Values[j], q.Stddev.Values[j]
			dm := nd.Mean.Values[j] - q.Mean.Values[j]
			kl += mat32.Log(qs/ps) + (ps*ps+dm*dm)/(2*qs*qs) - 0.5
		}
		out.Values[bi] = kl
	}
	return out, nil
}
