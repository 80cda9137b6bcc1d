// Copyright (c) 2024, The Dreamer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package models

import (
	"fmt"

	"github.com/Zuya14/Dreamer/rssm"
	"github.com/emer/etable/etensor"
	"github.com/goki/mat32"
)

// Conv2D is a strided 2D convolution over batch x channels x Y x X
// tensors, with no padding.
type Conv2D struct {
	InC    int       `desc:"input channels"`
	OutC   int       `desc:"output channels"`
	Kern   int       `desc:"square kernel size"`
	Stride int       `desc:"stride in both dims"`
	Wts    []float32 `view:"-" desc:"weights, OutC x InC x Kern x Kern"`
	Bias   []float32 `view:"-" desc:"bias, OutC"`
}

// NewConv2D returns a conv layer with weights drawn from N(0, 1/fanIn).
func NewConv2D(inC, outC, kern, stride int, nz *rssm.Noise) *Conv2D {
	cv := &Conv2D{InC: inC, OutC: outC, Kern: kern, Stride: stride}
	cv.Wts = make([]float32, outC*inC*kern*kern)
	cv.Bias = make([]float32, outC)
	sc := 1 / mat32.Sqrt(float32(inC*kern*kern))
	for i := range cv.Wts {
		cv.Wts[i] = nz.Norm() * sc
	}
	return cv
}

// OutSize returns the output spatial size for a given input size.
func (cv *Conv2D) OutSize(in int) int {
	return (in-cv.Kern)/cv.Stride + 1
}

// Forward convolves a batch x InC x Y x X tensor, returning a fresh
// batch x OutC x Y' x X' tensor.
func (cv *Conv2D) Forward(x *etensor.Float32) (*etensor.Float32, error) {
	if x.NumDims() != 4 {
		return nil, fmt.Errorf("models: conv input must be 4D (batch x chan x y x x), got %d dims", x.NumDims())
	}
	if c := x.Dim(1); c != cv.InC {
		return nil, fmt.Errorf("models: conv input channels: expected %d, got %d", cv.InC, c)
	}
	bsz, iy, ix := x.Dim(0), x.Dim(2), x.Dim(3)
	if iy < cv.Kern || ix < cv.Kern {
		return nil, fmt.Errorf("models: conv input %d x %d smaller than kernel %d", iy, ix, cv.Kern)
	}
	oy, ox := cv.OutSize(iy), cv.OutSize(ix)
	out := etensor.NewFloat32([]int{bsz, cv.OutC, oy, ox}, nil, []string{"Batch", "Chan", "Y", "X"})
	kk := cv.Kern * cv.Kern
	for bi := 0; bi < bsz; bi++ {
		for oc := 0; oc < cv.OutC; oc++ {
			for yy := 0; yy < oy; yy++ {
				for xx := 0; xx < ox; xx++ {
					sum := cv.Bias[oc]
					for ic := 0; ic < cv.InC; ic++ {
						wof := (oc*cv.InC + ic) * kk
						xof := ((bi*cv.InC+ic)*iy + yy*cv.Stride) * ix
						for ky := 0; ky < cv.Kern; ky++ {
							xrow := x.Values[xof+ky*ix+xx*cv.Stride:]
							wrow := cv.Wts[wof+ky*cv.Kern:]
							for kx := 0; kx < cv.Kern; kx++ {
								sum += wrow[kx] * xrow[kx]
							}
						}
					}
					out.Values[((bi*cv.OutC+oc)*oy+yy)*ox+xx] = sum
				}
			}
		}
	}
	return out, nil
}

// Deconv2D is a strided 2D transposed convolution (the upsampling adjoint
// of Conv2D), with no padding.
type Deconv2D struct {
	InC    int       `desc:"input channels"`
	OutC   int       `desc:"output channels"`
	Kern   int       `desc:"square kernel size"`
	Stride int       `desc:"stride in both dims"`
	Wts    []float32 `view:"-" desc:"weights, InC x OutC x Kern x Kern"`
	Bias   []float32 `view:"-" desc:"bias, OutC"`
}

// NewDeconv2D returns a transposed conv layer with weights drawn from
// N(0, 1/fanIn).
func NewDeconv2D(inC, outC, kern, stride int, nz *rssm.Noise) *Deconv2D {
	dc := &Deconv2D{InC: inC, OutC: outC, Kern: kern, Stride: stride}
	dc.Wts = make([]float32, inC*outC*kern*kern)
	dc.Bias = make([]float32, outC)
	sc := 1 / mat32.Sqrt(float32(inC))
	for i := range dc.Wts {
		dc.Wts[i] = nz.Norm() * sc
	}
	return dc
}

// OutSize returns the output spatial size for a given input size.
func (dc *Deconv2D) OutSize(in int) int {
	return (in-1)*dc.Stride + dc.Kern
}

// Forward upsamples a batch x InC x Y x X tensor, returning a fresh
// batch x OutC x Y' x X' tensor.
func (dc *Deconv2D) Forward(x *etensor.Float32) (*etensor.Float32, error) {
	if x.NumDims() != 4 {
		return nil, fmt.Errorf("models: deconv input must be 4D (batch x chan x y x x), got %d dims", x.NumDims())
	}
	if c := x.Dim(1); c != dc.InC {
		return nil, fmt.Errorf("models: deconv input channels: expected %d, got %d", dc.InC, c)
	}
	bsz, iy, ix := x.Dim(0), x.Dim(2), x.Dim(3)
	oy, ox := dc.OutSize(iy), dc.OutSize(ix)
	out := etensor.NewFloat32([]int{bsz, dc.OutC, oy, ox}, nil, []string{"Batch", "Chan", "Y", "X"})
	kk := dc.Kern * dc.Kern
	for i := range out.Values {
		out.Values[i] = dc.Bias[i/(oy*ox)%dc.OutC]
	}
	for bi := 0; bi < bsz; bi++ {
		for ic := 0; ic < dc.InC; ic++ {
			for yy := 0; yy < iy; yy++ {
				for xx := 0; xx < ix; xx++ {
					v := x.Values[((bi*dc.InC+ic)*iy+yy)*ix+xx]
					for oc := 0; oc < dc.OutC; oc++ {
						wof := (ic*dc.OutC + oc) * kk
						oof := ((bi*dc.OutC+oc)*oy + yy*dc.Stride) * ox
						for ky := 0; ky < dc.Kern; ky++ {
							orow := out.Values[oof+ky*ox+xx*dc.Stride:]
							wrow := dc.Wts[wof+ky*dc.Kern:]
							for kx := 0; kx < dc.Kern; kx++ {
								orow[kx] += v * wrow[kx]
							}
						}
					}
				}
			}
		}
	}
	return out, nil
}
