// Copyright (c) 2024, The Dreamer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rssm

import (
	"fmt"

	"github.com/emer/etable/etensor"
)

// CheckMatrix verifies that tsr is a 2D (batch x width) tensor of the given
// feature width, returning the batch size.  Pass batch > 0 to additionally
// require a specific batch size.  The name is used in the error so a
// configuration mismatch between collaborators can be diagnosed from the
// message alone.
func CheckMatrix(name string, tsr *etensor.Float32, batch, width int) (int, error) {
	if tsr == nil {
		return 0, fmt.Errorf("rssm: %s is nil", name)
	}
	if tsr.NumDims() != 2 {
		return 0, fmt.Errorf("rssm: %s must be 2D (batch x features), got %d dims", name, tsr.NumDims())
	}
	b := tsr.Dim(0)
	if w := tsr.Dim(1); w != width {
		return 0, fmt.Errorf("rssm: %s width: expected %d, got %d", name, width, w)
	}
	if batch > 0 && b != batch {
		return 0, fmt.Errorf("rssm: %s batch size: expected %d, got %d", name, batch, b)
	}
	return b, nil
}

// NewMatrix returns a zero-valued batch x width tensor with standard
// dimension names.
func NewMatrix(batch, width int) *etensor.Float32 {
	return etensor.NewFloat32([]int{batch, width}, nil, []string{"Batch", "X"})
}

// Concat concatenates two batch x width tensors along the feature axis,
// returning a fresh batch x (wa+wb) tensor.  The batch sizes must agree.
func Concat(a, b *etensor.Float32) (*etensor.Float32, error) {
	if a.NumDims() != 2 || b.NumDims() != 2 {
		return nil, fmt.Errorf("rssm: concat requires 2D tensors, got %d and %d dims", a.NumDims(), b.NumDims())
	}
	if a.Dim(0) != b.Dim(0) {
		return nil, fmt.Errorf("rssm: concat batch sizes differ: %d vs %d", a.Dim(0), b.Dim(0))
	}
	bsz, wa, wb := a.Dim(0), a.Dim(1), b.Dim(1)
	out := NewMatrix(bsz, wa+wb)
	for bi := 0; bi < bsz; bi++ {
		copy(out.Values[bi*(wa+wb):], a.Values[bi*wa:(bi+1)*wa])
		copy(out.Values[bi*(wa+wb)+wa:], b.Values[bi*wb:(bi+1)*wb])
	}
	return out, nil
}

// rowVals returns the feature slice for one batch row of a 2D tensor.
func rowVals(tsr *etensor.Float32, row int) []float32 {
	w := tsr.Dim(1)
	return tsr.Values[row*w : (row+1)*w]
}
