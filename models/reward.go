// Copyright (c) 2024, The Dreamer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package models

import (
	"github.com/Zuya14/Dreamer/rssm"
	"github.com/emer/etable/etensor"
)

// ScalarHeadHidden is the default hidden width of the reward and value
// heads.
const ScalarHeadHidden = 400

// scalarHead is the shared 3-hidden-layer MLP mapping a belief state to a
// scalar, used by both RewardModel and ValueModel.
type scalarHead struct {
	Fc1 *rssm.Dense
	Fc2 *rssm.Dense
	Fc3 *rssm.Dense
	Fc4 *rssm.Dense
	Act rssm.ActFunc
}

func newScalarHead(stateDim, detDim, hidden int, act rssm.ActFunc, nz *rssm.Noise) scalarHead {
	return scalarHead{
		Fc1: rssm.NewDense(stateDim+detDim, hidden, nz),
		Fc2: rssm.NewDense(hidden, hidden, nz),
		Fc3: rssm.NewDense(hidden, hidden, nz),
		Fc4: rssm.NewDense(hidden, 1, nz),
		Act: act,
	}
}

func (sh *scalarHead) forward(state, detState *etensor.Float32) (*etensor.Float32, error) {
	x, err := rssm.Concat(state, detState)
	if err != nil {
		return nil, err
	}
	if x, err = sh.Fc1.ForwardAct(x, sh.Act); err != nil {
		return nil, err
	}
	if x, err = sh.Fc2.ForwardAct(x, sh.Act); err != nil {
		return nil, err
	}
	if x, err = sh.Fc3.ForwardAct(x, sh.Act); err != nil {
		return nil, err
	}
	return sh.Fc4.Forward(x)
}

// RewardModel predicts the reward p(r_t | s_t, h_t) from a belief state,
// returning a batch x 1 tensor.
type RewardModel struct {
	scalarHead
}

// NewRewardModel constructs a reward head with ELU activations and the
// default hidden width.
func NewRewardModel(stateDim, detDim int, nz *rssm.Noise) *RewardModel {
	return &RewardModel{newScalarHead(stateDim, detDim, ScalarHeadHidden, rssm.ELU, nz)}
}

// Forward predicts rewards for a batch of belief states.
func (rw *RewardModel) Forward(state, detState *etensor.Float32) (*etensor.Float32, error) {
	return rw.forward(state, detState)
}

// ValueModel estimates the state value of the current policy from a belief
// state, returning a batch x 1 tensor.
type ValueModel struct {
	scalarHead
}

// NewValueModel constructs a value head with ELU activations and the
// default hidden width.
func NewValueModel(stateDim, detDim int, nz *rssm.Noise) *ValueModel {
	return &ValueModel{newScalarHead(stateDim, detDim, ScalarHeadHidden, rssm.ELU, nz)}
}

// Forward estimates values for a batch of belief states.
func (vm *ValueModel) Forward(state, detState *etensor.Float32) (*etensor.Float32, error) {
	return vm.forward(state, detState)
}
