// Copyright (c) 2024, The Dreamer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package models

import (
	"github.com/Zuya14/Dreamer/rssm"
	"github.com/emer/etable/etensor"
	"github.com/goki/mat32"
)

// ActionConfig holds the construction parameters of the ActionModel.
type ActionConfig struct {
	StateDim   int          `desc:"stochastic state width"`
	DetDim     int          `desc:"deterministic state width"`
	ActionDim  int          `desc:"action vector width"`
	HiddenDim  int          `def:"400" desc:"hidden layer width"`
	MinStddev  float32      `def:"0.0001" desc:"floor on the action stddev"`
	InitStddev float32      `def:"5" desc:"initial stddev: a bias of log(exp(InitStddev)-1) is added to the raw stddev before the softplus"`
	MeanScale  float32      `def:"5" desc:"the action mean is squashed as MeanScale * tanh(mean / MeanScale) before sampling; a training heuristic carried over from the original algorithm"`
	Act        rssm.ActFunc `desc:"activation function for hidden layers"`
}

// Defaults sets the non-width defaults.
func (cf *ActionConfig) Defaults() {
	cf.HiddenDim = 400
	cf.MinStddev = 1e-4
	cf.InitStddev = 5
	cf.MeanScale = 5
	cf.Act = rssm.ELU
}

// ActionModel produces actions from belief states as a tanh-squashed
// diagonal Gaussian.  The two return semantics are distinct named
// operations: SampleAction draws a reparameterized sample (training),
// ModeAction returns the squashed mean (evaluation).
type ActionModel struct {
	Config   ActionConfig `view:"inline" desc:"fixed construction parameters"`
	Fc1      *rssm.Dense
	Fc2      *rssm.Dense
	Fc3      *rssm.Dense
	Fc4      *rssm.Dense
	FcMean   *rssm.Dense
	FcStddev *rssm.Dense
	initBias float32 // log(exp(InitStddev)-1), precomputed
}

// NewActionModel constructs the action model for the given config.
func NewActionModel(cfg *ActionConfig, nz *rssm.Noise) *ActionModel {
	am := &ActionModel{Config: *cfg}
	in := cfg.StateDim + cfg.DetDim
	am.Fc1 = rssm.NewDense(in, cfg.HiddenDim, nz)
	am.Fc2 = rssm.NewDense(cfg.HiddenDim, cfg.HiddenDim, nz)
	am.Fc3 = rssm.NewDense(cfg.HiddenDim, cfg.HiddenDim, nz)
	am.Fc4 = rssm.NewDense(cfg.HiddenDim, cfg.HiddenDim, nz)
	am.FcMean = rssm.NewDense(cfg.HiddenDim, cfg.ActionDim, nz)
	am.FcStddev = rssm.NewDense(cfg.HiddenDim, cfg.ActionDim, nz)
	am.initBias = mat32.Log(mat32.Exp(cfg.InitStddev) - 1)
	return am
}

// dist runs the trunk and heads, returning the squashed-mean Gaussian over
// pre-tanh actions.
func (am *ActionModel) dist(state, detState *etensor.Float32) (*rssm.Normal, error) {
	cfg := &am.Config
	x, err := rssm.Concat(state, detState)
	if err != nil {
		return nil, err
	}
	for _, fc := range []*rssm.Dense{am.Fc1, am.Fc2, am.Fc3, am.Fc4} {
		if x, err = fc.ForwardAct(x, cfg.Act); err != nil {
			return nil, err
		}
	}
	mean, err := am.FcMean.Forward(x)
	if err != nil {
		return nil, err
	}
	for i, v := range mean.Values {
		mean.Values[i] = cfg.MeanScale * mat32.Tanh(v/cfg.MeanScale)
	}
	sd, err := am.FcStddev.Forward(x)
	if err != nil {
		return nil, err
	}
	for i, v := range sd.Values {
		sd.Values[i] = rssm.Softplus(v+am.initBias) + cfg.MinStddev
	}
	return &rssm.Normal{Mean: mean, Stddev: sd}, nil
}

// SampleAction returns tanh of a reparameterized sample from the action
// distribution, for training-time acting and imagined rollouts.
func (am *ActionModel) SampleAction(state, detState *etensor.Float32, nz *rssm.Noise) (*etensor.Float32, error) {
	nd, err := am.dist(state, detState)
	if err != nil {
		return nil, err
	}
	act := nd.Sample(nz)
	for i, v := range act.Values {
		act.Values[i] = mat32.Tanh(v)
	}
	return act, nil
}

// ModeAction returns tanh of the distribution mean, deterministically, for
// evaluation-time acting.
func (am *ActionModel) ModeAction(state, detState *etensor.Float32) (*etensor.Float32, error) {
	nd, err := am.dist(state, detState)
	if err != nil {
		return nil, err
	}
	act := nd.Mode()
	for i, v := range act.Values {
		act.Values[i] = mat32.Tanh(v)
	}
	return act, nil
}
