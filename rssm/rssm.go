// Copyright (c) 2024, The Dreamer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rssm

import (
	"github.com/emer/etable/etensor"
)

// Config holds the construction parameters for the RSSM.  The widths are
// fixed for the life of the model: every transform's input and output
// sizes derive from them, and any call with tensors of other widths is a
// configuration error surfaced immediately.
type Config struct {
	StateDim  int     `desc:"width of the stochastic latent state s"`
	ActionDim int     `desc:"width of the action vector"`
	DetDim    int     `desc:"width of the deterministic recurrent state h"`
	HiddenDim int     `def:"200" desc:"width of the hidden layers feeding the Gaussian heads"`
	EmbedDim  int     `def:"1024" desc:"width of the observation embedding consumed by the posterior"`
	MinStddev float32 `def:"0.1" desc:"stabilizing floor added to every standard deviation: stddev = softplus(raw) + MinStddev, keeping the divergence term and sampling well conditioned"`
	Act       ActFunc `desc:"activation function applied after hidden transforms"`
}

// Defaults sets default values for the non-width parameters; the widths
// have no useful defaults and must be set by the caller.
func (cf *Config) Defaults() {
	cf.HiddenDim = 200
	cf.EmbedDim = 1024
	cf.MinStddev = 0.1
	cf.Act = ELU
}

// RSSM is the recurrent state-space model.  It owns an immutable snapshot
// of learned parameters (the Dense layers and the GRU cell) and no other
// state: every operation is a pure function of its arguments, so a rollout
// sees one frozen parameter set for its whole duration.  Parameter updates
// happen out-of-band by constructing or mutating the bundle between full
// passes, never mid-rollout.
type RSSM struct {
	Config Config `view:"inline" desc:"fixed construction parameters"`

	FmStateAction *Dense   `desc:"concat(s, a) -> hidden: the state-action embedding"`
	Cell          *GRUCell `desc:"gated recurrent update of the deterministic state h"`
	FmDet         *Dense   `desc:"h -> hidden feeding the prior heads"`
	PriorMean     *Dense   `desc:"hidden -> prior mean over s"`
	PriorStddev   *Dense   `desc:"hidden -> prior raw stddev over s"`
	FmDetEmbed    *Dense   `desc:"concat(h, embed) -> hidden feeding the posterior heads"`
	PostMean      *Dense   `desc:"hidden -> posterior mean over s"`
	PostStddev    *Dense   `desc:"hidden -> posterior raw stddev over s"`
}

// NewRSSM constructs the model with all widths derived from cfg and weights
// initialized from the given noise source.
func NewRSSM(cfg *Config, nz *Noise) *RSSM {
	rm := &RSSM{Config: *cfg}
	rm.FmStateAction = NewDense(cfg.StateDim+cfg.ActionDim, cfg.HiddenDim, nz)
	rm.Cell = NewGRUCell(cfg.HiddenDim, cfg.DetDim, nz)
	rm.FmDet = NewDense(cfg.DetDim, cfg.HiddenDim, nz)
	rm.PriorMean = NewDense(cfg.HiddenDim, cfg.StateDim, nz)
	rm.PriorStddev = NewDense(cfg.HiddenDim, cfg.StateDim, nz)
	rm.FmDetEmbed = NewDense(cfg.DetDim+cfg.EmbedDim, cfg.HiddenDim, nz)
	rm.PostMean = NewDense(cfg.HiddenDim, cfg.StateDim, nz)
	rm.PostStddev = NewDense(cfg.HiddenDim, cfg.StateDim, nz)
	return rm
}

// InitState returns zero-valued stochastic and deterministic state tensors
// for a fresh sequence of the given batch size.
func (rm *RSSM) InitState(batch int) (state, detState *etensor.Float32) {
	return NewMatrix(batch, rm.Config.StateDim), NewMatrix(batch, rm.Config.DetDim)
}

// head runs a hidden tensor through mean and stddev heads, applying the
// stabilizing Softplus + MinStddev floor.  Prior and posterior share this
// topology so the two distributions live in the same space and their
// divergence is well defined.
func (rm *RSSM) head(hidden *etensor.Float32, mean, stddev *Dense) (*Normal, error) {
	mn, err := mean.Forward(hidden)
	if err != nil {
		return nil, err
	}
	sd, err := stddev.Forward(hidden)
	if err != nil {
		return nil, err
	}
	for i, v := range sd.Values {
		sd.Values[i] = Softplus(v) + rm.Config.MinStddev
	}
	return &Normal{Mean: mn, Stddev: sd}, nil
}

// Prior advances the deterministic state one step from (state, action,
// detState) and returns the prior distribution over the next stochastic
// state along with the fresh next deterministic state.  No sampling
// happens here: imagination and training apply their own sampling policy
// to the returned distribution.
func (rm *RSSM) Prior(state, action, detState *etensor.Float32) (*Normal, *etensor.Float32, error) {
	cfg := &rm.Config
	bsz, err := CheckMatrix("prior state", state, 0, cfg.StateDim)
	if err != nil {
		return nil, nil, err
	}
	if _, err = CheckMatrix("prior action", action, bsz, cfg.ActionDim); err != nil {
		return nil, nil, err
	}
	if _, err = CheckMatrix("prior det state", detState, bsz, cfg.DetDim); err != nil {
		return nil, nil, err
	}
	sa, err := Concat(state, action)
	if err != nil {
		return nil, nil, err
	}
	hidden, err := rm.FmStateAction.ForwardAct(sa, cfg.Act)
	if err != nil {
		return nil, nil, err
	}
	nextDet, err := rm.Cell.Forward(hidden, detState)
	if err != nil {
		return nil, nil, err
	}
	hidden, err = rm.FmDet.ForwardAct(nextDet, cfg.Act)
	if err != nil {
		return nil, nil, err
	}
	prior, err := rm.head(hidden, rm.PriorMean, rm.PriorStddev)
	if err != nil {
		return nil, nil, err
	}
	return prior, nextDet, nil
}

// Posterior returns the posterior distribution over the stochastic state
// given the already-advanced deterministic state and the new observation's
// embedding.  It is a pure function of its arguments and never updates
// detState.
func (rm *RSSM) Posterior(detState, embed *etensor.Float32) (*Normal, error) {
	cfg := &rm.Config
	bsz, err := CheckMatrix("posterior det state", detState, 0, cfg.DetDim)
	if err != nil {
		return nil, err
	}
	if _, err = CheckMatrix("posterior embedding", embed, bsz, cfg.EmbedDim); err != nil {
		return nil, err
	}
	de, err := Concat(detState, embed)
	if err != nil {
		return nil, err
	}
	hidden, err := rm.FmDetEmbed.ForwardAct(de, cfg.Act)
	if err != nil {
		return nil, err
	}
	return rm.head(hidden, rm.PostMean, rm.PostStddev)
}

// Step composes Prior then Posterior for one closed-loop training step,
// returning the prior, the posterior, and the next deterministic state.
// The training loop compares the two distributions and feeds a posterior
// sample forward as the next step's state.
func (rm *RSSM) Step(state, action, detState, embedNextObs *etensor.Float32) (prior, post *Normal, nextDet *etensor.Float32, err error) {
	prior, nextDet, err = rm.Prior(state, action, detState)
	if err != nil {
		return nil, nil, nil, err
	}
	post, err = rm.Posterior(nextDet, embedNextObs)
	if err != nil {
		return nil, nil, nil, err
	}
	return prior, post, nextDet, nil
}
