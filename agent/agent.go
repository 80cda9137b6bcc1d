// Copyright (c) 2024, The Dreamer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agent

import (
	"fmt"

	"github.com/Zuya14/Dreamer/models"
	"github.com/Zuya14/Dreamer/rssm"
	"github.com/emer/emergent/erand"
	"github.com/emer/etable/etensor"
	"github.com/goki/mat32"
)

// Shape describes an action or observation space: the dimensions of a
// continuous array plus its value bounds.
type Shape struct {
	ContinuousShape []int   `desc:"the dimensions of the array. For example, [3, 64, 64] is a 3-channel 64 x 64 image"`
	Min             float32 `desc:"the minimum continuous value"`
	Max             float32 `desc:"the maximum continuous value"`
}

// Config bundles the construction parameters for a full world-model agent.
// Width fields must be set by the caller; everything else has Defaults.
type Config struct {
	Model      rssm.Config         `view:"inline" desc:"RSSM construction parameters"`
	Action     models.ActionConfig `view:"inline" desc:"action model construction parameters; its width fields are filled in from Model"`
	Horizon    int                 `def:"15" desc:"default imagination rollout horizon"`
	PExplore   float32             `def:"0.3" desc:"probability of adding exploration noise to an action"`
	ExploreStd float32             `def:"0.3" desc:"stddev of the exploration noise"`
}

// Defaults sets default values on all sub-configs and the agent-level
// parameters.  Width fields are left to the caller.
func (cf *Config) Defaults() {
	cf.Model.Defaults()
	cf.Action.Defaults()
	cf.Horizon = 15
	cf.PExplore = 0.3
	cf.ExploreStd = 0.3
}

// Agent holds the full world model and the current belief state, advanced
// one observation at a time.  The belief tensors are replaced, never
// mutated, on each Observe, so a caller can hold a previous belief and
// branch imagined rollouts from it.
type Agent struct {
	Config Config `view:"inline" desc:"construction parameters"`

	Enc      *models.Encoder     `desc:"image observation -> 1024 embedding"`
	Model    *rssm.RSSM          `desc:"the recurrent state-space model"`
	ActModel *models.ActionModel `desc:"belief state -> action distribution"`
	Reward   *models.RewardModel `desc:"belief state -> predicted reward"`
	Value    *models.ValueModel  `desc:"belief state -> state value"`

	State *etensor.Float32 `inactive:"+" desc:"current stochastic belief state s"`
	Det   *etensor.Float32 `inactive:"+" desc:"current deterministic belief state h"`
	Noise *rssm.Noise      `view:"-" desc:"noise source for sampling and exploration"`
}

// NewAgent constructs the agent's models from cfg, copying the latent
// widths from Model into the action config, and initializes a batch-1
// belief state.
func NewAgent(cfg *Config, seed uint64) *Agent {
	ag := &Agent{Config: *cfg}
	ag.Config.Action.StateDim = cfg.Model.StateDim
	ag.Config.Action.DetDim = cfg.Model.DetDim
	ag.Config.Action.ActionDim = cfg.Model.ActionDim
	ag.Noise = rssm.NewNoise(seed)
	ag.Enc = models.NewEncoder(ag.Noise)
	ag.Model = rssm.NewRSSM(&ag.Config.Model, ag.Noise)
	ag.ActModel = models.NewActionModel(&ag.Config.Action, ag.Noise)
	ag.Reward = models.NewRewardModel(cfg.Model.StateDim, cfg.Model.DetDim, ag.Noise)
	ag.Value = models.NewValueModel(cfg.Model.StateDim, cfg.Model.DetDim, ag.Noise)
	ag.Reset(1)
	return ag
}

// ActionShape returns the agent's action space description.
func (ag *Agent) ActionShape() Shape {
	return Shape{ContinuousShape: []int{ag.Config.Model.ActionDim}, Min: -1, Max: 1}
}

// ObsShape returns the agent's image observation space description.
func (ag *Agent) ObsShape() Shape {
	return Shape{ContinuousShape: []int{3, models.ImgSize, models.ImgSize}, Min: -0.5, Max: 0.5}
}

// Reset zeroes the belief state for a fresh episode of the given batch
// size.
func (ag *Agent) Reset(batch int) {
	ag.State, ag.Det = ag.Model.InitState(batch)
}

// Observe incorporates a new image observation: the deterministic state is
// advanced by the prior under prevAction, the observation is embedded, and
// the belief becomes a sample of the resulting posterior.
func (ag *Agent) Observe(obs, prevAction *etensor.Float32) error {
	embed, err := ag.Enc.Forward(obs)
	if err != nil {
		return err
	}
	_, nextDet, err := ag.Model.Prior(ag.State, prevAction, ag.Det)
	if err != nil {
		return err
	}
	post, err := ag.Model.Posterior(nextDet, embed)
	if err != nil {
		return err
	}
	ag.State = post.Sample(ag.Noise)
	ag.Det = nextDet
	return nil
}

// Act returns an action for the current belief: the action model's
// deterministic mode, plus exploration noise with probability PExplore,
// clipped back into the action bounds.
func (ag *Agent) Act() (*etensor.Float32, error) {
	act, err := ag.ActModel.ModeAction(ag.State, ag.Det)
	if err != nil {
		return nil, err
	}
	if erand.BoolP(ag.Config.PExplore) {
		for i, v := range act.Values {
			act.Values[i] = mat32.Clamp(v+ag.Config.ExploreStd*ag.Noise.Norm(), -1, 1)
		}
	}
	return act, nil
}

// ActSample returns a reparameterized sample from the action distribution
// for the current belief, as used during training.
func (ag *Agent) ActSample() (*etensor.Float32, error) {
	return ag.ActModel.SampleAction(ag.State, ag.Det, ag.Noise)
}

// ActMode returns the deterministic squashed-mean action for the current
// belief, with no exploration noise, for evaluation.
func (ag *Agent) ActMode() (*etensor.Float32, error) {
	return ag.ActModel.ModeAction(ag.State, ag.Det)
}

// Imagine rolls the agent's own policy forward from the current belief for
// the configured horizon, using only the prior (no observations).
func (ag *Agent) Imagine() (*Rollout, error) {
	pol := &SamplePolicy{Model: ag.ActModel, Noise: ag.Noise}
	return Imagine(ag.Model, ag.Reward, pol, ag.State, ag.Det, ag.Config.Horizon, ag.Noise)
}

// String shows the agent geometry.
func (ag *Agent) String() string {
	cfg := &ag.Config.Model
	return fmt.Sprintf("Agent(s=%d, a=%d, h=%d)", cfg.StateDim, cfg.ActionDim, cfg.DetDim)
}
