// Copyright (c) 2024, The Dreamer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agent

import (
	"fmt"
	"strconv"

	"github.com/Zuya14/Dreamer/models"
	"github.com/Zuya14/Dreamer/rssm"
	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
	"github.com/goki/mat32"
)

// LogPrec is precision for saving float values in logs.
const LogPrec = 4

// Policy produces an action for a belief state, for driving imagined
// rollouts.  External consumers can supply their own; SamplePolicy adapts
// the trained action model.
type Policy interface {
	Action(state, detState *etensor.Float32) (*etensor.Float32, error)
}

// PolicyFunc adapts a plain function to the Policy interface.
type PolicyFunc func(state, detState *etensor.Float32) (*etensor.Float32, error)

// Action implements Policy.
func (pf PolicyFunc) Action(state, detState *etensor.Float32) (*etensor.Float32, error) {
	return pf(state, detState)
}

// SamplePolicy drives rollouts with reparameterized samples from an
// ActionModel, as used when training the policy in imagination.
type SamplePolicy struct {
	Model *models.ActionModel `desc:"action model supplying the actions"`
	Noise *rssm.Noise         `desc:"noise source for the action samples"`
}

// Action implements Policy.
func (sp *SamplePolicy) Action(state, detState *etensor.Float32) (*etensor.Float32, error) {
	return sp.Model.SampleAction(state, detState, sp.Noise)
}

// Rollout is one imagined trajectory: per-step belief states, the prior
// distributions they were sampled from, the actions taken, and predicted
// rewards (nil if no reward model was supplied).  Index 0 is the first
// imagined step after the starting belief.
type Rollout struct {
	States  []*etensor.Float32 `desc:"stochastic states, one per step"`
	Dets    []*etensor.Float32 `desc:"deterministic states, one per step"`
	Priors  []*rssm.Normal     `desc:"prior distributions, one per step"`
	Actions []*etensor.Float32 `desc:"actions taken, one per step"`
	Rewards []*etensor.Float32 `desc:"predicted rewards, one per step, nil without a reward model"`
}

// Horizon returns the number of imagined steps.
func (ro *Rollout) Horizon() int {
	return len(ro.Dets)
}

// Imagine rolls the prior forward open-loop for horizon steps from the
// given belief state: at each step the policy produces an action, the
// prior advances the deterministic state, and a reparameterized sample of
// the prior becomes the next stochastic state.  No observations or
// posterior calls are involved.  The starting tensors are not modified, so
// the same belief can seed many rollouts.
func Imagine(rm *rssm.RSSM, rew *models.RewardModel, pol Policy, state, detState *etensor.Float32, horizon int, nz *rssm.Noise) (*Rollout, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("agent: imagination horizon must be positive, got %d", horizon)
	}
	ro := &Rollout{
		States:  make([]*etensor.Float32, 0, horizon),
		Dets:    make([]*etensor.Float32, 0, horizon),
		Priors:  make([]*rssm.Normal, 0, horizon),
		Actions: make([]*etensor.Float32, 0, horizon),
	}
	if rew != nil {
		ro.Rewards = make([]*etensor.Float32, 0, horizon)
	}
	for t := 0; t < horizon; t++ {
		act, err := pol.Action(state, detState)
		if err != nil {
			return nil, err
		}
		prior, nextDet, err := rm.Prior(state, act, detState)
		if err != nil {
			return nil, err
		}
		state = prior.Sample(nz)
		detState = nextDet
		ro.States = append(ro.States, state)
		ro.Dets = append(ro.Dets, nextDet)
		ro.Priors = append(ro.Priors, prior)
		ro.Actions = append(ro.Actions, act)
		if rew != nil {
			r, err := rew.Forward(state, nextDet)
			if err != nil {
				return nil, err
			}
			ro.Rewards = append(ro.Rewards, r)
		}
	}
	return ro, nil
}

// ConfigLog configures an etable for per-step rollout statistics.
func (ro *Rollout) ConfigLog(dt *etable.Table) {
	dt.SetMetaData("name", "ImagineLog")
	dt.SetMetaData("desc", "Per-step statistics of an imagined rollout")
	dt.SetMetaData("read-only", "true")
	dt.SetMetaData("precision", strconv.Itoa(LogPrec))

	sch := etable.Schema{
		{Name: "Step", Type: etensor.INT64},
		{Name: "AbsState", Type: etensor.FLOAT64},
		{Name: "AbsDet", Type: etensor.FLOAT64},
		{Name: "AvgStddev", Type: etensor.FLOAT64},
	}
	if ro.Rewards != nil {
		sch = append(sch, etable.Column{Name: "Reward", Type: etensor.FLOAT64})
	}
	dt.SetFromSchema(sch, 0)
}

// Log appends one row per imagined step with batch-averaged magnitudes:
// mean |s|, mean |h|, mean prior stddev, and mean predicted reward if
// available.
func (ro *Rollout) Log(dt *etable.Table) {
	for t := 0; t < ro.Horizon(); t++ {
		row := dt.Rows
		dt.SetNumRows(row + 1)
		dt.SetCellFloat("Step", row, float64(t))
		dt.SetCellFloat("AbsState", row, float64(meanAbs(ro.States[t].Values)))
		dt.SetCellFloat("AbsDet", row, float64(meanAbs(ro.Dets[t].Values)))
		dt.SetCellFloat("AvgStddev", row, float64(meanAbs(ro.Priors[t].Stddev.Values)))
		if ro.Rewards != nil {
			dt.SetCellFloat("Reward", row, float64(mean(ro.Rewards[t].Values)))
		}
	}
}

func meanAbs(vs []float32) float32 {
	if len(vs) == 0 {
		return 0
	}
	sum := float32(0)
	for _, v := range vs {
		sum += mat32.Abs(v)
	}
	return sum / float32(len(vs))
}

func mean(vs []float32) float32 {
	if len(vs) == 0 {
		return 0
	}
	sum := float32(0)
	for _, v := range vs {
		sum += v
	}
	return sum / float32(len(vs))
}
