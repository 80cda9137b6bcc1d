// Copyright (c) 2024, The Dreamer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agent

import (
	"testing"

	"github.com/Zuya14/Dreamer/rssm"
	"github.com/emer/etable/etable"
	"github.com/emer/etable/etensor"
)

func testRSSM(seed uint64) *rssm.RSSM {
	cfg := &rssm.Config{}
	cfg.Defaults()
	cfg.StateDim = 8
	cfg.ActionDim = 2
	cfg.DetDim = 16
	cfg.HiddenDim = 24
	return rssm.NewRSSM(cfg, rssm.NewNoise(seed))
}

func zeroPolicy(actionDim int) Policy {
	return PolicyFunc(func(state, det *etensor.Float32) (*etensor.Float32, error) {
		return rssm.NewMatrix(state.Dim(0), actionDim), nil
	})
}

func TestImagineHorizon(t *testing.T) {
	rm := testRSSM(1)
	nz := rssm.NewNoise(2)
	state, det := rm.InitState(3)
	ro, err := Imagine(rm, nil, zeroPolicy(2), state, det, 15, nz)
	if err != nil {
		t.Fatalf("imagine: %v", err)
	}
	if ro.Horizon() != 15 {
		t.Fatalf("horizon: got %d, want 15", ro.Horizon())
	}
	if ro.Rewards != nil {
		t.Error("rewards recorded without a reward model")
	}
	// deterministic memory must evolve: no two det states identical
	for i := 0; i < 15; i++ {
		for j := i + 1; j < 15; j++ {
			same := true
			for k := range ro.Dets[i].Values {
				if ro.Dets[i].Values[k] != ro.Dets[j].Values[k] {
					same = false
					break
				}
			}
			if same {
				t.Fatalf("det states %d and %d identical", i, j)
			}
		}
	}
	// starting belief untouched: can branch a second rollout
	for _, v := range state.Values {
		if v != 0 {
			t.Fatal("starting state mutated by rollout")
		}
	}
	if _, err := Imagine(rm, nil, zeroPolicy(2), state, det, 15, nz); err != nil {
		t.Fatalf("second rollout from same belief: %v", err)
	}
}

func TestImagineErrors(t *testing.T) {
	rm := testRSSM(3)
	nz := rssm.NewNoise(4)
	state, det := rm.InitState(1)
	if _, err := Imagine(rm, nil, zeroPolicy(2), state, det, 0, nz); err == nil {
		t.Error("accepted zero horizon")
	}
	// policy producing wrong-width actions surfaces the width error
	if _, err := Imagine(rm, nil, zeroPolicy(5), state, det, 3, nz); err == nil {
		t.Error("accepted wrong action width from policy")
	}
}

func TestRolloutLog(t *testing.T) {
	rm := testRSSM(5)
	nz := rssm.NewNoise(6)
	state, det := rm.InitState(2)
	ro, err := Imagine(rm, nil, zeroPolicy(2), state, det, 7, nz)
	if err != nil {
		t.Fatalf("imagine: %v", err)
	}
	dt := &etable.Table{}
	ro.ConfigLog(dt)
	ro.Log(dt)
	if dt.Rows != 7 {
		t.Fatalf("log rows: got %d, want 7", dt.Rows)
	}
	if dt.CellFloat("Step", 3) != 3 {
		t.Errorf("Step[3] = %g", dt.CellFloat("Step", 3))
	}
	// prior stddevs are floored, so the logged average must exceed it
	if av := dt.CellFloat("AvgStddev", 0); av < float64(rm.Config.MinStddev) {
		t.Errorf("AvgStddev = %g below floor", av)
	}
}
