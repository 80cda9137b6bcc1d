// Copyright (c) 2024, The Dreamer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rssm

import (
	"strings"
	"testing"

	"github.com/emer/etable/etensor"
)

func testConfig() *Config {
	cfg := &Config{}
	cfg.Defaults()
	cfg.StateDim = 30
	cfg.ActionDim = 4
	cfg.DetDim = 200
	return cfg
}

func testModel(seed uint64) *RSSM {
	return NewRSSM(testConfig(), NewNoise(seed))
}

// fillPat writes a fixed deterministic pattern so tests are reproducible
// without a random source.
func fillPat(tsr *etensor.Float32, off float32) {
	for i := range tsr.Values {
		tsr.Values[i] = off + 0.01*float32(i%37) - 0.18
	}
}

func TestPriorShapes(t *testing.T) {
	rm := testModel(1)
	state, det := rm.InitState(16)
	action := NewMatrix(16, 4)
	fillPat(state, 0.1)
	fillPat(action, -0.2)
	prior, nextDet, err := rm.Prior(state, action, det)
	if err != nil {
		t.Fatalf("prior: %v", err)
	}
	if prior.Batch() != 16 || prior.Width() != 30 {
		t.Errorf("prior dist shape: got %d x %d, want 16 x 30", prior.Batch(), prior.Width())
	}
	if nextDet.Dim(0) != 16 || nextDet.Dim(1) != 200 {
		t.Errorf("next det state shape: got %d x %d, want 16 x 200", nextDet.Dim(0), nextDet.Dim(1))
	}
}

func TestStddevFloor(t *testing.T) {
	rm := testModel(2)
	state, det := rm.InitState(8)
	action := NewMatrix(8, 4)
	embed := NewMatrix(8, 1024)
	fillPat(state, 0.3)
	fillPat(action, -0.4)
	fillPat(embed, 0.05)
	prior, post, _, err := rm.Step(state, action, det, embed)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	for _, nd := range []*Normal{prior, post} {
		for i, sd := range nd.Stddev.Values {
			if sd <= rm.Config.MinStddev {
				t.Fatalf("stddev[%d] = %g not above floor %g", i, sd, rm.Config.MinStddev)
			}
		}
	}
}

func TestPriorDeterminism(t *testing.T) {
	rm := testModel(3)
	state, det := rm.InitState(4)
	action := NewMatrix(4, 4)
	fillPat(state, 0.2)
	fillPat(action, 0.1)
	fillPat(det, -0.1)
	p1, d1, err := rm.Prior(state, action, det)
	if err != nil {
		t.Fatalf("prior: %v", err)
	}
	p2, d2, err := rm.Prior(state, action, det)
	if err != nil {
		t.Fatalf("prior: %v", err)
	}
	for i := range d1.Values {
		if d1.Values[i] != d2.Values[i] {
			t.Fatalf("det state differs at %d: %g vs %g", i, d1.Values[i], d2.Values[i])
		}
	}
	for i := range p1.Mean.Values {
		if p1.Mean.Values[i] != p2.Mean.Values[i] || p1.Stddev.Values[i] != p2.Stddev.Values[i] {
			t.Fatalf("distribution params differ at %d", i)
		}
	}
}

func TestInputsImmutable(t *testing.T) {
	rm := testModel(4)
	state, det := rm.InitState(3)
	action := NewMatrix(3, 4)
	fillPat(state, 0.5)
	fillPat(action, 0.2)
	fillPat(det, -0.3)
	sc := append([]float32{}, state.Values...)
	ac := append([]float32{}, action.Values...)
	dc := append([]float32{}, det.Values...)
	if _, _, err := rm.Prior(state, action, det); err != nil {
		t.Fatalf("prior: %v", err)
	}
	for i := range sc {
		if state.Values[i] != sc[i] {
			t.Fatalf("state mutated at %d", i)
		}
	}
	for i := range ac {
		if action.Values[i] != ac[i] {
			t.Fatalf("action mutated at %d", i)
		}
	}
	for i := range dc {
		if det.Values[i] != dc[i] {
			t.Fatalf("det state mutated at %d", i)
		}
	}
}

func TestBatchIndependence(t *testing.T) {
	rm := testModel(5)
	state, det := rm.InitState(5)
	action := NewMatrix(5, 4)
	fillPat(state, 0.1)
	fillPat(action, -0.1)
	fillPat(det, 0.2)
	prior, nextDet, err := rm.Prior(state, action, det)
	if err != nil {
		t.Fatalf("prior: %v", err)
	}
	// row 2 processed alone must match row 2 of the batch
	s1 := NewMatrix(1, 30)
	a1 := NewMatrix(1, 4)
	d1 := NewMatrix(1, 200)
	copy(s1.Values, state.Values[2*30:3*30])
	copy(a1.Values, action.Values[2*4:3*4])
	copy(d1.Values, det.Values[2*200:3*200])
	p1, nd1, err := rm.Prior(s1, a1, d1)
	if err != nil {
		t.Fatalf("prior single: %v", err)
	}
	for j := 0; j < 200; j++ {
		if nd1.Values[j] != nextDet.Values[2*200+j] {
			t.Fatalf("det state cross-row leakage at %d: %g vs %g", j, nd1.Values[j], nextDet.Values[2*200+j])
		}
	}
	for j := 0; j < 30; j++ {
		if p1.Mean.Values[j] != prior.Mean.Values[2*30+j] {
			t.Fatalf("mean cross-row leakage at %d", j)
		}
	}
}

func TestShapeMismatchErrors(t *testing.T) {
	rm := testModel(6)
	state, det := rm.InitState(2)
	badState := NewMatrix(2, 28)
	action := NewMatrix(2, 4)
	badAction := NewMatrix(3, 4)
	embed := NewMatrix(2, 1024)
	badEmbed := NewMatrix(2, 512)

	if _, _, err := rm.Prior(badState, action, det); err == nil {
		t.Error("prior accepted wrong state width")
	} else if !strings.Contains(err.Error(), "30") || !strings.Contains(err.Error(), "28") {
		t.Errorf("error should name expected and actual widths: %v", err)
	}
	if _, _, err := rm.Prior(state, badAction, det); err == nil {
		t.Error("prior accepted mismatched batch sizes")
	}
	if _, err := rm.Posterior(det, badEmbed); err == nil {
		t.Error("posterior accepted wrong embedding width")
	}
	if _, err := rm.Posterior(det, embed); err != nil {
		t.Errorf("posterior rejected valid input: %v", err)
	}
}

// TestStepZeroInputs is the end-to-end scenario: S=30, A=4, H=200,
// batch=16, zero states and actions, fixed embedding; two chained Step
// calls must keep all stddevs at or above the floor.
func TestStepZeroInputs(t *testing.T) {
	rm := testModel(7)
	nz := NewNoise(17)
	state, det := rm.InitState(16)
	action := NewMatrix(16, 4)
	embed := NewMatrix(16, 1024)
	fillPat(embed, 0.1)

	prior, post, nextDet, err := rm.Step(state, action, det, embed)
	if err != nil {
		t.Fatalf("step 1: %v", err)
	}
	if nextDet.Dim(0) != 16 || nextDet.Dim(1) != 200 {
		t.Fatalf("next det shape: %d x %d", nextDet.Dim(0), nextDet.Dim(1))
	}
	for _, nd := range []*Normal{prior, post} {
		for _, sd := range nd.Stddev.Values {
			if sd < rm.Config.MinStddev {
				t.Fatalf("stddev %g below floor", sd)
			}
		}
	}
	state2 := post.Sample(nz)
	_, post2, _, err := rm.Step(state2, action, nextDet, embed)
	if err != nil {
		t.Fatalf("step 2: %v", err)
	}
	for _, sd := range post2.Stddev.Values {
		if sd < rm.Config.MinStddev {
			t.Fatalf("step 2 stddev %g below floor", sd)
		}
	}
}

// TestImaginationHorizon rolls the prior forward 15 steps open-loop with a
// constant zero-action policy; the deterministic state must keep evolving
// (no two steps identical).
func TestImaginationHorizon(t *testing.T) {
	rm := testModel(8)
	nz := NewNoise(99)
	state, det := rm.InitState(2)
	fillPat(state, 0.2)
	action := NewMatrix(2, 4) // zero-action policy stub
	dets := make([]*etensor.Float32, 0, 15)
	for i := 0; i < 15; i++ {
		prior, nextDet, err := rm.Prior(state, action, det)
		if err != nil {
			t.Fatalf("imagine step %d: %v", i, err)
		}
		dets = append(dets, nextDet)
		state = prior.Sample(nz)
		det = nextDet
	}
	for i := 0; i < len(dets); i++ {
		for j := i + 1; j < len(dets); j++ {
			same := true
			for k := range dets[i].Values {
				if dets[i].Values[k] != dets[j].Values[k] {
					same = false
					break
				}
			}
			if same {
				t.Fatalf("det states at steps %d and %d identical: memory not evolving", i, j)
			}
		}
	}
}
