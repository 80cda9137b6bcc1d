// Copyright (c) 2024, The Dreamer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package agent

import (
	"github.com/emer/emergent/params"
)

// ParamSets is the default collection of hyperparameter sets -- Base is
// always applied, and others can be optionally selected to apply on top of
// that.
var ParamSets = params.Sets{
	{Name: "Base", Desc: "defaults used for the visual control benchmarks", Sheets: params.Sheets{
		"Model": &params.Sheet{
			{Sel: "Config", Desc: "world model geometry and stability",
				Params: params.Params{
					"Config.Model.HiddenDim":  "200",
					"Config.Model.MinStddev":  "0.1",
					"Config.Action.HiddenDim": "400",
					"Config.Action.MeanScale": "5",
					"Config.Horizon":          "15",
					"Config.PExplore":         "0.3",
					"Config.ExploreStd":       "0.3",
				}},
		},
	}},
	{Name: "WideModel", Desc: "larger hidden layers for harder visual domains", Sheets: params.Sheets{
		"Model": &params.Sheet{
			{Sel: "Config", Desc: "double the hidden widths",
				Params: params.Params{
					"Config.Model.HiddenDim":  "400",
					"Config.Action.HiddenDim": "800",
				}},
		},
	}},
	{Name: "LongHorizon", Desc: "longer imagined rollouts", Sheets: params.Sheets{
		"Model": &params.Sheet{
			{Sel: "Config", Desc: "extend imagination",
				Params: params.Params{
					"Config.Horizon": "45",
				}},
		},
	}},
}

// SetParams applies the "Base" set and then the named set (if any) to the
// config.  If setMsg is true a message is printed for each param set.
func (cf *Config) SetParams(setNm string, setMsg bool) error {
	err := cf.applySet("Base", setMsg)
	if setNm != "" && setNm != "Base" {
		err = cf.applySet(setNm, setMsg)
	}
	return err
}

func (cf *Config) applySet(setNm string, setMsg bool) error {
	pset, err := ParamSets.SetByNameTry(setNm)
	if err != nil {
		return err
	}
	if mp, ok := pset.Sheets["Model"]; ok {
		mp.Apply(cf, setMsg)
	}
	return nil
}
