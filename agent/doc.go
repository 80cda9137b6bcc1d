// Copyright (c) 2024, The Dreamer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package agent assembles the world model into an acting agent: it holds the
current belief state (stochastic latent s, deterministic latent h), updates
it from image observations through the encoder and posterior (Observe), and
produces actions from the action model (Act / ActMode).

It also provides the open-loop imagination driver: Imagine rolls the prior
forward for a fixed horizon under a policy, with no observations, and
records the trajectory to an etable.Table for inspection.

Hyperparameters are organized as emergent params.Sets sheets applied to the
Config bundle; see params_def.go.
*/
package agent
