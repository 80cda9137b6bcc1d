// Copyright (c) 2024, The Dreamer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package rssm implements the Recurrent State-Space Model (RSSM) at the core
of the Dreamer world model.

The RSSM factors the agent's belief about the environment into a
deterministic recurrent state h, updated by a gated recurrent (GRU) cell,
and a stochastic latent state s, drawn from a diagonal Gaussian whose
parameters are produced fresh at every step.  Two distributions over s are
exposed per step:

* Prior p(s_t+1 | h_t+1): predicted from the previous belief and action
  alone, with no access to the new observation.  Used for open-loop
  "imagination" rollouts.

* Posterior q(s_t+1 | h_t+1, o_t+1): conditioned on the embedding of the
  new observation.  Used during closed-loop training, where the divergence
  between prior and posterior drives representation learning.

The model itself never samples: Prior, Posterior and Step return Normal
distributions and leave the choice of Sample vs. Mode to the caller, so
training and imagination share one transition path.  All operations return
freshly allocated tensors and never mutate their inputs, so a single belief
state can branch any number of rollouts.

The supporting primitives (Dense, GRUCell, Normal, Noise) are exported so
the feed-forward collaborator models (see the models package) can be built
from the same parts.
*/
package rssm
