// Copyright (c) 2024, The Dreamer Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package models provides the feed-forward collaborator models surrounding
the RSSM core: the convolutional image Encoder producing observation
embeddings, the deconvolutional ObsModel reconstructing images from belief
states, the RewardModel and ValueModel scalar heads, and the ActionModel
producing tanh-squashed Gaussian actions.

All models consume and produce etensor.Float32 tensors and are built from
the same Dense / Noise primitives as the rssm package, so the whole world
model shares one numeric substrate.
*/
package models
