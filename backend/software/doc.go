// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package software is the CPU reference implementation of backend.Device.
//
// Images are plain RGBA8 buffers. Draw rasterizes the two quad triangles at
// pixel centers, interpolates texture coordinates barycentrically and reads
// the atlas through a clamp-to-edge sampler, matching what the WGSL stages
// of the wgpu backend compute. Output is deterministic: the same atlas
// always produces bit-identical targets.
//
// The backend registers itself as "software" on import:
//
//	import _ "github.com/gogpu/camwall/backend/software"
package software
