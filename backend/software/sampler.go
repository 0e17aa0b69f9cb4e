// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"math"

	"github.com/gogpu/camwall/backend"
)

// sampler reads an Image with clamp-to-edge addressing.
type sampler struct {
	img    *Image
	filter backend.Filter
}

// sample returns the filtered RGBA color at normalized coordinates (u, v).
func (s sampler) sample(u, v float64) [4]uint8 {
	if s.filter == backend.FilterNearest {
		x := clampInt(int(math.Floor(u*float64(s.img.width))), s.img.width)
		y := clampInt(int(math.Floor(v*float64(s.img.height))), s.img.height)
		return s.texel(x, y)
	}

	tx := u*float64(s.img.width) - 0.5
	ty := v*float64(s.img.height) - 0.5
	fx0, fy0 := math.Floor(tx), math.Floor(ty)
	fx, fy := tx-fx0, ty-fy0

	x0 := clampInt(int(fx0), s.img.width)
	x1 := clampInt(int(fx0)+1, s.img.width)
	y0 := clampInt(int(fy0), s.img.height)
	y1 := clampInt(int(fy0)+1, s.img.height)

	c00, c10 := s.texel(x0, y0), s.texel(x1, y0)
	c01, c11 := s.texel(x0, y1), s.texel(x1, y1)

	w00 := (1 - fx) * (1 - fy)
	w10 := fx * (1 - fy)
	w01 := (1 - fx) * fy
	w11 := fx * fy

	var out [4]uint8
	for i := range out {
		c := w00*float64(c00[i]) + w10*float64(c10[i]) + w01*float64(c01[i]) + w11*float64(c11[i])
		out[i] = uint8(min(max(c+0.5, 0), 255))
	}
	return out
}

func (s sampler) texel(x, y int) [4]uint8 {
	i := y*s.img.stride + x*4
	p := s.img.pix[i : i+4 : i+4]
	return [4]uint8{p[0], p[1], p[2], p[3]}
}

// clampInt clamps v to [0, n-1].
func clampInt(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
