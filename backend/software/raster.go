// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"math"

	"github.com/gogpu/camwall/backend"
)

// edgeEpsilon keeps pixels centered exactly on the shared diagonal inside
// both triangles; both produce the same color there.
const edgeEpsilon = -1e-9

// screenVertex is a quad vertex mapped to target pixel space.
type screenVertex struct {
	x, y float64
	u, v float64
}

// toScreen maps clip space to pixel space: x right, y down.
func toScreen(v backend.Vertex, w, h int) screenVertex {
	return screenVertex{
		x: (float64(v.Pos[0]) + 1) / 2 * float64(w),
		y: (1 - float64(v.Pos[1])) / 2 * float64(h),
		u: float64(v.UV[0]),
		v: float64(v.UV[1]),
	}
}

func edge(a, b screenVertex, px, py float64) float64 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// triangle is a screen-space triangle with precomputed bounds.
type triangle struct {
	a, b, c    screenVertex
	area       float64
	minY, maxY int
	minX, maxX int
}

func newTriangle(tri [3]backend.Vertex, w, h int) triangle {
	a, b, c := toScreen(tri[0], w, h), toScreen(tri[1], w, h), toScreen(tri[2], w, h)
	t := triangle{a: a, b: b, c: c, area: edge(a, b, c.x, c.y)}
	t.minX = max(0, int(math.Floor(min(a.x, b.x, c.x))))
	t.maxX = min(w, int(math.Ceil(max(a.x, b.x, c.x))))
	t.minY = max(0, int(math.Floor(min(a.y, b.y, c.y))))
	t.maxY = min(h, int(math.Ceil(max(a.y, b.y, c.y))))
	return t
}

// shadeRows runs the fragment stage for rows [y0, y1) of the triangle.
func (t triangle) shadeRows(dst *Target, s sampler, y0, y1 int) {
	if t.area == 0 {
		return
	}
	y0, y1 = max(y0, t.minY), min(y1, t.maxY)
	for y := y0; y < y1; y++ {
		py := float64(y) + 0.5
		row := y * dst.stride
		for x := t.minX; x < t.maxX; x++ {
			px := float64(x) + 0.5
			w0 := edge(t.b, t.c, px, py) / t.area
			w1 := edge(t.c, t.a, px, py) / t.area
			w2 := edge(t.a, t.b, px, py) / t.area
			if w0 < edgeEpsilon || w1 < edgeEpsilon || w2 < edgeEpsilon {
				continue
			}
			u := w0*t.a.u + w1*t.b.u + w2*t.c.u
			v := w0*t.a.v + w1*t.b.v + w2*t.c.v
			dst.store(row+x*4, s.sample(u, v))
		}
	}
}
