/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "math"

// AABB is an axis-aligned box given by its left, top, right and bottom edges,
// with L <= R and T <= B. An empty box has zero area; there is no sentinel.
// A box only means something together with the frame it was computed in.
type AABB struct {
	L, T, R, B float64
}

func NewAABB(l, t, r, b float64) AABB { return AABB{L: l, T: t, R: r, B: b} }

// FromXYWH builds a box from its top-left corner and size.
func FromXYWH(x, y, w, h float64) AABB { return AABB{L: x, T: y, R: x + w, B: y + h} }

func (b AABB) Clone() AABB { return b }

// XYWH returns the box in the origin+size form drawing calls take.
func (b AABB) XYWH() (x, y, w, h float64) { return b.L, b.T, b.R - b.L, b.B - b.T }

func (b AABB) Width() float64  { return b.R - b.L }
func (b AABB) Height() float64 { return b.B - b.T }
func (b AABB) Center() Pt      { return Pt{(b.L + b.R) / 2, (b.T + b.B) / 2} }
func (b AABB) Empty() bool     { return b.R <= b.L || b.B <= b.T }

// Inflate grows b in place to also cover other. A nil other is ignored.
func (b *AABB) Inflate(other *AABB) {
	if other == nil {
		return
	}
	b.L = math.Min(b.L, other.L)
	b.T = math.Min(b.T, other.T)
	b.R = math.Max(b.R, other.R)
	b.B = math.Max(b.B, other.B)
}

// Overlaps reports whether the interiors intersect. Boxes that only share an
// edge do not overlap.
func (b AABB) Overlaps(o AABB) bool {
	return b.L < o.R && b.R > o.L && b.T < o.B && b.B > o.T
}

// Contains reports whether o lies within b, edges included.
func (b AABB) Contains(o AABB) bool {
	return o.L >= b.L && o.T >= b.T && o.R <= b.R && o.B <= b.B
}

// ContainsPoint is a strict interior test.
func (b AABB) ContainsPoint(p Pt) bool {
	return p.X > b.L && p.X < b.R && p.Y > b.T && p.Y < b.B
}

// Corners returns the four corners clockwise from top-left.
func (b AABB) Corners() [4]Pt {
	return [4]Pt{{b.L, b.T}, {b.R, b.T}, {b.R, b.B}, {b.L, b.B}}
}

// CreateBounds returns the union of the given boxes. Nil entries are skipped;
// with nothing to union the zero box is returned.
func CreateBounds(boxes ...*AABB) AABB {
	var out AABB
	first := true
	for _, bx := range boxes {
		if bx == nil {
			continue
		}
		if first {
			out = *bx
			first = false
			continue
		}
		out.Inflate(bx)
	}
	return out
}

// Transformed returns the smallest box enclosing b after p is applied to it.
// A rotation plus uniform scale keeps the corners a rectangle, so the extreme
// corners follow from the quadrant of the normalized orientation alone.
func (b AABB) Transformed(p Pos) AABB {
	p.Normalize()
	cos := p.S * math.Cos(p.O)
	sin := p.S * math.Sin(p.O)
	x := func(px, py float64) float64 { return cos*px - sin*py + p.X }
	y := func(px, py float64) float64 { return sin*px + cos*py + p.Y }

	var out AABB
	switch {
	case p.O >= 0 && p.O <= math.Pi/2:
		// cos >= 0, sin >= 0
		out.L, out.R = x(b.L, b.B), x(b.R, b.T)
		out.T, out.B = y(b.L, b.T), y(b.R, b.B)
	case p.O > math.Pi/2:
		// cos < 0, sin >= 0
		out.L, out.R = x(b.R, b.B), x(b.L, b.T)
		out.T, out.B = y(b.L, b.B), y(b.R, b.T)
	case p.O >= -math.Pi/2:
		// cos >= 0, sin < 0
		out.L, out.R = x(b.L, b.T), x(b.R, b.B)
		out.T, out.B = y(b.R, b.T), y(b.L, b.B)
	default:
		// cos < 0, sin < 0
		out.L, out.R = x(b.R, b.T), x(b.L, b.B)
		out.T, out.B = y(b.R, b.B), y(b.L, b.T)
	}
	return out
}
