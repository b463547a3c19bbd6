/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "math"

// Pos is an isotropic 2D transform: position, orientation (radians) and scale.
// It maps a point p to R(O)·S·p + (X, Y). S must be positive.
// Pos is a value; anything that wants to change one works on its own copy.
type Pos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	O float64 `json:"o"`
	S float64 `json:"s"`
}

// Identity returns {0,0,0,1}.
func Identity() Pos { return Pos{S: 1} }

func NewPos(x, y, o, s float64) Pos { return Pos{X: x, Y: y, O: o, S: s} }

// Concat composes two transforms so that the result applies inner first and
// then outer. A nil outer means there is nothing to compose against and inner
// is returned unchanged.
func Concat(outer *Pos, inner Pos) Pos {
	if outer == nil {
		return inner
	}
	return outer.Mul(inner)
}

// Mul is Concat with a non-nil outer transform p.
func (p Pos) Mul(inner Pos) Pos {
	cos := p.S * math.Cos(p.O)
	sin := p.S * math.Sin(p.O)
	return Pos{
		X: p.X + inner.X*cos - inner.Y*sin,
		Y: p.Y + inner.X*sin + inner.Y*cos,
		O: p.O + inner.O,
		S: p.S * inner.S,
	}
}

// Invert returns q such that p.Mul(q) is the identity.
func (p Pos) Invert() Pos {
	cos := math.Cos(p.O) / p.S
	sin := math.Sin(p.O) / p.S
	return Pos{
		X: -cos*p.X - sin*p.Y,
		Y: sin*p.X - cos*p.Y,
		O: -p.O,
		S: 1 / p.S,
	}
}

// Apply maps pt through p.
func (p Pos) Apply(pt Pt) Pt {
	cos := p.S * math.Cos(p.O)
	sin := p.S * math.Sin(p.O)
	return Pt{
		X: cos*pt.X - sin*pt.Y + p.X,
		Y: sin*pt.X + cos*pt.Y + p.Y,
	}
}

// Matrix returns p as [s·cos, s·sin, -s·sin, s·cos, x, y].
func (p Pos) Matrix() Matrix {
	cos := p.S * math.Cos(p.O)
	sin := p.S * math.Sin(p.O)
	return Matrix{A: cos, B: sin, C: -sin, D: cos, E: p.X, F: p.Y}
}

// SetDeviceTransform hands p to a drawing surface as its absolute transform.
func SetDeviceTransform(p Pos, t DeviceTransformer) {
	t.SetTransform(p.Matrix())
}

// NormalizeAngle reduces a into (-π, π].
func NormalizeAngle(a float64) float64 {
	const twoPi = 2 * math.Pi
	if a > twoPi || a < -twoPi {
		a = math.Mod(a, twoPi)
	}
	for a > math.Pi {
		a -= twoPi
	}
	for a <= -math.Pi {
		a += twoPi
	}
	return a
}

// Normalize reduces p.O into (-π, π] in place.
func (p *Pos) Normalize() { p.O = NormalizeAngle(p.O) }

// Normalized returns a copy of p with O in (-π, π].
func (p Pos) Normalized() Pos {
	p.Normalize()
	return p
}

// FromOriginOrientationScale returns the transform that rotates by o and
// scales by s about the fixed point origin.
func FromOriginOrientationScale(origin Pt, o, s float64) Pos {
	p := Pos{O: o, S: s}
	moved := p.Apply(origin)
	p.X = origin.X - moved.X
	p.Y = origin.Y - moved.Y
	return p
}

// Locks pins transform components to identity in FromPoints.
type Locks struct {
	Position    bool
	Orientation bool
	Scale       bool
}

// FromPoints solves for the transform taking orig1 to cur1 and orig2 to cur2.
// Orientation comes from the change in direction of the baseline, scale from
// the change in its length, and translation is fitted through point 1 once
// both are fixed. Locked components stay at identity.
func FromPoints(orig1, orig2, cur1, cur2 Pt, locks Locks) (Pos, error) {
	if orig1 == orig2 {
		return Identity(), &DomainError{Op: "from points", Err: ErrCoincidentPoints}
	}
	before := orig2.Sub(orig1)
	after := cur2.Sub(cur1)

	// a collapsed target baseline has neither a direction nor a length
	if after.Len() == 0 && !(locks.Orientation && locks.Scale) {
		return Identity(), &DomainError{Op: "from points", Err: ErrZeroScale}
	}

	p := Identity()
	if !locks.Orientation {
		p.O = NormalizeAngle(after.Angle() - before.Angle())
	}
	if !locks.Scale {
		p.S = after.Len() / before.Len()
	}
	if !locks.Position {
		moved := p.Apply(orig1)
		p.X = cur1.X - moved.X
		p.Y = cur1.Y - moved.Y
	}
	return p, nil
}

// ApproxEqual compares two transforms component-wise within eps, comparing
// orientations modulo 2π.
func (p Pos) ApproxEqual(q Pos, eps float64) bool {
	do := NormalizeAngle(p.O - q.O)
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps &&
		math.Abs(do) <= eps && math.Abs(p.S-q.S) <= eps
}
