/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Basic 2D geometry shared by the transform algebra, bounds and the drawing surfaces.
// Everything is float64: gesture solving divides small distances and float32 drifts visibly.

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Pt is a 2D point.
type Pt struct{ X, Y float64 }

func (p Pt) Add(q Pt) Pt { return Pt{p.X + q.X, p.Y + q.Y} }
func (p Pt) Sub(q Pt) Pt { return Pt{p.X - q.X, p.Y - q.Y} }

// Len returns the distance from the origin.
func (p Pt) Len() float64 { return math.Hypot(p.X, p.Y) }

// Angle returns the direction of p measured from the +X axis, in (-π, π].
func (p Pt) Angle() float64 { return math.Atan2(p.Y, p.X) }

// Matrix is a 2D affine transform in canvas order:
// | a c e |
// | b d f |
// | 0 0 1 |
// stored as [a b c d e f]. PDF cm operators and SVG matrix() use the same layout.
type Matrix struct{ A, B, C, D, E, F float64 }

// IdentityMatrix maps every point to itself.
var IdentityMatrix = Matrix{A: 1, D: 1}

// Mul returns m∘n: n is applied first, then m.
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

func (m Matrix) Apply(p Pt) Pt {
	return Pt{
		X: m.A*p.X + m.C*p.Y + m.E,
		Y: m.B*p.X + m.D*p.Y + m.F,
	}
}

// Invert returns the inverse of m. A singular matrix yields the identity.
func (m Matrix) Invert() Matrix {
	det := m.A*m.D - m.B*m.C
	if det == 0 {
		return IdentityMatrix
	}
	inv := 1 / det
	return Matrix{
		A: m.D * inv,
		B: -m.B * inv,
		C: -m.C * inv,
		D: m.A * inv,
		E: (m.C*m.F - m.D*m.E) * inv,
		F: (m.B*m.E - m.A*m.F) * inv,
	}
}

// Aff3 converts m into the row-major layout used by golang.org/x/image/draw.
func (m Matrix) Aff3() f64.Aff3 {
	return f64.Aff3{m.A, m.C, m.E, m.B, m.D, m.F}
}

func TranslateMatrix(tx, ty float64) Matrix { return Matrix{A: 1, D: 1, E: tx, F: ty} }
func ScaleMatrix(sx, sy float64) Matrix     { return Matrix{A: sx, D: sy} }

// DeviceTransformer is anything that accepts an absolute device transform.
type DeviceTransformer interface {
	SetTransform(m Matrix)
}

// FloatRound rounds v to n decimal places deterministically.
func FloatRound(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
