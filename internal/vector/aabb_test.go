/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"math"
	"math/rand/v2"
	"testing"
)

func boxNear(a, b AABB, tol float64) bool {
	return math.Abs(a.L-b.L) <= tol && math.Abs(a.T-b.T) <= tol &&
		math.Abs(a.R-b.R) <= tol && math.Abs(a.B-b.B) <= tol
}

func TestAABBXYWH(t *testing.T) {
	b := FromXYWH(10, 20, 30, 40)
	if b != NewAABB(10, 20, 40, 60) {
		t.Fatalf("FromXYWH = %+v", b)
	}
	x, y, w, h := b.XYWH()
	if x != 10 || y != 20 || w != 30 || h != 40 {
		t.Fatalf("XYWH = %v,%v,%v,%v", x, y, w, h)
	}
	c := b.Clone()
	c.L = -1
	if b.L != 10 {
		t.Fatalf("Clone shares state with the original")
	}
}

func TestAABBInflate(t *testing.T) {
	b := NewAABB(0, 0, 10, 10)
	b.Inflate(nil)
	if b != NewAABB(0, 0, 10, 10) {
		t.Fatalf("Inflate(nil) changed the box: %+v", b)
	}
	o := NewAABB(-5, 2, 3, 20)
	b.Inflate(&o)
	if b != NewAABB(-5, 0, 10, 20) {
		t.Fatalf("Inflate = %+v", b)
	}
}

func TestAABBOverlapsOpenInterval(t *testing.T) {
	a := NewAABB(0, 0, 10, 10)
	cases := []struct {
		b    AABB
		want bool
	}{
		{NewAABB(5, 5, 15, 15), true},
		{NewAABB(10, 0, 20, 10), false}, // shares the right edge
		{NewAABB(0, 10, 10, 20), false}, // shares the bottom edge
		{NewAABB(2, 2, 3, 3), true},
		{NewAABB(11, 11, 12, 12), false},
	}
	for i, c := range cases {
		if got := a.Overlaps(c.b); got != c.want {
			t.Errorf("case %d: a.Overlaps(b) = %v, want %v", i, got, c.want)
		}
		if a.Overlaps(c.b) != c.b.Overlaps(a) {
			t.Errorf("case %d: Overlaps is not symmetric", i)
		}
	}
}

func TestAABBNeverOverlapsOffsetEmptyBox(t *testing.T) {
	a := NewAABB(0, 0, 10, 10)
	for _, p := range []Pt{{-5, 5}, {15, 5}, {5, -5}, {5, 15}, {20, 20}} {
		empty := NewAABB(p.X, p.Y, p.X, p.Y)
		if a.Overlaps(empty) || empty.Overlaps(a) {
			t.Fatalf("empty box at %+v overlaps %+v", p, a)
		}
	}
}

func TestCreateBoundsContainsInputs(t *testing.T) {
	if got := CreateBounds(); got != (AABB{}) {
		t.Fatalf("CreateBounds() = %+v, want zero box", got)
	}
	r := rand.New(rand.NewPCG(7, 8))
	for n := 1; n < 20; n++ {
		boxes := make([]*AABB, 0, n+1)
		for i := 0; i < n; i++ {
			x, y := r.Float64()*200-100, r.Float64()*200-100
			b := FromXYWH(x, y, r.Float64()*50, r.Float64()*50)
			boxes = append(boxes, &b)
		}
		boxes = append(boxes, nil)
		u := CreateBounds(boxes...)
		for _, b := range boxes {
			if b != nil && !u.Contains(*b) {
				t.Fatalf("union %+v does not contain %+v", u, *b)
			}
		}
	}
}

func TestTransformedIdentityIsUnchanged(t *testing.T) {
	b := NewAABB(-3, 4, 8, 9)
	if got := b.Transformed(Identity()); got != b {
		t.Fatalf("Transformed(identity) = %+v, want %+v", got, b)
	}
}

func TestTransformedAtPiReflects(t *testing.T) {
	b := NewAABB(1, 2, 3, 5)
	got := b.Transformed(NewPos(0, 0, math.Pi, 1))
	if want := NewAABB(-3, -5, -1, -2); !boxNear(got, want, 1e-9) {
		t.Fatalf("Transformed(π) = %+v, want %+v", got, want)
	}
	// -π normalizes to π
	if got2 := b.Transformed(NewPos(0, 0, -math.Pi, 1)); !boxNear(got, got2, 1e-9) {
		t.Fatalf("Transformed(-π) = %+v, want %+v", got2, got)
	}
}

// The quadrant split must agree with brute force min/max over the corners.
func TestTransformedMatchesCorners(t *testing.T) {
	r := rand.New(rand.NewPCG(9, 10))
	for i := 0; i < 500; i++ {
		p := randomPos(r)
		b := FromXYWH(r.Float64()*40-20, r.Float64()*40-20, r.Float64()*30, r.Float64()*30)
		want := AABB{L: math.Inf(1), T: math.Inf(1), R: math.Inf(-1), B: math.Inf(-1)}
		for _, c := range b.Corners() {
			q := p.Apply(c)
			want.L = math.Min(want.L, q.X)
			want.T = math.Min(want.T, q.Y)
			want.R = math.Max(want.R, q.X)
			want.B = math.Max(want.B, q.Y)
		}
		if got := b.Transformed(p); !boxNear(got, want, 1e-9) {
			t.Fatalf("Transformed(%+v) = %+v, want %+v", p, got, want)
		}
	}
	for _, o := range []float64{0, math.Pi / 2, -math.Pi / 2, math.Pi} {
		got := NewAABB(0, 0, 2, 1).Transformed(NewPos(0, 0, o, 1))
		if got.L > got.R || got.T > got.B {
			t.Fatalf("inverted box at o=%v: %+v", o, got)
		}
	}
}

func TestStackTop(t *testing.T) {
	var s Stack
	if s.Top() != nil {
		t.Fatalf("empty stack should have no top")
	}
	s.Pop() // no panic
	root := NewPos(1, 2, 0, 1)
	st := NewStack(root)
	st.Push(NewPos(5, 5, 0, 2))
	if st.Len() != 2 || st.Top().S != 2 {
		t.Fatalf("unexpected top after push: %+v", st.Top())
	}
	top := st.Top()
	top.X = 99
	if st.Top().X == 99 {
		t.Fatalf("Top must return a copy")
	}
	st.Pop()
	if *st.Top() != root {
		t.Fatalf("top after pop = %+v, want %+v", *st.Top(), root)
	}
}
