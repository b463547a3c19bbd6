/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package model

import (
	"fmt"
	"image"
	"image/color"
	"testing"

	"giclee/internal/document"
	"giclee/internal/vector"
)

// recordSurface logs every call so tests can check what was drawn and with
// which transform.
type recordSurface struct {
	calls     []string
	transform vector.Matrix
	saved     []vector.Matrix
}

func (r *recordSurface) log(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recordSurface) SetTransform(m vector.Matrix) { r.transform = m; r.log("transform") }
func (r *recordSurface) Save()                        { r.saved = append(r.saved, r.transform); r.log("save") }
func (r *recordSurface) Restore() {
	if n := len(r.saved); n > 0 {
		r.transform = r.saved[n-1]
		r.saved = r.saved[:n-1]
	}
	r.log("restore")
}
func (r *recordSurface) ClearRect(x, y, w, h float64)         { r.log("clear") }
func (r *recordSurface) SetFillColor(color.Color)             {}
func (r *recordSurface) SetStrokeColor(color.Color)           {}
func (r *recordSurface) SetLineWidth(float64)                 {}
func (r *recordSurface) FillRect(x, y, w, h float64)          { r.log("fillRect %g %g %g %g", x, y, w, h) }
func (r *recordSurface) StrokeRect(x, y, w, h float64)        { r.log("strokeRect %g %g %g %g", x, y, w, h) }
func (r *recordSurface) FillEllipse(cx, cy, rx, ry float64)   { r.log("fillEllipse") }
func (r *recordSurface) StrokeEllipse(cx, cy, rx, ry float64) { r.log("strokeEllipse") }
func (r *recordSurface) StrokePolygon(pts ...vector.Pt)       { r.log("polygon %d", len(pts)) }
func (r *recordSurface) DrawImage(img image.Image, x, y, w, h float64) {
	r.log("image %g %g %g %g", x, y, w, h)
}

func (r *recordSurface) count(prefix string) int {
	n := 0
	for _, c := range r.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

// countingPrim is a unit square around the origin that counts its draws.
type countingPrim struct{ draws int }

func (c *countingPrim) LocalBounds() vector.AABB    { return vector.NewAABB(-1, -1, 1, 1) }
func (c *countingPrim) Draw(Surface, *vector.Stack) { c.draws++ }
func (c *countingPrim) ContainsLocal(pt vector.Pt) bool {
	return vector.NewAABB(-1, -1, 1, 1).ContainsPoint(pt)
}

func posPtr(x, y, o, s float64) *vector.Pos {
	p := vector.NewPos(x, y, o, s)
	return &p
}

func approxBox(a, b vector.AABB) bool {
	const eps = 1e-9
	d := func(x, y float64) bool { return x-y < eps && y-x < eps }
	return d(a.L, b.L) && d(a.T, b.T) && d(a.R, b.R) && d(a.B, b.B)
}

func TestEnsureAndGetModelCaches(t *testing.T) {
	f := NewFactory(nil)
	RegisterBuiltins(f, nil)
	el := &document.Element{ID: "a", Type: document.TypeRect}
	m1 := f.EnsureAndGetModel(el, nil)
	m2 := f.EnsureAndGetModel(el, nil)
	if m1 != m2 {
		t.Fatalf("expected the cached model on the second call")
	}
	other := &document.Element{ID: "a", Type: document.TypeRect}
	if f.EnsureAndGetModel(other, nil) == m1 {
		t.Fatalf("models must not be shared between elements")
	}
	if f.EnsureAndGetModel(nil, nil) != nil {
		t.Fatalf("nil element should have no model")
	}
}

func TestUnknownTypeFallsBack(t *testing.T) {
	f := NewFactory(nil)
	m := f.EnsureAndGetModel(&document.Element{Type: "foo"}, nil)
	leaf, ok := m.(*Leaf)
	if !ok {
		t.Fatalf("expected a leaf, got %T", m)
	}
	if _, ok := leaf.Primitive().(placeholder); !ok {
		t.Fatalf("expected the placeholder primitive, got %T", leaf.Primitive())
	}
	b := m.Bounds(vector.NewStack(vector.Identity()), RenderOptions{})
	if *b != vector.NewAABB(-50, -50, 50, 50) {
		t.Fatalf("placeholder bounds = %+v", *b)
	}
}

func TestRegisterLastWins(t *testing.T) {
	f := NewFactory(nil)
	var which string
	f.Register("x", func(f *Factory, el *document.Element, p Model) Model { which = "first"; return NewDefault(f, el, p) })
	f.Register("x", func(f *Factory, el *document.Element, p Model) Model { which = "second"; return NewDefault(f, el, p) })
	f.EnsureAndGetModel(&document.Element{Type: "x"}, nil)
	if which != "second" {
		t.Fatalf("constructor used = %q", which)
	}
}

func TestGroupResolutionAndForget(t *testing.T) {
	f := NewFactory(nil)
	child := &document.Element{ID: "c"}
	g := &document.Element{ID: "g", Children: []*document.Element{child}}
	m := f.EnsureAndGetModel(g, nil)
	if _, ok := m.(*Group); !ok {
		t.Fatalf("untyped element with children should get a group model, got %T", m)
	}
	if f.Len() != 2 {
		t.Fatalf("children should be resolved eagerly, len = %d", f.Len())
	}
	if f.EnsureAndGetModel(child, nil).Parent() != m {
		t.Fatalf("child model should point at its group")
	}
	f.Forget(g)
	if f.Len() != 0 {
		t.Fatalf("forget should drop the subtree, len = %d", f.Len())
	}
}

func TestEnsureModelsInChildren(t *testing.T) {
	f := NewFactory(nil)
	leaf := &document.Element{ID: "l"}
	inner := document.NewGroup(nil, leaf)
	outer := document.NewGroup(nil, inner)
	f.EnsureModelsInChildren(outer)
	if f.Len() != 3 {
		t.Fatalf("len = %d, want 3", f.Len())
	}
}

func TestGroupBoundsAndHitTest(t *testing.T) {
	f := NewFactory(nil)
	RegisterBuiltins(f, nil)
	a := &document.Element{ID: "a", Type: document.TypeRect, Pos: posPtr(-20, 0, 0, 1), Props: map[string]any{"w": 10.0, "h": 10.0}}
	b := &document.Element{ID: "b", Type: document.TypeRect, Pos: posPtr(20, 0, 0, 2), Props: map[string]any{"w": 10.0, "h": 10.0}}
	g := &document.Element{ID: "g", Type: document.TypeGroup, Pos: posPtr(100, 50, 0, 1), Children: []*document.Element{a, b}}

	stack := vector.NewStack(vector.Identity())
	m := f.EnsureAndGetModel(g, nil)

	got := m.Bounds(stack, RenderOptions{})
	if stack.Len() != 1 {
		t.Fatalf("stack depth after bounds = %d", stack.Len())
	}
	ba := f.EnsureAndGetModel(a, m).Bounds(vector.NewStack(*g.Pos), RenderOptions{})
	bb := f.EnsureAndGetModel(b, m).Bounds(vector.NewStack(*g.Pos), RenderOptions{})
	want := vector.CreateBounds(ba, bb)
	if got == nil || !approxBox(*got, want) {
		t.Fatalf("group bounds = %+v, want %+v", got, want)
	}
	if !approxBox(want, vector.NewAABB(75, 40, 130, 60)) {
		t.Fatalf("union = %+v", want)
	}

	hits := []struct {
		pt   vector.Pt
		want bool
	}{
		{vector.Pt{X: 80, Y: 50}, true},   // inside a
		{vector.Pt{X: 128, Y: 58}, true},  // inside b, which is scaled by 2
		{vector.Pt{X: 100, Y: 50}, false}, // between the children, inside the union
		{vector.Pt{X: 0, Y: 0}, false},
	}
	for _, h := range hits {
		if got := m.IsPointInObject(nil, stack, h.pt); got != h.want {
			t.Errorf("hit %v = %v, want %v", h.pt, got, h.want)
		}
	}
	if stack.Len() != 1 {
		t.Fatalf("stack depth after hit tests = %d", stack.Len())
	}
}

func TestEmptyGroupHasNoBounds(t *testing.T) {
	f := NewFactory(nil)
	empty := document.NewGroup(posPtr(5, 5, 0, 1))
	leaf := &document.Element{Pos: posPtr(0, 0, 0, 1)}
	outer := document.NewGroup(nil, empty, leaf)
	stack := vector.NewStack(vector.Identity())
	if b := f.EnsureAndGetModel(empty, nil).Bounds(stack, RenderOptions{}); b != nil {
		t.Fatalf("empty group bounds = %+v, want nil", *b)
	}
	b := f.EnsureAndGetModel(outer, nil).Bounds(stack, RenderOptions{})
	if b == nil || *b != vector.NewAABB(-50, -50, 50, 50) {
		t.Fatalf("empty child must not contribute, got %+v", b)
	}
	s := &recordSurface{}
	f.EnsureAndGetModel(empty, nil).Render(s, stack, vector.NewAABB(-1000, -1000, 1000, 1000), RenderOptions{})
	if len(s.calls) != 0 {
		t.Fatalf("empty group drew %v", s.calls)
	}
}

func TestCulledLeafIsNotDrawn(t *testing.T) {
	f := NewFactory(nil)
	prim := &countingPrim{}
	f.Register("count", func(f *Factory, el *document.Element, p Model) Model { return NewLeaf(f, el, p, prim) })
	el := &document.Element{Type: "count", Pos: posPtr(500, 500, 0, 1)}
	m := f.EnsureAndGetModel(el, nil)
	stack := vector.NewStack(vector.Identity())
	s := &recordSurface{transform: vector.IdentityMatrix}

	m.Render(s, stack, vector.NewAABB(0, 0, 100, 100), RenderOptions{})
	if prim.draws != 0 || len(s.calls) != 0 {
		t.Fatalf("culled leaf drew: draws=%d calls=%v", prim.draws, s.calls)
	}
	m.Render(s, stack, vector.NewAABB(450, 450, 550, 550), RenderOptions{})
	if prim.draws != 1 {
		t.Fatalf("visible leaf draws = %d, want 1", prim.draws)
	}
	if s.transform != vector.IdentityMatrix {
		t.Fatalf("transform should be restored, got %+v", s.transform)
	}
	if stack.Len() != 1 {
		t.Fatalf("stack depth = %d", stack.Len())
	}
}

func TestCulledGroupSkipsChildren(t *testing.T) {
	f := NewFactory(nil)
	prim := &countingPrim{}
	f.Register("count", func(f *Factory, el *document.Element, p Model) Model { return NewLeaf(f, el, p, prim) })
	g := document.NewGroup(posPtr(1000, 0, 0, 1), &document.Element{Type: "count"}, &document.Element{Type: "count", Pos: posPtr(3, 0, 0, 1)})
	s := &recordSurface{}
	f.EnsureAndGetModel(g, nil).Render(s, vector.NewStack(vector.Identity()), vector.NewAABB(0, 0, 100, 100), RenderOptions{})
	if prim.draws != 0 {
		t.Fatalf("children of a culled group drew %d times", prim.draws)
	}
}

func TestRenderSetsComposedTransform(t *testing.T) {
	f := NewFactory(nil)
	var seen vector.Matrix
	f.Register("probe", func(f *Factory, el *document.Element, p Model) Model {
		return NewLeaf(f, el, p, probePrim{seen: &seen})
	})
	view := vector.NewPos(10, 20, 0, 2)
	el := &document.Element{Type: "probe", Pos: posPtr(5, 0, 0, 1)}
	s := &recordSurface{}
	f.EnsureAndGetModel(el, nil).Render(s, vector.NewStack(view), vector.NewAABB(-1e6, -1e6, 1e6, 1e6), RenderOptions{})
	want := view.Mul(*el.Pos).Matrix()
	if seen != want {
		t.Fatalf("device transform = %+v, want %+v", seen, want)
	}
}

type probePrim struct{ seen *vector.Matrix }

func (p probePrim) LocalBounds() vector.AABB { return vector.NewAABB(-1, -1, 1, 1) }
func (p probePrim) Draw(s Surface, _ *vector.Stack) {
	*p.seen = s.(*recordSurface).transform
}
func (p probePrim) ContainsLocal(vector.Pt) bool { return false }

func TestDebugOutline(t *testing.T) {
	f := Global()
	el := &document.Element{Pos: posPtr(0, 0, 0, 1)}
	s := &recordSurface{}
	f.EnsureAndGetModel(el, nil).Render(s, vector.NewStack(vector.Identity()), vector.NewAABB(0, 0, 10, 10), RenderOptions{Debug: true})
	if s.count("strokeRect -50 -50 100 100") != 1 {
		t.Fatalf("expected a debug outline, calls = %v", s.calls)
	}
	f.Forget(el)
}

func TestPickReturnsTopmostLeaf(t *testing.T) {
	f := NewFactory(nil)
	RegisterBuiltins(f, nil)
	under := &document.Element{ID: "under", Type: document.TypeRect, Pos: posPtr(0, 0, 0, 1)}
	over := &document.Element{ID: "over", Type: document.TypeEllipse, Pos: posPtr(10, 0, 0, 1), Props: map[string]any{"rx": 20.0, "ry": 20.0}}
	g := document.NewGroup(nil, over)
	els := []*document.Element{under, g}
	stack := vector.NewStack(vector.Identity())

	if got := Pick(f, els, nil, stack, vector.Pt{X: 10, Y: 0}); got != over {
		t.Fatalf("pick = %v, want over", got)
	}
	if got := Pick(f, els, nil, stack, vector.Pt{X: -40, Y: 0}); got != under {
		t.Fatalf("pick = %v, want under", got)
	}
	if got := Pick(f, els, nil, stack, vector.Pt{X: 200, Y: 0}); got != nil {
		t.Fatalf("pick = %v, want nil", got)
	}
	if stack.Len() != 1 {
		t.Fatalf("stack depth = %d", stack.Len())
	}
}

func TestShapesDraw(t *testing.T) {
	f := NewFactory(nil)
	RegisterBuiltins(f, nil)
	s := &recordSurface{}
	stack := vector.NewStack(vector.Identity())
	view := vector.NewAABB(-1000, -1000, 1000, 1000)
	r := &document.Element{Type: document.TypeRect, Props: map[string]any{"w": 20.0, "h": 10.0, "fill": "#ff0000", "stroke": "#000"}}
	e := &document.Element{Type: document.TypeEllipse, Props: map[string]any{"stroke": "#000"}}
	img := &document.Element{Type: document.TypeImage, Props: map[string]any{"url": "x.png", "w": 40.0, "h": 30.0}}
	for _, el := range []*document.Element{r, e, img} {
		f.EnsureAndGetModel(el, nil).Render(s, stack, view, RenderOptions{})
	}
	for _, want := range []string{"fillRect -10 -5 20 10", "strokeRect -10 -5 20 10", "strokeEllipse", "strokeRect -20 -15 40 30", "polygon 2"} {
		if s.count(want) == 0 {
			t.Errorf("missing %q in %v", want, s.calls)
		}
	}
	if s.count("fillEllipse") != 0 {
		t.Errorf("stroke-only ellipse should not be filled")
	}
}

func TestNegativeRectSizeKeepsBoxOrdered(t *testing.T) {
	f := NewFactory(nil)
	RegisterBuiltins(f, nil)
	el := &document.Element{Type: document.TypeRect, Pos: posPtr(50, 50, 0, 1), Props: map[string]any{"w": -40.0, "h": -20.0, "fill": "#ff0000"}}
	m := f.EnsureAndGetModel(el, nil)
	stack := vector.NewStack(vector.Identity())

	b := m.Bounds(stack, RenderOptions{})
	if b == nil || !approxBox(*b, vector.NewAABB(30, 40, 70, 60)) {
		t.Fatalf("bounds = %+v, want {30 40 70 60}", b)
	}
	if !m.IsPointInObject(nil, stack, vector.Pt{X: 50, Y: 50}) {
		t.Fatalf("centre of a rect with negative size should hit")
	}
	s := &recordSurface{}
	m.Render(s, stack, vector.NewAABB(0, 0, 100, 100), RenderOptions{})
	if s.count("fillRect -20 -10 40 20") != 1 {
		t.Fatalf("expected a normalized fillRect, got %v", s.calls)
	}
}
