/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package model wraps document elements with the view-side behaviour a
// display needs: world bounds, rendering and hit testing. Models are created
// lazily by a Factory and cached beside the document, never inside it.
package model

import (
	"giclee/internal/document"
	"giclee/internal/vector"
)

type RenderOptions struct {
	// Debug outlines every element's world bounds.
	Debug bool
}

// Model is the view-side wrapper of one element. The stack passed to each
// method holds the composed transform of the element's parent on top and is
// returned to the same depth before the call ends.
type Model interface {
	Element() *document.Element
	Parent() Model
	Render(s Surface, stack *vector.Stack, viewport vector.AABB, opts RenderOptions)
	// Bounds returns the element's world-space box, or nil when it has none
	// (an empty group).
	Bounds(stack *vector.Stack, opts RenderOptions) *vector.AABB
	IsPointInObject(s Surface, stack *vector.Stack, pt vector.Pt) bool
}

// Constructor builds the model for el. parent is nil for top-level elements.
type Constructor func(f *Factory, el *document.Element, parent Model) Model

// Primitive is the type-specific part of a leaf, working in local coordinates.
type Primitive interface {
	LocalBounds() vector.AABB
	Draw(s Surface, stack *vector.Stack)
	ContainsLocal(pt vector.Pt) bool
}

// composedPos is the element's transform in world space. Elements without a
// pos of their own take their parent's.
func composedPos(stack *vector.Stack, el *document.Element) vector.Pos {
	top := stack.Top()
	if el.Pos == nil {
		if top == nil {
			return vector.Identity()
		}
		return *top
	}
	return vector.Concat(top, *el.Pos)
}

func drawDebugBounds(s Surface, b vector.AABB) {
	s.Save()
	s.SetTransform(vector.IdentityMatrix)
	s.SetStrokeColor(DebugColor)
	s.SetLineWidth(1)
	s.StrokeRect(b.XYWH())
	s.Restore()
}

// Leaf is a model without children. Its drawing and local geometry come from
// a Primitive.
type Leaf struct {
	factory *Factory
	el      *document.Element
	parent  Model
	prim    Primitive
}

func NewLeaf(f *Factory, el *document.Element, parent Model, prim Primitive) *Leaf {
	return &Leaf{factory: f, el: el, parent: parent, prim: prim}
}

func (l *Leaf) Element() *document.Element { return l.el }
func (l *Leaf) Parent() Model              { return l.parent }
func (l *Leaf) Primitive() Primitive       { return l.prim }

func (l *Leaf) Bounds(stack *vector.Stack, _ RenderOptions) *vector.AABB {
	pos := composedPos(stack, l.el)
	stack.Push(pos)
	b := l.prim.LocalBounds().Transformed(pos)
	stack.Pop()
	return &b
}

func (l *Leaf) Render(s Surface, stack *vector.Stack, viewport vector.AABB, opts RenderOptions) {
	b := l.Bounds(stack, opts)
	if opts.Debug {
		drawDebugBounds(s, *b)
	}
	if !b.Overlaps(viewport) {
		return
	}
	pos := composedPos(stack, l.el)
	stack.Push(pos)
	s.Save()
	vector.SetDeviceTransform(pos, s)
	l.prim.Draw(s, stack)
	s.Restore()
	stack.Pop()
}

func (l *Leaf) IsPointInObject(_ Surface, stack *vector.Stack, pt vector.Pt) bool {
	pos := composedPos(stack, l.el)
	local := pos.Invert().Apply(pt)
	stack.Push(pos)
	hit := l.prim.ContainsLocal(local)
	stack.Pop()
	return hit
}

// placeholder is drawn for elements whose type has no model of its own.
type placeholder struct{}

var placeholderBox = vector.NewAABB(-50, -50, 50, 50)

func (placeholder) LocalBounds() vector.AABB { return placeholderBox }

func (placeholder) Draw(s Surface, _ *vector.Stack) {
	s.SetFillColor(PlaceholderColor)
	s.FillRect(placeholderBox.XYWH())
}

func (placeholder) ContainsLocal(pt vector.Pt) bool { return placeholderBox.ContainsPoint(pt) }

// NewDefault is the fallback constructor: a leaf drawn as a 100×100 box
// centred on the element's origin.
func NewDefault(f *Factory, el *document.Element, parent Model) Model {
	return NewLeaf(f, el, parent, placeholder{})
}
