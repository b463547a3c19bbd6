/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package model

import (
	"giclee/internal/document"
	"giclee/internal/vector"
)

// Group renders, bounds and hit-tests its children in document order.
type Group struct {
	factory *Factory
	el      *document.Element
	parent  Model
}

func NewGroup(f *Factory, el *document.Element, parent Model) Model {
	return &Group{factory: f, el: el, parent: parent}
}

func (g *Group) Element() *document.Element { return g.el }
func (g *Group) Parent() Model              { return g.parent }

// Children returns the child models in document order.
func (g *Group) Children() []Model {
	out := make([]Model, 0, len(g.el.Children))
	for _, c := range g.el.Children {
		if m := g.factory.EnsureAndGetModel(c, g); m != nil {
			out = append(out, m)
		}
	}
	return out
}

// Bounds is the union of the children's bounds, or nil when no child has any.
func (g *Group) Bounds(stack *vector.Stack, opts RenderOptions) *vector.AABB {
	stack.Push(composedPos(stack, g.el))
	defer stack.Pop()

	var out *vector.AABB
	for _, c := range g.Children() {
		b := c.Bounds(stack, opts)
		if b == nil {
			continue
		}
		if out == nil {
			cp := *b
			out = &cp
			continue
		}
		out.Inflate(b)
	}
	return out
}

func (g *Group) Render(s Surface, stack *vector.Stack, viewport vector.AABB, opts RenderOptions) {
	b := g.Bounds(stack, opts)
	if b == nil {
		return
	}
	if opts.Debug {
		drawDebugBounds(s, *b)
	}
	if !b.Overlaps(viewport) {
		return
	}
	pos := composedPos(stack, g.el)
	stack.Push(pos)
	s.Save()
	vector.SetDeviceTransform(pos, s)
	for _, c := range g.Children() {
		c.Render(s, stack, viewport, opts)
	}
	s.Restore()
	stack.Pop()
}

// IsPointInObject stops at the first child that reports a hit.
func (g *Group) IsPointInObject(s Surface, stack *vector.Stack, pt vector.Pt) bool {
	stack.Push(composedPos(stack, g.el))
	defer stack.Pop()
	for _, c := range g.Children() {
		if c.IsPointInObject(s, stack, pt) {
			return true
		}
	}
	return false
}
