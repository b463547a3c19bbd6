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

// Pick returns the topmost leaf element under the world point pt, searching
// in reverse paint order, or nil. The stack top is the view transform.
func Pick(f *Factory, els []*document.Element, s Surface, stack *vector.Stack, pt vector.Pt) *document.Element {
	for i := len(els) - 1; i >= 0; i-- {
		el := els[i]
		m := f.EnsureAndGetModel(el, nil)
		if m == nil {
			continue
		}
		if hit := pickModel(f, m, s, stack, pt); hit != nil {
			return hit
		}
	}
	return nil
}

func pickModel(f *Factory, m Model, s Surface, stack *vector.Stack, pt vector.Pt) *document.Element {
	g, ok := m.(*Group)
	if !ok {
		if m.IsPointInObject(s, stack, pt) {
			return m.Element()
		}
		return nil
	}
	stack.Push(composedPos(stack, g.el))
	defer stack.Pop()
	children := g.Children()
	for i := len(children) - 1; i >= 0; i-- {
		if hit := pickModel(f, children[i], s, stack, pt); hit != nil {
			return hit
		}
	}
	return nil
}
