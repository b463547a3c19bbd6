/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Stack holds the composed transforms of the elements currently being visited.
// The zero value is an empty stack.
type Stack struct {
	items []Pos
}

// NewStack returns a stack holding root, usually the view transform.
func NewStack(root Pos) *Stack {
	s := &Stack{items: make([]Pos, 0, 16)}
	s.items = append(s.items, root)
	return s
}

func (s *Stack) Push(p Pos) { s.items = append(s.items, p) }

// Pop removes the top entry. Popping an empty stack is a no-op.
func (s *Stack) Pop() {
	if len(s.items) == 0 {
		return
	}
	s.items = s.items[:len(s.items)-1]
}

// Top returns a copy of the top entry, or nil when the stack is empty.
func (s *Stack) Top() *Pos {
	if len(s.items) == 0 {
		return nil
	}
	p := s.items[len(s.items)-1]
	return &p
}

func (s *Stack) Len() int { return len(s.items) }
