/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package document holds the element tree a viewer displays. Elements are plain
// values: nothing view-related is stored on them, and the viewer keys its own
// state by element identity.
package document

import (
	"fmt"

	"go.jetify.com/typeid/v2"

	"giclee/internal/vector"
)

// Well-known element types. Any other tag is allowed and gets the default model.
const (
	TypeGroup   = "group"
	TypeRect    = "rect"
	TypeEllipse = "ellipse"
	TypeImage   = "image"
)

// IDPrefix is the typeid prefix of generated element ids.
const IDPrefix = "el"

// Element is one node of the document: a leaf record or a group of children.
type Element struct {
	ID       string         `json:"id,omitempty"`
	Type     string         `json:"type,omitempty"`
	Pos      *vector.Pos    `json:"pos,omitempty"`
	Children []*Element     `json:"children,omitempty"`
	Props    map[string]any `json:"props,omitempty"`
}

// NewID returns a fresh element id such as el_01h455vb4pex5vsknk084sn02q.
func NewID() string { return typeid.MustGenerate(IDPrefix).String() }

// ValidateID checks that id is a typeid carrying the element prefix. Ids read
// from documents may be anything; this only matters for generated ones.
func ValidateID(id string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid element id %q: %w", id, err)
	}
	if parsed.Prefix() != IDPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", IDPrefix, parsed.Prefix(), id)
	}
	return nil
}

// IsGroup reports whether e is a container. Untyped elements that carry a
// children list are groups too.
func (e *Element) IsGroup() bool {
	return e.Type == TypeGroup || (e.Type == "" && e.Children != nil)
}

// Float returns a numeric prop or def when it is missing or not a number.
func (e *Element) Float(key string, def float64) float64 {
	switch v := e.Props[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// String returns a string prop or def.
func (e *Element) String(key, def string) string {
	if v, ok := e.Props[key].(string); ok && v != "" {
		return v
	}
	return def
}

// NewElement creates a leaf with a generated id.
func NewElement(typ string, pos *vector.Pos, props map[string]any) *Element {
	return &Element{ID: NewID(), Type: typ, Pos: pos, Props: props}
}

// NewGroup creates a group holding children. A nil pos makes it pass-through.
func NewGroup(pos *vector.Pos, children ...*Element) *Element {
	if children == nil {
		children = []*Element{}
	}
	return &Element{ID: NewID(), Type: TypeGroup, Pos: pos, Children: children}
}

// NewImageElement creates an image element of size w×h centred on at.
func NewImageElement(url string, at vector.Pt, w, h float64) *Element {
	p := vector.NewPos(at.X, at.Y, 0, 1)
	return NewElement(TypeImage, &p, map[string]any{"url": url, "w": w, "h": h})
}

func posPtr(x, y, o, s float64) *vector.Pos {
	p := vector.NewPos(x, y, o, s)
	return &p
}
