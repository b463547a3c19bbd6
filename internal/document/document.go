/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package document

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

// ErrInvalid is wrapped by every error caused by malformed document input.
var ErrInvalid = errors.New("invalid document")

// ValidationError lists schema violations.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalid, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Document is the element tree shown by a viewer.
type Document struct {
	Title   string     `json:"title,omitempty"`
	Content []*Element `json:"content"`
}

// New returns a document holding the given top-level elements.
func New(content ...*Element) *Document {
	if content == nil {
		content = []*Element{}
	}
	return &Document{Content: content}
}

// Parse validates data against the document schema and decodes it. Both the
// object form {"content": [...]} and a bare array of elements are accepted.
// Missing ids are generated; a pos without a scale gets scale 1.
func Parse(data []byte) (*Document, error) {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !res.Valid() {
		ve := &ValidationError{}
		for _, re := range res.Errors() {
			ve.Problems = append(ve.Problems, re.String())
		}
		return nil, ve
	}

	doc := &Document{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &doc.Content)
	} else {
		err = json.Unmarshal(trimmed, doc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if doc.Content == nil {
		doc.Content = []*Element{}
	}
	if err := doc.normalize(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Load reads and parses a document.
func Load(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Parse(data)
}

// LoadFile parses the document at path. An empty path or "-" returns Sample().
func LoadFile(path string) (*Document, error) {
	if path == "" || path == "-" {
		return Sample(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func (d *Document) normalize() error {
	seen := make(map[string]struct{})
	var dup []string
	d.Walk(func(e *Element, _ int) bool {
		if e.ID == "" {
			e.ID = NewID()
		}
		if _, ok := seen[e.ID]; ok {
			dup = append(dup, e.ID)
		}
		seen[e.ID] = struct{}{}
		if e.Pos != nil && e.Pos.S == 0 {
			e.Pos.S = 1
		}
		return true
	})
	if len(dup) > 0 {
		return &ValidationError{Problems: []string{"duplicate element ids: " + strings.Join(dup, ", ")}}
	}
	return nil
}

// Walk visits every element depth-first in document order. Returning false
// from fn skips that element's children.
func (d *Document) Walk(fn func(e *Element, depth int) bool) {
	var visit func(els []*Element, depth int)
	visit = func(els []*Element, depth int) {
		for _, e := range els {
			if e == nil {
				continue
			}
			if fn(e, depth) {
				visit(e.Children, depth+1)
			}
		}
	}
	visit(d.Content, 0)
}

// Find returns the element with the given id, or nil.
func (d *Document) Find(id string) *Element {
	var found *Element
	d.Walk(func(e *Element, _ int) bool {
		if found != nil {
			return false
		}
		if e.ID == id {
			found = e
			return false
		}
		return true
	})
	return found
}

// Add appends top-level elements.
func (d *Document) Add(els ...*Element) { d.Content = append(d.Content, els...) }

// Sample returns a small document: two untyped-model elements and a group of
// built-in shapes.
func Sample() *Document {
	doc := New(
		NewElement("foo", posPtr(100, 100, 0.1, 1.2), nil),
		NewElement("foo", posPtr(300, 200, 0.3, 0.9), nil),
		NewGroup(posPtr(520, 320, -0.2, 1),
			NewElement(TypeRect, posPtr(0, 0, 0, 1), map[string]any{"w": 120.0, "h": 80.0, "fill": "#3b82f6"}),
			NewElement(TypeEllipse, posPtr(90, 70, 0, 1), map[string]any{"rx": 40.0, "ry": 25.0, "fill": "#f59e0b", "stroke": "#1f2937"}),
		),
	)
	doc.Title = "Sample"
	return doc
}
