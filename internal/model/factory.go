/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package model

import (
	"log/slog"
	"sync"

	"giclee/internal/document"
	applog "giclee/internal/log"
)

// Factory maps element type tags to model constructors and caches the model
// built for each element, keyed by element identity. It is not safe for
// concurrent use.
type Factory struct {
	types    map[string]Constructor
	fallback Constructor
	models   map[*document.Element]Model
	log      *slog.Logger
}

// NewFactory returns a factory knowing only groups. A nil fallback means
// NewDefault.
func NewFactory(fallback Constructor) *Factory {
	if fallback == nil {
		fallback = NewDefault
	}
	return &Factory{
		types:    map[string]Constructor{document.TypeGroup: NewGroup},
		fallback: fallback,
		models:   make(map[*document.Element]Model),
		log:      applog.WithComponent("model"),
	}
}

var (
	globalOnce sync.Once
	global     *Factory
)

// Global returns a shared factory with the built-in types registered and no
// image cache. Displays normally own their own factory instead.
func Global() *Factory {
	globalOnce.Do(func() {
		global = NewFactory(nil)
		RegisterBuiltins(global, nil)
	})
	return global
}

// Register binds tag to c. A later registration for the same tag wins.
func (f *Factory) Register(tag string, c Constructor) {
	f.types[tag] = c
}

// EnsureAndGetModel returns the cached model for el, building it on first
// use. Unknown type tags get the fallback model and a warning. Models for a
// new group's children are built straight away.
func (f *Factory) EnsureAndGetModel(el *document.Element, parent Model) Model {
	if el == nil {
		return nil
	}
	if m, ok := f.models[el]; ok {
		return m
	}
	m := f.resolve(el)(f, el, parent)
	f.models[el] = m
	if len(el.Children) > 0 {
		f.ensureChildren(el, m)
	}
	return m
}

// EnsureModelsInChildren builds models for every descendant of el.
func (f *Factory) EnsureModelsInChildren(el *document.Element) {
	if el == nil {
		return
	}
	f.ensureChildren(el, f.EnsureAndGetModel(el, nil))
}

func (f *Factory) ensureChildren(el *document.Element, parent Model) {
	for _, c := range el.Children {
		f.EnsureAndGetModel(c, parent)
	}
}

func (f *Factory) resolve(el *document.Element) Constructor {
	if el.Type == "" {
		if el.IsGroup() {
			return f.types[document.TypeGroup]
		}
		return f.fallback
	}
	if c, ok := f.types[el.Type]; ok {
		return c
	}
	f.log.Warn("no model for element type, using default",
		slog.String("type", el.Type), slog.String("id", el.ID))
	return f.fallback
}

// Forget drops the cached models of el and its descendants, for example after
// the element was edited or removed.
func (f *Factory) Forget(el *document.Element) {
	if el == nil {
		return
	}
	delete(f.models, el)
	for _, c := range el.Children {
		f.Forget(c)
	}
}

// Len returns the number of cached models.
func (f *Factory) Len() int { return len(f.models) }
