/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package events delivers named notifications from a viewer to its listeners.
package events

import (
	"sync"

	"github.com/google/uuid"
)

// Event names fired by displays and the image cache.
const (
	ViewChanged   = "view-changed"
	Resized       = "resized"
	ElementPicked = "element-picked"
	ImagesLoaded  = "images-loaded"
)

// Event is one notification. Data depends on Name: the new view pos for
// ViewChanged, the new size for Resized, the picked element for ElementPicked.
type Event struct {
	Name   string
	Source any
	Data   any
}

type Handler func(Event)

// Subscription identifies one registered handler.
type Subscription struct {
	ID   uuid.UUID
	Name string
}

type listener struct {
	id uuid.UUID
	fn Handler
}

// Manager is safe for concurrent use. Handlers run on the notifying goroutine
// in registration order, outside the manager's lock, so a handler may
// subscribe or unsubscribe.
type Manager struct {
	mu        sync.RWMutex
	listeners map[string][]listener
}

func NewManager() *Manager {
	return &Manager{listeners: make(map[string][]listener)}
}

// Subscribe registers fn for events called name.
func (m *Manager) Subscribe(name string, fn Handler) Subscription {
	id := uuid.New()
	m.mu.Lock()
	m.listeners[name] = append(m.listeners[name], listener{id: id, fn: fn})
	m.mu.Unlock()
	return Subscription{ID: id, Name: name}
}

// Unsubscribe removes a handler. It reports whether the subscription was live.
func (m *Manager) Unsubscribe(sub Subscription) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ls := m.listeners[sub.Name]
	for i, l := range ls {
		if l.id == sub.ID {
			m.listeners[sub.Name] = append(ls[:i:i], ls[i+1:]...)
			if len(m.listeners[sub.Name]) == 0 {
				delete(m.listeners, sub.Name)
			}
			return true
		}
	}
	return false
}

// Notify calls every handler subscribed to ev.Name.
func (m *Manager) Notify(ev Event) {
	m.mu.RLock()
	ls := append([]listener(nil), m.listeners[ev.Name]...)
	m.mu.RUnlock()
	for _, l := range ls {
		l.fn(ev)
	}
}

// Count returns the number of handlers subscribed to name.
func (m *Manager) Count(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.listeners[name])
}
