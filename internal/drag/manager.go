/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package drag turns pointer contacts into view transform updates.
//
// A Manager follows the number of active contacts. One contact pans, or with
// the rotate-scale override set, rotates and scales about a fixed origin. Two
// contacts solve for pan, rotation and scale together. Three or more freeze
// the result. Whenever the mode changes the manager commits: it re-baselines
// on the current transform and contact positions so the next update continues
// smoothly instead of re-applying an old baseline under a new formula.
//
// A Manager is not safe for concurrent use; contact callbacks must arrive in
// order from a single goroutine.
package drag

import (
	"log/slog"

	applog "giclee/internal/log"
	"giclee/internal/vector"
)

// TouchID identifies one contact for as long as it is active.
type TouchID int

type contact struct {
	initial vector.Pt
	current vector.Pt
}

// Manager is the gesture state for one continuous interaction.
type Manager struct {
	pos        vector.Pos
	initialPos vector.Pos

	contacts map[TouchID]*contact
	order    []TouchID // start order; the first two drive dual mode

	locks    vector.Locks
	origin   vector.Pt
	override bool

	log *slog.Logger
}

// New returns an idle manager at the identity transform.
func New() *Manager {
	return &Manager{
		pos:        vector.Identity(),
		initialPos: vector.Identity(),
		contacts:   make(map[TouchID]*contact),
		log:        applog.WithComponent("drag"),
	}
}

// SetPos replaces the transform and baseline. Use it before the first contact.
func (m *Manager) SetPos(p vector.Pos) {
	m.pos = p
	m.initialPos = p
}

// Pos returns the current transform.
func (m *Manager) Pos() vector.Pos { return m.pos }

// InitialPos returns the transform at the last commit.
func (m *Manager) InitialPos() vector.Pos { return m.initialPos }

// ActiveTouches returns the number of contacts currently down.
func (m *Manager) ActiveTouches() int { return len(m.order) }

// SetRotateScaleOrigin sets the fixed point single-contact rotation and
// scaling happen about, in the same coordinates as contact points.
func (m *Manager) SetRotateScaleOrigin(p vector.Pt) { m.origin = p }

// RotateScaleOrigin returns the fixed point used by the override mode.
func (m *Manager) RotateScaleOrigin() vector.Pt { return m.origin }

// SetRotateScaleOverride switches a single contact between panning and
// rotating/scaling about the origin. A real toggle commits first.
func (m *Manager) SetRotateScaleOverride(on bool) {
	if on == m.override {
		return
	}
	m.commit()
	m.override = on
}

// SetLocks freezes the given components at their pre-gesture values.
func (m *Manager) SetLocks(position, orientation, scale bool) {
	next := vector.Locks{Position: position, Orientation: orientation, Scale: scale}
	if next == m.locks {
		return
	}
	m.commit()
	m.locks = next
}

// Rebase adopts p as both the current transform and the baseline, and makes
// every contact's current point its new initial point. Hosts call it when the
// view was changed by something other than this gesture, so the next move
// continues from p instead of the stale baseline.
func (m *Manager) Rebase(p vector.Pos) {
	m.pos = p
	m.initialPos = p
	for _, c := range m.contacts {
		c.initial = c.current
	}
}

// Locks returns the active lock flags.
func (m *Manager) Locks() vector.Locks { return m.locks }

// StartTouch registers a new contact at p. Starting an id that is already
// active restarts that contact at p.
func (m *Manager) StartTouch(id TouchID, p vector.Pt) error {
	err := m.commit()
	if c, ok := m.contacts[id]; ok {
		c.initial, c.current = p, p
		return err
	}
	m.contacts[id] = &contact{initial: p, current: p}
	m.order = append(m.order, id)
	m.log.Debug("touch start", slog.Int("id", int(id)), slog.Int("active", len(m.order)))
	return err
}

// MoveTouch records the new position of a contact and recomputes the
// transform. It never re-baselines. Unknown ids are ignored.
func (m *Manager) MoveTouch(id TouchID, p vector.Pt) error {
	c, ok := m.contacts[id]
	if !ok {
		return nil
	}
	c.current = p
	return m.update()
}

// EndTouch is a final MoveTouch followed by removal of the contact and a commit.
func (m *Manager) EndTouch(id TouchID, p vector.Pt) error {
	c, ok := m.contacts[id]
	if !ok {
		return nil
	}
	c.current = p
	err := m.commit()
	delete(m.contacts, id)
	for i, other := range m.order {
		if other == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.log.Debug("touch end", slog.Int("id", int(id)), slog.Int("active", len(m.order)))
	return err
}

// commit recomputes the transform under the current mode and then makes it,
// and every contact's current point, the new baseline. Callers change the
// mode only after committing.
func (m *Manager) commit() error {
	err := m.update()
	m.initialPos = m.pos
	for _, c := range m.contacts {
		c.initial = c.current
	}
	return err
}

// update recomputes pos from the baseline. A solver error leaves pos as it was.
func (m *Manager) update() error {
	if m.locks.Position && m.locks.Orientation && m.locks.Scale {
		return nil
	}
	switch len(m.order) {
	case 0:
		return nil
	case 1:
		c := m.contacts[m.order[0]]
		if m.override {
			return m.updateRotateScale(c)
		}
		if m.locks.Position {
			return nil
		}
		m.pos = m.initialPos
		m.pos.X += c.current.X - c.initial.X
		m.pos.Y += c.current.Y - c.initial.Y
		return nil
	case 2:
		return m.updateDual(m.contacts[m.order[0]], m.contacts[m.order[1]])
	default:
		return nil
	}
}

func (m *Manager) updateRotateScale(c *contact) error {
	if m.locks.Orientation && m.locks.Scale {
		return nil
	}
	locks := m.locks
	locks.Position = true
	rs, err := vector.FromPoints(m.origin, c.initial, m.origin, c.current, locks)
	if err != nil {
		return err
	}
	delta := vector.FromOriginOrientationScale(m.origin, rs.O, rs.S)
	m.pos = m.freeze(delta.Mul(m.initialPos))
	return nil
}

func (m *Manager) updateDual(a, b *contact) error {
	delta, err := vector.FromPoints(a.initial, b.initial, a.current, b.current, m.locks)
	if err != nil {
		return err
	}
	m.pos = m.freeze(delta.Mul(m.initialPos))
	return nil
}

// freeze puts locked components back to their baseline values.
func (m *Manager) freeze(p vector.Pos) vector.Pos {
	if m.locks.Position {
		p.X, p.Y = m.initialPos.X, m.initialPos.Y
	}
	if m.locks.Orientation {
		p.O = m.initialPos.O
	}
	if m.locks.Scale {
		p.S = m.initialPos.S
	}
	return p
}
