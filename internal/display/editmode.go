/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package display

import (
	"math"

	"giclee/internal/drag"
	"giclee/internal/events"
	"giclee/internal/vector"
)

// EditMode decides what pointer input does to a display.
type EditMode interface {
	// RequiresMove reports whether the mode wants movement without a pressed
	// button. Only use it for visual feedback; touch devices never send it.
	RequiresMove() bool
	HandleMove(d *Display, pt vector.Pt)
	HandleTouch(d *Display, ev TouchEvent) error
	HandleMouseWheel(d *Display, ev WheelEvent) error
}

// PanAndScaleEditMode moves the view. Each gesture gets a fresh drag manager
// seeded with the display's transform, rotating and scaling about the
// viewport centre, with locks taken from the display options.
type PanAndScaleEditMode struct {
	dm *drag.Manager
}

func (m *PanAndScaleEditMode) RequiresMove() bool             { return false }
func (m *PanAndScaleEditMode) HandleMove(*Display, vector.Pt) {}

// viewFollower is implemented by edit modes that hold their own copy of the
// view transform and must hear about changes made outside of them.
type viewFollower interface {
	viewSet(p vector.Pos)
}

// viewSet rebases a running gesture on a view set from elsewhere, such as a
// wheel zoom or a remote client, so the next move does not undo it.
func (m *PanAndScaleEditMode) viewSet(p vector.Pos) {
	if m.dm != nil && m.dm.Pos() != p {
		m.dm.Rebase(p)
	}
}

// Active reports whether a gesture is in progress.
func (m *PanAndScaleEditMode) Active() bool { return m.dm != nil }

func (m *PanAndScaleEditMode) HandleTouch(d *Display, ev TouchEvent) error {
	switch ev.Phase {
	case TouchStart:
		if m.dm == nil {
			dm := drag.New()
			dm.SetPos(d.Pos())
			dm.SetRotateScaleOrigin(d.Center())
			dm.SetLocks(!d.opts.CanPan, !d.opts.CanRotate, !d.opts.CanScale)
			m.dm = dm
		}
		m.dm.SetRotateScaleOverride(ev.Shift)
		return m.dm.StartTouch(ev.ID, ev.Point)

	case TouchMove:
		if m.dm == nil {
			return nil
		}
		m.dm.SetRotateScaleOverride(ev.Shift)
		if err := m.dm.MoveTouch(ev.ID, ev.Point); err != nil {
			return err
		}
		if p := m.dm.Pos(); p != d.Pos() {
			d.SetPos(p)
		}
		return nil

	case TouchEnd:
		if m.dm == nil {
			return nil
		}
		err := m.dm.EndTouch(ev.ID, ev.Point)
		if p := m.dm.Pos(); err == nil && p != d.Pos() {
			d.SetPos(p)
		}
		if m.dm.ActiveTouches() == 0 {
			m.dm = nil
		}
		return err
	}
	return nil
}

// HandleMouseWheel zooms about the pointer, or rotates about it with shift.
func (m *PanAndScaleEditMode) HandleMouseWheel(d *Display, ev WheelEvent) error {
	var delta vector.Pos
	switch {
	case ev.Shift && d.opts.CanRotate:
		delta = vector.FromOriginOrientationScale(ev.Point, ev.Delta*math.Pi/36, 1)
	case !ev.Shift && d.opts.CanScale:
		delta = vector.FromOriginOrientationScale(ev.Point, 0, math.Pow(d.opts.WheelStep, ev.Delta))
	default:
		return nil
	}
	d.SetPos(delta.Mul(d.Pos()))
	return nil
}

// PickEditMode reports the element under each new contact as element-picked.
// The event data is the element, or nil when the contact hit nothing.
type PickEditMode struct {
	// Hover, when set, also picks on button-less movement.
	Hover bool
}

func (m *PickEditMode) RequiresMove() bool { return m.Hover }

func (m *PickEditMode) HandleMove(d *Display, pt vector.Pt) { m.pick(d, pt) }

func (m *PickEditMode) HandleTouch(d *Display, ev TouchEvent) error {
	if ev.Phase == TouchStart {
		m.pick(d, ev.Point)
	}
	return nil
}

func (m *PickEditMode) HandleMouseWheel(*Display, WheelEvent) error { return nil }

func (m *PickEditMode) pick(d *Display, pt vector.Pt) {
	el := d.HitTest(pt)
	d.events.Notify(events.Event{Name: events.ElementPicked, Source: d, Data: el})
}
