/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package display

import (
	"log/slog"

	"giclee/internal/drag"
	"giclee/internal/vector"
)

type Phase int

const (
	TouchStart Phase = iota
	TouchMove
	TouchEnd
)

func (p Phase) String() string {
	switch p {
	case TouchStart:
		return "start"
	case TouchMove:
		return "move"
	case TouchEnd:
		return "end"
	}
	return "unknown"
}

// TouchEvent is one contact event in device coordinates. Mouse hosts report
// the pressed button as a single contact.
type TouchEvent struct {
	Phase Phase
	ID    drag.TouchID
	Point vector.Pt
	// Shift turns a single contact into rotate and scale about the viewport centre.
	Shift bool
}

// WheelEvent is a mouse wheel turn. Positive Delta zooms in.
type WheelEvent struct {
	Point vector.Pt
	Delta float64
	// Shift rotates instead of zooming.
	Shift bool
}

// SetEditMode replaces the current edit mode.
func (d *Display) SetEditMode(m EditMode) {
	if m == nil {
		m = &PanAndScaleEditMode{}
	}
	d.mode = m
}

func (d *Display) EditMode() EditMode { return d.mode }

// HandleTouch routes a contact event to the edit mode. Errors come from
// degenerate gestures; the view is left as it was.
func (d *Display) HandleTouch(ev TouchEvent) error {
	err := d.mode.HandleTouch(d, ev)
	if err != nil {
		d.log.Debug("touch ignored", slog.String("phase", ev.Phase.String()), slog.Any("err", err))
	}
	return err
}

// HandleMove delivers button-less pointer movement to modes that want it.
func (d *Display) HandleMove(pt vector.Pt) {
	if d.mode.RequiresMove() {
		d.mode.HandleMove(d, pt)
	}
}

func (d *Display) HandleMouseWheel(ev WheelEvent) error {
	return d.mode.HandleMouseWheel(d, ev)
}
