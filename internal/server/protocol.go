/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"fmt"

	"giclee/internal/display"
	"giclee/internal/drag"
	"giclee/internal/vector"
)

// Message types on the websocket. Server to client: the event names from
// package events. Client to server: touch and wheel.
const (
	TypeTouch = "touch"
	TypeWheel = "wheel"
)

// Message is one websocket frame, JSON encoded.
type Message struct {
	Type    string        `json:"type"`
	Pos     *vector.Pos   `json:"pos,omitempty"`
	Width   float64       `json:"width,omitempty"`
	Height  float64       `json:"height,omitempty"`
	Element string        `json:"element,omitempty"`
	Touch   *TouchPayload `json:"touch,omitempty"`
	Wheel   *WheelPayload `json:"wheel,omitempty"`
}

type TouchPayload struct {
	Phase string  `json:"phase"` // start, move or end
	ID    int     `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Shift bool    `json:"shift,omitempty"`
}

func (t TouchPayload) event() (display.TouchEvent, error) {
	ev := display.TouchEvent{ID: drag.TouchID(t.ID), Point: vector.Pt{X: t.X, Y: t.Y}, Shift: t.Shift}
	switch t.Phase {
	case "start":
		ev.Phase = display.TouchStart
	case "move":
		ev.Phase = display.TouchMove
	case "end":
		ev.Phase = display.TouchEnd
	default:
		return ev, fmt.Errorf("unknown touch phase %q", t.Phase)
	}
	return ev, nil
}

type WheelPayload struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Delta float64 `json:"delta"`
	Shift bool    `json:"shift,omitempty"`
}

func (w WheelPayload) event() display.WheelEvent {
	return display.WheelEvent{Point: vector.Pt{X: w.X, Y: w.Y}, Delta: w.Delta, Shift: w.Shift}
}

// ViewState is the body of GET and PUT /view.
type ViewState struct {
	Pos    *vector.Pos `json:"pos,omitempty"`
	Width  float64     `json:"width,omitempty"`
	Height float64     `json:"height,omitempty"`
}

// HitResult is the body of GET /hit.
type HitResult struct {
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
}
