/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package display

import (
	"image/color"

	"giclee/internal/events"
	"giclee/internal/model"
	"giclee/internal/vector"
)

// FrameColor outlines the main viewport inside an overview.
var FrameColor = color.NRGBA{R: 0xdc, G: 0x26, B: 0x26, A: 0xff}

// Overview shows the whole document of a main display, fitted to its own
// size, with the main display's viewport drawn as a frame. Tapping it
// re-centres the main display on the tapped point.
type Overview struct {
	main   *Display
	events *events.Manager
	subs   []events.Subscription
	w, h   float64
	pos    vector.Pos
}

// NewOverview attaches an overview of size w×h to main. It follows main's
// view-changed and resized events and re-announces both as its own
// view-changed, since either one moves the frame.
func NewOverview(main *Display, w, h float64) *Overview {
	o := &Overview{main: main, events: events.NewManager(), w: w, h: h}
	o.refit()
	follow := func(ev events.Event) {
		o.refit()
		o.events.Notify(events.Event{Name: events.ViewChanged, Source: o, Data: main.Pos()})
	}
	o.subs = []events.Subscription{
		main.Events().Subscribe(events.ViewChanged, follow),
		main.Events().Subscribe(events.Resized, follow),
	}
	return o
}

// Close stops following the main display.
func (o *Overview) Close() {
	for _, sub := range o.subs {
		o.main.Events().Unsubscribe(sub)
	}
	o.subs = nil
}

func (o *Overview) Pos() vector.Pos         { return o.pos }
func (o *Overview) Size() (w, h float64)    { return o.w, o.h }
func (o *Overview) Events() *events.Manager { return o.events }

func (o *Overview) Resize(w, h float64) {
	if w == o.w && h == o.h {
		return
	}
	o.w, o.h = w, h
	o.refit()
	o.events.Notify(events.Event{Name: events.Resized, Source: o, Data: vector.Pt{X: w, Y: h}})
}

// refit recomputes the overview transform so both the document and the main
// viewport frame are visible.
func (o *Overview) refit() {
	frame := o.main.WorldFrame()
	area := vector.NewAABB(frame[0].X, frame[0].Y, frame[0].X, frame[0].Y)
	for _, c := range frame[1:] {
		b := vector.NewAABB(c.X, c.Y, c.X, c.Y)
		area.Inflate(&b)
	}
	area.Inflate(o.main.ContentBounds())
	o.pos = FitPos(area, o.w, o.h, 0.05)
}

// Draw renders the document and then the main viewport frame.
func (o *Overview) Draw(s model.Surface) {
	opts := o.main.Options()
	opts.Debug = false
	drawDocument(s, o.main.Document(), o.main.Factory(), o.pos, o.w, o.h, opts)

	frame := o.main.WorldFrame()
	pts := make([]vector.Pt, 0, len(frame)+1)
	for _, c := range frame {
		pts = append(pts, o.pos.Apply(c))
	}
	pts = append(pts, pts[0])
	s.Save()
	s.SetTransform(vector.IdentityMatrix)
	s.SetStrokeColor(FrameColor)
	s.SetLineWidth(2)
	s.StrokePolygon(pts...)
	s.Restore()
}

// HandleTouch re-centres the main display on the document point under a new
// contact.
func (o *Overview) HandleTouch(ev TouchEvent) error {
	if ev.Phase != TouchStart {
		return nil
	}
	o.main.CenterOn(o.pos.Invert().Apply(ev.Point))
	return nil
}

var (
	_ Viewer = (*Display)(nil)
	_ Viewer = (*Overview)(nil)
)
