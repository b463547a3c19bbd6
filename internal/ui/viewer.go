/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ui hosts a display in a desktop window. The fyne viewer is built
// with -tags fyne (and cgo); the touch-first ebiten viewer with -tags ebiten.
// The pieces both share live here and build everywhere.
package ui

import (
	"errors"
	"image"
	"image/draw"
	"slices"

	"giclee/internal/display"
	"giclee/internal/document"
	"giclee/internal/drag"
	"giclee/internal/export"
	"giclee/internal/imagecache"
	"giclee/internal/vector"
)

// RunOptions configure a viewer window.
type RunOptions struct {
	Doc     *document.Document
	Display display.Options
	Width   int
	Height  int
	Title   string
	Images  *imagecache.Cache
	// Overview is the side length of the overview pane. Zero hides it.
	Overview int
}

func (o RunOptions) withDefaults() RunOptions {
	if o.Doc == nil {
		o.Doc = document.Sample()
	}
	if o.Width <= 0 {
		o.Width = 1024
	}
	if o.Height <= 0 {
		o.Height = 768
	}
	if o.Title == "" {
		o.Title = "giclee"
	}
	if o.Images == nil {
		o.Images = imagecache.New(imagecache.Options{})
	}
	return o
}

// Render draws v into a new w×h RGBA image.
func Render(v display.Viewer, w, h int) (*image.RGBA, error) {
	s := export.NewRasterSurface(w, h)
	defer s.Close()
	v.Draw(s)
	if err := s.Err(); err != nil {
		return nil, err
	}
	src := s.Image()
	if rgba, ok := src.(*image.RGBA); ok {
		// the surface owns its buffer until Close
		return &image.RGBA{Pix: slices.Clone(rgba.Pix), Stride: rgba.Stride, Rect: rgba.Rect}, nil
	}
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst, nil
}

// MouseID is the contact id used for the mouse pointer.
const MouseID drag.TouchID = -1

// PointerTracker turns polled pointer positions into touch events. Each
// Update reports contacts that went away, then new ones, then the ones that
// moved, in id order within each group.
type PointerTracker struct {
	down map[drag.TouchID]vector.Pt
}

func (t *PointerTracker) Update(cur map[drag.TouchID]vector.Pt, shift bool) []display.TouchEvent {
	if t.down == nil {
		t.down = make(map[drag.TouchID]vector.Pt)
	}
	var ended, started, moved []display.TouchEvent
	for id, last := range t.down {
		if _, ok := cur[id]; !ok {
			ended = append(ended, display.TouchEvent{Phase: display.TouchEnd, ID: id, Point: last, Shift: shift})
			delete(t.down, id)
		}
	}
	for id, pt := range cur {
		last, ok := t.down[id]
		switch {
		case !ok:
			started = append(started, display.TouchEvent{Phase: display.TouchStart, ID: id, Point: pt, Shift: shift})
		case last != pt:
			moved = append(moved, display.TouchEvent{Phase: display.TouchMove, ID: id, Point: pt, Shift: shift})
		}
		t.down[id] = pt
	}
	out := make([]display.TouchEvent, 0, len(ended)+len(started)+len(moved))
	for _, group := range [][]display.TouchEvent{ended, started, moved} {
		slices.SortFunc(group, func(a, b display.TouchEvent) int { return int(a.ID - b.ID) })
		out = append(out, group...)
	}
	return out
}

// Active reports how many contacts the tracker holds.
func (t *PointerTracker) Active() int { return len(t.down) }

// TouchHandler takes contact events; *display.Display and *display.Overview
// both qualify.
type TouchHandler interface {
	HandleTouch(ev display.TouchEvent) error
}

// Feed hands every event to h. Later events still run after a failed one.
func Feed(h TouchHandler, evs []display.TouchEvent) error {
	var errs []error
	for _, ev := range evs {
		if err := h.HandleTouch(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ScreenToWorld maps a point on v's surface into document space.
func ScreenToWorld(v display.Viewer, pt vector.Pt) vector.Pt {
	return v.Pos().Invert().Apply(pt)
}
