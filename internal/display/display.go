/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package display connects a document to a drawing surface and to pointer
// input. A Display owns the view transform: gestures produce candidate
// transforms, the display commits them and announces the change, and the
// model tree redraws with the committed transform at the root of its stack.
package display

import (
	"image/color"
	"log/slog"
	"math"

	"giclee/internal/document"
	"giclee/internal/events"
	"giclee/internal/imagecache"
	applog "giclee/internal/log"
	"giclee/internal/model"
	"giclee/internal/vector"
)

type Options struct {
	CanPan    bool
	CanRotate bool
	CanScale  bool
	Debug     bool
	// Background fills the surface before drawing. Nil leaves it cleared.
	Background color.Color
	// WheelStep is the zoom factor of one wheel notch. Zero means 1.1.
	WheelStep float64
}

// DefaultOptions allows every view change.
func DefaultOptions() Options {
	return Options{CanPan: true, CanRotate: true, CanScale: true, Background: color.White, WheelStep: 1.1}
}

// Viewer is what an overview or a host needs from something showing a document.
type Viewer interface {
	Pos() vector.Pos
	Size() (w, h float64)
	Draw(s model.Surface)
	Events() *events.Manager
}

// Display shows a document through a view transform. It is not safe for
// concurrent use.
type Display struct {
	doc     *document.Document
	factory *model.Factory
	batch   *imagecache.Batch
	events  *events.Manager
	opts    Options
	mode    EditMode
	log     *slog.Logger

	pos  vector.Pos
	w, h float64
}

// New creates a display of size w×h. cache may be nil, in which case image
// elements draw as placeholders.
func New(doc *document.Document, w, h float64, opts Options, cache *imagecache.Cache) *Display {
	if doc == nil {
		doc = document.New()
	}
	if opts.WheelStep <= 1 {
		opts.WheelStep = 1.1
	}
	d := &Display{
		doc:     doc,
		factory: model.NewFactory(nil),
		events:  events.NewManager(),
		opts:    opts,
		mode:    &PanAndScaleEditMode{},
		log:     applog.WithComponent("display"),
		pos:     vector.Identity(),
		w:       w,
		h:       h,
	}
	if cache != nil {
		d.batch = cache.NewBatch(func() {
			d.events.Notify(events.Event{Name: events.ImagesLoaded, Source: d})
		})
	}
	model.RegisterBuiltins(d.factory, d.batch)
	return d
}

func (d *Display) Document() *document.Document { return d.doc }
func (d *Display) Factory() *model.Factory      { return d.factory }
func (d *Display) Events() *events.Manager      { return d.events }
func (d *Display) Options() Options             { return d.opts }
func (d *Display) Pos() vector.Pos              { return d.pos }
func (d *Display) Size() (w, h float64)         { return d.w, d.h }

// SetOptions replaces the view options. Gestures in progress keep the locks
// they started with.
func (d *Display) SetOptions(opts Options) {
	if opts.WheelStep <= 1 {
		opts.WheelStep = 1.1
	}
	d.opts = opts
}

// SetPos commits a new view transform and notifies view-changed.
func (d *Display) SetPos(p vector.Pos) {
	d.pos = p
	if f, ok := d.mode.(viewFollower); ok {
		f.viewSet(p)
	}
	d.events.Notify(events.Event{Name: events.ViewChanged, Source: d, Data: p})
}

// Resize changes the surface size and notifies resized when it differs.
func (d *Display) Resize(w, h float64) {
	if w == d.w && h == d.h {
		return
	}
	d.w, d.h = w, h
	d.log.Debug("resized", slog.Float64("w", w), slog.Float64("h", h))
	d.events.Notify(events.Event{Name: events.Resized, Source: d, Data: vector.Pt{X: w, Y: h}})
}

// Viewport is the visible area in device coordinates.
func (d *Display) Viewport() vector.AABB { return vector.NewAABB(0, 0, d.w, d.h) }

// Center is the middle of the viewport in device coordinates.
func (d *Display) Center() vector.Pt { return vector.Pt{X: d.w / 2, Y: d.h / 2} }

// WorldFrame returns the viewport corners in document coordinates, clockwise
// from top-left.
func (d *Display) WorldFrame() [4]vector.Pt {
	inv := d.pos.Invert()
	c := d.Viewport().Corners()
	for i := range c {
		c[i] = inv.Apply(c[i])
	}
	return c
}

// Add appends top-level elements to the document.
func (d *Display) Add(els ...*document.Element) {
	d.doc.Add(els...)
	for _, el := range els {
		d.factory.EnsureAndGetModel(el, nil)
	}
}

// Draw clears s and renders the document with the view transform at the root.
func (d *Display) Draw(s model.Surface) {
	drawDocument(s, d.doc, d.factory, d.pos, d.w, d.h, d.opts)
}

func drawDocument(s model.Surface, doc *document.Document, f *model.Factory, pos vector.Pos, w, h float64, opts Options) {
	s.Save()
	s.SetTransform(vector.IdentityMatrix)
	s.ClearRect(0, 0, w, h)
	if opts.Background != nil {
		s.SetFillColor(opts.Background)
		s.FillRect(0, 0, w, h)
	}
	s.Restore()

	stack := vector.NewStack(pos)
	viewport := vector.NewAABB(0, 0, w, h)
	ro := model.RenderOptions{Debug: opts.Debug}
	for _, el := range doc.Content {
		if m := f.EnsureAndGetModel(el, nil); m != nil {
			m.Render(s, stack, viewport, ro)
		}
	}
}

// HitTest returns the topmost leaf element under the device point pt.
func (d *Display) HitTest(pt vector.Pt) *document.Element {
	return model.Pick(d.factory, d.doc.Content, nil, vector.NewStack(d.pos), pt)
}

// ContentBounds returns the document's bounds in document coordinates, or nil
// for a document with nothing boundable.
func (d *Display) ContentBounds() *vector.AABB {
	return contentBounds(d.doc, d.factory)
}

func contentBounds(doc *document.Document, f *model.Factory) *vector.AABB {
	var out *vector.AABB
	for _, el := range doc.Content {
		m := f.EnsureAndGetModel(el, nil)
		if m == nil {
			continue
		}
		b := m.Bounds(vector.NewStack(vector.Identity()), model.RenderOptions{})
		if b == nil {
			continue
		}
		if out == nil {
			out = b
			continue
		}
		out.Inflate(b)
	}
	return out
}

// FitPos returns the transform that shows content centred in a w×h viewport,
// leaving margin (a fraction of the viewport) free around it.
func FitPos(content vector.AABB, w, h, margin float64) vector.Pos {
	if content.Width() <= 0 || content.Height() <= 0 || w <= 0 || h <= 0 {
		return vector.NewPos(w/2-content.Center().X, h/2-content.Center().Y, 0, 1)
	}
	s := math.Min(w/content.Width(), h/content.Height()) * (1 - margin)
	c := content.Center()
	return vector.NewPos(w/2-c.X*s, h/2-c.Y*s, 0, s)
}

// FitContent sets the view so the whole document is visible.
func (d *Display) FitContent() {
	b := d.ContentBounds()
	if b == nil {
		d.SetPos(vector.Identity())
		return
	}
	d.SetPos(FitPos(*b, d.w, d.h, 0.1))
}

// CenterOn moves the view without rotating or scaling so that the document
// point world lands in the middle of the viewport.
func (d *Display) CenterOn(world vector.Pt) {
	p := d.pos
	at := p.Apply(world)
	c := d.Center()
	p.X += c.X - at.X
	p.Y += c.Y - at.Y
	d.SetPos(p)
}
