/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package model

import (
	"math"

	"giclee/internal/document"
	"giclee/internal/imagecache"
	"giclee/internal/vector"
)

// RegisterBuiltins registers rect, ellipse and image. Image elements fetch
// through batch; with a nil batch they draw as placeholders.
func RegisterBuiltins(f *Factory, batch *imagecache.Batch) {
	f.Register(document.TypeRect, func(f *Factory, el *document.Element, parent Model) Model {
		return NewLeaf(f, el, parent, newRect(el))
	})
	f.Register(document.TypeEllipse, func(f *Factory, el *document.Element, parent Model) Model {
		return NewLeaf(f, el, parent, newEllipse(el))
	})
	f.Register(document.TypeImage, func(f *Factory, el *document.Element, parent Model) Model {
		return NewLeaf(f, el, parent, &imagePrim{el: el, batch: batch})
	})
}

// style holds the paint props shared by the shape primitives.
type style struct {
	el        *document.Element
	lineWidth float64
}

func (st style) paint(s Surface, fill, stroke func()) {
	fc, hasFill := PropColor(st.el, "fill")
	sc, hasStroke := PropColor(st.el, "stroke")
	if !hasFill && !hasStroke {
		fc, hasFill = PlaceholderColor, true
	}
	if hasFill {
		s.SetFillColor(fc)
		fill()
	}
	if hasStroke {
		s.SetStrokeColor(sc)
		s.SetLineWidth(st.lineWidth)
		stroke()
	}
}

// rect is a w×h rectangle centred on the origin.
type rect struct {
	style
	box vector.AABB
}

func newRect(el *document.Element) *rect {
	w, h := math.Abs(el.Float("w", 100)), math.Abs(el.Float("h", 100))
	return &rect{
		style: style{el: el, lineWidth: el.Float("line_width", 1)},
		box:   vector.NewAABB(-w/2, -h/2, w/2, h/2),
	}
}

func (r *rect) LocalBounds() vector.AABB { return r.box }

func (r *rect) Draw(s Surface, _ *vector.Stack) {
	x, y, w, h := r.box.XYWH()
	r.paint(s, func() { s.FillRect(x, y, w, h) }, func() { s.StrokeRect(x, y, w, h) })
}

func (r *rect) ContainsLocal(pt vector.Pt) bool { return r.box.ContainsPoint(pt) }

type ellipse struct {
	style
	rx, ry float64
}

func newEllipse(el *document.Element) *ellipse {
	return &ellipse{
		style: style{el: el, lineWidth: el.Float("line_width", 1)},
		rx:    math.Abs(el.Float("rx", 50)),
		ry:    math.Abs(el.Float("ry", 50)),
	}
}

func (e *ellipse) LocalBounds() vector.AABB { return vector.NewAABB(-e.rx, -e.ry, e.rx, e.ry) }

func (e *ellipse) Draw(s Surface, _ *vector.Stack) {
	e.paint(s, func() { s.FillEllipse(0, 0, e.rx, e.ry) }, func() { s.StrokeEllipse(0, 0, e.rx, e.ry) })
}

func (e *ellipse) ContainsLocal(pt vector.Pt) bool {
	if e.rx == 0 || e.ry == 0 {
		return false
	}
	nx, ny := pt.X/e.rx, pt.Y/e.ry
	return nx*nx+ny*ny < 1
}

// imagePrim draws the image at "url" centred on the origin. Its size comes
// from the w and h props, else from the image once loaded, else 100×100.
type imagePrim struct {
	el    *document.Element
	batch *imagecache.Batch
}

func (p *imagePrim) size() (w, h float64) {
	w, h = p.el.Float("w", 0), p.el.Float("h", 0)
	if w > 0 && h > 0 {
		return w, h
	}
	if p.batch != nil {
		if img := p.batch.Get(p.el.String("url", "")); img != nil {
			b := img.Bounds()
			return float64(b.Dx()), float64(b.Dy())
		}
	}
	return 100, 100
}

func (p *imagePrim) LocalBounds() vector.AABB {
	w, h := p.size()
	return vector.NewAABB(-w/2, -h/2, w/2, h/2)
}

func (p *imagePrim) Draw(s Surface, _ *vector.Stack) {
	box := p.LocalBounds()
	x, y, w, h := box.XYWH()
	url := p.el.String("url", "")
	if p.batch != nil && url != "" {
		if img := p.batch.Get(url); img != nil {
			s.DrawImage(img, x, y, w, h)
			return
		}
	}
	s.SetStrokeColor(PlaceholderColor)
	s.SetLineWidth(1)
	s.StrokeRect(x, y, w, h)
	s.StrokePolygon(vector.Pt{X: x, Y: y}, vector.Pt{X: x + w, Y: y + h})
	s.StrokePolygon(vector.Pt{X: x + w, Y: y}, vector.Pt{X: x, Y: y + h})
}

func (p *imagePrim) ContainsLocal(pt vector.Pt) bool { return p.LocalBounds().ContainsPoint(pt) }
