/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	"giclee/internal/model"
	"giclee/internal/vector"
)

// RasterSurface draws into a gg context. It is not safe for concurrent use.
type RasterSurface struct {
	ctx   *gg.Context
	state stateStack
	w, h  int
	err   error
}

func NewRasterSurface(w, h int) *RasterSurface {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	r := &RasterSurface{ctx: gg.NewContext(w, h), w: w, h: h}
	r.state.cur = defaultPaintState()
	return r
}

var _ model.Surface = (*RasterSurface)(nil)

func toGG(m vector.Matrix) gg.Matrix {
	return gg.Matrix{A: m.A, B: m.C, C: m.E, D: m.B, E: m.D, F: m.F}
}

func (r *RasterSurface) SetTransform(m vector.Matrix) {
	r.state.cur.transform = m
	r.ctx.SetTransform(toGG(m))
}

func (r *RasterSurface) Save() {
	r.state.save()
	r.ctx.Push()
}

func (r *RasterSurface) Restore() {
	if r.state.restore() {
		r.ctx.Pop()
		r.ctx.SetTransform(toGG(r.state.cur.transform))
	}
}

// ClearRect makes the area transparent. gg clears whole contexts only; a
// partial clear composites transparent black, which leaves the area as is.
func (r *RasterSurface) ClearRect(x, y, w, h float64) {
	area := vector.FromXYWH(x, y, w, h)
	if r.state.cur.transform == vector.IdentityMatrix && area.Contains(vector.NewAABB(0, 0, float64(r.w), float64(r.h))) {
		r.ctx.ClearWithColor(gg.RGBA{})
		return
	}
	r.ctx.SetColor(color.Transparent)
	r.ctx.DrawRectangle(x, y, w, h)
	r.keep(r.ctx.Fill())
}

func (r *RasterSurface) SetFillColor(c color.Color)   { r.state.cur.fill = c }
func (r *RasterSurface) SetStrokeColor(c color.Color) { r.state.cur.stroke = c }
func (r *RasterSurface) SetLineWidth(w float64)       { r.state.cur.lineWidth = w }

func (r *RasterSurface) fill() {
	r.ctx.SetColor(r.state.cur.fill)
	r.keep(r.ctx.Fill())
}

func (r *RasterSurface) stroke() {
	r.ctx.SetColor(r.state.cur.stroke)
	r.ctx.SetLineWidth(r.state.cur.lineWidth)
	r.keep(r.ctx.Stroke())
}

func (r *RasterSurface) FillRect(x, y, w, h float64) {
	r.ctx.DrawRectangle(x, y, w, h)
	r.fill()
}

func (r *RasterSurface) StrokeRect(x, y, w, h float64) {
	r.ctx.DrawRectangle(x, y, w, h)
	r.stroke()
}

func (r *RasterSurface) FillEllipse(cx, cy, rx, ry float64) {
	r.ctx.DrawEllipse(cx, cy, rx, ry)
	r.fill()
}

func (r *RasterSurface) StrokeEllipse(cx, cy, rx, ry float64) {
	r.ctx.DrawEllipse(cx, cy, rx, ry)
	r.stroke()
}

func (r *RasterSurface) StrokePolygon(pts ...vector.Pt) {
	if len(pts) < 2 {
		return
	}
	r.ctx.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		r.ctx.LineTo(p.X, p.Y)
	}
	r.stroke()
}

// DrawImage scales img into the local rectangle x,y,w,h. gg only places
// images axis-aligned, so rotated transforms are resampled with
// x/image/draw first and the result is composited at identity.
func (r *RasterSurface) DrawImage(img image.Image, x, y, w, h float64) {
	sb := img.Bounds()
	if sb.Empty() || w == 0 || h == 0 {
		return
	}
	place := vector.Matrix{
		A: w / float64(sb.Dx()), D: h / float64(sb.Dy()),
		E: x - float64(sb.Min.X)*w/float64(sb.Dx()),
		F: y - float64(sb.Min.Y)*h/float64(sb.Dy()),
	}
	m := r.state.cur.transform.Mul(place)

	warped := image.NewRGBA(image.Rect(0, 0, r.w, r.h))
	draw.BiLinear.Transform(warped, m.Aff3(), img, sb, draw.Over, nil)

	r.ctx.Push()
	r.ctx.Identity()
	r.ctx.DrawImage(gg.ImageBufFromImage(warped), 0, 0)
	r.ctx.Pop()
	r.ctx.SetTransform(toGG(r.state.cur.transform))
}

func (r *RasterSurface) keep(err error) {
	if err != nil && r.err == nil {
		r.err = err
	}
}

// Err returns the first drawing error.
func (r *RasterSurface) Err() error { return r.err }

func (r *RasterSurface) Image() image.Image { return r.ctx.Image() }

// EncodePNG writes the surface as PNG.
func (r *RasterSurface) EncodePNG(w io.Writer) error {
	if r.err != nil {
		return fmt.Errorf("render: %w", r.err)
	}
	return r.ctx.EncodePNG(w)
}

func (r *RasterSurface) Close() error { return r.ctx.Close() }
