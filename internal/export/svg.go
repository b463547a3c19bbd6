/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strconv"

	svg "github.com/ajstarks/svgo/float"

	"giclee/internal/model"
	"giclee/internal/vector"
)

// SVGSurface streams SVG elements as they are drawn. Every element carries
// the transform in effect when it was drawn, so Save and Restore need no
// grouping.
type SVGSurface struct {
	canvas *svg.SVG
	state  stateStack
	err    error
}

func NewSVGSurface(w io.Writer, width, height float64) *SVGSurface {
	s := &SVGSurface{canvas: svg.New(w)}
	s.state.cur = defaultPaintState()
	s.canvas.Start(width, height)
	return s
}

var _ model.Surface = (*SVGSurface)(nil)

func (s *SVGSurface) SetTransform(m vector.Matrix) { s.state.cur.transform = m }
func (s *SVGSurface) Save()                        { s.state.save() }
func (s *SVGSurface) Restore()                     { s.state.restore() }
func (s *SVGSurface) SetFillColor(c color.Color)   { s.state.cur.fill = c }
func (s *SVGSurface) SetStrokeColor(c color.Color) { s.state.cur.stroke = c }
func (s *SVGSurface) SetLineWidth(w float64)       { s.state.cur.lineWidth = w }

// ClearRect is a no-op: nothing drawn so far can be taken back out of the stream.
func (s *SVGSurface) ClearRect(x, y, w, h float64) {}

func num(v float64) string {
	if v == 0 {
		return "0" // also for -0
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func (s *SVGSurface) transformAttr() string {
	m := s.state.cur.transform
	return fmt.Sprintf(`transform="matrix(%s %s %s %s %s %s)"`,
		num(m.A), num(m.B), num(m.C), num(m.D), num(m.E), num(m.F))
}

func paintValue(c color.Color) (hex string, opacity float64) {
	r, g, b, a := rgb8(c)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b), float64(a) / 255
}

func (s *SVGSurface) fillStyle() string {
	hex, op := paintValue(s.state.cur.fill)
	if op < 1 {
		return fmt.Sprintf("fill:%s;fill-opacity:%s;stroke:none", hex, num(op))
	}
	return fmt.Sprintf("fill:%s;stroke:none", hex)
}

func (s *SVGSurface) strokeStyle() string {
	hex, op := paintValue(s.state.cur.stroke)
	style := fmt.Sprintf("fill:none;stroke:%s;stroke-width:%s", hex, num(s.state.cur.lineWidth))
	if op < 1 {
		style += ";stroke-opacity:" + num(op)
	}
	return style
}

func (s *SVGSurface) FillRect(x, y, w, h float64) {
	s.canvas.Rect(x, y, w, h, s.transformAttr(), s.fillStyle())
}

func (s *SVGSurface) StrokeRect(x, y, w, h float64) {
	s.canvas.Rect(x, y, w, h, s.transformAttr(), s.strokeStyle())
}

func (s *SVGSurface) FillEllipse(cx, cy, rx, ry float64) {
	s.canvas.Ellipse(cx, cy, rx, ry, s.transformAttr(), s.fillStyle())
}

func (s *SVGSurface) StrokeEllipse(cx, cy, rx, ry float64) {
	s.canvas.Ellipse(cx, cy, rx, ry, s.transformAttr(), s.strokeStyle())
}

func (s *SVGSurface) StrokePolygon(pts ...vector.Pt) {
	if len(pts) < 2 {
		return
	}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
	}
	s.canvas.Polyline(xs, ys, s.transformAttr(), s.strokeStyle())
}

// DrawImage inlines img as a base64 PNG data URI.
func (s *SVGSurface) DrawImage(img image.Image, x, y, w, h float64) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		if s.err == nil {
			s.err = fmt.Errorf("encode image: %w", err)
		}
		return
	}
	_, err := fmt.Fprintf(s.canvas.Writer,
		`<image x="%s" y="%s" width="%s" height="%s" preserveAspectRatio="none" %s href="data:image/png;base64,%s"/>`+"\n",
		num(x), num(y), num(w), num(h), s.transformAttr(), base64.StdEncoding.EncodeToString(buf.Bytes()))
	if err != nil && s.err == nil {
		s.err = err
	}
}

// Close ends the document and reports the first error seen.
func (s *SVGSurface) Close() error {
	s.canvas.End()
	return s.err
}
