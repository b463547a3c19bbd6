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
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/jung-kurt/gofpdf"

	"giclee/internal/model"
	"giclee/internal/vector"
)

// PDFSurface draws onto a single gofpdf page measured in points, with the
// origin at the top-left like every other surface.
//
// PDF transforms only ever concatenate, so the surface remembers the matrix
// it has applied since the page began and emits the difference when a new
// absolute transform is set.
type PDFSurface struct {
	pdf     *gofpdf.Fpdf
	w, h    float64
	state   stateStack
	applied []vector.Matrix // per Save level; the last one is current
	images  map[image.Image]string
}

func NewPDFSurface(w, h float64, title string) *PDFSurface {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	if title != "" {
		pdf.SetTitle(title, true)
	}
	pdf.SetCreator("giclee", false)
	pdf.AddPage()
	pdf.TransformBegin()

	p := &PDFSurface{
		pdf:     pdf,
		w:       w,
		h:       h,
		applied: []vector.Matrix{vector.IdentityMatrix},
		images:  make(map[image.Image]string),
	}
	p.state.cur = defaultPaintState()
	p.applyPaint()
	return p
}

var _ model.Surface = (*PDFSurface)(nil)

// pageMatrix converts a canvas transform into the equivalent cm operand for
// gofpdf user space, which has y pointing up from the bottom of the page.
func (p *PDFSurface) pageMatrix(m vector.Matrix) vector.Matrix {
	const k = 1 // points
	return vector.Matrix{
		A: m.A,
		B: -m.B,
		C: -m.C,
		D: m.D,
		E: k * (m.C*p.h + m.E),
		F: k*p.h - k*(m.D*p.h+m.F),
	}
}

func (p *PDFSurface) SetTransform(m vector.Matrix) {
	p.state.cur.transform = m
	want := p.pageMatrix(m)
	top := len(p.applied) - 1
	delta := p.applied[top].Invert().Mul(want)
	if delta == vector.IdentityMatrix {
		return
	}
	p.pdf.Transform(gofpdf.TransformMatrix{A: delta.A, B: delta.B, C: delta.C, D: delta.D, E: delta.E, F: delta.F})
	p.applied[top] = want
}

func (p *PDFSurface) Save() {
	p.state.save()
	p.pdf.TransformBegin()
	p.applied = append(p.applied, p.applied[len(p.applied)-1])
}

func (p *PDFSurface) Restore() {
	if !p.state.restore() {
		return
	}
	p.pdf.TransformEnd()
	p.applied = p.applied[:len(p.applied)-1]
	// Q resets colours in the PDF but not in gofpdf's bookkeeping.
	p.applyPaint()
}

func (p *PDFSurface) applyPaint() {
	p.SetFillColor(p.state.cur.fill)
	p.SetStrokeColor(p.state.cur.stroke)
	p.SetLineWidth(p.state.cur.lineWidth)
}

// ClearRect paints the area white; PDF pages have no transparent state to
// return to.
func (p *PDFSurface) ClearRect(x, y, w, h float64) {
	p.pdf.SetFillColor(255, 255, 255)
	p.pdf.Rect(x, y, w, h, "F")
	p.SetFillColor(p.state.cur.fill)
}

// Colour alpha is ignored.
func (p *PDFSurface) SetFillColor(c color.Color) {
	p.state.cur.fill = c
	r, g, b, _ := rgb8(c)
	p.pdf.SetFillColor(int(r), int(g), int(b))
}

func (p *PDFSurface) SetStrokeColor(c color.Color) {
	p.state.cur.stroke = c
	r, g, b, _ := rgb8(c)
	p.pdf.SetDrawColor(int(r), int(g), int(b))
}

func (p *PDFSurface) SetLineWidth(w float64) {
	p.state.cur.lineWidth = w
	p.pdf.SetLineWidth(w)
}

func (p *PDFSurface) FillRect(x, y, w, h float64)   { p.pdf.Rect(x, y, w, h, "F") }
func (p *PDFSurface) StrokeRect(x, y, w, h float64) { p.pdf.Rect(x, y, w, h, "D") }

func (p *PDFSurface) FillEllipse(cx, cy, rx, ry float64) {
	p.pdf.Ellipse(cx, cy, rx, ry, 0, "F")
}

func (p *PDFSurface) StrokeEllipse(cx, cy, rx, ry float64) {
	p.pdf.Ellipse(cx, cy, rx, ry, 0, "D")
}

func (p *PDFSurface) StrokePolygon(pts ...vector.Pt) {
	for i := 1; i < len(pts); i++ {
		p.pdf.Line(pts[i-1].X, pts[i-1].Y, pts[i].X, pts[i].Y)
	}
}

// DrawImage embeds img as PNG once per image value.
func (p *PDFSurface) DrawImage(img image.Image, x, y, w, h float64) {
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	name, ok := p.images[img]
	if !ok {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			p.pdf.SetError(fmt.Errorf("encode image: %w", err))
			return
		}
		name = fmt.Sprintf("img%d", len(p.images))
		p.pdf.RegisterImageOptionsReader(name, opts, &buf)
		p.images[img] = name
	}
	p.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
}

// Output closes the page and writes the document.
func (p *PDFSurface) Output(w io.Writer) error {
	for len(p.applied) > 1 {
		p.Restore()
	}
	p.pdf.TransformEnd()
	if err := p.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
