/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package model

import (
	"image"
	"image/color"

	"github.com/gogpu/gg"

	"giclee/internal/document"
	"giclee/internal/vector"
)

// Surface is what models draw on. SetTransform replaces the device transform
// outright; Save and Restore bracket it together with the colour and line
// state. Coordinates given to the primitives are in the current transform's
// local frame.
type Surface interface {
	SetTransform(m vector.Matrix)
	Save()
	Restore()
	ClearRect(x, y, w, h float64)

	SetFillColor(c color.Color)
	SetStrokeColor(c color.Color)
	SetLineWidth(w float64)

	FillRect(x, y, w, h float64)
	StrokeRect(x, y, w, h float64)
	FillEllipse(cx, cy, rx, ry float64)
	StrokeEllipse(cx, cy, rx, ry float64)
	StrokePolygon(pts ...vector.Pt)
	DrawImage(img image.Image, x, y, w, h float64)
}

// PropColor reads a "#rrggbb"-style colour prop. ok is false when the prop is
// missing, so callers can skip the fill or stroke.
func PropColor(el *document.Element, key string) (c color.Color, ok bool) {
	s := el.String(key, "")
	if s == "" || s == "none" {
		return nil, false
	}
	return gg.Hex(s).Color(), true
}

// DebugColor outlines world bounds when RenderOptions.Debug is set.
var DebugColor = color.NRGBA{R: 0xe1, G: 0x1d, B: 0x48, A: 0xff}

// PlaceholderColor fills elements that have nothing better to show.
var PlaceholderColor = color.NRGBA{R: 0x9c, G: 0xa3, B: 0xaf, A: 0xff}
