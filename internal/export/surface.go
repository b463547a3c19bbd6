/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export puts documents onto real drawing surfaces: raster images
// through gogpu/gg, PDF pages through gofpdf and SVG through svgo. Every
// surface implements model.Surface, so the same model tree draws everywhere.
package export

import (
	"image/color"

	"giclee/internal/vector"
)

// paintState is the part of the drawing state Save and Restore bracket.
type paintState struct {
	transform vector.Matrix
	fill      color.Color
	stroke    color.Color
	lineWidth float64
}

func defaultPaintState() paintState {
	return paintState{
		transform: vector.IdentityMatrix,
		fill:      color.Black,
		stroke:    color.Black,
		lineWidth: 1,
	}
}

// stateStack implements Save and Restore over paintState values.
type stateStack struct {
	cur   paintState
	saved []paintState
}

func (s *stateStack) save() { s.saved = append(s.saved, s.cur) }

// restore reports whether there was a state to restore.
func (s *stateStack) restore() bool {
	if len(s.saved) == 0 {
		return false
	}
	s.cur = s.saved[len(s.saved)-1]
	s.saved = s.saved[:len(s.saved)-1]
	return true
}

func rgb8(c color.Color) (r, g, b, a uint8) {
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	return nc.R, nc.G, nc.B, nc.A
}
