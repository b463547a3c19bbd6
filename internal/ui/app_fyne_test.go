//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests exercise the Fyne widgets without opening a window. They are
// gated behind the "fyne" build tag so headless CI does not need Fyne.
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"giclee/internal/display"
	"giclee/internal/document"
	"giclee/internal/vector"
)

func TestSceneView_DragPans(t *testing.T) {
	test.NewApp()
	d := display.New(document.Sample(), 400, 300, display.DefaultOptions(), nil)
	v := NewSceneView(d)
	v.Resize(fyne.NewSize(400, 300))

	v.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(10, 10)}})
	v.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(40, 30)}})
	v.DragEnd()
	if !d.Pos().ApproxEqual(vector.NewPos(30, 20, 0, 1), 1e-6) {
		t.Fatalf("pos = %+v", d.Pos())
	}
}

func TestSceneView_ScrollZooms(t *testing.T) {
	test.NewApp()
	d := display.New(document.Sample(), 400, 300, display.DefaultOptions(), nil)
	v := NewSceneView(d)
	v.Scrolled(&fyne.ScrollEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(100, 100)}, Scrolled: fyne.NewDelta(0, scrollNotch)})
	if d.Pos().S <= 1 {
		t.Fatalf("scroll up should zoom in, pos = %+v", d.Pos())
	}
}

func TestSceneView_GenerateResizes(t *testing.T) {
	test.NewApp()
	d := display.New(document.Sample(), 400, 300, display.DefaultOptions(), nil)
	v := NewSceneView(d)
	img := v.generate(320, 200)
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 200 {
		t.Fatalf("image bounds = %v", b)
	}
	if w, h := d.Size(); w != 320 || h != 200 {
		t.Fatalf("display size = %vx%v", w, h)
	}
}
