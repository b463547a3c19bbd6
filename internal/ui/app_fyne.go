//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"giclee/internal/crash"
	"giclee/internal/display"
	"giclee/internal/document"
	"giclee/internal/drag"
	"giclee/internal/events"
	applog "giclee/internal/log"
	"giclee/internal/vector"
	"giclee/internal/version"
)

// scrollNotch is roughly what one wheel click reports in fyne scroll units.
const scrollNotch = 10

// Run opens the desktop viewer and blocks until the window closes.
func Run(opts RunOptions) error {
	opts = opts.withDefaults()
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("title", opts.Title))

	d := display.New(opts.Doc, float64(opts.Width), float64(opts.Height), opts.Display, opts.Images)
	defer crash.Recover(crash.Options{Details: func() map[string]string {
		p := d.Pos()
		return map[string]string{"view": fmt.Sprintf("%.2f,%.2f o=%.3f s=%.3f", p.X, p.Y, p.O, p.S)}
	}})

	fyneApp := app.NewWithID("giclee")
	w := fyneApp.NewWindow(opts.Title + " " + version.String())
	w.Resize(fyne.NewSize(float32(opts.Width), float32(opts.Height)))

	status := widget.NewLabel("Ready")
	view := NewSceneView(d)
	content := fyne.CanvasObject(view)

	var ov *display.Overview
	if opts.Overview > 0 {
		ov = display.NewOverview(d, float64(opts.Overview), float64(opts.Overview))
		defer ov.Close()
		ovView := newOverviewView(ov, float32(opts.Overview))
		ov.Events().Subscribe(events.ViewChanged, func(events.Event) { ovView.Refresh() })
		content = container.NewBorder(nil, nil, nil, ovView, view)
	}

	showPos := func() {
		p := d.Pos().Normalized()
		status.SetText(fmt.Sprintf("x %.1f  y %.1f  rot %.1f°  scale %.3f", p.X, p.Y, p.O*180/math.Pi, p.S))
	}
	d.Events().Subscribe(events.ViewChanged, func(events.Event) {
		showPos()
		view.Refresh()
	})
	d.Events().Subscribe(events.ElementPicked, func(ev events.Event) {
		if el, ok := ev.Data.(*document.Element); ok && el != nil {
			status.SetText(fmt.Sprintf("%s (%s)", el.ID, el.Type))
			return
		}
		status.SetText("nothing here")
	})
	// image loads finish on loader goroutines
	d.Events().Subscribe(events.ImagesLoaded, func(events.Event) {
		fyne.Do(view.Refresh)
	})

	if dc, ok := w.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(func(e *fyne.KeyEvent) {
			if e.Name == desktop.KeyShiftLeft || e.Name == desktop.KeyShiftRight {
				view.shift = true
			}
		})
		dc.SetOnKeyUp(func(e *fyne.KeyEvent) {
			if e.Name == desktop.KeyShiftLeft || e.Name == desktop.KeyShiftRight {
				view.shift = false
			}
		})
	}
	w.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case 'f':
			d.FitContent()
		case 'd':
			o := d.Options()
			o.Debug = !o.Debug
			d.SetOptions(o)
			view.Refresh()
		case 'p':
			if _, picking := d.EditMode().(*display.PickEditMode); picking {
				d.SetEditMode(&display.PanAndScaleEditMode{})
				status.SetText("pan and zoom")
			} else {
				d.SetEditMode(&display.PickEditMode{Hover: true})
				status.SetText("pick")
			}
		}
	})

	w.SetOnDropped(func(at fyne.Position, uris []fyne.URI) {
		origin := fyne.CurrentApp().Driver().AbsolutePositionForObject(view)
		world := ScreenToWorld(d, view.toSurface(at.Subtract(origin)))
		for _, u := range uris {
			el := document.NewImageElement(u.String(), world, 0, 0)
			d.Add(el)
			l.Info("image dropped", slog.String("id", el.ID), slog.String("url", u.String()))
		}
		view.Refresh()
	})

	w.SetContent(container.NewBorder(nil, status, nil, nil, content))
	showPos()
	w.ShowAndRun()
	return nil
}

// SceneView is a widget showing a display. Mouse drags pan (or rotate and
// scale with shift held), the wheel zooms about the pointer.
type SceneView struct {
	widget.BaseWidget

	d       *display.Display
	raster  *canvas.Raster
	tracker PointerTracker
	shift   bool
	// surface pixels per widget unit, updated on every redraw
	scale float64
}

func NewSceneView(d *display.Display) *SceneView {
	v := &SceneView{d: d, scale: 1}
	v.raster = canvas.NewRaster(v.generate)
	v.ExtendBaseWidget(v)
	return v
}

func (v *SceneView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.raster)
}

func (v *SceneView) MinSize() fyne.Size { return fyne.NewSize(200, 150) }

func (v *SceneView) generate(w, h int) image.Image {
	if sz := v.Size(); sz.Width > 0 {
		v.scale = float64(w) / float64(sz.Width)
	}
	v.d.Resize(float64(w), float64(h))
	img, err := Render(v.d, w, h)
	if err != nil {
		applog.WithComponent("ui").Warn("render failed", slog.Any("err", err))
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}
	return img
}

func (v *SceneView) toSurface(p fyne.Position) vector.Pt {
	return vector.Pt{X: float64(p.X) * v.scale, Y: float64(p.Y) * v.scale}
}

func (v *SceneView) feed(cur map[drag.TouchID]vector.Pt) {
	_ = Feed(v.d, v.tracker.Update(cur, v.shift))
}

func (v *SceneView) Dragged(e *fyne.DragEvent) {
	v.feed(map[drag.TouchID]vector.Pt{MouseID: v.toSurface(e.Position)})
}

func (v *SceneView) DragEnd() { v.feed(nil) }

func (v *SceneView) Scrolled(e *fyne.ScrollEvent) {
	_ = v.d.HandleMouseWheel(display.WheelEvent{
		Point: v.toSurface(e.Position),
		Delta: float64(e.Scrolled.DY) / scrollNotch,
		Shift: v.shift,
	})
}

// Tapped is a press and release without movement; pick mode reacts to it.
func (v *SceneView) Tapped(e *fyne.PointEvent) {
	pt := v.toSurface(e.Position)
	_ = v.d.HandleTouch(display.TouchEvent{Phase: display.TouchStart, ID: MouseID, Point: pt, Shift: v.shift})
	_ = v.d.HandleTouch(display.TouchEvent{Phase: display.TouchEnd, ID: MouseID, Point: pt, Shift: v.shift})
}

func (v *SceneView) MouseIn(*desktop.MouseEvent) {}
func (v *SceneView) MouseOut()                   {}

func (v *SceneView) MouseMoved(e *desktop.MouseEvent) {
	v.d.HandleMove(v.toSurface(e.Position))
}

// overviewView shows a display.Overview at a fixed size; tapping recentres
// the main view.
type overviewView struct {
	widget.BaseWidget

	ov     *display.Overview
	raster *canvas.Raster
	side   float32
	scale  float64
}

func newOverviewView(ov *display.Overview, side float32) *overviewView {
	v := &overviewView{ov: ov, side: side, scale: 1}
	v.raster = canvas.NewRaster(func(w, h int) image.Image {
		if sz := v.Size(); sz.Width > 0 {
			v.scale = float64(w) / float64(sz.Width)
		}
		v.ov.Resize(float64(w), float64(h))
		img, err := Render(v.ov, w, h)
		if err != nil {
			return image.NewRGBA(image.Rect(0, 0, w, h))
		}
		return img
	})
	v.ExtendBaseWidget(v)
	return v
}

func (v *overviewView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.raster)
}

func (v *overviewView) MinSize() fyne.Size { return fyne.NewSize(v.side, v.side) }

func (v *overviewView) Tapped(e *fyne.PointEvent) {
	pt := vector.Pt{X: float64(e.Position.X) * v.scale, Y: float64(e.Position.Y) * v.scale}
	_ = v.ov.HandleTouch(display.TouchEvent{Phase: display.TouchStart, ID: MouseID, Point: pt})
}
