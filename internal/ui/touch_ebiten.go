//go:build ebiten

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"giclee/internal/display"
	"giclee/internal/drag"
	"giclee/internal/events"
	applog "giclee/internal/log"
	"giclee/internal/vector"
	"giclee/internal/version"
)

var errQuit = errors.New("quit")

// RunTouch opens a touch-first viewer: every finger is a contact, the left
// mouse button is one more. It blocks until the window closes.
func RunTouch(opts RunOptions) error {
	opts = opts.withDefaults()
	l := applog.WithComponent("ui")
	l.Info("starting touch viewer", slog.String("title", opts.Title))

	d := display.New(opts.Doc, float64(opts.Width), float64(opts.Height), opts.Display, opts.Images)
	g := &touchGame{d: d, dirty: true}
	g.resizer = display.ResizerFor(d, func() (float64, float64) { return float64(g.outW), float64(g.outH) })
	d.Events().Subscribe(events.ViewChanged, func(events.Event) { g.dirty = true })
	// loads finish on other goroutines; Update picks the flag up
	d.Events().Subscribe(events.ImagesLoaded, func(events.Event) { g.reload.Store(true) })

	ebiten.SetWindowTitle(opts.Title + " (" + version.String() + ")")
	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}

type touchGame struct {
	d       *display.Display
	resizer *display.Resizer
	tracker PointerTracker
	ids     []ebiten.TouchID

	outW, outH int
	frame      *ebiten.Image
	dirty      bool
	reload     atomic.Bool
}

func (g *touchGame) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return errQuit
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		g.d.FitContent()
	}
	if (g.outW > 0 && g.resizer.Check()) || g.reload.Swap(false) {
		g.dirty = true
	}
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)

	cur := make(map[drag.TouchID]vector.Pt)
	g.ids = ebiten.AppendTouchIDs(g.ids[:0])
	for _, id := range g.ids {
		x, y := ebiten.TouchPosition(id)
		cur[drag.TouchID(id)] = vector.Pt{X: float64(x), Y: float64(y)}
	}
	mx, my := ebiten.CursorPosition()
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		cur[MouseID] = vector.Pt{X: float64(mx), Y: float64(my)}
	} else {
		g.d.HandleMove(vector.Pt{X: float64(mx), Y: float64(my)})
	}
	_ = Feed(g.d, g.tracker.Update(cur, shift))

	if _, dy := ebiten.Wheel(); dy != 0 {
		_ = g.d.HandleMouseWheel(display.WheelEvent{Point: vector.Pt{X: float64(mx), Y: float64(my)}, Delta: dy, Shift: shift})
	}
	return nil
}

func (g *touchGame) Draw(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	if g.frame == nil || g.frame.Bounds().Dx() != w || g.frame.Bounds().Dy() != h {
		if g.frame != nil {
			g.frame.Deallocate()
		}
		g.frame = ebiten.NewImage(w, h)
		g.dirty = true
	}
	if g.dirty {
		img, err := Render(g.d, w, h)
		if err != nil {
			applog.WithComponent("ui").Warn("render failed", slog.Any("err", err))
		} else {
			g.frame.WritePixels(img.Pix)
		}
		g.dirty = false
	}
	screen.DrawImage(g.frame, nil)
}

func (g *touchGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.outW, g.outH = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}
