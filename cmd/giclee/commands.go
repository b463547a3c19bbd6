/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"giclee/internal/config"
	"giclee/internal/display"
	"giclee/internal/document"
	"giclee/internal/events"
	"giclee/internal/export"
	"giclee/internal/imagecache"
	applog "giclee/internal/log"
	"giclee/internal/server"
	"giclee/internal/telemetry"
	"giclee/internal/ui"
	"giclee/internal/vector"
)

// usageError marks bad command lines; main prints usage for them.
type usageError string

func (e usageError) Error() string { return string(e) }

// leading splits off up to n leading positional arguments. "-" counts as
// positional.
func leading(args []string, n int) (pos, rest []string) {
	for len(args) > 0 && len(pos) < n {
		a := args[0]
		if a != "-" && strings.HasPrefix(a, "-") {
			break
		}
		pos = append(pos, a)
		args = args[1:]
	}
	return pos, args
}

// posFlag parses "x,y,o,s" into a view transform.
type posFlag struct {
	pos *vector.Pos
}

func (f *posFlag) String() string {
	if f.pos == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g,%g,%g", f.pos.X, f.pos.Y, f.pos.O, f.pos.S)
}

func (f *posFlag) Set(s string) error {
	p, err := parsePos(s)
	if err != nil {
		return err
	}
	f.pos = &p
	return nil
}

func parsePos(s string) (vector.Pos, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return vector.Pos{}, fmt.Errorf("pos %q: want x,y,o,s", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return vector.Pos{}, fmt.Errorf("pos %q: %w", s, err)
		}
		v[i] = f
	}
	if v[3] <= 0 {
		return vector.Pos{}, fmt.Errorf("pos %q: scale must be positive", s)
	}
	return vector.NewPos(v[0], v[1], v[2], v[3]), nil
}

// preloadImages waits for every image the document references so a one-shot
// render sees them.
func preloadImages(ctx context.Context, cache *imagecache.Cache, doc *document.Document) {
	l := applog.WithComponent("cli")
	doc.Walk(func(e *document.Element, _ int) bool {
		if e.Type == document.TypeImage {
			if url := e.String("url", ""); url != "" {
				if _, err := cache.Load(ctx, url); err != nil {
					l.Warn("image unavailable", slog.String("url", url), slog.Any("err", err))
				}
			}
		}
		return true
	})
}

func cmdRender(ctx context.Context, cfg config.AppConfig, cache *imagecache.Cache, args []string, out io.Writer) error {
	pos, rest := leading(args, 2)
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	width := fs.Int("width", cfg.Window.Width, "output width")
	height := fs.Int("height", cfg.Window.Height, "output height")
	debug := fs.Bool("debug", cfg.View.Debug, "outline world bounds")
	var view posFlag
	fs.Var(&view, "pos", "view transform x,y,o,s (default: fit content)")
	if err := fs.Parse(rest); err != nil {
		return usageError(err.Error())
	}
	if len(pos) != 2 {
		return usageError("render requires <doc> and <out>")
	}
	if *width <= 0 || *height <= 0 {
		return usageError("width and height must be positive")
	}
	if _, err := export.FormatFor(pos[1]); err != nil {
		return err
	}

	doc, err := document.LoadFile(pos[0])
	if err != nil {
		return err
	}
	opts := cfg.View.Options()
	opts.Debug = *debug
	d := display.New(doc, float64(*width), float64(*height), opts, cache)
	if view.pos != nil {
		d.SetPos(*view.pos)
	} else {
		d.FitContent()
	}
	preloadImages(ctx, cache, doc)
	if err := export.ExportFile(pos[1], d, export.Options{Title: doc.Title}); err != nil {
		return err
	}
	fmt.Fprintln(out, "Wrote", pos[1])
	return nil
}

func cmdHit(cfg config.AppConfig, args []string, out io.Writer) error {
	pos, rest := leading(args, 3)
	fs := flag.NewFlagSet("hit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var view posFlag
	fs.Var(&view, "pos", "view transform x,y,o,s")
	if err := fs.Parse(rest); err != nil {
		return usageError(err.Error())
	}
	if len(pos) != 3 {
		return usageError("hit requires <doc> <x> <y>")
	}
	x, errX := strconv.ParseFloat(pos[1], 64)
	y, errY := strconv.ParseFloat(pos[2], 64)
	if err := errors.Join(errX, errY); err != nil {
		return usageError("hit: " + err.Error())
	}

	doc, err := document.LoadFile(pos[0])
	if err != nil {
		return err
	}
	d := display.New(doc, float64(cfg.Window.Width), float64(cfg.Window.Height), cfg.View.Options(), nil)
	if view.pos != nil {
		d.SetPos(*view.pos)
	}
	el := d.HitTest(vector.Pt{X: x, Y: y})
	if el == nil {
		return fmt.Errorf("no element at %g,%g", x, y)
	}
	fmt.Fprintf(out, "%s\t%s\n", el.ID, el.Type)
	return nil
}

func cmdBounds(cfg config.AppConfig, args []string, out io.Writer) error {
	pos, rest := leading(args, 1)
	if len(pos) != 1 || len(rest) != 0 {
		return usageError("bounds requires <doc>")
	}
	doc, err := document.LoadFile(pos[0])
	if err != nil {
		return err
	}
	d := display.New(doc, float64(cfg.Window.Width), float64(cfg.Window.Height), cfg.View.Options(), nil)
	b := d.ContentBounds()
	if b == nil {
		fmt.Fprintln(out, "empty")
		return nil
	}
	fmt.Fprintf(out, "%g %g %g %g\n", b.L, b.T, b.R, b.B)
	return nil
}

// docArg reads the optional document argument of the interactive commands.
func docArg(name string, args []string) (*document.Document, []string, error) {
	pos, rest := leading(args, 1)
	path := ""
	if len(pos) == 1 {
		path = pos[0]
	}
	doc, err := document.LoadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	return doc, rest, nil
}

func cmdServe(ctx context.Context, cfg config.AppConfig, cache *imagecache.Cache, args []string) error {
	doc, rest, err := docArg("serve", args)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	addr := fs.String("addr", cfg.Server.Addr, "listen address")
	if err := fs.Parse(rest); err != nil {
		return usageError(err.Error())
	}

	d := display.New(doc, float64(cfg.Window.Width), float64(cfg.Window.Height), cfg.View.Options(), cache)
	d.FitContent()
	if tc := telemetry.Default(); tc.Enabled() {
		for _, sub := range tc.Follow(d.Events(), events.ElementPicked, events.Resized) {
			defer d.Events().Unsubscribe(sub)
		}
	}
	s := server.New(d, server.Options{AllowedOrigins: cfg.Server.AllowedOrigins, Title: doc.Title})
	defer s.Close()
	return s.ListenAndServe(ctx, *addr)
}

func runOptions(cfg config.AppConfig, cache *imagecache.Cache, doc *document.Document) ui.RunOptions {
	return ui.RunOptions{
		Doc:      doc,
		Display:  cfg.View.Options(),
		Width:    cfg.Window.Width,
		Height:   cfg.Window.Height,
		Title:    cfg.Window.Title,
		Images:   cache,
		Overview: 200,
	}
}

func cmdView(cfg config.AppConfig, cache *imagecache.Cache, args []string) error {
	doc, _, err := docArg("view", args)
	if err != nil {
		return err
	}
	return ui.Run(runOptions(cfg, cache, doc))
}

func cmdTouch(cfg config.AppConfig, cache *imagecache.Cache, args []string) error {
	doc, _, err := docArg("touch", args)
	if err != nil {
		return err
	}
	return ui.RunTouch(runOptions(cfg, cache, doc))
}
