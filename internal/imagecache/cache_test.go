/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package imagecache

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// gatedLoader blocks every load until release is closed.
type gatedLoader struct {
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedLoader) load(ctx context.Context, url string) (image.Image, error) {
	g.calls.Add(1)
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if url == "missing" {
		return nil, ErrNotFound
	}
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for callback")
	}
}

func TestBatchCallbackAfterAllLoaded(t *testing.T) {
	g := &gatedLoader{release: make(chan struct{})}
	c := New(Options{Loader: g.load})
	fired := make(chan struct{}, 4)
	b := c.NewBatch(func() { fired <- struct{}{} })

	if b.Get("a") != nil || b.Get("b") != nil || b.Get("a") != nil {
		t.Fatalf("images should not be available before loading")
	}
	if b.Pending() != 2 {
		t.Fatalf("pending = %d, want 2", b.Pending())
	}
	close(g.release)
	waitFor(t, fired)
	if b.Pending() != 0 {
		t.Fatalf("pending = %d after callback", b.Pending())
	}
	if b.Get("a") == nil || b.Get("b") == nil {
		t.Fatalf("loaded images should be returned")
	}
	if g.calls.Load() != 2 {
		t.Fatalf("loader calls = %d, want 2", g.calls.Load())
	}
	select {
	case <-fired:
		t.Fatalf("callback fired twice")
	default:
	}
}

func TestBatchesShareLoads(t *testing.T) {
	g := &gatedLoader{release: make(chan struct{})}
	c := New(Options{Loader: g.load})
	f1 := make(chan struct{}, 1)
	f2 := make(chan struct{}, 1)
	b1 := c.NewBatch(func() { f1 <- struct{}{} })
	b2 := c.NewBatch(func() { f2 <- struct{}{} })
	b1.Get("x")
	b2.Get("x")
	close(g.release)
	waitFor(t, f1)
	waitFor(t, f2)
	if g.calls.Load() != 1 {
		t.Fatalf("loader calls = %d, want 1", g.calls.Load())
	}
}

func TestLoadWaitsAndReportsErrors(t *testing.T) {
	g := &gatedLoader{release: make(chan struct{})}
	close(g.release)
	c := New(Options{Loader: g.load})
	img, err := c.Load(context.Background(), "ok")
	if err != nil || img == nil {
		t.Fatalf("load: %v %v", img, err)
	}
	if _, err := c.Load(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// failed loads are cached until forgotten
	c.Load(context.Background(), "missing")
	if g.calls.Load() != 2 {
		t.Fatalf("loader calls = %d, want 2", g.calls.Load())
	}
	c.Forget("missing")
	c.Load(context.Background(), "missing")
	if g.calls.Load() != 3 {
		t.Fatalf("loader calls = %d after forget, want 3", g.calls.Load())
	}
}

func TestLoadHonoursContext(t *testing.T) {
	g := &gatedLoader{release: make(chan struct{})}
	defer close(g.release)
	c := New(Options{Loader: g.load})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Load(ctx, "slow"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	g := &gatedLoader{release: make(chan struct{})}
	close(g.release)
	c := New(Options{Loader: g.load, Capacity: 2})
	ctx := context.Background()
	c.Load(ctx, "a")
	c.Load(ctx, "b")
	c.Load(ctx, "a") // a is now most recent
	c.Load(ctx, "c") // evicts b
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
	before := g.calls.Load()
	c.Load(ctx, "a")
	if g.calls.Load() != before {
		t.Fatalf("a should still be cached")
	}
	c.Load(ctx, "b")
	if g.calls.Load() != before+1 {
		t.Fatalf("b should have been evicted")
	}
}

func TestInFlightLoadsSurviveEviction(t *testing.T) {
	slow := make(chan struct{})
	loader := func(ctx context.Context, url string) (image.Image, error) {
		if url == "slow" {
			<-slow
		}
		return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
	}
	c := New(Options{Loader: loader, Capacity: 1})
	ctx := context.Background()

	done := make(chan struct{})
	b := c.NewBatch(func() { close(done) })
	if b.Get("slow") != nil {
		t.Fatalf("slow image cannot be ready yet")
	}
	c.Load(ctx, "a")
	c.Load(ctx, "b") // evicts a, not the load in flight
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 1 finished + 1 loading", c.Len())
	}
	close(slow)
	waitFor(t, done)
	if b.Get("slow") == nil {
		t.Fatalf("slow image should be cached after loading")
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d after slow finished, want 1", c.Len())
	}
}

func writePNG(t *testing.T, w *bytes.Buffer) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})
	if err := png.Encode(w, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestDefaultLoaderFileAndHTTP(t *testing.T) {
	var buf bytes.Buffer
	writePNG(t, &buf)
	path := filepath.Join(t.TempDir(), "a.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ctx := context.Background()
	for _, ref := range []string{path, "file://" + path} {
		img, err := DefaultLoader(ctx, ref)
		if err != nil {
			t.Fatalf("%s: %v", ref, err)
		}
		if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
			t.Fatalf("%s: bounds %v", ref, img.Bounds())
		}
	}
	if _, err := DefaultLoader(ctx, filepath.Join(t.TempDir(), "nope.png")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing file, got %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/a.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()
	if _, err := DefaultLoader(ctx, srv.URL+"/a.png"); err != nil {
		t.Fatalf("http load: %v", err)
	}
	if _, err := DefaultLoader(ctx, srv.URL+"/b.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound over http, got %v", err)
	}
}
