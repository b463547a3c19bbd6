/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package imagecache loads images in the background and keeps them for reuse.
// Renderers ask for images through a Batch; the batch calls back once every
// image it had to wait for has arrived, so the caller can redraw.
package imagecache

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	applog "giclee/internal/log"
)

// ErrNotFound is wrapped by load errors for images that do not exist.
var ErrNotFound = errors.New("image not found")

// Loader fetches and decodes the image behind url.
type Loader func(ctx context.Context, url string) (image.Image, error)

type Options struct {
	// Capacity bounds the number of finished entries kept. Zero means 256.
	Capacity int
	// Timeout bounds a single background load. Zero means 30s.
	Timeout time.Duration
	// Loader defaults to DefaultLoader.
	Loader Loader
}

type record struct {
	url     string
	img     image.Image
	err     error
	loading bool
	done    chan struct{}
	batches []*Batch
}

// Cache is safe for concurrent use. Loads in flight live in inflight until
// they finish and move to the LRU; an entry is never in both.
type Cache struct {
	mu       sync.Mutex
	inflight map[string]*record
	finished *lru.Cache[string, *record]
	timeout  time.Duration
	loader   Loader
	log      *slog.Logger
}

func New(opts Options) *Cache {
	if opts.Capacity <= 0 {
		opts.Capacity = 256
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Loader == nil {
		opts.Loader = DefaultLoader
	}
	c := &Cache{
		inflight: make(map[string]*record),
		timeout:  opts.Timeout,
		loader:   opts.Loader,
		log:      applog.WithComponent("imagecache"),
	}
	// only fails for a non-positive size
	c.finished, _ = lru.NewWithEvict(opts.Capacity, func(url string, _ *record) {
		c.log.Debug("image evicted", slog.String("url", url))
	})
	return c
}

// Batch tracks the images one consumer is waiting for.
type Batch struct {
	cache    *Cache
	callback func()

	mu      sync.Mutex
	waiting map[string]struct{}
}

// NewBatch returns a batch whose callback runs, on the loading goroutine,
// each time the last image it waits for finishes loading.
func (c *Cache) NewBatch(callback func()) *Batch {
	return &Batch{cache: c, callback: callback, waiting: make(map[string]struct{})}
}

// Get returns the image for url if it is already loaded. Otherwise it starts
// or joins a load and returns nil; the batch callback fires once it is done.
// Failed loads also return nil.
func (b *Batch) Get(url string) image.Image {
	c := b.cache
	c.mu.Lock()
	rec := c.lookupLocked(url)
	if rec.loading {
		b.mu.Lock()
		_, already := b.waiting[url]
		b.waiting[url] = struct{}{}
		b.mu.Unlock()
		if !already {
			rec.batches = append(rec.batches, b)
		}
		c.mu.Unlock()
		return nil
	}
	img := rec.img
	c.mu.Unlock()
	return img
}

// Pending returns the number of images the batch is still waiting for.
func (b *Batch) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.waiting)
}

func (b *Batch) loaded(url string) {
	b.mu.Lock()
	delete(b.waiting, url)
	empty := len(b.waiting) == 0
	b.mu.Unlock()
	if empty && b.callback != nil {
		b.callback()
	}
}

// Load returns the image for url, waiting for it if necessary.
func (c *Cache) Load(ctx context.Context, url string) (image.Image, error) {
	c.mu.Lock()
	rec := c.lookupLocked(url)
	done := rec.done
	c.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	// mark it recently used; it may already have been evicted
	c.finished.Get(url)
	return rec.img, rec.err
}

// Forget drops a finished entry so the next request loads it again.
func (c *Cache) Forget(url string) {
	c.finished.Remove(url)
}

// Len returns the number of known entries, loading ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight) + c.finished.Len()
}

// lookupLocked returns the record for url, starting a load when there is
// none. A finished hit counts as a use.
func (c *Cache) lookupLocked(url string) *record {
	if rec, ok := c.inflight[url]; ok {
		return rec
	}
	if rec, ok := c.finished.Get(url); ok {
		return rec
	}
	rec := &record{url: url, loading: true, done: make(chan struct{})}
	c.inflight[url] = rec
	go c.load(rec)
	return rec
}

func (c *Cache) load(rec *record) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	start := time.Now()
	img, err := c.loader(ctx, rec.url)
	if err != nil {
		err = fmt.Errorf("load image %s: %w", rec.url, err)
		c.log.Warn("image load failed", slog.String("url", rec.url), slog.Any("err", err))
	} else {
		c.log.Debug("image loaded", slog.String("url", rec.url), slog.Duration("took", time.Since(start)))
	}

	c.mu.Lock()
	rec.img, rec.err = img, err
	rec.loading = false
	waiting := rec.batches
	rec.batches = nil
	delete(c.inflight, rec.url)
	c.finished.Add(rec.url, rec)
	close(rec.done)
	c.mu.Unlock()

	for _, b := range waiting {
		b.loaded(rec.url)
	}
}
