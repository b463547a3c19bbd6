/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"giclee/internal/document"
	"giclee/internal/events"
	"giclee/internal/vector"
)

type sink struct {
	mu      sync.Mutex
	events  []map[string]any
	crashes [][]byte
}

func newSink(t *testing.T) (*sink, *httptest.Server) {
	s := &sink{}
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(b, &m)
		s.mu.Lock()
		s.events = append(s.events, m)
		s.mu.Unlock()
	})
	mux.HandleFunc("/crash", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.crashes = append(s.crashes, b)
		s.mu.Unlock()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return s, srv
}

func (s *sink) snapshot() ([]map[string]any, [][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.events...), append([][]byte(nil), s.crashes...)
}

func TestClient_EventAndUploadCrash(t *testing.T) {
	s, srv := newSink(t)
	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash", Timeout: 2 * time.Second})
	defer c.Close()
	if !c.Enabled() {
		t.Fatalf("expected client to be enabled")
	}

	c.Event("started", map[string]any{"k": "v"})
	c.Flush(context.Background())
	evs, _ := s.snapshot()
	if len(evs) != 1 {
		t.Fatalf("expected one event after flush, got %d", len(evs))
	}
	if evs[0]["name"] != "started" || evs[0]["k"] != "v" {
		t.Fatalf("event = %v", evs[0])
	}
	if _, ok := evs[0]["ts"].(string); !ok {
		t.Fatalf("missing ts field")
	}

	// crash uploads are synchronous
	if err := c.UploadCrash([]byte("STACKTRACE")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, crashes := s.snapshot(); len(crashes) != 1 || string(crashes[0]) != "STACKTRACE" {
		t.Fatalf("crashes = %q", crashes)
	}
}

func TestClient_DisabledAndEmptyEventName(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := New(Config{OptIn: false, EventsURL: srv.URL, CrashURL: srv.URL, Timeout: time.Second})
	defer c.Close()
	if c.Enabled() {
		t.Fatalf("expected disabled client")
	}
	c.Event("ignored", nil)
	if err := c.UploadCrash([]byte("ignored")); err != nil {
		t.Fatalf("disabled upload should be a no-op, got %v", err)
	}

	c2 := New(Config{OptIn: true, EventsURL: srv.URL, Timeout: time.Second})
	defer c2.Close()
	c2.Event("", nil)
	c2.Flush(context.Background())
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no requests, got %d", hits)
	}
}

func TestUploadCrashReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	c := New(Config{OptIn: true, CrashURL: srv.URL})
	defer c.Close()
	if err := c.UploadCrash([]byte("x")); err == nil {
		t.Fatalf("expected an error for a 502")
	}
}

func TestFollowForwardsViewerEvents(t *testing.T) {
	s, srv := newSink(t)
	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events"})
	defer c.Close()

	m := events.NewManager()
	subs := c.Follow(m, events.ElementPicked, events.Resized)
	if len(subs) != 2 {
		t.Fatalf("subscriptions = %d", len(subs))
	}
	var none *document.Element
	m.Notify(events.Event{Name: events.ElementPicked, Data: none})
	m.Notify(events.Event{Name: events.Resized, Data: vector.Pt{X: 640, Y: 480}})
	m.Notify(events.Event{Name: events.ViewChanged})
	c.Flush(context.Background())

	evs, _ := s.snapshot()
	if len(evs) != 2 {
		t.Fatalf("events = %v", evs)
	}
	byName := map[string]map[string]any{}
	for _, e := range evs {
		byName[e["name"].(string)] = e
	}
	if byName["viewer.element-picked"]["hit"] != false {
		t.Fatalf("picked = %v", byName["viewer.element-picked"])
	}
	if byName["viewer.resized"]["w"] != float64(640) {
		t.Fatalf("resized = %v", byName["viewer.resized"])
	}
}

func TestDefaultClient(t *testing.T) {
	SetDefault(nil)
	Event("nothing", nil)
	if err := UploadCrash([]byte("x")); err != nil {
		t.Fatalf("nil default should be a no-op: %v", err)
	}
	c := New(Config{})
	defer c.Close()
	SetDefault(c)
	t.Cleanup(func() { SetDefault(nil) })
	if Default() != c {
		t.Fatalf("default not installed")
	}
}
