/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"giclee/internal/display"
	"giclee/internal/document"
	"giclee/internal/events"
	"giclee/internal/vector"
)

const eps = 1e-9

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	d := display.New(document.Sample(), 800, 600, display.DefaultOptions(), nil)
	s := New(d, Options{Title: "test"})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode
}

func TestHealthAndView(t *testing.T) {
	_, ts := newTestServer(t)

	if code := doJSON(t, "GET", ts.URL+"/health", nil, nil); code != http.StatusOK {
		t.Fatalf("health status %d", code)
	}

	var st ViewState
	if code := doJSON(t, "GET", ts.URL+"/view", nil, &st); code != http.StatusOK {
		t.Fatalf("view status %d", code)
	}
	if st.Pos == nil || *st.Pos != vector.Identity() || st.Width != 800 || st.Height != 600 {
		t.Fatalf("initial view = %+v", st)
	}

	want := vector.NewPos(10, 20, 0.5, 2)
	if code := doJSON(t, "PUT", ts.URL+"/view", ViewState{Pos: &want, Width: 400, Height: 300}, &st); code != http.StatusOK {
		t.Fatalf("put status %d", code)
	}
	if *st.Pos != want || st.Width != 400 || st.Height != 300 {
		t.Fatalf("after put = %+v", st)
	}

	bad := vector.NewPos(0, 0, 0, 0)
	if code := doJSON(t, "PUT", ts.URL+"/view", ViewState{Pos: &bad}, nil); code != http.StatusBadRequest {
		t.Fatalf("zero scale status %d", code)
	}
}

func TestTouchAndWheel(t *testing.T) {
	s, ts := newTestServer(t)

	var st ViewState
	for _, tp := range []TouchPayload{
		{Phase: "start", ID: 1, X: 0, Y: 0},
		{Phase: "move", ID: 1, X: 30, Y: 15},
		{Phase: "end", ID: 1, X: 30, Y: 15},
	} {
		if code := doJSON(t, "POST", ts.URL+"/touch", tp, &st); code != http.StatusOK {
			t.Fatalf("%s status %d", tp.Phase, code)
		}
	}
	if !st.Pos.ApproxEqual(vector.NewPos(30, 15, 0, 1), eps) {
		t.Fatalf("after drag = %+v", *st.Pos)
	}

	if code := doJSON(t, "POST", ts.URL+"/touch", TouchPayload{Phase: "hover"}, nil); code != http.StatusBadRequest {
		t.Fatalf("bad phase status %d", code)
	}

	// zoom in one notch about the pointer
	ptr := vector.Pt{X: 200, Y: 100}
	before := s.disp.Pos().Invert().Apply(ptr)
	if code := doJSON(t, "POST", ts.URL+"/wheel", WheelPayload{X: ptr.X, Y: ptr.Y, Delta: 1}, &st); code != http.StatusOK {
		t.Fatalf("wheel status %d", code)
	}
	if st.Pos.S <= 1 {
		t.Fatalf("wheel did not zoom: %+v", *st.Pos)
	}
	after := st.Pos.Invert().Apply(ptr)
	if after.Sub(before).Len() > 1e-6 {
		t.Fatalf("pointer moved in world: %v -> %v", before, after)
	}
}

func TestCoincidentPinchRejected(t *testing.T) {
	_, ts := newTestServer(t)
	doJSON(t, "POST", ts.URL+"/touch", TouchPayload{Phase: "start", ID: 1, X: 50, Y: 50}, nil)
	doJSON(t, "POST", ts.URL+"/touch", TouchPayload{Phase: "start", ID: 2, X: 50, Y: 50}, nil)
	code := doJSON(t, "POST", ts.URL+"/touch", TouchPayload{Phase: "move", ID: 2, X: 60, Y: 60}, nil)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d, want 422", code)
	}
	var st ViewState
	doJSON(t, "GET", ts.URL+"/view", nil, &st)
	if *st.Pos != vector.Identity() {
		t.Fatalf("view changed to %+v", *st.Pos)
	}
}

func TestHitBoundsAndElements(t *testing.T) {
	s, ts := newTestServer(t)

	// the sample group's rect sits centred on (520, 320)
	var hit HitResult
	if code := doJSON(t, "GET", ts.URL+"/hit?x=520&y=320", nil, &hit); code != http.StatusOK {
		t.Fatalf("hit status %d", code)
	}
	if hit.Type != document.TypeRect {
		t.Fatalf("hit = %+v", hit)
	}
	if code := doJSON(t, "GET", ts.URL+"/hit?x=5&y=5", nil, nil); code != http.StatusNotFound {
		t.Fatalf("miss status %d", code)
	}
	if code := doJSON(t, "GET", ts.URL+"/hit?x=abc&y=5", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("bad query status %d", code)
	}

	var el document.Element
	if code := doJSON(t, "GET", ts.URL+"/elements/"+hit.ID, nil, &el); code != http.StatusOK {
		t.Fatalf("element status %d", code)
	}
	if el.ID != hit.ID || el.Type != document.TypeRect {
		t.Fatalf("element = %+v", el)
	}
	if code := doJSON(t, "GET", ts.URL+"/elements/nope", nil, nil); code != http.StatusNotFound {
		t.Fatalf("unknown element status %d", code)
	}

	var b map[string]float64
	if code := doJSON(t, "GET", ts.URL+"/bounds", nil, &b); code != http.StatusOK {
		t.Fatalf("bounds status %d", code)
	}
	want := s.disp.ContentBounds()
	if b["l"] != want.L || b["b"] != want.B {
		t.Fatalf("bounds = %v, want %+v", b, *want)
	}

	var st ViewState
	if code := doJSON(t, "POST", ts.URL+"/view/fit", nil, &st); code != http.StatusOK {
		t.Fatalf("fit status %d", code)
	}
	if *st.Pos == vector.Identity() {
		t.Fatalf("fit left the view untouched")
	}
}

func TestRender(t *testing.T) {
	_, ts := newTestServer(t)
	for format, ct := range map[string]string{
		"png": "image/png",
		"svg": "image/svg+xml",
		"pdf": "application/pdf",
	} {
		resp, err := http.Get(ts.URL + "/render." + format)
		if err != nil {
			t.Fatalf("get %s: %v", format, err)
		}
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != ct {
			t.Fatalf("%s: status %d type %q", format, resp.StatusCode, resp.Header.Get("Content-Type"))
		}
		if buf.Len() == 0 {
			t.Fatalf("%s: empty body", format)
		}
	}
	if code := doJSON(t, "GET", ts.URL+"/render.gif", nil, nil); code != http.StatusNotFound {
		t.Fatalf("gif status %d", code)
	}
}

func readMessage(t *testing.T, ctx context.Context, c *websocket.Conn) Message {
	t.Helper()
	_, data, err := c.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return msg
}

func TestWebSocketStreamsViewChanges(t *testing.T) {
	s, ts := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close(websocket.StatusNormalClosure, "")

	hello := readMessage(t, ctx, c)
	if hello.Type != events.ViewChanged || hello.Pos == nil || hello.Width != 800 {
		t.Fatalf("greeting = %+v", hello)
	}

	for _, tp := range []TouchPayload{
		{Phase: "start", ID: 7, X: 0, Y: 0},
		{Phase: "move", ID: 7, X: -12, Y: 4},
	} {
		data, _ := json.Marshal(Message{Type: TypeTouch, Touch: &tp})
		if err := c.Write(ctx, websocket.MessageText, data); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	msg := readMessage(t, ctx, c)
	if msg.Type != events.ViewChanged || !msg.Pos.ApproxEqual(vector.NewPos(-12, 4, 0, 1), eps) {
		t.Fatalf("update = %+v", msg)
	}

	// a change made over HTTP reaches the socket too
	p := vector.NewPos(1, 2, 0, 1)
	doJSON(t, "PUT", ts.URL+"/view", ViewState{Pos: &p}, nil)
	msg = readMessage(t, ctx, c)
	if msg.Pos == nil || *msg.Pos != p {
		t.Fatalf("broadcast = %+v", msg)
	}
	if s.hub.count() != 1 {
		t.Fatalf("clients = %d", s.hub.count())
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
}
