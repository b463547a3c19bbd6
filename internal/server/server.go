/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package server exposes a display over HTTP: view state, gestures, hit tests
// and rendered frames, plus a websocket that streams view events and accepts
// remote touches.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"giclee/internal/display"
	"giclee/internal/document"
	"giclee/internal/events"
	"giclee/internal/export"
	applog "giclee/internal/log"
	"giclee/internal/vector"
)

type Options struct {
	// AllowedOrigins are websocket origin patterns, e.g. "localhost:5173".
	AllowedOrigins []string
	Title          string
}

// Server serializes every display call behind one mutex; displays are not
// safe for concurrent use.
type Server struct {
	mu     sync.Mutex
	disp   *display.Display
	opts   Options
	hub    *hub
	router *mux.Router
	log    *slog.Logger
	subs   []events.Subscription
}

func New(d *display.Display, opts Options) *Server {
	s := &Server{
		disp: d,
		opts: opts,
		log:  applog.WithComponent("server"),
	}
	s.hub = newHub(s.log)
	s.subscribe()
	s.routes()
	return s
}

func (s *Server) subscribe() {
	ev := s.disp.Events()
	s.subs = append(s.subs,
		ev.Subscribe(events.ViewChanged, func(e events.Event) {
			p, _ := e.Data.(vector.Pos)
			s.hub.broadcast(&Message{Type: events.ViewChanged, Pos: &p})
		}),
		ev.Subscribe(events.Resized, func(e events.Event) {
			size, _ := e.Data.(vector.Pt)
			s.hub.broadcast(&Message{Type: events.Resized, Width: size.X, Height: size.Y})
		}),
		ev.Subscribe(events.ImagesLoaded, func(events.Event) {
			s.hub.broadcast(&Message{Type: events.ImagesLoaded})
		}),
		ev.Subscribe(events.ElementPicked, func(e events.Event) {
			msg := &Message{Type: events.ElementPicked}
			if el, ok := e.Data.(*document.Element); ok && el != nil {
				msg.Element = el.ID
			}
			s.hub.broadcast(msg)
		}),
	)
}

// Close detaches the server from its display.
func (s *Server) Close() {
	for _, sub := range s.subs {
		s.disp.Events().Unsubscribe(sub)
	}
	s.subs = nil
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.Use(s.recovery)
	r.Use(s.logger)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	r.HandleFunc("/view", s.getView).Methods("GET")
	r.HandleFunc("/view", s.putView).Methods("PUT")
	r.HandleFunc("/view/fit", s.fitView).Methods("POST")
	r.HandleFunc("/touch", s.postTouch).Methods("POST")
	r.HandleFunc("/wheel", s.postWheel).Methods("POST")
	r.HandleFunc("/hit", s.getHit).Methods("GET")
	r.HandleFunc("/bounds", s.getBounds).Methods("GET")
	r.HandleFunc("/elements/{id}", s.getElement).Methods("GET")
	r.HandleFunc("/render.{format}", s.getRender).Methods("GET")
	r.HandleFunc("/ws", s.handleWebSocket)

	s.router = r
}

func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) viewState() ViewState {
	p := s.disp.Pos()
	w, h := s.disp.Size()
	return ViewState{Pos: &p, Width: w, Height: h}
}

func (s *Server) getView(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	st := s.viewState()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) putView(w http.ResponseWriter, r *http.Request) {
	var in ViewState
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if in.Pos != nil && in.Pos.S <= 0 {
		writeError(w, http.StatusBadRequest, "scale must be positive")
		return
	}
	if in.Width < 0 || in.Height < 0 {
		writeError(w, http.StatusBadRequest, "size must not be negative")
		return
	}
	s.mu.Lock()
	if in.Width > 0 && in.Height > 0 {
		s.disp.Resize(in.Width, in.Height)
	}
	if in.Pos != nil {
		s.disp.SetPos(*in.Pos)
	}
	st := s.viewState()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) fitView(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.disp.FitContent()
	st := s.viewState()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, st)
}

// applyTouch feeds one touch to the display. Degenerate gestures are
// reported but leave the view unchanged.
func (s *Server) applyTouch(t TouchPayload) (ViewState, error) {
	ev, err := t.event()
	if err != nil {
		return ViewState{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.disp.HandleTouch(ev)
	return s.viewState(), err
}

func (s *Server) postTouch(w http.ResponseWriter, r *http.Request) {
	var in TouchPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	st, err := s.applyTouch(in)
	switch {
	case errors.Is(err, vector.ErrCoincidentPoints), errors.Is(err, vector.ErrZeroScale):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSON(w, http.StatusOK, st)
	}
}

func (s *Server) applyWheel(in WheelPayload) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.disp.HandleMouseWheel(in.event())
	return s.viewState()
}

func (s *Server) postWheel(w http.ResponseWriter, r *http.Request) {
	var in WheelPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	writeJSON(w, http.StatusOK, s.applyWheel(in))
}

func queryFloat(r *http.Request, key string) (float64, error) {
	v, err := strconv.ParseFloat(r.URL.Query().Get(key), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func (s *Server) getHit(w http.ResponseWriter, r *http.Request) {
	x, err := queryFloat(r, "x")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	y, err := queryFloat(r, "y")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	el := s.disp.HitTest(vector.Pt{X: x, Y: y})
	s.mu.Unlock()
	if el == nil {
		writeError(w, http.StatusNotFound, "nothing at point")
		return
	}
	writeJSON(w, http.StatusOK, HitResult{ID: el.ID, Type: el.Type})
}

func (s *Server) getBounds(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	b := s.disp.ContentBounds()
	s.mu.Unlock()
	if b == nil {
		writeError(w, http.StatusNotFound, "document has no bounds")
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"l": b.L, "t": b.T, "r": b.R, "b": b.B})
}

func (s *Server) getElement(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	el := s.disp.Document().Find(id)
	if el == nil {
		writeError(w, http.StatusNotFound, "element not found")
		return
	}
	writeJSON(w, http.StatusOK, el)
}

var contentTypes = map[export.Format]string{
	export.FormatPNG: "image/png",
	export.FormatPDF: "application/pdf",
	export.FormatSVG: "image/svg+xml",
}

func (s *Server) getRender(w http.ResponseWriter, r *http.Request) {
	f := export.Format(mux.Vars(r)["format"])
	ct, ok := contentTypes[f]
	if !ok {
		writeError(w, http.StatusNotFound, "unsupported format")
		return
	}
	w.Header().Set("Content-Type", ct)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := export.Render(w, f, s.disp, export.Options{Title: s.opts.Title}); err != nil {
		s.log.ErrorContext(r.Context(), "render failed", slog.String("format", string(f)), slog.Any("err", err))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.opts.AllowedOrigins,
	})
	if err != nil {
		s.log.ErrorContext(r.Context(), "websocket accept", slog.Any("err", err))
		return
	}

	id := uuid.New().String()
	c := &client{
		id:   id,
		conn: conn,
		send: make(chan []byte, 256),
		log:  s.log.With(slog.String("client", id)),
	}
	c.handle = func(msg *Message) { s.handleClientMessage(c, msg) }
	s.hub.add(c)

	// greet with the current state
	s.mu.Lock()
	st := s.viewState()
	s.mu.Unlock()
	if data, err := json.Marshal(&Message{Type: events.ViewChanged, Pos: st.Pos, Width: st.Width, Height: st.Height}); err == nil {
		c.send <- data
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go c.writePump(ctx)
	c.readPump(ctx)
	s.hub.remove(c)
}

func (s *Server) handleClientMessage(c *client, msg *Message) {
	switch msg.Type {
	case TypeTouch:
		if msg.Touch == nil {
			return
		}
		if _, err := s.applyTouch(*msg.Touch); err != nil {
			c.log.Debug("touch rejected", slog.Any("err", err))
		}
	case TypeWheel:
		if msg.Wheel != nil {
			s.applyWheel(*msg.Wheel)
		}
	default:
		c.log.Warn("unknown message type", slog.String("type", msg.Type))
	}
}
