/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package display

import (
	"context"
	"time"
)

// Resizer keeps something the same size as its host. The callback runs only
// when the size reported by source actually changed.
type Resizer struct {
	source   func() (w, h float64)
	callback func(w, h float64)
	w, h     float64
	checked  bool
}

func NewResizer(source func() (w, h float64), callback func(w, h float64)) *Resizer {
	return &Resizer{source: source, callback: callback}
}

// ResizerFor resizes d to follow source.
func ResizerFor(d *Display, source func() (w, h float64)) *Resizer {
	return NewResizer(source, d.Resize)
}

// Check compares the host size with the last one seen and reports whether
// it changed. The first check always counts as a change.
func (r *Resizer) Check() bool {
	w, h := r.source()
	if r.checked && w == r.w && h == r.h {
		return false
	}
	r.w, r.h, r.checked = w, h, true
	if r.callback != nil {
		r.callback(w, h)
	}
	return true
}

// Poll checks every interval until ctx is done, for hosts that have no resize
// notification of their own.
func (r *Resizer) Poll(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	r.Check()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Check()
		}
	}
}
