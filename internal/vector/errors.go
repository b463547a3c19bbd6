/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"errors"
	"fmt"
)

// ErrCoincidentPoints is reported when a two-point solve has a zero-length baseline.
var ErrCoincidentPoints = errors.New("coincident reference points")

// ErrZeroScale is reported when a solve would collapse everything onto one point.
var ErrZeroScale = errors.New("solved scale is zero")

// DomainError reports degenerate geometric input. No transform exists for it,
// so the failing call has no result; callers keep whatever state they had.
type DomainError struct {
	Op  string
	Err error
}

func (e *DomainError) Error() string { return fmt.Sprintf("vector: %s: %v", e.Op, e.Err) }
func (e *DomainError) Unwrap() error { return e.Err }
