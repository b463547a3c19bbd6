/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic in the command's main goroutine into a crash
// report file and a non-zero exit.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"slices"
	"time"

	applog "giclee/internal/log"
	"giclee/internal/telemetry"
	"giclee/internal/version"
)

// exitFn is swapped out by tests.
var exitFn = os.Exit

// Options says where reports go and what extra state to record.
// Details is called only after a panic, so it may inspect live objects.
type Options struct {
	Dir     string
	Details func() map[string]string
}

// Recover captures a panic, logs it with its stack, writes a report and exits with status 2.
//
// Usage: defer crash.Recover(crash.Options{Dir: dir})
func Recover(opts Options) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	var details map[string]string
	if opts.Details != nil {
		func() {
			defer func() { _ = recover() }()
			details = opts.Details()
		}()
	}
	path, err := writeReport(opts.Dir, r, stack, details)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err), slog.String("path", path))
	} else if report, err := os.ReadFile(path); err == nil {
		if err := telemetry.UploadCrash(report); err != nil {
			l.Warn("crash upload failed", slog.Any("err", err))
		}
	}
	_, _ = fmt.Fprintf(os.Stderr, "giclee hit a fatal error. Crash report: %s\n", path)
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	_ = applog.Close()
	exitFn(2)
}

func writeReport(dir string, panicVal any, stack []byte, details map[string]string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return dir, err
	}
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.txt", time.Now().Format("20060102-150405")))

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "giclee Crash Report\n")
	fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&buf, "Version: %s\n", version.String())
	fmt.Fprintf(&buf, "Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	for _, k := range slices.Sorted(maps.Keys(details)) {
		fmt.Fprintf(&buf, "%s: %s\n", k, details[k])
	}
	fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	fmt.Fprintf(&buf, "Stack:\n%s\n", stack)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	return path, nil
}
