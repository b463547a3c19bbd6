/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"giclee/internal/display"
	applog "giclee/internal/log"
)

// ErrUnsupportedFormat is returned for output names with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format names an output kind.
type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
	FormatSVG Format = "svg"
)

// FormatFor picks the format from a file name's extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".pdf":
		return FormatPDF, nil
	case ".svg":
		return FormatSVG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Options controls exports.
type Options struct {
	// Title is stored in the PDF metadata.
	Title string
}

func pixelSize(v display.Viewer) (int, int) {
	w, h := v.Size()
	return int(math.Ceil(w)), int(math.Ceil(h))
}

// RenderPNG draws v onto a raster surface of its size and writes a PNG.
func RenderPNG(w io.Writer, v display.Viewer) error {
	pw, ph := pixelSize(v)
	s := NewRasterSurface(pw, ph)
	defer s.Close()
	v.Draw(s)
	if err := s.EncodePNG(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// RenderPDF draws v onto a single page of its size, one point per pixel.
func RenderPDF(w io.Writer, v display.Viewer, opts Options) error {
	width, height := v.Size()
	s := NewPDFSurface(width, height, opts.Title)
	v.Draw(s)
	return s.Output(w)
}

func RenderSVG(w io.Writer, v display.Viewer) error {
	width, height := v.Size()
	s := NewSVGSurface(w, width, height)
	v.Draw(s)
	if err := s.Close(); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

// Render writes v in format f.
func Render(w io.Writer, f Format, v display.Viewer, opts Options) error {
	switch f {
	case FormatPNG:
		return RenderPNG(w, v)
	case FormatPDF:
		return RenderPDF(w, v, opts)
	case FormatSVG:
		return RenderSVG(w, v)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// ExportFile renders v to path, choosing the format from the extension and
// creating parent directories as needed.
func ExportFile(path string, v display.Viewer, opts Options) error {
	f, err := FormatFor(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", f, err)
	}
	bw := bufio.NewWriter(out)
	if err := Render(bw, f, v, opts); err != nil {
		_ = out.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", f, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", f, err)
	}
	applog.WithComponent("export").Info("exported", slog.String("path", path), slog.String("format", string(f)))
	return nil
}
