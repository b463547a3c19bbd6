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
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"giclee/internal/config"
	"giclee/internal/crash"
	"giclee/internal/imagecache"
	applog "giclee/internal/log"
	"giclee/internal/telemetry"
	"giclee/internal/version"
)

func usage() {
	fmt.Println("giclee - 2D scene viewer")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  giclee version|-v|--version                       Show version")
	fmt.Println("  giclee render <doc|-> <out.png|.pdf|.svg> [flags]  Render a document (--width --height --pos x,y,o,s --debug)")
	fmt.Println("  giclee hit <doc|-> <x> <y> [--pos x,y,o,s]         Print the element under a view point")
	fmt.Println("  giclee bounds <doc|->                              Print the document's world bounds")
	fmt.Println("  giclee serve [doc] [--addr :8080]                  Serve the view over HTTP and websocket")
	fmt.Println("  giclee view [doc]                                  Launch desktop viewer (build with -tags fyne)")
	fmt.Println("  giclee touch [doc]                                 Launch touch viewer (build with -tags ebiten)")
	fmt.Println()
	fmt.Println("A missing document or '-' opens the built-in sample.")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	defer crash.Recover(crash.Options{})

	cfg, err := config.Load()
	if err != nil {
		applog.WithComponent("cli").Warn("config load failed, using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	}
	if err := cfg.Validate(); err != nil {
		fmt.Println("Invalid configuration:", err)
		os.Exit(2)
	}
	applog.Init(cfg.Logging.Options())
	defer func() { _ = applog.Close() }()
	l := applog.WithComponent("cli")

	tc := telemetry.New(cfg.Telemetry.Options())
	telemetry.SetDefault(tc)
	// os.Exit skips deferred calls, so every exit path goes through finish
	finish := func() {
		fctx, cancel := context.WithTimeout(context.Background(), time.Second)
		tc.Flush(fctx)
		cancel()
		tc.Close()
	}
	defer finish()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cache := imagecache.New(cfg.Images.Options())
	telemetry.Event("command", map[string]any{"name": args[1]})

	var cmdErr error
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("giclee - 2D scene viewer")
		fmt.Println(version.String())
		return
	case "render":
		cmdErr = cmdRender(ctx, cfg, cache, args[2:], os.Stdout)
	case "hit":
		cmdErr = cmdHit(cfg, args[2:], os.Stdout)
	case "bounds":
		cmdErr = cmdBounds(cfg, args[2:], os.Stdout)
	case "serve":
		cmdErr = cmdServe(ctx, cfg, cache, args[2:])
	case "view":
		cmdErr = cmdView(cfg, cache, args[2:])
	case "touch":
		cmdErr = cmdTouch(cfg, cache, args[2:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Printf("unknown command %q\n\n", args[1])
		usage()
		stop()
		finish()
		os.Exit(2)
	}
	if cmdErr != nil {
		l.Error(args[1]+" failed", slog.Any("err", cmdErr))
		fmt.Println("Error:", cmdErr)
		stop()
		finish()
		if _, ok := cmdErr.(usageError); ok {
			fmt.Println()
			usage()
			os.Exit(2)
		}
		os.Exit(1)
	}
}
