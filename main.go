// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"beewatch/cmd"
	applog "beewatch/internal/log"
	"beewatch/pkg/build"
)

// main is the entry point of the hive node.
//
// 1. Startup: build information, runtime settings, command line.
// 2. Run: the selected command; the default runs the node control loop.
// 3. Shutdown: SIGINT/SIGTERM cancel the context and every command returns.
func main() {
	// Development builds run without ldflags and keep the default build info.
	if err := build.Initialize(); err != nil {
		applog.Debugf("[BUILD] %v, using development build info", err)
	}

	// One thread for the control loop, one for the monitor servers and I/O.
	runtime.GOMAXPROCS(2)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		applog.Errorf("%v", err)
		_ = applog.Sync()
		stop()
		os.Exit(1)
	}
	_ = applog.Sync()
}
