package swiftlog

import (
	"context"
	"time"

	"github.com/swiftlog/swiftlog/worker"
)

var crashHandlerStop func()

// Init installs the process-wide crash handler: a SIGTERM/SIGINT/SIGQUIT
// catch that force-flushes and closes every live log before the signal's
// default disposition (process exit) proceeds. Safe to call once at
// process startup; a second call replaces the first handler.
func Init() {
	if crashHandlerStop != nil {
		crashHandlerStop()
	}

	crashHandlerStop = worker.InstallCrashHandler(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		Shutdown(ctx)
	})
}
