// Package weave is the module root: a couple of process-lifetime helpers
// shared by every cmd/ binary.
package weave

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// InterruptibleContext returns a context canceled on SIGINT or SIGTERM.
func InterruptibleContext() (context.Context, context.CancelFunc) {
	ctx, canc := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		// A second signal results in immediate termination, useful if
		// shutdown hangs.
		signal.Stop(sig)
		canc()
	}()
	return ctx, canc
}
