package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a context cancelled on the first delivery
// of any of the given signals, or of SIGINT/SIGTERM when none are
// named. After the first delivery the handler deregisters itself, so a
// second signal gets the default disposition: one Ctrl-C interrupts the
// work gracefully, two kill the process.
func SetupSignalHandler(signals ...os.Signal) context.Context {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, signals...)

	go func() {
		<-sigChan
		signal.Stop(sigChan)
		cancel()
	}()

	return ctx
}

// WaitForShutdown returns a channel that delivers SIGINT and SIGTERM.
// The channel stays registered for the life of the process; callers
// that want to log which signal arrived select on it directly.
func WaitForShutdown() <-chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	return sigChan
}
