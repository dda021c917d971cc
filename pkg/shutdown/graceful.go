// Package shutdown runs cleanup hooks once the process is asked to stop.
package shutdown

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"cleannote/pkg/logger"
)

const (
	LogSignalReceived = "shutdown requested, running hooks"
	LogHookFailed     = "shutdown hook failed"
	LogHooksTimedOut  = "shutdown hooks did not finish in time"
)

// Hook releases one resource. It must honour ctx cancellation.
type Hook func(context.Context) error

// Wait blocks until SIGINT, SIGTERM or cancellation of ctx, then runs all hooks
// concurrently, giving them at most timeout to finish.
func Wait(ctx context.Context, timeout time.Duration, hooks ...Hook) {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	log := logger.Log(ctx)
	log.Info(ctx, LogSignalReceived, zap.Int("hooks", len(hooks)), zap.Duration("timeout", timeout))

	hookCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, hook := range hooks {
		wg.Add(1)
		go func(fn Hook) {
			defer wg.Done()
			if err := fn(hookCtx); err != nil {
				log.Warn(hookCtx, LogHookFailed, zap.Error(err))
			}
		}(hook)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-hookCtx.Done():
		log.Warn(ctx, LogHooksTimedOut)
	}
}
