package process

import (
	"context"
	"time"
)

// ExitCtxArgs configures the ExitCtx function.
type ExitCtxArgs struct {
	// Process is the process to monitor.
	Process *Process

	// PollInterval is how often the process' liveness is checked.
	// One second is used if it is zero.
	PollInterval time.Duration
}

// ExitCtx creates a context.Context that is marked as done when the
// monitored process exits. The returned function stops monitoring
// and cancels the context.
func ExitCtx(ctx context.Context, args ExitCtxArgs) (context.Context, func()) {
	interval := args.PollInterval
	if interval <= 0 {
		interval = time.Second
	}

	newCtx, cancelFn := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-newCtx.Done():
				return
			case <-ticker.C:
				if args.Process.HasExited() {
					if args.Process.logger != nil {
						args.Process.logger.Printf("pid %d has exited", args.Process.pid)
					}
					cancelFn()
					return
				}
			}
		}
	}()

	return newCtx, cancelFn
}
