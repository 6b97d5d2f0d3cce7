// Package signal provides centralized signal handling for graceful daemon shutdown.
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	// mu protects the blocked state
	mu sync.Mutex
	// blocked indicates if signals are currently blocked
	blocked bool
	// blockCount tracks nested blocking calls
	blockCount int
	// pendingCancel holds a cancel func to call when signals are unblocked
	pendingCancel context.CancelFunc
)

// WithSignalCancel returns a context that is cancelled when SIGINT or SIGTERM is received.
// The returned cancel function should be called to clean up resources when done.
func WithSignalCancel(parent context.Context) (context.Context, context.CancelFunc) {
	return WithSignalCancelFunc(parent, nil)
}

// WithSignalCancelFunc is WithSignalCancel with a hook that runs when the
// signal arrives, before the context is cancelled. The daemon uses it to
// flip its running flag so the current sleep slice ends promptly.
func WithSignalCancelFunc(parent context.Context, onSignal func(os.Signal)) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			if onSignal != nil {
				onSignal(sig)
			}
			mu.Lock()
			if blocked {
				// Cancel once the critical section ends.
				pendingCancel = cancel
				mu.Unlock()
				return
			}
			mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// BlockSignals prevents signal-based context cancellation during critical
// operations such as schema migrations or a durable record write.
// Calls can be nested; each must be paired with UnblockSignals.
func BlockSignals() {
	mu.Lock()
	defer mu.Unlock()
	blockCount++
	blocked = true
}

// UnblockSignals re-enables signal-based context cancellation.
// If a signal was received while blocked, the pending cancellation is executed.
func UnblockSignals() {
	mu.Lock()
	defer mu.Unlock()
	if blockCount > 0 {
		blockCount--
	}
	if blockCount == 0 {
		blocked = false
		if pendingCancel != nil {
			pendingCancel()
			pendingCancel = nil
		}
	}
}
