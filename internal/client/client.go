// Package client owns the process-wide handle to the native client session.
//
// The surrounding application initializes the native session once at startup
// and registers it with Init. Every other component resolves that same
// handle with Resolve. Resolving before Init is a lifecycle bug upstream and
// panics rather than handing back a handle that every caller would have to
// nil-check.
package client

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Norgate-AV/swbridge/internal/interfaces"
	"github.com/Norgate-AV/swbridge/internal/logger"
	"github.com/Norgate-AV/swbridge/internal/timeouts"
)

var (
	// ErrNotInitialized is the panic value of Resolve when no session exists.
	ErrNotInitialized = errors.New("native client is not initialized; call client.Init at startup")

	// ErrAlreadyInitialized is returned by Init when a session is already registered.
	ErrAlreadyInitialized = errors.New("native client is already initialized")
)

var current atomic.Pointer[Handle]

// Handle is the shared reference to the native client session
type Handle struct {
	native interfaces.NativeClient
	log    logger.LoggerInterface
}

// Init registers native as the process-wide session.
func Init(native interfaces.NativeClient, log logger.LoggerInterface) (*Handle, error) {
	if native == nil {
		return nil, errors.New("native client is nil")
	}

	if log == nil {
		log = logger.NewNoOpLogger()
	}

	h := &Handle{native: native, log: log}
	if !current.CompareAndSwap(nil, h) {
		return nil, ErrAlreadyInitialized
	}

	log.Debug("Native client registered")
	return h, nil
}

// Resolve returns the registered handle. It panics with ErrNotInitialized if
// Init has not been called.
func Resolve() *Handle {
	h := current.Load()
	if h == nil {
		panic(ErrNotInitialized)
	}

	return h
}

// Lookup returns the registered handle without panicking.
func Lookup() (*Handle, bool) {
	h := current.Load()
	return h, h != nil
}

// Shutdown forgets the registered handle. The native session itself belongs
// to whoever created it.
func Shutdown() {
	if h := current.Swap(nil); h != nil {
		h.log.Debug("Native client unregistered")
	}
}

// Native returns the underlying native client.
func (h *Handle) Native() interfaces.NativeClient {
	return h.native
}

// Friends returns the native friends interface.
func (h *Handle) Friends() interfaces.NativeFriends {
	return h.native.Friends()
}

// Screenshots returns the native screenshots interface.
func (h *Handle) Screenshots() interfaces.NativeScreenshots {
	return h.native.Screenshots()
}

// RunCallbacks dispatches queued native notifications on the calling goroutine.
func (h *Handle) RunCallbacks() {
	h.native.RunCallbacks()
}

// StartCallbackPump runs RunCallbacks every interval on a background
// goroutine. A zero interval uses timeouts.CallbackPumpInterval.
// The returned function stops the pump and waits for it to exit.
func (h *Handle) StartCallbackPump(interval time.Duration) func() {
	if interval <= 0 {
		interval = timeouts.CallbackPumpInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	h.log.Debug("Starting callback pump", slog.String("interval", interval.String()))

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.native.RunCallbacks()
			}
		}
	}()

	return func() {
		cancel()
		<-done
		h.log.Debug("Callback pump stopped")
	}
}
