// Package timeouts defines interval and timeout constants for driving the native client.
package timeouts

import "time"

const (
	// Callback Pumping

	// CallbackPumpInterval is how often queued native notifications are
	// dispatched while a pump is running (30 times a second).
	CallbackPumpInterval = time.Second / 30

	// Screenshot Workflow

	// ScreenshotReadyTimeout is the longest the CLI waits for the native
	// client to confirm a triggered or submitted screenshot.
	ScreenshotReadyTimeout = 10 * time.Second

	// LibraryAddTimeout bounds how long a caller waits for a dispatched
	// library registration before giving up on the result. The native call
	// itself is never cancelled.
	LibraryAddTimeout = 30 * time.Second

	// DispatchShutdownTimeout is how long Close waits for in-flight
	// registrations to drain.
	DispatchShutdownTimeout = 5 * time.Second
)
