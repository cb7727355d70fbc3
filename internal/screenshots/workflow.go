// Package screenshots drives the native screenshot workflow.
//
// Capture ownership is a two-state machine. Unhooked (the default) lets the
// native overlay capture, store and announce screenshots on its own. Hooked
// hands capture to the host: a hotkey press or Trigger raises a
// ScreenshotRequested notification and the host is expected to answer with
// AddToLibrary. Only SetHook changes the state; nothing here infers it from
// call patterns or reverts it.
package screenshots

import (
	"errors"
	"log/slog"

	"github.com/Norgate-AV/swbridge/internal/client"
	"github.com/Norgate-AV/swbridge/internal/interfaces"
	"github.com/Norgate-AV/swbridge/internal/logger"
)

// Handle identifies a screenshot stored by the native client. Its value is
// never interpreted here.
type Handle uint32

// State is the capture ownership mode
type State int

const (
	StateUnhooked State = iota
	StateHooked
)

func (s State) String() string {
	if s == StateHooked {
		return "hooked"
	}

	return "unhooked"
}

// Request describes an image already rendered to disk.
// A nil Thumbnail lets the native client derive or omit one; it is distinct
// from a pointer to an empty path.
type Request struct {
	Filename  string
	Thumbnail *string
	Width     int32
	Height    int32
}

// Workflow issues screenshot commands against the native client
type Workflow struct {
	log    logger.LoggerInterface
	native func() interfaces.NativeScreenshots
}

// NewWorkflow creates a Workflow that resolves the process-wide client on every call
func NewWorkflow(log logger.LoggerInterface) *Workflow {
	return &Workflow{
		log: log,
		native: func() interfaces.NativeScreenshots {
			return client.Resolve().Screenshots()
		},
	}
}

// NewWorkflowWithDeps creates a Workflow bound to a specific native interface
func NewWorkflowWithDeps(log logger.LoggerInterface, native interfaces.NativeScreenshots) *Workflow {
	return &Workflow{
		log:    log,
		native: func() interfaces.NativeScreenshots { return native },
	}
}

// SetHook sets the capture mode for the whole process. It is idempotent.
func (w *Workflow) SetHook(enabled bool) {
	w.native().HookScreenshots(enabled)
	w.log.Debug("Screenshot hook set", slog.Bool("hooked", enabled))
}

// IsHooked reports whether the host owns capture.
func (w *Workflow) IsHooked() bool {
	return w.native().IsScreenshotsHooked()
}

// State returns the current capture mode.
func (w *Workflow) State() State {
	if w.IsHooked() {
		return StateHooked
	}

	return StateUnhooked
}

// Trigger asks for a screenshot now. It returns nothing: completion, if any,
// arrives later as a native notification. It never submits to the library.
func (w *Workflow) Trigger() {
	native := w.native()
	w.log.Debug("Triggering screenshot", slog.Bool("hooked", native.IsScreenshotsHooked()))
	native.TriggerScreenshot()
}

// AddToLibrary registers req with the native screenshot library. It blocks on
// file I/O inside the native client; use a Dispatcher from a goroutine that
// must stay responsive. Dimensions are passed through unchecked.
func (w *Workflow) AddToLibrary(req Request) (Handle, error) {
	attrs := []any{
		slog.String("filename", req.Filename),
		slog.Bool("thumbnail", req.Thumbnail != nil),
		slog.Int("width", int(req.Width)),
		slog.Int("height", int(req.Height)),
	}
	w.log.Debug("Adding screenshot to library", attrs...)

	h, err := w.native().AddScreenshotToLibrary(req.Filename, req.Thumbnail, req.Width, req.Height)
	if err != nil {
		nerr := newNativeError("AddScreenshotToLibrary", err)
		w.log.Error("Screenshot library rejected image", append(attrs, slog.String("error", nerr.Message))...)
		return 0, nerr
	}

	w.log.Debug("Screenshot added", slog.Uint64("handle", uint64(h)))
	return Handle(h), nil
}

// OnRequested registers fn for ScreenshotRequested notifications, raised while
// hooked. Delivery happens when the client's callbacks are run.
func (w *Workflow) OnRequested(fn func()) func() {
	return w.native().OnScreenshotRequested(fn)
}

// OnReady registers fn for ScreenshotReady notifications.
func (w *Workflow) OnReady(fn func(Handle, error)) func() {
	return w.native().OnScreenshotReady(func(h uint32, err error) {
		if err != nil {
			fn(Handle(h), newNativeError("ScreenshotReady", err))
			return
		}
		fn(Handle(h), nil)
	})
}

// NativeError is a failure reported by the native client. Message is the
// native description verbatim.
type NativeError struct {
	Op      string
	Message string
	Err     error
}

func (e *NativeError) Error() string {
	return e.Message
}

func (e *NativeError) Unwrap() error {
	return e.Err
}

func newNativeError(op string, err error) *NativeError {
	var existing *NativeError
	if errors.As(err, &existing) {
		return existing
	}

	msg := err.Error()
	if msg == "" {
		msg = op + " failed"
	}

	return &NativeError{Op: op, Message: msg, Err: err}
}
