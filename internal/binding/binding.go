// Package binding is the host-facing surface of swbridge.
//
// Every value that crosses it is host-safe: account ids are *big.Int so no
// float64-backed host rounds them, the friend filter is a plain integer
// bitmask, and an absent thumbnail is a nil *string rather than "".
package binding

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"time"

	"github.com/Norgate-AV/swbridge/internal/client"
	"github.com/Norgate-AV/swbridge/internal/friends"
	"github.com/Norgate-AV/swbridge/internal/interfaces"
	"github.com/Norgate-AV/swbridge/internal/logger"
	"github.com/Norgate-AV/swbridge/internal/metrics"
	"github.com/Norgate-AV/swbridge/internal/screenshots"
	"github.com/Norgate-AV/swbridge/internal/steamid"
	"github.com/Norgate-AV/swbridge/internal/timeouts"
)

// Operation names, as exposed to hosts and used as metric labels.
const (
	OpGetFriends             = "getFriends"
	OpGetFriendName          = "getFriendName"
	OpHookScreenshots        = "hookScreenshots"
	OpIsScreenshotsHooked    = "isScreenshotsHooked"
	OpTriggerScreenshot      = "triggerScreenshot"
	OpAddScreenshotToLibrary = "addScreenshotToLibrary"
)

// Friend is the host representation of friends.Friend
type Friend struct {
	SteamID *big.Int `json:"steamId"`
	Name    string   `json:"name"`
}

// Options configures an API
type Options struct {
	Dispatch screenshots.DispatcherOptions
	Metrics  *metrics.Recorder // nil creates a private recorder
}

// Dependencies overrides the native interfaces, for tests
type Dependencies struct {
	Friends      interfaces.NativeFriends
	Screenshots  interfaces.NativeScreenshots
	RunCallbacks func() // nil makes RunCallbacks a no-op
}

// API exposes the boundary operations
type API struct {
	log        logger.LoggerInterface
	friends    *friends.Service
	shots      *screenshots.Workflow
	dispatcher *screenshots.Dispatcher
	metrics    *metrics.Recorder
	pump       func()
}

// New creates an API backed by the process-wide native client
func New(log logger.LoggerInterface, opts Options) *API {
	api := newAPI(log, friends.NewService(log), screenshots.NewWorkflow(log), opts)
	api.pump = func() { client.Resolve().RunCallbacks() }
	return api
}

// NewWithDeps creates an API backed by explicit native interfaces
func NewWithDeps(log logger.LoggerInterface, deps Dependencies, opts Options) *API {
	api := newAPI(log,
		friends.NewServiceWithDeps(log, deps.Friends),
		screenshots.NewWorkflowWithDeps(log, deps.Screenshots),
		opts,
	)
	if deps.RunCallbacks != nil {
		api.pump = deps.RunCallbacks
	}
	return api
}

func newAPI(log logger.LoggerInterface, fs *friends.Service, wf *screenshots.Workflow, opts Options) *API {
	rec := opts.Metrics
	if rec == nil {
		rec = metrics.NewRecorder()
	}

	dispatch := opts.Dispatch
	userComplete := dispatch.OnComplete
	dispatch.OnComplete = func(c screenshots.Completion) {
		rec.LibraryAdd(c.Elapsed)
		if isNative(c.Err) {
			rec.NativeFailure(OpAddScreenshotToLibrary)
		}
		if userComplete != nil {
			userComplete(c)
		}
	}

	return &API{
		log:        log,
		friends:    fs,
		shots:      wf,
		dispatcher: screenshots.NewDispatcher(wf, log, dispatch),
		metrics:    rec,
		pump:       func() {},
	}
}

// Metrics returns the recorder used by this API.
func (a *API) Metrics() *metrics.Recorder {
	return a.metrics
}

// FriendFlags returns the flag table with wire values.
func (a *API) FriendFlags() map[string]int32 {
	table := friends.FlagTable()
	out := make(map[string]int32, len(table))
	for name, flag := range table {
		out[name] = int32(flag)
	}

	return out
}

// GetFriends returns the friends matching flags. Bits outside the native
// flag width are ignored.
func (a *API) GetFriends(flags int32) []Friend {
	a.metrics.Call(OpGetFriends)

	list := a.friends.GetFriends(friends.FlagsFromInt(flags))
	out := make([]Friend, 0, len(list))
	for _, f := range list {
		out = append(out, Friend{SteamID: f.ID.BigInt(), Name: f.Name})
	}

	return out
}

// GetFriendName returns the persona name for steamID64, or "" when the
// account cannot be resolved.
func (a *API) GetFriendName(steamID64 *big.Int) string {
	a.metrics.Call(OpGetFriendName)

	id, lossless := steamid.FromBigInt(steamID64)
	if !lossless {
		a.log.Warn("Steam id does not fit in 64 bits, using low bits",
			slog.String("given", steamID64.String()),
			slog.String("used", id.String()),
		)
	}

	return a.friends.GetFriendName(id)
}

// HookScreenshots hands screenshot capture to the host (true) or back to the
// overlay (false).
func (a *API) HookScreenshots(hook bool) {
	a.metrics.Call(OpHookScreenshots)
	a.shots.SetHook(hook)
	a.metrics.Hooked(hook)
}

// IsScreenshotsHooked reports whether the host owns capture.
func (a *API) IsScreenshotsHooked() bool {
	a.metrics.Call(OpIsScreenshotsHooked)
	return a.shots.IsHooked()
}

// TriggerScreenshot requests a screenshot. Fire-and-forget.
func (a *API) TriggerScreenshot() {
	a.metrics.Call(OpTriggerScreenshot)
	a.shots.Trigger()
}

// AddScreenshotToLibrary registers an image on the calling goroutine and
// returns its handle. Failures are *screenshots.NativeError.
func (a *API) AddScreenshotToLibrary(filename string, thumbnailFilename *string, width, height int32) (uint32, error) {
	a.metrics.Call(OpAddScreenshotToLibrary)

	start := time.Now()
	h, err := a.shots.AddToLibrary(screenshots.Request{
		Filename:  filename,
		Thumbnail: thumbnailFilename,
		Width:     width,
		Height:    height,
	})
	a.metrics.LibraryAdd(time.Since(start))

	if err != nil {
		a.metrics.NativeFailure(OpAddScreenshotToLibrary)
		return 0, err
	}

	return uint32(h), nil
}

// AddScreenshotToLibraryAsync hands the registration to a worker and returns
// at once. The result is delivered through the returned Pending.
func (a *API) AddScreenshotToLibraryAsync(ctx context.Context, filename string, thumbnailFilename *string, width, height int32) *screenshots.Pending {
	a.metrics.Call(OpAddScreenshotToLibrary)

	return a.dispatcher.Submit(ctx, screenshots.Request{
		Filename:  filename,
		Thumbnail: thumbnailFilename,
		Width:     width,
		Height:    height,
	})
}

// OnScreenshotRequested registers fn for requests raised while hooked.
func (a *API) OnScreenshotRequested(fn func()) func() {
	return a.shots.OnRequested(fn)
}

// OnScreenshotReady registers fn for completed screenshots.
func (a *API) OnScreenshotReady(fn func(handle uint32, err error)) func() {
	return a.shots.OnReady(func(h screenshots.Handle, err error) {
		fn(uint32(h), err)
	})
}

// RunCallbacks delivers queued native notifications on the calling
// goroutine. Hosts with their own event loop call it once per tick.
func (a *API) RunCallbacks() {
	a.pump()
}

// Close waits for dispatched registrations to finish.
func (a *API) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.DispatchShutdownTimeout)
	defer cancel()

	return a.dispatcher.Close(ctx)
}

func isNative(err error) bool {
	var nerr *screenshots.NativeError
	return errors.As(err, &nerr)
}
