// Package interfaces defines the native client surface the binding core
// drives. Types here stay primitive (raw ids, raw bitmasks, raw handles) so
// that every translation into host-safe types happens in the core.
package interfaces

// NativeClient is an initialized platform client session
type NativeClient interface {
	Friends() NativeFriends
	Screenshots() NativeScreenshots

	// RunCallbacks dispatches queued native notifications on the caller's goroutine.
	RunCallbacks()
}

// NativeFriends queries the friend list
type NativeFriends interface {
	// GetFriends returns the friends whose relationship matches any bit in flags.
	GetFriends(flags uint16) []NativeFriend

	// GetFriend resolves any account by id. It may return an entity with an
	// empty name, or nil, for an id the client knows nothing about.
	GetFriend(id uint64) NativeFriend
}

// NativeFriend is an account as seen by the native client
type NativeFriend interface {
	ID() uint64
	Name() string
}

// NativeScreenshots controls screenshot capture and the screenshot library
type NativeScreenshots interface {
	HookScreenshots(hook bool)
	IsScreenshotsHooked() bool
	TriggerScreenshot()

	// AddScreenshotToLibrary registers an image already on disk. A nil
	// thumbnail lets the client derive or omit one. It performs file I/O.
	AddScreenshotToLibrary(filename string, thumbnail *string, width, height int32) (uint32, error)

	// OnScreenshotRequested registers fn for requests made while hooked.
	// The returned func unregisters it.
	OnScreenshotRequested(fn func()) func()

	// OnScreenshotReady registers fn for completed captures and registrations.
	OnScreenshotReady(fn func(handle uint32, err error)) func()
}
