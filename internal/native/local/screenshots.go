package local

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"sync"

	"github.com/Norgate-AV/swbridge/internal/logger"
)

// Entry is one screenshot held by the library
type Entry struct {
	Handle    uint32
	Filename  string // empty for overlay captures
	Thumbnail *string
	Format    string
	Width     int32
	Height    int32
}

// library is the in-memory screenshot store. Handles start at 1.
type library struct {
	mu      sync.Mutex
	hooked  bool
	entries []Entry
	next    uint32
	queue   *callbackQueue
	log     logger.LoggerInterface
}

func newLibrary(queue *callbackQueue, log logger.LoggerInterface) *library {
	return &library{next: 1, queue: queue, log: log}
}

func (l *library) HookScreenshots(hook bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooked = hook
}

func (l *library) IsScreenshotsHooked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hooked
}

// TriggerScreenshot asks the host for an image while hooked. Otherwise it
// plays the overlay: a capture is recorded and announced as ready.
func (l *library) TriggerScreenshot() {
	l.mu.Lock()
	hooked := l.hooked
	var handle uint32
	if !hooked {
		handle = l.store(Entry{Format: "overlay"})
	}
	l.mu.Unlock()

	if hooked {
		l.log.Debug("Screenshot requested from host")
		l.queue.pushRequested()
		return
	}

	l.log.Debug("Overlay captured screenshot", slog.Uint64("handle", uint64(handle)))
	l.queue.pushReady(handle, nil)
}

func (l *library) AddScreenshotToLibrary(filename string, thumbnail *string, width, height int32) (uint32, error) {
	format, err := probeImage(filename)
	if err != nil {
		l.queue.pushReady(0, err)
		return 0, err
	}

	if thumbnail != nil {
		if _, err := probeImage(*thumbnail); err != nil {
			err = fmt.Errorf("thumbnail: %w", err)
			l.queue.pushReady(0, err)
			return 0, err
		}
	}

	l.mu.Lock()
	handle := l.store(Entry{
		Filename:  filename,
		Thumbnail: thumbnail,
		Format:    format,
		Width:     width,
		Height:    height,
	})
	l.mu.Unlock()

	l.queue.pushReady(handle, nil)
	return handle, nil
}

func (l *library) OnScreenshotRequested(fn func()) func() {
	return l.queue.onRequested(fn)
}

func (l *library) OnScreenshotReady(fn func(uint32, error)) func() {
	return l.queue.onReady(fn)
}

// store must be called with l.mu held.
func (l *library) store(e Entry) uint32 {
	e.Handle = l.next
	l.next++
	l.entries = append(l.entries, e)
	return e.Handle
}

// Entries returns a copy of the library contents.
func (c *Client) Entries() []Entry {
	c.screenshots.mu.Lock()
	defer c.screenshots.mu.Unlock()
	return append([]Entry(nil), c.screenshots.entries...)
}

// probeImage opens path and detects its format without decoding pixels.
func probeImage(path string) (string, error) {
	if path == "" {
		return "", errors.New("invalid path: empty filename")
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	defer f.Close()

	_, format, err := image.DecodeConfig(f)
	if err != nil {
		return "", fmt.Errorf("unsupported image format: %s: %w", path, err)
	}

	return format, nil
}
