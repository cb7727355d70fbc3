// Package local is a self-contained native client. It serves a friend list
// from a YAML fixture and keeps an in-memory screenshot library, so the
// binding can run without the platform SDK.
package local

import (
	"log/slog"
	"sync"

	"github.com/Norgate-AV/swbridge/internal/interfaces"
	"github.com/Norgate-AV/swbridge/internal/logger"
)

// Client implements interfaces.NativeClient
type Client struct {
	log         logger.LoggerInterface
	friends     *friendList
	screenshots *library
	queue       *callbackQueue
}

// New creates a client serving fx
func New(fx *Fixture, log logger.LoggerInterface) *Client {
	if fx == nil {
		fx = &Fixture{}
	}

	queue := newCallbackQueue()
	c := &Client{
		log:         log,
		friends:     newFriendList(fx),
		screenshots: newLibrary(queue, log),
		queue:       queue,
	}

	log.Debug("Local native client ready", slog.Int("friends", len(fx.Friends)))
	return c
}

// Open loads the fixture at path and creates a client
func Open(path string, log logger.LoggerInterface) (*Client, error) {
	if err := ValidateFixture(path); err != nil {
		return nil, err
	}

	fx, err := LoadFixture(path)
	if err != nil {
		return nil, err
	}

	log.Debug("Loaded fixture", slog.String("path", path))
	return New(fx, log), nil
}

func (c *Client) Friends() interfaces.NativeFriends         { return c.friends }
func (c *Client) Screenshots() interfaces.NativeScreenshots { return c.screenshots }

// RunCallbacks delivers every queued notification on the calling goroutine.
func (c *Client) RunCallbacks() {
	c.queue.run()
}

// Pending reports how many notifications are waiting for RunCallbacks.
func (c *Client) Pending() int {
	return c.queue.len()
}

// callbackQueue holds notifications until RunCallbacks, mirroring how the
// platform SDK only dispatches callbacks when pumped.
type callbackQueue struct {
	mu        sync.Mutex
	events    []func(*callbackQueue)
	requested map[int]func()
	ready     map[int]func(uint32, error)
	nextID    int
}

func newCallbackQueue() *callbackQueue {
	return &callbackQueue{
		requested: make(map[int]func()),
		ready:     make(map[int]func(uint32, error)),
	}
}

func (q *callbackQueue) pushRequested() {
	q.push(func(q *callbackQueue) {
		for _, fn := range q.snapshotRequested() {
			fn()
		}
	})
}

func (q *callbackQueue) pushReady(handle uint32, err error) {
	q.push(func(q *callbackQueue) {
		for _, fn := range q.snapshotReady() {
			fn(handle, err)
		}
	})
}

func (q *callbackQueue) push(ev func(*callbackQueue)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, ev)
}

func (q *callbackQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// run drains the queue; handlers run without the lock held so they may call
// back into the client.
func (q *callbackQueue) run() {
	q.mu.Lock()
	events := q.events
	q.events = nil
	q.mu.Unlock()

	for _, ev := range events {
		ev(q)
	}
}

func (q *callbackQueue) onRequested(fn func()) func() {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := q.nextID
	q.nextID++
	q.requested[id] = fn

	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		delete(q.requested, id)
	}
}

func (q *callbackQueue) onReady(fn func(uint32, error)) func() {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := q.nextID
	q.nextID++
	q.ready[id] = fn

	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		delete(q.ready, id)
	}
}

func (q *callbackQueue) snapshotRequested() []func() {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]func(), 0, len(q.requested))
	for _, fn := range q.requested {
		out = append(out, fn)
	}
	return out
}

func (q *callbackQueue) snapshotReady() []func(uint32, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]func(uint32, error), 0, len(q.ready))
	for _, fn := range q.ready {
		out = append(out, fn)
	}
	return out
}
