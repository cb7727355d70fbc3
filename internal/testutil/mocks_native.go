package testutil

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Norgate-AV/swbridge/internal/interfaces"
)

// MockFriend implements interfaces.NativeFriend
type MockFriend struct {
	SteamID      uint64
	PersonaName  string
	Relationship uint16
}

func (f MockFriend) ID() uint64   { return f.SteamID }
func (f MockFriend) Name() string { return f.PersonaName }

// MockNativeClient implements interfaces.NativeClient and records all calls
type MockNativeClient struct {
	FriendsMock      *MockFriends
	ScreenshotsMock  *MockScreenshots
	runCallbackCalls atomic.Int64
}

func NewMockNativeClient() *MockNativeClient {
	return &MockNativeClient{
		FriendsMock:     NewMockFriends(),
		ScreenshotsMock: NewMockScreenshots(),
	}
}

func (m *MockNativeClient) Friends() interfaces.NativeFriends         { return m.FriendsMock }
func (m *MockNativeClient) Screenshots() interfaces.NativeScreenshots { return m.ScreenshotsMock }

func (m *MockNativeClient) RunCallbacks() {
	m.runCallbackCalls.Add(1)
}

// RunCallbacksCalls returns how many times RunCallbacks was called
func (m *MockNativeClient) RunCallbacksCalls() int64 {
	return m.runCallbackCalls.Load()
}

// Helper methods for fluent configuration
func (m *MockNativeClient) WithFriend(id uint64, name string, relationship uint16) *MockNativeClient {
	m.FriendsMock.WithFriend(id, name, relationship)
	return m
}

// MockFriends filters its entries by relationship bits like the native client
type MockFriends struct {
	Entries         []MockFriend
	UnknownName     string
	NilForUnknown   bool
	GetFriendsCalls []uint16
	GetFriendCalls  []uint64
}

func NewMockFriends() *MockFriends {
	return &MockFriends{
		Entries:         []MockFriend{},
		GetFriendsCalls: []uint16{},
		GetFriendCalls:  []uint64{},
	}
}

func (m *MockFriends) GetFriends(flags uint16) []interfaces.NativeFriend {
	m.GetFriendsCalls = append(m.GetFriendsCalls, flags)

	out := []interfaces.NativeFriend{}
	for _, f := range m.Entries {
		if f.Relationship&flags != 0 {
			out = append(out, f)
		}
	}

	return out
}

func (m *MockFriends) GetFriend(id uint64) interfaces.NativeFriend {
	m.GetFriendCalls = append(m.GetFriendCalls, id)

	for _, f := range m.Entries {
		if f.SteamID == id {
			return f
		}
	}

	if m.NilForUnknown {
		return nil
	}

	return MockFriend{SteamID: id, PersonaName: m.UnknownName}
}

func (m *MockFriends) WithFriend(id uint64, name string, relationship uint16) *MockFriends {
	m.Entries = append(m.Entries, MockFriend{SteamID: id, PersonaName: name, Relationship: relationship})
	return m
}

// AddCall records one AddScreenshotToLibrary call
type AddCall struct {
	Filename  string
	Thumbnail *string
	Width     int32
	Height    int32
}

// MockScreenshots is safe for concurrent use since dispatch workers call it
type MockScreenshots struct {
	mu           sync.Mutex
	hooked       bool
	hookCalls    []bool
	triggerCalls int
	addCalls     []AddCall
	addResult    uint32
	addErr       error
	addDelay     time.Duration
	requested    map[int]func()
	ready        map[int]func(uint32, error)
	nextID       int
}

func NewMockScreenshots() *MockScreenshots {
	return &MockScreenshots{
		addResult: 1,
		requested: make(map[int]func()),
		ready:     make(map[int]func(uint32, error)),
	}
}

func (m *MockScreenshots) HookScreenshots(hook bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooked = hook
	m.hookCalls = append(m.hookCalls, hook)
}

func (m *MockScreenshots) IsScreenshotsHooked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.hooked
}

func (m *MockScreenshots) TriggerScreenshot() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.triggerCalls++
}

func (m *MockScreenshots) AddScreenshotToLibrary(filename string, thumbnail *string, width, height int32) (uint32, error) {
	m.mu.Lock()
	m.addCalls = append(m.addCalls, AddCall{filename, thumbnail, width, height})
	result, err, delay := m.addResult, m.addErr, m.addDelay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if err != nil {
		return 0, err
	}

	return result, nil
}

func (m *MockScreenshots) OnScreenshotRequested(fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.requested[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.requested, id)
	}
}

func (m *MockScreenshots) OnScreenshotReady(fn func(uint32, error)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.ready[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.ready, id)
	}
}

// FireRequested invokes every registered ScreenshotRequested handler
func (m *MockScreenshots) FireRequested() {
	m.mu.Lock()
	handlers := make([]func(), 0, len(m.requested))
	for _, fn := range m.requested {
		handlers = append(handlers, fn)
	}
	m.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// FireReady invokes every registered ScreenshotReady handler
func (m *MockScreenshots) FireReady(handle uint32, err error) {
	m.mu.Lock()
	handlers := make([]func(uint32, error), 0, len(m.ready))
	for _, fn := range m.ready {
		handlers = append(handlers, fn)
	}
	m.mu.Unlock()

	for _, fn := range handlers {
		fn(handle, err)
	}
}

func (m *MockScreenshots) HookCalls() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]bool(nil), m.hookCalls...)
}

func (m *MockScreenshots) TriggerCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.triggerCalls
}

func (m *MockScreenshots) AddCalls() []AddCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]AddCall(nil), m.addCalls...)
}

// Helper methods for fluent configuration
func (m *MockScreenshots) WithAddResult(handle uint32) *MockScreenshots {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addResult = handle
	m.addErr = nil
	return m
}

func (m *MockScreenshots) WithAddError(err error) *MockScreenshots {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addErr = err
	return m
}

func (m *MockScreenshots) WithAddDelay(d time.Duration) *MockScreenshots {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addDelay = d
	return m
}

func (m *MockScreenshots) WithHooked(hooked bool) *MockScreenshots {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooked = hooked
	return m
}
