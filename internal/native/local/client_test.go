package local_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/swbridge/internal/friends"
	"github.com/Norgate-AV/swbridge/internal/logger"
	"github.com/Norgate-AV/swbridge/internal/native/local"
	"github.com/Norgate-AV/swbridge/internal/testutil"
)

const fixtureYAML = `
friends:
  - steamId: 76561197985341433
    name: XXX
    relationship: [immediate]
  - steamId: 76561198034399293
    name: YYY
    relationship: [Immediate, ClanMember]
  - steamId: 76561198000000001
    name: Pest
    flags: 0x01
`

func newClient(t *testing.T) *local.Client {
	t.Helper()

	fx, err := local.ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)

	return local.New(fx, logger.NewNoOpLogger())
}

func TestParseFixture_Errors(t *testing.T) {
	t.Parallel()

	_, err := local.ParseFixture([]byte("friends: [oops"))
	assert.ErrorContains(t, err, "failed to parse fixture")

	_, err = local.ParseFixture([]byte("friends:\n  - steamId: 1\n    relationship: [bestie]\n"))
	assert.ErrorContains(t, err, "unknown friend flag")

	_, err = local.ParseFixture([]byte("friends:\n  - steamId: 1\n  - steamId: 1\n"))
	assert.ErrorContains(t, err, "duplicate steamId")
}

func TestOpen_MissingFixture(t *testing.T) {
	t.Setenv(local.FixtureEnv, "")

	_, err := local.Open(filepath.Join(t.TempDir(), "missing.yaml"), logger.NewNoOpLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixture not found")
	assert.Contains(t, err.Error(), "--fixture")
}

func TestValidateFixture_CustomPathGuidance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv(local.FixtureEnv, path)

	assert.Equal(t, path, local.GetFixturePath())

	err := local.ValidateFixture(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixture not found at custom path")
	assert.Contains(t, err.Error(), local.FixtureEnv)
}

func TestGetFixturePath_Default(t *testing.T) {
	t.Setenv(local.FixtureEnv, "")
	assert.Equal(t, local.DefaultFixturePath, local.GetFixturePath())
}

func TestOpen_LoadsFixture(t *testing.T) {
	path := testutil.CreateTestFile(t, t.TempDir(), "fixture.yaml", fixtureYAML)

	c, err := local.Open(path, logger.NewNoOpLogger())
	require.NoError(t, err)
	assert.Len(t, c.Friends().GetFriends(uint16(friends.FlagAll)), 3)
}

func TestFriends_FilterAndOrder(t *testing.T) {
	t.Parallel()

	c := newClient(t)

	immediate := c.Friends().GetFriends(uint16(friends.FlagImmediate))
	require.Len(t, immediate, 2)
	assert.Equal(t, uint64(76561197985341433), immediate[0].ID())
	assert.Equal(t, "YYY", immediate[1].Name())

	clan := c.Friends().GetFriends(uint16(friends.FlagClanMember))
	require.Len(t, clan, 1)
	assert.Equal(t, "YYY", clan[0].Name())

	assert.Empty(t, c.Friends().GetFriends(uint16(friends.FlagNone)))
	assert.Len(t, c.Friends().GetFriends(uint16(friends.FlagBlocked)), 1)
}

func TestFriends_UnknownAccountHasEmptyName(t *testing.T) {
	t.Parallel()

	c := newClient(t)

	known := c.Friends().GetFriend(76561198034399293)
	assert.Equal(t, "YYY", known.Name())

	unknown := c.Friends().GetFriend(42)
	require.NotNil(t, unknown)
	assert.Equal(t, uint64(42), unknown.ID())
	assert.Equal(t, "", unknown.Name())
}

func TestScreenshots_AddToLibrary(t *testing.T) {
	t.Parallel()

	c := newClient(t)
	dir := t.TempDir()
	img := testutil.CreateTestPNG(t, dir, "shot.png", 16, 9)
	thumb := testutil.CreateTestPNG(t, dir, "thumb.png", 4, 2)

	h1, err := c.Screenshots().AddScreenshotToLibrary(img, nil, 1920, 1080)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), h1)

	h2, err := c.Screenshots().AddScreenshotToLibrary(img, &thumb, 16, 9)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), h2)

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "png", entries[0].Format)
	assert.Nil(t, entries[0].Thumbnail)
	assert.Equal(t, int32(1920), entries[0].Width, "Declared dimensions are stored as given")
	require.NotNil(t, entries[1].Thumbnail)
	assert.Equal(t, thumb, *entries[1].Thumbnail)
}

func TestScreenshots_AddToLibraryFailures(t *testing.T) {
	t.Parallel()

	c := newClient(t)
	dir := t.TempDir()

	_, err := c.Screenshots().AddScreenshotToLibrary(filepath.Join(dir, "missing.png"), nil, 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid path")

	notImage := testutil.CreateTestFile(t, dir, "notes.txt", "hello")
	_, err = c.Screenshots().AddScreenshotToLibrary(notImage, nil, 1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported image format")

	img := testutil.CreateTestPNG(t, dir, "ok.png", 2, 2)
	badThumb := filepath.Join(dir, "missing-thumb.png")
	_, err = c.Screenshots().AddScreenshotToLibrary(img, &badThumb, 2, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thumbnail")

	_, err = c.Screenshots().AddScreenshotToLibrary("", nil, 0, 0)
	assert.ErrorContains(t, err, "empty filename")

	assert.Empty(t, c.Entries())
}

func TestScreenshots_TriggerUnhookedCapturesViaOverlay(t *testing.T) {
	t.Parallel()

	c := newClient(t)

	requested := 0
	c.Screenshots().OnScreenshotRequested(func() { requested++ })

	var ready []uint32
	c.Screenshots().OnScreenshotReady(func(h uint32, err error) {
		assert.NoError(t, err)
		ready = append(ready, h)
	})

	c.Screenshots().TriggerScreenshot()
	assert.Empty(t, ready, "Notifications wait for RunCallbacks")
	assert.Equal(t, 1, c.Pending())

	c.RunCallbacks()
	assert.Equal(t, []uint32{1}, ready)
	assert.Equal(t, 0, requested)
	assert.Equal(t, 0, c.Pending())

	entries := c.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "overlay", entries[0].Format)
}

func TestScreenshots_TwoPhaseWorkflowWhileHooked(t *testing.T) {
	t.Parallel()

	c := newClient(t)
	img := testutil.CreateTestPNG(t, t.TempDir(), "frame.png", 8, 8)

	c.Screenshots().HookScreenshots(true)
	assert.True(t, c.Screenshots().IsScreenshotsHooked())

	var handles []uint32
	c.Screenshots().OnScreenshotReady(func(h uint32, err error) {
		require.NoError(t, err)
		handles = append(handles, h)
	})

	c.Screenshots().OnScreenshotRequested(func() {
		_, err := c.Screenshots().AddScreenshotToLibrary(img, nil, 8, 8)
		assert.NoError(t, err)
	})

	c.Screenshots().TriggerScreenshot()
	assert.Empty(t, c.Entries(), "Hooked trigger must not capture on its own")

	c.RunCallbacks()
	require.Len(t, c.Entries(), 1)
	assert.Empty(t, handles, "Ready from the handler is queued for the next pump")

	c.RunCallbacks()
	assert.Equal(t, []uint32{1}, handles)

	c.Screenshots().HookScreenshots(false)
	assert.False(t, c.Screenshots().IsScreenshotsHooked())
}

func TestScreenshots_CancelHandler(t *testing.T) {
	t.Parallel()

	c := newClient(t)
	c.Screenshots().HookScreenshots(true)

	calls := 0
	cancel := c.Screenshots().OnScreenshotRequested(func() { calls++ })

	c.Screenshots().TriggerScreenshot()
	c.RunCallbacks()
	cancel()
	c.Screenshots().TriggerScreenshot()
	c.RunCallbacks()

	assert.Equal(t, 1, calls)
}
