package screenshots_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/swbridge/internal/client"
	"github.com/Norgate-AV/swbridge/internal/logger"
	"github.com/Norgate-AV/swbridge/internal/screenshots"
	"github.com/Norgate-AV/swbridge/internal/testutil"
)

func newWorkflow() (*screenshots.Workflow, *testutil.MockScreenshots) {
	native := testutil.NewMockScreenshots()
	return screenshots.NewWorkflowWithDeps(logger.NewNoOpLogger(), native), native
}

func TestWorkflow_DefaultsToUnhooked(t *testing.T) {
	t.Parallel()

	wf, _ := newWorkflow()
	assert.False(t, wf.IsHooked())
	assert.Equal(t, screenshots.StateUnhooked, wf.State())
	assert.Equal(t, "unhooked", wf.State().String())
}

func TestWorkflow_SetHook_ReadAfterWrite(t *testing.T) {
	t.Parallel()

	wf, native := newWorkflow()

	wf.SetHook(true)
	assert.True(t, wf.IsHooked())
	assert.Equal(t, screenshots.StateHooked, wf.State())

	wf.SetHook(true)
	assert.True(t, wf.IsHooked(), "SetHook should be idempotent")

	wf.SetHook(false)
	assert.False(t, wf.IsHooked())

	assert.Equal(t, []bool{true, true, false}, native.HookCalls())
}

func TestWorkflow_TriggerWhileHooked_DoesNotSubmit(t *testing.T) {
	t.Parallel()

	wf, native := newWorkflow()
	wf.SetHook(true)

	assert.NotPanics(t, wf.Trigger)

	assert.Equal(t, 1, native.TriggerCalls())
	assert.Empty(t, native.AddCalls(), "Trigger must not register anything by itself")
	assert.True(t, wf.IsHooked(), "Trigger must not change the hook state")
}

func TestWorkflow_AddToLibrary_Success(t *testing.T) {
	t.Parallel()

	wf, native := newWorkflow()
	native.WithAddResult(42)

	h, err := wf.AddToLibrary(screenshots.Request{Filename: "/tmp/shot.png", Width: 1920, Height: 1080})
	require.NoError(t, err)
	assert.Equal(t, screenshots.Handle(42), h)

	calls := native.AddCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/tmp/shot.png", calls[0].Filename)
	assert.Nil(t, calls[0].Thumbnail, "Absent thumbnail must stay nil")
	assert.Equal(t, int32(1920), calls[0].Width)
	assert.Equal(t, int32(1080), calls[0].Height)
}

func TestWorkflow_AddToLibrary_ThumbnailPassedThrough(t *testing.T) {
	t.Parallel()

	wf, native := newWorkflow()

	empty := ""
	_, err := wf.AddToLibrary(screenshots.Request{Filename: "a.png", Thumbnail: &empty})
	require.NoError(t, err)

	calls := native.AddCalls()
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].Thumbnail, "Empty thumbnail path is not the same as no thumbnail")
	assert.Equal(t, "", *calls[0].Thumbnail)
}

func TestWorkflow_AddToLibrary_NativeError(t *testing.T) {
	t.Parallel()

	wf, native := newWorkflow()
	cause := errors.New("invalid path: /nope.png")
	native.WithAddError(cause)

	h, err := wf.AddToLibrary(screenshots.Request{Filename: "/nope.png"})
	require.Error(t, err)
	assert.Equal(t, screenshots.Handle(0), h)

	var nerr *screenshots.NativeError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "AddScreenshotToLibrary", nerr.Op)
	assert.Equal(t, "invalid path: /nope.png", nerr.Message)
	assert.Equal(t, "invalid path: /nope.png", err.Error())
	assert.ErrorIs(t, err, cause)

	assert.Len(t, native.AddCalls(), 1, "No retry on failure")
}

func TestWorkflow_AddToLibrary_EmptyNativeMessage(t *testing.T) {
	t.Parallel()

	wf, native := newWorkflow()
	native.WithAddError(errors.New(""))

	_, err := wf.AddToLibrary(screenshots.Request{Filename: "x"})
	require.Error(t, err)
	assert.NotEmpty(t, err.Error())
}

func TestWorkflow_Notifications(t *testing.T) {
	t.Parallel()

	wf, native := newWorkflow()

	requested := 0
	cancel := wf.OnRequested(func() { requested++ })

	var gotHandle screenshots.Handle
	var gotErr error
	wf.OnReady(func(h screenshots.Handle, err error) {
		gotHandle, gotErr = h, err
	})

	native.FireRequested()
	assert.Equal(t, 1, requested)

	cancel()
	native.FireRequested()
	assert.Equal(t, 1, requested, "Cancelled handler should not run")

	native.FireReady(9, nil)
	assert.Equal(t, screenshots.Handle(9), gotHandle)
	assert.NoError(t, gotErr)

	native.FireReady(0, errors.New("saving failed"))
	var nerr *screenshots.NativeError
	require.ErrorAs(t, gotErr, &nerr)
	assert.Equal(t, "saving failed", nerr.Message)
}

func TestNewWorkflow_ResolvesProcessClient(t *testing.T) {
	client.Shutdown()
	t.Cleanup(client.Shutdown)

	wf := screenshots.NewWorkflow(logger.NewNoOpLogger())
	assert.PanicsWithValue(t, client.ErrNotInitialized, func() { wf.IsHooked() })

	native := testutil.NewMockNativeClient()
	_, err := client.Init(native, nil)
	require.NoError(t, err)

	wf.SetHook(true)
	assert.True(t, native.ScreenshotsMock.IsScreenshotsHooked())
}
