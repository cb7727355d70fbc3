package metrics_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/swbridge/internal/metrics"
)

func TestRecorder_Counters(t *testing.T) {
	t.Parallel()

	r := metrics.NewRecorder()
	r.Call("getFriends")
	r.Call("getFriends")
	r.Call("addScreenshotToLibrary")
	r.NativeFailure("addScreenshotToLibrary")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.CallCounter("getFriends")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CallCounter("addScreenshotToLibrary")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.FailureCounter("addScreenshotToLibrary")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.FailureCounter("getFriends")))
}

func TestRecorder_Hooked(t *testing.T) {
	t.Parallel()

	r := metrics.NewRecorder()
	r.Hooked(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.HookedGauge()))

	r.Hooked(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(r.HookedGauge()))
}

func TestRecorder_IndependentRegistries(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		a := metrics.NewRecorder()
		b := metrics.NewRecorder()
		a.Call("x")
		assert.Equal(t, 0.0, testutil.ToFloat64(b.CallCounter("x")))
	})
}

func TestRecorder_WriteText(t *testing.T) {
	t.Parallel()

	r := metrics.NewRecorder()
	r.Call("triggerScreenshot")
	r.LibraryAdd(12 * time.Millisecond)

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))

	out := buf.String()
	assert.Contains(t, out, `swbridge_calls_total{operation="triggerScreenshot"} 1`)
	assert.Contains(t, out, "swbridge_library_add_seconds_count 1")
	assert.Contains(t, out, "# TYPE swbridge_screenshots_hooked gauge")
}
