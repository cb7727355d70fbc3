package logger_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Norgate-AV/swbridge/internal/logger"
)

func TestGetLogPath_EnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv(logger.LogDirEnv, tmpDir)

	assert.Equal(t, filepath.Join(tmpDir, "swbridge.log"), logger.GetLogPath(logger.LoggerOptions{}))
}

func TestGetLogPath_OptionWinsOverEnv(t *testing.T) {
	t.Setenv(logger.LogDirEnv, t.TempDir())

	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, "swbridge.log"), logger.GetLogPath(logger.LoggerOptions{LogDir: dir}))
}

func TestGetLogPath_DefaultsToCacheDir(t *testing.T) {
	t.Setenv(logger.LogDirEnv, "")
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	logPath := logger.GetLogPath(logger.LoggerOptions{})
	assert.True(t, filepath.IsAbs(logPath), "Log path should be absolute")
	assert.Equal(t, "swbridge", filepath.Base(filepath.Dir(logPath)))
}

func TestNewLogger_CreatesLogDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	log, err := logger.NewLogger(logger.LoggerOptions{LogDir: dir, Console: &bytes.Buffer{}})
	require.NoError(t, err)
	defer log.Close()

	assert.DirExists(t, dir)
	assert.Equal(t, filepath.Join(dir, "swbridge.log"), log.GetLogPath())
}

func TestLogger_WritesFileAndConsole(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	log, err := logger.NewLogger(logger.LoggerOptions{LogDir: dir, Console: &console})
	require.NoError(t, err)

	log.Trace("trace message")
	log.Debug("debug message")
	log.Info("info message", slog.Int("count", 42))
	log.Warn("warn message")
	log.Close()

	out := console.String()
	assert.Contains(t, out, "info message count=42")
	assert.Contains(t, out, "WARNING: warn message")
	assert.NotContains(t, out, "debug message", "Debug is hidden without verbose")
	assert.NotContains(t, out, "trace message", "Trace never reaches the console")

	data, err := os.ReadFile(log.GetLogPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "level=TRACE")
	assert.Contains(t, string(data), "debug message")
}

func TestConsoleHandler_Verbose(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	log := slog.New(logger.NewConsoleHandler(&buf, true))

	log.Debug("probing", slog.String("op", "getFriends"))
	log.Error("failed")

	assert.Equal(t, "VERBOSE: probing op=getFriends\nERROR: failed\n", buf.String())
}

func TestPrintLogFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "swbridge.log"), []byte("line 1\nline 2\n"), 0o644))

	var buf bytes.Buffer
	require.NoError(t, logger.PrintLogFile(&buf, logger.LoggerOptions{LogDir: dir}))
	assert.Equal(t, "line 1\nline 2\n", buf.String())

	err := logger.PrintLogFile(&buf, logger.LoggerOptions{LogDir: filepath.Join(dir, "missing")})
	assert.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNoOpLogger(t *testing.T) {
	log := logger.NewNoOpLogger()

	assert.NotPanics(t, func() {
		log.Trace("test")
		log.Debug("test")
		log.Info("test")
		log.Warn("test")
		log.Error("test")
		log.Close()
	})
	assert.Empty(t, log.GetLogPath())
}
