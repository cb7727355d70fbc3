// Package config loads swbridge settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Norgate-AV/swbridge/internal/logger"
	"github.com/Norgate-AV/swbridge/internal/screenshots"
	"github.com/Norgate-AV/swbridge/internal/timeouts"
)

const (
	// ConfigEnv names the config file when --config is not given
	ConfigEnv = "SWBRIDGE_CONFIG"

	// FixtureEnv overrides native.fixture
	FixtureEnv = "SWBRIDGE_FIXTURE"

	// WorkersEnv overrides dispatch.workers
	WorkersEnv = "SWBRIDGE_WORKERS"
)

// DefaultPaths are searched in order when no path is configured.
var DefaultPaths = []string{
	"swbridge.yaml",
	"configs/swbridge.yaml",
}

// Config is the effective configuration
type Config struct {
	Log       LogConfig
	Native    NativeConfig
	Dispatch  DispatchConfig
	Callbacks CallbackConfig

	// Source is the file the config was read from, empty if none.
	Source string
}

type LogConfig struct {
	Dir        string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

type NativeConfig struct {
	Fixture string
}

type DispatchConfig struct {
	Workers       int
	RatePerSecond float64
	Burst         int
}

type CallbackConfig struct {
	Interval time.Duration
}

// File mirrors the YAML layout. Pointers distinguish "unset" from zero.
type File struct {
	Log struct {
		Dir        string `yaml:"dir"`
		MaxSize    int    `yaml:"maxSize"`
		MaxBackups int    `yaml:"maxBackups"`
		MaxAge     int    `yaml:"maxAge"`
		Compress   *bool  `yaml:"compress"`
	} `yaml:"log"`
	Native struct {
		Fixture string `yaml:"fixture"`
	} `yaml:"native"`
	Dispatch struct {
		Workers       int      `yaml:"workers"`
		RatePerSecond *float64 `yaml:"ratePerSecond"`
		Burst         int      `yaml:"burst"`
	} `yaml:"dispatch"`
	Callbacks struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"callbacks"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Log: LogConfig{
			MaxSize:    logger.DefaultLogMaxSize,
			MaxBackups: logger.DefaultLogMaxBackups,
			MaxAge:     logger.DefaultLogMaxAge,
			Compress:   true,
		},
		Dispatch: DispatchConfig{
			Workers: screenshots.DefaultWorkers,
			Burst:   1,
		},
		Callbacks: CallbackConfig{
			Interval: timeouts.CallbackPumpInterval,
		},
	}
}

// Load reads configPath, or $SWBRIDGE_CONFIG, or the first existing
// DefaultPaths entry, merges it onto Default and applies env overrides.
// An explicitly named file must exist; a broken file is always an error.
func Load(configPath string) (Config, error) {
	cfg := Default()

	explicit := true
	if configPath == "" {
		configPath = strings.TrimSpace(os.Getenv(ConfigEnv))
	}

	candidates := []string{configPath}
	if configPath == "" {
		explicit = false
		candidates = DefaultPaths
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && !explicit {
				continue
			}
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}

		var parsed File
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}

		Merge(&cfg, parsed)
		cfg.Source = path
		break
	}

	if err := ApplyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Merge copies every set field of src onto dst
func Merge(dst *Config, src File) {
	if src.Log.Dir != "" {
		dst.Log.Dir = src.Log.Dir
	}
	if src.Log.MaxSize != 0 {
		dst.Log.MaxSize = src.Log.MaxSize
	}
	if src.Log.MaxBackups != 0 {
		dst.Log.MaxBackups = src.Log.MaxBackups
	}
	if src.Log.MaxAge != 0 {
		dst.Log.MaxAge = src.Log.MaxAge
	}
	if src.Log.Compress != nil {
		dst.Log.Compress = *src.Log.Compress
	}
	if src.Native.Fixture != "" {
		dst.Native.Fixture = src.Native.Fixture
	}
	if src.Dispatch.Workers != 0 {
		dst.Dispatch.Workers = src.Dispatch.Workers
	}
	if src.Dispatch.RatePerSecond != nil {
		dst.Dispatch.RatePerSecond = *src.Dispatch.RatePerSecond
	}
	if src.Dispatch.Burst != 0 {
		dst.Dispatch.Burst = src.Dispatch.Burst
	}
	if src.Callbacks.Interval != 0 {
		dst.Callbacks.Interval = src.Callbacks.Interval
	}
}

// ApplyEnvOverrides applies SWBRIDGE_* variables on top of cfg
func ApplyEnvOverrides(cfg *Config) error {
	if fixture := strings.TrimSpace(os.Getenv(FixtureEnv)); fixture != "" {
		cfg.Native.Fixture = fixture
	}

	if dir := strings.TrimSpace(os.Getenv(logger.LogDirEnv)); dir != "" {
		cfg.Log.Dir = dir
	}

	if raw := strings.TrimSpace(os.Getenv(WorkersEnv)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer, got %q", WorkersEnv, raw)
		}
		cfg.Dispatch.Workers = n
	}

	return nil
}

// LoggerOptions converts the log section for logger.NewLogger
func (c Config) LoggerOptions(verbose bool) logger.LoggerOptions {
	return logger.LoggerOptions{
		Verbose:    verbose,
		LogDir:     c.Log.Dir,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
	}
}

// DispatcherOptions converts the dispatch section for screenshots.NewDispatcher
func (c Config) DispatcherOptions() screenshots.DispatcherOptions {
	return screenshots.DispatcherOptions{
		Workers:       c.Dispatch.Workers,
		RatePerSecond: c.Dispatch.RatePerSecond,
		Burst:         c.Dispatch.Burst,
	}
}
