// Package config loads the Engine's runtime tunables (tick rate, worker
// join timeout, fault threshold, log level) the way the rest of this
// ecosystem loads configuration: golobby/config feeders layered file-first,
// .env-second, process-env-last, fed into a plain struct. The main config
// file's feeder is chosen from its extension (yaml/yml, toml, json), so a
// deployment can pick whichever format it already standardizes on.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/golobby/config/v3"

	"github.com/kestrelscript/kestrel/feeders"
)

// EngineConfig mirrors kestrel.EngineConfig's tunables in a form suitable
// for feeding from env vars and config files. BaseTickMillis and
// WorkerJoinTimeoutMillis are plain integers rather than time.Duration
// because feeders decode scalar fields most reliably that way; BaseTickRate()
// and WorkerJoinTimeout() convert them for
// kestrel.WithBaseTickRate/WithWorkerJoinTimeout.
type EngineConfig struct {
	BaseTickMillis          int    `yaml:"base_tick_millis" toml:"base_tick_millis" json:"base_tick_millis" env:"KESTREL_BASE_TICK_MILLIS"`
	WorkerJoinTimeoutMillis int    `yaml:"worker_join_timeout_millis" toml:"worker_join_timeout_millis" json:"worker_join_timeout_millis" env:"KESTREL_WORKER_JOIN_TIMEOUT_MILLIS"`
	FaultThreshold          int    `yaml:"fault_threshold" toml:"fault_threshold" json:"fault_threshold" env:"KESTREL_FAULT_THRESHOLD"`
	LogLevel                string `yaml:"log_level" toml:"log_level" json:"log_level" env:"KESTREL_LOG_LEVEL"`
	BootstrapScript         string `yaml:"bootstrap_script" toml:"bootstrap_script" json:"bootstrap_script" env:"KESTREL_BOOTSTRAP_SCRIPT"`
}

// Defaults returns the defaults kestrel.defaultEngineConfig applies, with
// its 1/60 s base tick rounded down to whole milliseconds (16 ms), so a
// config file only needs to override what it wants to change.
func Defaults() EngineConfig {
	return EngineConfig{
		BaseTickMillis:          16, // ~60 Hz
		WorkerJoinTimeoutMillis: 2000,
		FaultThreshold:          16,
		LogLevel:                "info",
		BootstrapScript:         "main.lua",
	}
}

// BaseTickRate converts BaseTickMillis to a time.Duration.
func (c EngineConfig) BaseTickRate() time.Duration {
	return time.Duration(c.BaseTickMillis) * time.Millisecond
}

// WorkerJoinTimeout converts WorkerJoinTimeoutMillis to a time.Duration.
func (c EngineConfig) WorkerJoinTimeout() time.Duration {
	return time.Duration(c.WorkerJoinTimeoutMillis) * time.Millisecond
}

// loadOptions carries the optional layers Load can add on top of the main
// config file and the process environment.
type loadOptions struct {
	dotEnvPath  string
	debugLogger interface {
		Debug(msg string, args ...any)
	}
	tracker *feeders.DefaultFieldTracker
}

// LoadOption customizes Load, mirroring the engine's own functional-options
// style.
type LoadOption func(*loadOptions)

// WithDotEnv layers a .env file between the main config file and the
// process environment, so KESTREL_* vars can live in a file that isn't
// checked in alongside one that is.
func WithDotEnv(path string) LoadOption {
	return func(o *loadOptions) { o.dotEnvPath = path }
}

// WithDebugFeeder swaps the final environment layer for a VerboseEnvFeeder
// that logs every field it populates through logger.
func WithDebugFeeder(logger interface {
	Debug(msg string, args ...any)
}) LoadOption {
	return func(o *loadOptions) { o.debugLogger = logger }
}

// WithFieldTracker records which feeder populated which struct field as
// Load runs, for diagnostics. Load wires the tracker into the .env layer
// only; the file and process-env layers are fed without it.
func WithFieldTracker(t *feeders.DefaultFieldTracker) LoadOption {
	return func(o *loadOptions) { o.tracker = t }
}

// Load builds an EngineConfig starting from Defaults, layering the main
// config file (if configPath is non-empty), a .env file (if WithDotEnv was
// given), and finally the process environment over it — later layers win,
// matching the teacher's layered-feeder convention of appending more
// specific feeders after more general ones.
func Load(configPath string, opts ...LoadOption) (EngineConfig, error) {
	var lo loadOptions
	for _, opt := range opts {
		opt(&lo)
	}

	cfg := Defaults()

	var feederList []config.Feeder
	if configPath != "" {
		f, err := fileFeeder(configPath)
		if err != nil {
			return EngineConfig{}, err
		}
		feederList = append(feederList, f)
	}

	if lo.dotEnvPath != "" {
		dotEnv := feeders.NewDotEnvFeeder(lo.dotEnvPath)
		if lo.tracker != nil {
			dotEnv.SetFieldTracker(lo.tracker)
		}
		feederList = append(feederList, dotEnv)
	}

	if lo.debugLogger != nil {
		verbose := feeders.NewVerboseEnvFeeder()
		verbose.SetVerboseDebug(true, lo.debugLogger)
		feederList = append(feederList, verbose)
	} else {
		feederList = append(feederList, feeders.NewEnvFeeder())
	}

	builder := config.New()
	for _, f := range feederList {
		builder.AddFeeder(f)
	}
	builder.AddStruct(&cfg)

	if err := builder.Feed(); err != nil {
		return EngineConfig{}, fmt.Errorf("feed engine config: %w", err)
	}
	return cfg, nil
}

// fileFeeder selects a config.Feeder by the main config file's extension,
// matching the yaml/toml/json struct tags EngineConfig already carries. An
// unrecognized extension is an error rather than a silent fallback, since
// guessing wrong would feed the struct from the wrong tag set.
func fileFeeder(path string) (config.Feeder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return feeders.NewYamlFeeder(path), nil
	case ".toml":
		return feeders.NewTomlFeeder(path), nil
	case ".json":
		return feeders.NewJSONFeeder(path), nil
	default:
		return nil, fmt.Errorf("config: unrecognized config file extension %q", filepath.Ext(path))
	}
}
