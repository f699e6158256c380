// Package config holds SAIL's top-level configuration: registry search
// paths, retry/backoff knobs for the session layer, and the logging
// level, grounded on the teacher's own flat, defaulted Config struct.
package config

import (
	"errors"
	"runtime"
	"strings"
	"time"
)

// CodecPathEnv is the environment variable that appends additional codec
// search directories to the built-in defaults (spec §6, decided in
// SPEC_FULL.md §6.1).
const CodecPathEnv = "SAIL_CODEC_PATH"

// Config is the top-level configuration struct. All fields have safe
// defaults so callers can start with Default() and override only what
// they need.
type Config struct {
	// Registry discovery.
	SearchDirs         []string // directories searched for metadata files, in order
	MetadataFileSuffix string   // e.g. ".codec"
	MagicPrefixBytes   int      // stored on the registry; by-magic probing does not use it (each plugin's Probe picks its own prefix)

	// Retry (session-level, adapted from the teacher's worker-pool retry knobs).
	MaxRetries int
	RetryDelay time.Duration

	// Logging.
	LogLevel string // "debug", "info", "warn", "error"
}

// Default returns a Config populated with sensible production defaults.
func Default() Config {
	return Config{
		SearchDirs:         defaultSearchDirs(),
		MetadataFileSuffix: ".codec",
		MagicPrefixBytes:   64,
		MaxRetries:         0, // synchronous-and-blocking by default; spec §5 has no retry requirement on success paths
		RetryDelay:         0,
		LogLevel:           "info",
	}
}

func defaultSearchDirs() []string {
	return []string{"/usr/local/lib/sail/codecs", "/etc/sail/codecs"}
}

// ResolveSearchDirs appends the directories named by SAIL_CODEC_PATH to
// c.SearchDirs, splitting on ':' (POSIX) or ';' (Windows) per spec §6.
func (c Config) ResolveSearchDirs(envValue string) []string {
	dirs := append([]string{}, c.SearchDirs...)
	if envValue == "" {
		return dirs
	}
	sep := ":"
	if runtime.GOOS == "windows" {
		sep = ";"
	}
	for _, d := range strings.Split(envValue, sep) {
		d = strings.TrimSpace(d)
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	if c.MetadataFileSuffix == "" {
		return errors.New("config: MetadataFileSuffix must not be empty")
	}
	if c.MagicPrefixBytes <= 0 {
		return errors.New("config: MagicPrefixBytes must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New("config: MaxRetries must not be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("config: LogLevel must be one of debug, info, warn, error")
	}
	return nil
}
