// Package logging builds the go-kit loggers used by the server and cbftool.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const (
	EnvLogLevel     = "CBF_MCP_LOG_LEVEL"
	EnvLogTimestamp = "CBF_MCP_LOG_TIMESTAMP"
	EnvLogFormat    = "CBF_MCP_LOG_FORMAT"
)

// Config selects the level filter and output format.
type Config struct {
	Level     string `toml:"level"`
	Format    string `toml:"format"`
	Timestamp bool   `toml:"timestamp"`
}

// DefaultConfig logs info and above as logfmt with timestamps.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "logfmt", Timestamp: true}
}

// New returns a logger writing to w. Environment variables override cfg.
func New(w io.Writer, cfg Config) log.Logger {
	applyEnvOverrides(&cfg)

	sw := log.NewSyncWriter(w)
	var logger log.Logger
	if cfg.Format == "json" {
		logger = log.NewJSONLogger(sw)
	} else {
		logger = log.NewLogfmtLogger(sw)
	}
	logger = level.NewFilter(logger, levelFilter(cfg.Level))
	if cfg.Timestamp {
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	}
	return log.With(logger, "caller", log.DefaultCaller)
}

// Stderr is New writing to os.Stderr.
func Stderr(cfg Config) log.Logger {
	return New(os.Stderr, cfg)
}

func levelFilter(l string) level.Option {
	switch l {
	case "debug":
		return level.AllowDebug()
	case "info":
		return level.AllowInfo()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	case "none":
		return level.AllowNone()
	default:
		return level.AllowAll()
	}
}

// ValidLevel reports whether l names a level filter.
func ValidLevel(l string) bool {
	_, ok := parseLevel(l)
	return ok
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if f := strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogFormat))); f == "json" || f == "logfmt" {
		cfg.Format = f
	}
}

func parseLevel(raw string) (string, bool) {
	switch l := strings.ToLower(strings.TrimSpace(raw)); l {
	case "debug", "info", "error", "all":
		return l, true
	case "warn", "warning":
		return "warn", true
	case "none", "off", "disabled":
		return "none", true
	default:
		return "", false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
