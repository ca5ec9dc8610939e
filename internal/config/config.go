// Package config wires the scanner's configuration: grouped CLI flags for
// the command-line scanner, and a JSON file with HTTPOBS_* environment
// overrides for the API server.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"httpobs/internal/retriever"
	"httpobs/pkg/version"
)

// Config holds the command-line scanner configuration.
type Config struct {
	Timeout             int // whole-scan timeout in seconds
	RequestTimeout      int // per-probe timeout in seconds
	MaxRedirects        int
	MaxBodySize         int
	UserAgent           string
	InsecureSkipVerify  bool
	AllowPrivateTargets bool
	RateLimit           int // probes per second per host
	TechDetect          bool
	OutputFile          string
	Pretty              bool
	Silent              bool
	Debug               bool
	Version             bool

	Logger *slog.Logger
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Timeout:        45,
		RequestTimeout: 10,
		MaxRedirects:   20,
		MaxBodySize:    256 * 1024,
		RateLimit:      10,
	}
}

// ParseFlags parses command-line flags into the config and sets up the
// logger.
func ParseFlags() (*Config, error) {
	cfg := New()

	formatter := RegisterFlags(cfg)
	flag.Usage = func() {
		formatter.PrintUsage(os.Stderr)
	}
	flag.Parse()

	if cfg.Version {
		fmt.Println(version.GetVersion())
		os.Exit(0)
	}

	if cfg.Silent && cfg.Debug {
		return nil, fmt.Errorf("-silent and -debug are mutually exclusive")
	}

	cfg.Logger = NewLogger(cfg.Debug, cfg.Silent)
	return cfg, nil
}

// RetrieverOptions translates the config into retriever options.
func (c *Config) RetrieverOptions() retriever.Options {
	opts := retriever.DefaultOptions()
	opts.ScanTimeout = time.Duration(c.Timeout) * time.Second
	opts.RequestTimeout = time.Duration(c.RequestTimeout) * time.Second
	opts.MaxRedirects = c.MaxRedirects
	opts.MaxBodySize = int64(c.MaxBodySize)
	opts.UserAgent = c.UserAgent
	opts.InsecureSkipVerify = c.InsecureSkipVerify
	opts.PerHostRate = float64(c.RateLimit)
	return opts
}

// NewLogger builds the standard JSON logger on stderr. Debug lowers the
// level, silent raises it to errors only.
func NewLogger(debug, silent bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	if silent {
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
