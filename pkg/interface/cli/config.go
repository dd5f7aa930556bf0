package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// ErrMissingArguments is returned when the positional arguments are absent
var ErrMissingArguments = errors.New("config_file and out_file are required")

// Config holds all application configuration
type Config struct {
	Args struct {
		ConfigFile string `positional-arg-name:"config_file" description:"YAML file with sites and patterns, - for stdin"`
		OutFile    string `positional-arg-name:"out_file" description:"YAML results file, - for stdout"`
	} `positional-args:"yes"`

	// Logging
	Verbose []bool `short:"v" long:"verbose" description:"Increase verbosity, repeat for more (-v found, -vv failures, -vvv attempts)"`

	// Progress and checkpoints
	NoProgress       bool `long:"no-progress" description:"Do not display the progress bar"`
	NoAutosave       bool `long:"no-autosave" description:"Do not save results periodically"`
	AutosaveInterval int  `long:"autosave-interval" description:"Save results whenever the queue length is a multiple of this" default:"100"`

	// Probing
	NumWorkers      int    `short:"n" long:"workers" description:"Number of concurrent workers" default:"8"`
	Timeout         int    `short:"t" long:"timeout" description:"HTTP request timeout in seconds" default:"5"`
	MaxResponseSize int64  `long:"max-response-size" description:"Maximum HTTP response size in bytes" default:"10485760"`
	UserAgent       string `long:"user-agent" description:"HTTP User-Agent header, random picks a browser agent per request" default:"ExposureCrawler/1.0"`
	RateLimit       int    `long:"rate" description:"Maximum requests per second across all workers, 0 for unlimited" default:"0"`
	CommonHosts     bool   `long:"common-hosts" description:"Also spoof a list of common internal virtual hosts (admin, intranet, staging, ...)"`

	// Real HTTP timeout duration (not parsed from flags directly)
	TimeoutDuration time.Duration

	// Observability
	MetricsAddr   string `long:"metrics-addr" description:"Serve Prometheus metrics on this address, empty disables"`
	ShowDashboard bool   `long:"dashboard" description:"Show interactive TUI dashboard"`
	Version       bool   `long:"version" description:"Print version and exit"`
}

// ParseFlags parses command line flags
func ParseFlags() (*Config, error) {
	cfg, err := Parse(os.Args[1:])
	if err != nil {
		if flags.WroteHelp(err) {
			// Help has been printed by the library, exit cleanly
			os.Exit(0)
		}
		return nil, err
	}
	return cfg, nil
}

// Parse parses args into a validated configuration
func Parse(args []string) (*Config, error) {
	cfg := &Config{}

	parser := flags.NewParser(cfg, flags.Default)
	parser.Usage = "[OPTIONS] config_file out_file"

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	// Convert timeouts
	cfg.TimeoutDuration = time.Duration(cfg.Timeout) * time.Second

	if cfg.Version {
		return cfg, nil
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Verbosity returns how many times -v was given
func (c *Config) Verbosity() int {
	return len(c.Verbose)
}

// CheckpointInterval returns the periodic checkpoint interval, 0 when disabled
func (c *Config) CheckpointInterval() int {
	if c.NoAutosave {
		return 0
	}
	return c.AutosaveInterval
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Args.ConfigFile == "" || c.Args.OutFile == "" {
		return ErrMissingArguments
	}

	if c.NumWorkers <= 0 {
		return fmt.Errorf("number of workers must be > 0, got %d", c.NumWorkers)
	}

	if c.TimeoutDuration <= 0 {
		return fmt.Errorf("HTTP timeout must be > 0, got %s", c.TimeoutDuration)
	}

	if c.MaxResponseSize <= 0 {
		return fmt.Errorf("max response size must be > 0, got %d", c.MaxResponseSize)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must be >= 0, got %d", c.RateLimit)
	}

	if !c.NoAutosave && c.AutosaveInterval <= 0 {
		return fmt.Errorf("autosave interval must be > 0, got %d", c.AutosaveInterval)
	}

	return nil
}
