// Package config loads the crawl targets document.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNoSites is returned when the targets document lists no site
var ErrNoSites = errors.New("no sites configured")

// Targets is the YAML document describing what to probe
type Targets struct {
	Sites          []string `yaml:"sites"`
	SearchForFiles []string `yaml:"search_for_files,omitempty"`
	FakeHostNames  []string `yaml:"fake_host_names,omitempty"`
}

// Load decodes a targets document
func Load(r io.Reader) (*Targets, error) {
	var targets Targets
	if err := yaml.NewDecoder(r).Decode(&targets); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoSites
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := targets.Validate(); err != nil {
		return nil, err
	}
	return &targets, nil
}

// LoadFile reads a targets document from path, "-" means stdin
func LoadFile(path string) (*Targets, error) {
	if path == "-" {
		return Load(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Validate checks the document is usable
func (t *Targets) Validate() error {
	if len(t.Sites) == 0 {
		return ErrNoSites
	}
	return nil
}
