package config

import (
	"fmt"
	"time"
)

// Config represents a flume.yaml configuration file.
// All values are optional and act as defaults for flume run flags.
// CLI flags always override config values.
type Config struct {
	Worker  WorkerConfig  `yaml:"worker"`
	Channel ChannelConfig `yaml:"channel"`
	Storage StorageConfig `yaml:"storage"`
	Adapter AdapterConfig `yaml:"adapter"`
}

// WorkerConfig holds worker defaults from the config file.
type WorkerConfig struct {
	// Name is the worker label recorded in results and events.
	Name string `yaml:"name"`
	// Dir is the worker's working directory.
	Dir string `yaml:"dir"`
	// SearchPaths are prepended to the worker's search-path variable.
	SearchPaths []string `yaml:"search_paths"`
	// SearchPathVar overrides the search-path variable name.
	SearchPathVar string `yaml:"search_path_var"`
	// Env holds additional KEY=VALUE entries for the worker.
	Env []string `yaml:"env"`
}

// ChannelConfig holds channel defaults from the config file.
type ChannelConfig struct {
	// AddressPrefix seeds channel address generation.
	AddressPrefix string `yaml:"address_prefix"`
	// AcceptTimeout bounds the listener's reconnect-accept wait.
	AcceptTimeout Duration `yaml:"accept_timeout"`
}

// StorageConfig holds capture storage defaults from the config file.
type StorageConfig struct {
	// Backend is "file" or "s3".
	Backend string `yaml:"backend"`
	// Path is the file root, or "bucket/prefix" for S3.
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// AdapterConfig holds adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
