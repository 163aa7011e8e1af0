package shim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"hookshim/pkg/protocol"
)

// ConfigFileName is the optional configuration file looked up next to the hook.
const ConfigFileName = "hookshim.yaml"

// ExecutorKind selects the delegation strategy.
type ExecutorKind string

const (
	ExecutorLocal  ExecutorKind = "local"
	ExecutorDocker ExecutorKind = "docker"
)

func (k ExecutorKind) String() string {
	return string(k)
}

// Config is the shim configuration. Every field is optional.
type Config struct {
	RunScript      string            `yaml:"run_script,omitempty"`      // Relative to the hook directory unless absolute
	Hooks          map[string]string `yaml:"hooks,omitempty"`           // Hook name -> locked file name
	Executor       ExecutorKind      `yaml:"executor,omitempty"`        // "local" (default) or "docker"
	Container      string            `yaml:"container,omitempty"`       // Target container for the docker executor
	EnvPassthrough []string          `yaml:"env_passthrough,omitempty"` // Extra env keys forwarded into the container
	Debug          bool              `yaml:"debug,omitempty"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		RunScript: protocol.DefaultRunScript,
		Executor:  ExecutorLocal,
	}
}

// LoadConfig loads the configuration file at path.
// A missing file yields the default configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML config data, applies defaults and validates it.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.RunScript == "" {
		cfg.RunScript = protocol.DefaultRunScript
	}
	if cfg.Executor == "" {
		cfg.Executor = ExecutorLocal
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Executor {
	case ExecutorLocal:
	case ExecutorDocker:
		if c.Container == "" {
			return fmt.Errorf("executor %q requires a container", c.Executor)
		}
	default:
		return fmt.Errorf("unknown executor %q", c.Executor)
	}

	for hook, locked := range c.Hooks {
		if locked == "" {
			return fmt.Errorf("hook %q: empty locked file name", hook)
		}
	}
	return nil
}

// LockedFile returns the locked payload name for hook.
func (c *Config) LockedFile(hook string) string {
	if name, ok := c.Hooks[hook]; ok {
		return name
	}
	return protocol.LockedFileName(hook)
}
