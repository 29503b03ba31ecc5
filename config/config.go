// Package config loads defaults for the tarantool-monitor daemon from an
// optional YAML file. Command-line flags always take precedence:
// MergeFlags only fills in fields whose flag was not explicitly set.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the daemon's tunables. Zero values mean "not set"; callers
// merge this over their own flag defaults, not the other way around.
type Config struct {
	Addr     string `yaml:"addr"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`

	MetricsAddr string `yaml:"metrics_addr"`

	BurstThreshold int           `yaml:"burst_threshold"`
	BurstWindow    time.Duration `yaml:"burst_window"`
	BurstCooldown  time.Duration `yaml:"burst_cooldown"`
}

// Load reads path as YAML into a Config. An empty path is a no-op and
// returns a zero Config, the same shape flags alone would produce.
func Load(path string) (Config, error) {
	var c Config
	if path == "" {
		return c, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return c, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&c); err != nil {
		return c, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return c, nil
}

// MergeFlags layers file-sourced defaults under the values already set by
// flags, given as the parsed flag values plus a record of which flags the
// user actually passed on the command line (set). Any field whose flag
// was not explicitly set falls back to the file's value when non-zero.
func MergeFlags(file Config, flags Config, set map[string]bool) Config {
	merged := flags

	if !set["addr"] && file.Addr != "" {
		merged.Addr = file.Addr
	}
	if !set["user"] && file.User != "" {
		merged.User = file.User
	}
	if !set["password"] && file.Password != "" {
		merged.Password = file.Password
	}
	if !set["connect-timeout"] && file.ConnectTimeout != 0 {
		merged.ConnectTimeout = file.ConnectTimeout
	}
	if !set["read-timeout"] && file.ReadTimeout != 0 {
		merged.ReadTimeout = file.ReadTimeout
	}
	if !set["write-timeout"] && file.WriteTimeout != 0 {
		merged.WriteTimeout = file.WriteTimeout
	}
	if !set["metrics"] && file.MetricsAddr != "" {
		merged.MetricsAddr = file.MetricsAddr
	}
	if !set["burst-threshold"] && file.BurstThreshold != 0 {
		merged.BurstThreshold = file.BurstThreshold
	}
	if !set["burst-window"] && file.BurstWindow != 0 {
		merged.BurstWindow = file.BurstWindow
	}
	if !set["burst-cooldown"] && file.BurstCooldown != 0 {
		merged.BurstCooldown = file.BurstCooldown
	}
	return merged
}
