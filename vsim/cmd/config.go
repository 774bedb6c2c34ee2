package cmd

import (
	"bytes"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/vsim/sim/naming"
)

// Config describes one testbench run.
type Config struct {
	Name         string `yaml:"name"`
	Length       int    `yaml:"length"`
	GateDelay    uint64 `yaml:"gate_delay"`
	HalfPeriod   uint64 `yaml:"half_period"`
	InitialDelay uint64 `yaml:"initial_delay"`

	// Horizon is the virtual time the run stops at. Zero runs until the
	// wall-clock cap.
	Horizon  uint64        `yaml:"horizon"`
	WallTime time.Duration `yaml:"wall_time"`

	// Trace is "-" for stdout, a file path, or empty for no trace.
	Trace     string `yaml:"trace"`
	Record    string `yaml:"record"`
	SaveState string `yaml:"save_state"`
	LoadState string `yaml:"load_state"`

	Monitor     bool `yaml:"monitor"`
	MonitorPort int  `yaml:"monitor_port"`
	OpenBrowser bool `yaml:"open_browser"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Name:       "chain",
		Length:     4,
		GateDelay:  1,
		HalfPeriod: 10,
		Horizon:    100,
		WallTime:   10 * time.Second,
		Trace:      "-",
	}
}

// LoadConfig reads a YAML config file on top of the defaults. Unknown keys
// are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}

	return cfg, cfg.Validate()
}

// Validate checks that the testbench can be built from the config.
func (c Config) Validate() error {
	if err := naming.Validate(c.Name); err != nil {
		return errors.Wrap(err, "config")
	}

	switch {
	case c.Length < 1:
		return errors.Errorf("config: length %d must be at least 1", c.Length)
	case c.HalfPeriod == 0:
		return errors.New("config: half_period must be greater than zero")
	case c.Horizon == 0 && c.WallTime <= 0:
		return errors.New("config: either horizon or wall_time must be set")
	}

	return nil
}
