// Package config loads modbusmon settings from an optional YAML file and
// command-line flags. Flags win over the file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/luki/modbusmon/internal/sensor"
	"github.com/luki/modbusmon/internal/store"
)

// DefaultFile is read when no -config flag is given and it exists.
const DefaultFile = "modbusmon.yaml"

// Config is the application configuration.
type Config struct {
	DataDir  string      `yaml:"dataDir"`
	Sensors  int         `yaml:"sensors"`
	LogLevel string      `yaml:"logLevel"`
	Seed     uint64      `yaml:"seed"`
	Capacity int         `yaml:"capacity"`
	Chart    ChartConfig `yaml:"chart"`
}

// ChartConfig sets the PNG export size.
type ChartConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Output string `yaml:"output"`
}

// New returns the defaults.
func New() *Config {
	return &Config{
		DataDir:  store.DefaultDir,
		Sensors:  1,
		LogLevel: "info",
		Chart: ChartConfig{
			Width:  900,
			Height: 560,
			Output: "chart.png",
		},
	}
}

// Load reads a YAML file over the defaults. A missing DefaultFile is not
// an error; any other missing path is.
func Load(path string) (*Config, error) {
	c := New()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, c.Validate()
}

// FromFlags parses args, loads the config file they name, and applies
// flag overrides. It returns the remaining positional arguments.
func FromFlags(fs *flag.FlagSet, args []string) (*Config, []string, error) {
	var (
		path     string
		dataDir  string
		sensors  int
		logLevel string
	)
	fs.StringVar(&path, "config", "", "Path to a YAML config file (default "+DefaultFile+" if present)")
	fs.StringVar(&dataDir, "data", "", "Directory for the CSV log files")
	fs.IntVar(&sensors, "n", 0, "Number of sensors (1-4)")
	fs.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	c, err := Load(path)
	if err != nil {
		return nil, nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			c.DataDir = dataDir
		case "n":
			c.Sensors = sensors
		case "log-level":
			c.LogLevel = logLevel
		}
	})

	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	return c, fs.Args(), nil
}

// Validate checks the values the rest of the program relies on.
func (c *Config) Validate() error {
	switch {
	case c.DataDir == "":
		return errors.New("data dir is required")
	case !sensor.ValidCount(c.Sensors):
		return fmt.Errorf("invalid sensor count %d: must be 1-%d", c.Sensors, sensor.MaxSensors)
	case c.Capacity < 0:
		return fmt.Errorf("invalid capacity %d", c.Capacity)
	case c.Chart.Width <= 0 || c.Chart.Height <= 0:
		return fmt.Errorf("invalid chart size %dx%d", c.Chart.Width, c.Chart.Height)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
