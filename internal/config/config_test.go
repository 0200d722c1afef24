package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "modbusmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	c := New()
	require.NoError(t, c.Validate())
	assert.Equal(t, "modbus_data", c.DataDir)
	assert.Equal(t, 1, c.Sensors)

	lvl, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, lvl)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
dataDir: /tmp/modbus
sensors: 3
logLevel: debug
seed: 42
chart:
  width: 1200
  height: 700
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/modbus", c.DataDir)
	assert.Equal(t, 3, c.Sensors)
	assert.Equal(t, uint64(42), c.Seed)
	assert.Equal(t, 1200, c.Chart.Width)
	assert.Equal(t, "chart.png", c.Chart.Output, "unset fields keep defaults")
}

func TestLoadExplicitMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"too many sensors", "sensors: 5"},
		{"zero sensors", "sensors: 0"},
		{"bad level", "logLevel: loud"},
		{"bad yaml", "sensors: [1"},
		{"bad chart", "chart:\n  width: -1"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "sensors: 2\ndataDir: from-file\n")
	fs := flag.NewFlagSet("test", flag.ContinueOnError)

	c, rest, err := FromFlags(fs, []string{"-config", path, "-n", "4", "log", "2"})
	require.NoError(t, err)
	assert.Equal(t, 4, c.Sensors)
	assert.Equal(t, "from-file", c.DataDir)
	assert.Equal(t, []string{"log", "2"}, rest)
}

func TestFlagsRejectBadCount(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(new(nopWriter))
	_, _, err := FromFlags(fs, []string{"-config", writeConfig(t, ""), "-n", "7"})
	assert.Error(t, err)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
