package monitor

import (
	"context"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luki/modbusmon/internal/chart"
	"github.com/luki/modbusmon/internal/config"
	"github.com/luki/modbusmon/internal/history"
	"github.com/luki/modbusmon/internal/sampler"
	"github.com/luki/modbusmon/internal/sensor"
	"github.com/luki/modbusmon/internal/store"
)

func newModel(t *testing.T, n int) Model {
	t.Helper()
	cfg := config.New()
	cfg.DataDir = filepath.Join(t.TempDir(), "modbus_data")
	cfg.Chart.Output = filepath.Join(t.TempDir(), "chart.png")

	ls, err := store.New(cfg.DataDir)
	require.NoError(t, err)
	s, err := sampler.New(ls, n)
	require.NoError(t, err)
	t.Cleanup(func() { s.Stop() })

	return New(context.Background(), s, cfg, zerolog.Nop())
}

func key(s string) tea.KeyMsg {
	if s == "tab" {
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestStartStopAcknowledged(t *testing.T) {
	m := newModel(t, 1)

	m = update(t, m, key("s"))
	assert.Equal(t, "Test started.", m.status)
	assert.True(t, m.sampler.Running())

	m = update(t, m, key("s"))
	assert.Equal(t, "Test is already running.", m.status)

	m = update(t, m, key("x"))
	assert.Equal(t, "Test stopped.", m.status)
	assert.False(t, m.sampler.Running())

	m = update(t, m, key("x"))
	assert.Equal(t, "Test is not running.", m.status)
}

func TestTickRedrawsChart(t *testing.T) {
	m := newModel(t, 2)

	st := history.NewStore(2, 0)
	st.Record(0, sensor.Reading{Time: 0, Temp: 150})
	st.Record(1, sensor.Reading{Time: 0, Temp: 450})

	next, cmd := m.Update(tickMsg(sampler.Tick{T: 0, Sensors: 2, Series: st.Snapshot()}))
	m = next.(Model)

	assert.NotNil(t, cmd, "keeps listening for ticks")
	require.Len(t, m.frame.Lines, 2)
	assert.Equal(t, "Sensor 2", m.frame.Lines[1].Label)
	assert.Equal(t, 1, m.ticks)
}

func TestTickFromBeforeClearIgnored(t *testing.T) {
	m := newModel(t, 1)

	st := history.NewStore(1, 0)
	st.Record(0, sensor.Reading{Time: 0, Temp: 150})
	old := sampler.Tick{Gen: m.sampler.Gen(), T: 0, Sensors: 1, Series: st.Snapshot()}

	m = update(t, m, key("r"))
	assert.Equal(t, "Chart cleared.", m.status)

	next, cmd := m.Update(tickMsg(old))
	m = next.(Model)
	assert.NotNil(t, cmd, "keeps listening for ticks")
	assert.Empty(t, m.frame.Lines)
	assert.Equal(t, 0, m.ticks)
}

func TestTickErrorsShown(t *testing.T) {
	m := newModel(t, 1)
	ev := sampler.Tick{
		T:      3,
		Series: history.NewStore(1, 0).Snapshot(),
		Errors: []sampler.SensorError{{Sensor: 0, Err: assert.AnError}},
	}
	m = update(t, m, tickMsg(ev))
	require.Error(t, m.err)
	assert.Contains(t, m.err.Error(), "Sensor 1")

	m = update(t, m, tickMsg(sampler.Tick{T: 4, Series: ev.Series}))
	assert.NoError(t, m.err)
}

func TestSensorCountKeys(t *testing.T) {
	m := newModel(t, 1)
	m = update(t, m, key("3"))
	assert.Equal(t, 3, m.sampler.SensorCount())
	assert.Equal(t, 3, m.chart.Sensors())

	m = update(t, m, key("tab"))
	m = update(t, m, key("tab"))
	assert.Equal(t, 2, m.selected)

	m = update(t, m, key("1"))
	assert.Equal(t, 0, m.selected)
}

func TestLogPanelEmptyState(t *testing.T) {
	m := newModel(t, 2)
	m = update(t, m, key("l"))
	assert.True(t, m.logOpen)
	assert.Equal(t, store.NoLogText, m.logText)

	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 60})
	assert.Contains(t, m.View(), "Sensor 1 Log")
}

func TestExportChart(t *testing.T) {
	m := newModel(t, 1)
	m.frame = chart.BuildFrame(map[int][]sensor.Reading{0: {{Time: 0, Temp: 200}, {Time: 1, Temp: 300}}})
	m = update(t, m, key("e"))
	assert.NoError(t, m.err)
	assert.FileExists(t, m.cfg.Chart.Output)
	assert.Contains(t, m.status, "Chart saved")
}

func TestView(t *testing.T) {
	m := newModel(t, 2)
	assert.Equal(t, "  Initializing...", m.View())

	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 60})
	out := m.View()
	assert.Contains(t, out, "MODBUS DATA & TEST SCREEN")
	assert.Contains(t, out, chart.Title)
	assert.Contains(t, out, "Sensor 2")
}
