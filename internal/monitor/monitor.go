// Package monitor implements the live test screen using BubbleTea: the
// sensor count selector, Start/Stop/Quit, the per-sensor log panel and the
// temperature chart that is redrawn on every tick.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/luki/modbusmon/internal/chart"
	"github.com/luki/modbusmon/internal/config"
	"github.com/luki/modbusmon/internal/history"
	"github.com/luki/modbusmon/internal/sampler"
	"github.com/luki/modbusmon/internal/sensor"
)

const chartHeight = 16

// ── Messages ─────────────────────────────────────────────────────────

type tickMsg sampler.Tick

// ── Model ────────────────────────────────────────────────────────────

// Model is the BubbleTea model for the live monitor. Update is the only
// place the chart is redrawn; the sampler hands it snapshots over a
// channel.
type Model struct {
	ctx     context.Context
	sampler *sampler.Sampler
	chart   *chart.Chart
	images  *chart.ImageRenderer
	cfg     *config.Config
	logger  zerolog.Logger

	frame     chart.Frame
	series    history.Snapshot
	lastTick  int
	ticks     int
	selected  int
	logOpen   bool
	logText   string
	status    string
	err       error
	width     int
	height    int
	scroll    int
	startTime time.Time
}

// New creates the initial model around a stopped sampler.
func New(ctx context.Context, s *sampler.Sampler, cfg *config.Config, logger zerolog.Logger) Model {
	m := Model{
		ctx:       ctx,
		sampler:   s,
		chart:     chart.New(s.SensorCount()),
		cfg:       cfg,
		logger:    logger,
		series:    s.Series(),
		startTime: time.Now(),
		status:    "Press s to start the test.",
	}
	m.frame = m.chart.Frame()

	img, err := chart.NewImageRenderer()
	if err != nil {
		m.err = fmt.Errorf("chart export: %w", err)
	}
	m.images = img
	return m
}

// ── Commands ─────────────────────────────────────────────────────────

func waitForTick(events <-chan sampler.Tick) tea.Cmd {
	return func() tea.Msg {
		return tickMsg(<-events)
	}
}

// ── Init / Update ────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return waitForTick(m.sampler.Events())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.sampler.Stop()
			return m, tea.Quit
		case "s":
			if m.sampler.Start(m.ctx) {
				m.status = "Test started."
			} else {
				m.status = "Test is already running."
			}
		case "x":
			if m.sampler.Stop() {
				m.status = "Test stopped."
			} else {
				m.status = "Test is not running."
			}
		case "1", "2", "3", "4":
			n := int(msg.String()[0] - '0')
			if err := m.sampler.SetSensorCount(n); err != nil {
				m.err = err
				break
			}
			m.chart.Reset(n)
			m.redraw(m.sampler.Series())
			if m.selected >= n {
				m.selected = 0
			}
			m.status = fmt.Sprintf("%d sensors selected.", n)
		case "r":
			n := m.sampler.SensorCount()
			if err := m.sampler.Reset(n); err != nil {
				m.err = err
				break
			}
			m.chart.Reset(n)
			m.redraw(m.sampler.Series())
			m.status = "Chart cleared."
		case "tab":
			m.selected = (m.selected + 1) % m.sampler.SensorCount()
			if m.logOpen {
				m.loadLog()
			}
		case "l":
			m.logOpen = !m.logOpen
			if m.logOpen {
				m.loadLog()
			}
		case "e":
			m.export()
		case "up", "k":
			if m.scroll > 0 {
				m.scroll--
			}
		case "down", "j":
			m.scroll++
		case "home":
			m.scroll = 0
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		if msg.Gen != m.sampler.Gen() {
			return m, waitForTick(m.sampler.Events())
		}
		m.lastTick = msg.T
		m.ticks++
		m.redraw(msg.Series)
		if len(msg.Errors) > 0 {
			errs := make([]error, len(msg.Errors))
			for i, e := range msg.Errors {
				errs[i] = e
			}
			m.err = errors.Join(errs...)
		} else {
			m.err = nil
		}
		if m.logOpen {
			m.loadLog()
		}
		return m, waitForTick(m.sampler.Events())
	}

	return m, nil
}

func (m *Model) redraw(series history.Snapshot) {
	m.series = series
	m.frame = m.chart.Redraw(series.Points())
}

func (m *Model) loadLog() {
	text, err := m.sampler.LogText(m.selected)
	if err != nil {
		m.logger.Error().Err(err).Int("sensor", sensor.Number(m.selected)).Msg("log read failed")
		m.err = err
		return
	}
	m.logText = text
}

func (m *Model) export() {
	if m.images == nil {
		return
	}
	path := m.cfg.Chart.Output
	if err := m.images.SavePNG(path, m.frame, m.cfg.Chart.Width, m.cfg.Chart.Height); err != nil {
		m.logger.Error().Err(err).Str("path", path).Msg("chart export failed")
		m.err = err
		return
	}
	size := ""
	if info, err := os.Stat(path); err == nil {
		size = " (" + humanize.Bytes(uint64(info.Size())) + ")"
	}
	m.status = "Chart saved to " + path + size + "."
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
	colorOk       = lipgloss.Color("78")
	colorCrit     = lipgloss.Color("196")
	colorSelected = lipgloss.Color("214")
)

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}

	contentWidth := max(m.width-2, 40)

	var sections []string

	sections = append(sections, m.renderTitleBar(contentWidth))
	sections = append(sections, m.renderStatus(contentWidth))

	if m.err != nil {
		errBox := lipgloss.NewStyle().
			Foreground(colorCrit).
			Bold(true).
			Width(contentWidth).
			Padding(0, 1).
			Render(fmt.Sprintf(" ERROR: %v", m.err))
		sections = append(sections, errBox)
	}

	chartBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(contentWidth).
		Render(chart.RenderTUI(m.frame, contentWidth-4, chartHeight))
	sections = append(sections, chartBox)

	sections = append(sections, m.renderSensorPanel(contentWidth))

	if m.logOpen {
		sections = append(sections, m.renderLog(contentWidth))
	}

	sections = append(sections, m.renderFooter(contentWidth))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	lines := strings.Split(content, "\n")
	visibleLines := max(m.height, 5)
	maxScroll := max(len(lines)-visibleLines, 0)
	if m.scroll > maxScroll {
		m.scroll = maxScroll
	}

	start := m.scroll
	end := min(start+visibleLines, len(lines))

	return strings.Join(lines[start:end], "\n")
}

func (m Model) renderTitleBar(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("MODBUS DATA & TEST SCREEN")

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	statusParts := []string{
		dimS.Render(fmt.Sprintf("up %s", fmtDuration(time.Since(m.startTime)))),
		dimS.Render(fmt.Sprintf("%d sensors", m.sampler.SensorCount())),
	}

	if m.ticks > 0 {
		statusParts = append(statusParts, dimS.Render(fmt.Sprintf("t=%d", m.lastTick)))
	}

	if m.sampler.Running() {
		rec := lipgloss.NewStyle().Foreground(colorCrit).Bold(true).Render("REC") +
			dimS.Render(" "+m.cfg.DataDir)
		statusParts = append(statusParts, rec)
	} else {
		statusParts = append(statusParts, lipgloss.NewStyle().Foreground(colorDim).Bold(true).Render("STOPPED"))
	}

	sep := dimS.Render(" │ ")
	right := strings.Join(statusParts, sep)

	gap := max(width-lipgloss.Width(logo)-lipgloss.Width(right)-4, 1)
	filler := strings.Repeat(" ", gap)

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + filler + right)
}

func (m Model) renderStatus(width int) string {
	return lipgloss.NewStyle().
		Foreground(colorOk).
		Width(width).
		Padding(0, 1).
		Render(m.status)
}

func (m Model) renderSensorPanel(totalWidth int) string {
	innerWidth := max(totalWidth-4, 30)
	sparkWidth := min(max(innerWidth-60, 15), 140)

	labelW := 10
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	frameL := lipgloss.NewStyle().Foreground(colorBorder).Render("▕")
	frameR := lipgloss.NewStyle().Foreground(colorBorder).Render("▏")

	var rows []string
	for idx := 0; idx < m.sampler.SensorCount(); idx++ {
		c := chart.ColorFor(idx)

		marker := "  "
		labelStyle := lipgloss.NewStyle().Foreground(colorLabel).Width(labelW)
		if idx == m.selected {
			marker = lipgloss.NewStyle().Foreground(colorSelected).Render("▶ ")
			labelStyle = labelStyle.Bold(true)
		}
		label := marker + labelStyle.Render(sensor.Label(idx))

		s := m.series[idx]
		if s == nil || s.Len() == 0 {
			rows = append(rows, label+" "+dimS.Render("  --   ")+frameL+chart.RenderSparkline(nil, sparkWidth, 0, 0, c)+frameR)
			continue
		}

		last, _ := s.Last()
		pts := s.LastN(sparkWidth)
		spark := chart.RenderSparkline(pts, sparkWidth, sensor.MinTemp, sensor.MaxTemp, c)

		stats := dimS.Render(" avg") + valS.Render(fmt.Sprintf("%6.1f", s.Avg())) +
			dimS.Render(" lo") + valS.Render(fmt.Sprintf("%4d", s.Min)) +
			dimS.Render(" pk") + valS.Render(fmt.Sprintf("%4d", s.Peak)) +
			dimS.Render(" n") + valS.Render(humanize.Comma(int64(s.Len())))

		scale := chart.RenderRangeScale(last.Temp, s.Min, s.Peak, c, 12)

		rows = append(rows, label+" "+chart.RenderTempValue(last.Temp, c)+" "+frameL+spark+frameR+stats+" "+scale)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(totalWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderLog(width int) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(chart.ColorFor(m.selected).Term).
		Render(sensor.Label(m.selected) + " Log")

	text := m.logText
	lines := strings.Split(text, "\n")
	const maxLines = 12
	if len(lines) > maxLines+1 {
		// header plus the most recent rows
		lines = append(lines[:1], lines[len(lines)-maxLines:]...)
		text = strings.Join(lines, "\n")
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(width).
		Render(title + "\n" + lipgloss.NewStyle().Foreground(colorLabel).Render(text))
}

func (m Model) renderFooter(width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	keyS := lipgloss.NewStyle().Foreground(colorLabel)

	keys := dimS.Render("s") + keyS.Render(":start") +
		dimS.Render("  x") + keyS.Render(":stop") +
		dimS.Render("  1-4") + keyS.Render(":sensors") +
		dimS.Render("  tab") + keyS.Render(":select") +
		dimS.Render("  l") + keyS.Render(":log") +
		dimS.Render("  r") + keyS.Render(":clear") +
		dimS.Render("  e") + keyS.Render(":export") +
		dimS.Render("  q") + keyS.Render(":quit")

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(keys)
}

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
