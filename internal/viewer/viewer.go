// Package viewer implements the read-only browser for today's sensor logs
// with row scrubbing and sparkline windows.
package viewer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/luki/modbusmon/internal/chart"
	"github.com/luki/modbusmon/internal/sensor"
	"github.com/luki/modbusmon/internal/store"
)

// ErrNoLogs is returned when the data directory has no logs for the day.
var ErrNoLogs = errors.New("no sensor logs for today")

// Run launches the log viewer for the given day.
func Run(dir string, day time.Time) error {
	m, err := initModel(dir, day)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
	colorCrit     = lipgloss.Color("196")
	colorCursor   = lipgloss.Color("214")
)

// ── Model ────────────────────────────────────────────────────────────

type model struct {
	dir     string
	day     time.Time
	sensors []int                    // sensor indexes with a log
	series  map[int][]sensor.Reading // sensor index -> rows in file order
	rows    int                      // longest log
	cursor  int                      // row cursor
	scroll  int
	width   int
	height  int
	err     error
}

func initModel(dir string, day time.Time) (model, error) {
	m := model{dir: dir, day: day}
	if err := m.load(); err != nil {
		return m, err
	}
	if len(m.sensors) == 0 {
		return m, fmt.Errorf("%w in %s", ErrNoLogs, dir)
	}
	m.cursor = m.rows - 1
	return m, nil
}

func (m *model) load() error {
	files, err := store.ListFiles(m.dir, m.day)
	if err != nil {
		return err
	}

	m.series = make(map[int][]sensor.Reading, len(files))
	m.sensors = m.sensors[:0]
	m.rows = 0
	m.err = nil
	for _, idx := range store.SortedIndexes(files) {
		rows, err := store.LoadFile(files[idx])
		if err != nil {
			m.err = fmt.Errorf("%s: %w", sensor.Label(idx), err)
			continue
		}
		m.sensors = append(m.sensors, idx)
		m.series[idx] = rows
		m.rows = max(m.rows, len(rows))
	}
	if m.cursor >= m.rows {
		m.cursor = max(m.rows-1, 0)
	}
	return nil
}

// ── Init / Update ────────────────────────────────────────────────────

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "left", "h":
			if m.cursor > 0 {
				m.cursor--
			}
		case "right", "l":
			if m.cursor < m.rows-1 {
				m.cursor++
			}
		case "shift+left", "H":
			m.cursor = max(m.cursor-60, 0)
		case "shift+right", "L":
			m.cursor = max(min(m.cursor+60, m.rows-1), 0)
		case "home":
			m.cursor = 0
		case "end":
			m.cursor = max(m.rows-1, 0)

		case "r":
			if err := m.load(); err != nil {
				m.err = err
			}

		case "up", "k":
			if m.scroll > 0 {
				m.scroll--
			}
		case "down", "j":
			m.scroll++
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// ── View ─────────────────────────────────────────────────────────────

func (m model) View() string {
	if m.width == 0 {
		return "  Loading..."
	}

	contentWidth := max(m.width-2, 40)

	var sections []string

	sections = append(sections, m.renderTitle(contentWidth))

	if m.err != nil {
		errBox := lipgloss.NewStyle().
			Foreground(colorCrit).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("ERROR: %v", m.err))
		sections = append(sections, errBox)
	}

	if m.rows == 0 {
		empty := lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(2, 0).
			Align(lipgloss.Center).
			Width(contentWidth).
			Render(store.NoLogText)
		sections = append(sections, empty)
	} else {
		sections = append(sections, m.renderCursorInfo(contentWidth))
		sections = append(sections, m.renderPanel(contentWidth))
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

func (m model) renderTitle(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("SENSOR LOGS")

	dayText := lipgloss.NewStyle().
		Foreground(colorCursor).
		Bold(true).
		Render(m.day.Format("2006-01-02"))

	dataInfo := lipgloss.NewStyle().
		Foreground(colorDim).
		Render(fmt.Sprintf("  %d rows, %d sensors  %s", m.rows, len(m.sensors), m.dir))

	right := dayText + dataInfo

	gap := max(width-lipgloss.Width(logo)-lipgloss.Width(right)-4, 1)
	filler := strings.Repeat(" ", gap)

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + filler + right)
}

func (m model) renderCursorInfo(width int) string {
	row := lipgloss.NewStyle().
		Foreground(colorCursor).
		Bold(true).
		Render(fmt.Sprintf("row %d", m.cursor))

	pos := lipgloss.NewStyle().
		Foreground(colorDim).
		Render(fmt.Sprintf("  %d/%d", m.cursor+1, m.rows))

	barWidth := max(width-30, 10)

	return lipgloss.NewStyle().
		Padding(0, 1).
		Render("  " + row + pos + "  " + m.renderScrubber(barWidth))
}

func (m model) renderScrubber(width int) string {
	if m.rows == 0 || width <= 0 {
		return ""
	}

	pos := 0
	if m.rows > 1 {
		pos = m.cursor * (width - 1) / (m.rows - 1)
	}
	pos = min(pos, width-1)

	dimS := lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	curS := lipgloss.NewStyle().Foreground(colorCursor).Bold(true)

	return dimS.Render(strings.Repeat("─", pos)) +
		curS.Render("◆") +
		dimS.Render(strings.Repeat("─", width-pos-1))
}

func (m model) renderPanel(totalWidth int) string {
	innerWidth := max(totalWidth-4, 30)
	sparkWidth := min(max(innerWidth-60, 15), 140)

	labelW := 10
	valW := 8

	var rows []string

	colLabel := lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Width(labelW).Render("sensor")
	colVal := lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Width(valW).Align(lipgloss.Right).Render("value")
	colHist := lipgloss.NewStyle().Foreground(lipgloss.Color("237")).Render(strings.Repeat(" ", max(sparkWidth/2-3, 0)) + "history")
	rows = append(rows, colLabel+" "+colVal+"  "+colHist)
	rows = append(rows, lipgloss.NewStyle().Foreground(lipgloss.Color("237")).Render(strings.Repeat("─", innerWidth)))

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	frameL := lipgloss.NewStyle().Foreground(colorBorder).Render("▕")
	frameR := lipgloss.NewStyle().Foreground(colorBorder).Render("▏")

	for _, idx := range m.sensors {
		pts := m.series[idx]
		if len(pts) == 0 {
			continue
		}
		c := chart.ColorFor(idx)

		cur := min(m.cursor, len(pts)-1)
		window := pts[max(cur+1-sparkWidth, 0) : cur+1]

		lo, pk, sum := pts[0].Temp, pts[0].Temp, 0
		for _, p := range pts {
			lo = min(lo, p.Temp)
			pk = max(pk, p.Temp)
			sum += p.Temp
		}
		avg := float64(sum) / float64(len(pts))

		label := lipgloss.NewStyle().
			Foreground(colorLabel).
			Bold(true).
			Width(labelW).
			Render(sensor.Label(idx))

		val := lipgloss.NewStyle().
			Width(valW).
			Align(lipgloss.Right).
			Render(chart.RenderTempValue(pts[cur].Temp, c))

		spark := chart.RenderSparkline(window, sparkWidth, sensor.MinTemp, sensor.MaxTemp, c)

		stats := dimS.Render("t") + valS.Render(fmt.Sprintf("%5d", pts[cur].Time)) +
			dimS.Render(" avg") + valS.Render(fmt.Sprintf("%6.1f", avg)) +
			dimS.Render(" lo") + valS.Render(fmt.Sprintf("%4d", lo)) +
			dimS.Render(" pk") + valS.Render(fmt.Sprintf("%4d", pk))

		rows = append(rows, label+" "+val+" "+frameL+spark+frameR+" "+stats)

		timeline := chart.RenderTimeline(window, sparkWidth)
		if strings.TrimSpace(timeline) != "" {
			rows = append(rows, strings.Repeat(" ", labelW+valW+2)+" "+timeline)
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(totalWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m model) renderFooter(width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	keyS := lipgloss.NewStyle().Foreground(colorLabel)

	keys := dimS.Render("q") + keyS.Render(":quit") +
		dimS.Render("  h/l") + keyS.Render(":scrub") +
		dimS.Render("  H/L") + keyS.Render(":skip 60") +
		dimS.Render("  home/end") + keyS.Render(":jump") +
		dimS.Render("  r") + keyS.Render(":reload") +
		dimS.Render("  j/k") + keyS.Render(":scroll")

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(keys)
}
