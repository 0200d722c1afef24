package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/modbusmon/internal/sensor"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// tickEvery is the tick spacing of the timeline marks.
const tickEvery = 10

var (
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	tickStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
)

// RenderSparkline renders the last width readings as colored blocks, one
// per reading. Tick marks belong to RenderTimeline.
func RenderSparkline(points []sensor.Reading, width int, rangeMin, rangeMax int, c Color) string {
	if width <= 0 {
		return ""
	}

	if len(points) == 0 {
		return dimStyle.Render(strings.Repeat("╌", width))
	}

	if len(points) > width {
		points = points[len(points)-width:]
	}

	padLen := width - len(points)
	span := float64(rangeMax - rangeMin)
	if span <= 0 {
		span = 1
	}

	var sb strings.Builder
	sb.WriteString(dimStyle.Render(strings.Repeat("╌", padLen)))

	style := lipgloss.NewStyle().Foreground(c.Term)
	for _, p := range points {
		norm := float64(p.Temp-rangeMin) / span
		norm = math.Max(0, math.Min(1, norm))
		idx := min(int(norm*7), 7)
		sb.WriteString(style.Render(string(sparkBlocks[idx])))
	}

	return sb.String()
}

// RenderTimeline renders tick numbers under a sparkline at each mark.
func RenderTimeline(points []sensor.Reading, width int) string {
	if len(points) == 0 || width <= 0 {
		return ""
	}

	if len(points) > width {
		points = points[len(points)-width:]
	}

	padLen := width - len(points)

	line := make([]rune, width)
	for i := range line {
		line[i] = ' '
	}

	lastEnd := -1
	for i, p := range points {
		if p.Time == 0 || p.Time%tickEvery != 0 {
			continue
		}
		label := strconv.Itoa(p.Time)
		start := max(padLen+i-len(label)/2, 0)
		end := start + len(label)
		if end > width || start <= lastEnd+1 {
			continue
		}
		for j, ch := range label {
			line[start+j] = ch
		}
		lastEnd = end
	}

	return tickStyle.Render(string(line))
}

// RenderRangeScale renders a scale bar marking where current sits between
// the series minimum and peak.
func RenderRangeScale(current, lo, peak int, c Color, width int) string {
	if width <= 0 {
		return ""
	}

	span := float64(peak - lo)
	if span <= 0 {
		span = 1
	}

	curPos := int(float64(width-1) * float64(current-lo) / span)
	curPos = max(0, min(curPos, width-1))

	var sb strings.Builder
	for i := 0; i < width; i++ {
		if i == curPos {
			sb.WriteString(lipgloss.NewStyle().Foreground(c.Term).Bold(true).Render("◆"))
		} else {
			sb.WriteString(dimStyle.Render("·"))
		}
	}
	return sb.String()
}

// RenderTempValue renders a temperature in the sensor's color.
func RenderTempValue(temp int, c Color) string {
	return lipgloss.NewStyle().Foreground(c.Term).Render(fmt.Sprintf("%3d°C", temp))
}
