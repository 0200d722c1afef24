package chart

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// braille dot bits indexed by [y][x] within a 2x4 cell.
var brailleBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

var (
	axisStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	gridStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	legendStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
)

type cell struct {
	dots  rune
	color int // line index + 1, 0 if empty
}

// canvas is a braille drawing surface, 2x4 dots per terminal cell.
type canvas struct {
	w, h  int // in cells
	cells [][]cell
}

func newCanvas(w, h int) *canvas {
	cells := make([][]cell, h)
	for i := range cells {
		cells[i] = make([]cell, w)
	}
	return &canvas{w: w, h: h, cells: cells}
}

func (c *canvas) set(x, y, color int) {
	if x < 0 || y < 0 || x >= c.w*2 || y >= c.h*4 {
		return
	}
	ce := &c.cells[y/4][x/2]
	ce.dots |= brailleBits[y%4][x%2]
	ce.color = color
}

// line draws a Bresenham segment in dot coordinates.
func (c *canvas) line(x0, y0, x1, y1, color int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.set(x0, y0, color)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// RenderTUI draws the frame as a braille line plot of the given outer
// size, with title, y-axis labels, x-axis labels and a legend.
func RenderTUI(f Frame, width, height int) string {
	yLabelW := max(len(strconv.Itoa(f.YMax)), len(strconv.Itoa(f.YMin)))
	plotW := max(width-yLabelW-2, 10)
	plotH := max(height-4, 3) // title, x axis, x labels, legend

	cv := newCanvas(plotW, plotH)
	dotW, dotH := plotW*2, plotH*4
	xSpan := float64(f.XMax - f.XMin)
	ySpan := float64(f.YMax - f.YMin)

	toDot := func(t, v int) (int, int) {
		x := int(float64(t-f.XMin) / xSpan * float64(dotW-1))
		y := dotH - 1 - int(float64(v-f.YMin)/ySpan*float64(dotH-1))
		return x, y
	}

	for li, l := range f.Lines {
		px, py := -1, -1
		for _, p := range l.Points {
			x, y := toDot(p.Time, p.Temp)
			if px < 0 {
				cv.set(x, y, li+1)
			} else {
				cv.line(px, py, x, y, li+1)
			}
			px, py = x, y
		}
	}

	lineStyles := make([]lipgloss.Style, len(f.Lines))
	for i, l := range f.Lines {
		lineStyles[i] = lipgloss.NewStyle().Foreground(l.Color.Term)
	}

	var rows []string
	rows = append(rows, strings.Repeat(" ", yLabelW+2)+titleStyle.Render(f.Title))

	for row := 0; row < plotH; row++ {
		var sb strings.Builder
		label := ""
		switch row {
		case 0:
			label = strconv.Itoa(f.YMax)
		case plotH - 1:
			label = strconv.Itoa(f.YMin)
		case plotH / 2:
			label = strconv.Itoa((f.YMin + f.YMax) / 2)
		}
		sb.WriteString(axisStyle.Render(pad(label, yLabelW) + " ┤"))

		gridRow := f.Grid && (row == plotH/2 || row == plotH/4 || row == 3*plotH/4)
		for col := 0; col < plotW; col++ {
			ce := cv.cells[row][col]
			switch {
			case ce.dots != 0:
				sb.WriteString(lineStyles[ce.color-1].Render(string(0x2800 + ce.dots)))
			case gridRow || (f.Grid && col > 0 && col%(max(plotW/4, 1)) == 0):
				sb.WriteString(gridStyle.Render("·"))
			default:
				sb.WriteByte(' ')
			}
		}
		rows = append(rows, sb.String())
	}

	rows = append(rows, axisStyle.Render(strings.Repeat(" ", yLabelW+1)+"└"+strings.Repeat("─", plotW)))

	xMin, xMax := strconv.Itoa(f.XMin), strconv.Itoa(f.XMax)
	gap := max(plotW-len(xMin)-len(xMax)-len(f.XLabel), 2)
	left := gap / 2
	rows = append(rows, axisStyle.Render(strings.Repeat(" ", yLabelW+2)+xMin+
		strings.Repeat(" ", left)+f.XLabel+strings.Repeat(" ", gap-left)+xMax))

	rows = append(rows, renderLegend(f, yLabelW+2))

	return strings.Join(rows, "\n")
}

func renderLegend(f Frame, indent int) string {
	if len(f.Lines) == 0 {
		return strings.Repeat(" ", indent) + axisStyle.Render("no data")
	}
	parts := make([]string, 0, len(f.Lines))
	for _, l := range f.Lines {
		mark := lipgloss.NewStyle().Foreground(l.Color.Term).Render("━━")
		parts = append(parts, mark+" "+legendStyle.Render(l.Label))
	}
	return strings.Repeat(" ", indent) + strings.Join(parts, "   ")
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return strings.Repeat(" ", w-len(s)) + s
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
