// Package chart keeps the per-sensor line chart state and renders it to the
// terminal (braille plot, sparklines) or to a PNG image.
//
// Every redraw rebuilds the frame from the complete series, so its cost is
// O(total points). That is fine for the short runs the monitor is meant for;
// long runs should cap the series capacity.
package chart

import (
	"image/color"
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/modbusmon/internal/sensor"
)

const (
	Title  = "Transmitter Temperature"
	XLabel = "Time (s)"
	YLabel = "Temperature"
)

// Color is a palette entry usable by both renderers.
type Color struct {
	Name string
	RGBA color.RGBA
	Term lipgloss.Color
}

// Palette is cycled by sensor index.
var Palette = []Color{
	{Name: "cyan", RGBA: color.RGBA{0, 200, 220, 255}, Term: lipgloss.Color("51")},
	{Name: "magenta", RGBA: color.RGBA{220, 0, 220, 255}, Term: lipgloss.Color("201")},
	{Name: "orange", RGBA: color.RGBA{255, 165, 0, 255}, Term: lipgloss.Color("214")},
	{Name: "lime", RGBA: color.RGBA{50, 205, 50, 255}, Term: lipgloss.Color("46")},
}

// ColorFor returns the color assigned to a sensor index.
func ColorFor(idx int) Color {
	return Palette[idx%len(Palette)]
}

// Line is one sensor's plotted series.
type Line struct {
	Sensor int
	Label  string
	Color  Color
	Points []sensor.Reading
}

// Frame is a fully built chart, ready to render.
type Frame struct {
	Seq    uint64
	Title  string
	XLabel string
	YLabel string
	Grid   bool
	Lines  []Line
	XMin   int
	XMax   int
	YMin   int
	YMax   int
}

// Points returns the total number of plotted points.
func (f Frame) Points() int {
	n := 0
	for _, l := range f.Lines {
		n += len(l.Points)
	}
	return n
}

// Chart owns the current frame. Reset and Redraw replace it wholesale;
// nothing from a previous frame survives into the next one.
type Chart struct {
	mu      sync.Mutex
	sensors int
	seq     uint64
	frame   Frame
}

// New creates a chart for n sensors.
func New(n int) *Chart {
	c := &Chart{}
	c.Reset(n)
	return c
}

// Reset discards the current frame and sets the sensor count.
func (c *Chart) Reset(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sensors = n
	c.seq++
	c.frame = emptyFrame(c.seq)
}

// Sensors returns the sensor count set by the last Reset.
func (c *Chart) Sensors() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sensors
}

// Frame returns the current frame.
func (c *Chart) Frame() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// Redraw builds a new frame from the full series of every sensor. Sensors
// without readings get no line.
func (c *Chart) Redraw(series map[int][]sensor.Reading) Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.frame = BuildFrame(series)
	c.frame.Seq = c.seq
	return c.frame
}

// BuildFrame builds a frame from series without touching any chart state.
func BuildFrame(series map[int][]sensor.Reading) Frame {
	f := emptyFrame(0)

	keys := make([]int, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	first := true
	for _, idx := range keys {
		pts := series[idx]
		if len(pts) == 0 {
			continue
		}
		cp := make([]sensor.Reading, len(pts))
		copy(cp, pts)
		f.Lines = append(f.Lines, Line{
			Sensor: idx,
			Label:  sensor.Label(idx),
			Color:  ColorFor(idx),
			Points: cp,
		})

		for _, p := range pts {
			if first {
				f.XMin, f.XMax, f.YMin, f.YMax = p.Time, p.Time, p.Temp, p.Temp
				first = false
				continue
			}
			f.XMin = min(f.XMin, p.Time)
			f.XMax = max(f.XMax, p.Time)
			f.YMin = min(f.YMin, p.Temp)
			f.YMax = max(f.YMax, p.Temp)
		}
	}

	if f.XMax == f.XMin {
		f.XMax = f.XMin + 1
	}
	if f.YMax == f.YMin {
		f.YMin -= 5
		f.YMax += 5
	}
	return f
}

func emptyFrame(seq uint64) Frame {
	return Frame{
		Seq:    seq,
		Title:  Title,
		XLabel: XLabel,
		YLabel: YLabel,
		Grid:   true,
		XMin:   0,
		XMax:   10,
		YMin:   sensor.MinTemp,
		YMax:   sensor.MaxTemp,
	}
}
