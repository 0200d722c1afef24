package chart

import (
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luki/modbusmon/internal/sensor"
)

func readings(temps ...int) []sensor.Reading {
	out := make([]sensor.Reading, len(temps))
	for i, v := range temps {
		out[i] = sensor.Reading{Time: i, Temp: v}
	}
	return out
}

func TestRedrawOneLinePerNonEmptySeries(t *testing.T) {
	c := New(3)
	f := c.Redraw(map[int][]sensor.Reading{
		0: readings(120, 130),
		1: nil,
		2: readings(400),
	})

	require.Len(t, f.Lines, 2)
	assert.Equal(t, 0, f.Lines[0].Sensor)
	assert.Equal(t, "Sensor 1", f.Lines[0].Label)
	assert.Equal(t, 2, f.Lines[1].Sensor)
	assert.Equal(t, "Sensor 3", f.Lines[1].Label)
	assert.Equal(t, Title, f.Title)
	assert.Equal(t, XLabel, f.XLabel)
	assert.True(t, f.Grid)
	assert.Equal(t, 3, f.Points())
}

func TestRedrawReplacesPreviousFrame(t *testing.T) {
	c := New(2)
	first := c.Redraw(map[int][]sensor.Reading{0: readings(100, 200), 1: readings(300)})
	second := c.Redraw(map[int][]sensor.Reading{1: readings(150)})

	require.Len(t, second.Lines, 1)
	assert.Equal(t, 1, second.Lines[0].Sensor)
	assert.Greater(t, second.Seq, first.Seq)
	assert.Equal(t, second, c.Frame())
}

func TestRedrawCopiesPoints(t *testing.T) {
	src := readings(100, 200)
	f := New(1).Redraw(map[int][]sensor.Reading{0: src})
	src[0].Temp = 499
	assert.Equal(t, 100, f.Lines[0].Points[0].Temp)
}

func TestResetClearsFrame(t *testing.T) {
	c := New(2)
	c.Redraw(map[int][]sensor.Reading{0: readings(100)})
	c.Reset(4)

	assert.Equal(t, 4, c.Sensors())
	assert.Empty(t, c.Frame().Lines)
}

func TestColorsCycle(t *testing.T) {
	assert.Equal(t, "cyan", ColorFor(0).Name)
	assert.Equal(t, "lime", ColorFor(3).Name)
	assert.Equal(t, ColorFor(0), ColorFor(len(Palette)))
	assert.Equal(t, ColorFor(1), ColorFor(len(Palette)+1))
}

func TestFrameBounds(t *testing.T) {
	f := BuildFrame(map[int][]sensor.Reading{
		0: {{Time: 3, Temp: 150}, {Time: 4, Temp: 450}},
		1: {{Time: 5, Temp: 120}},
	})
	assert.Equal(t, 3, f.XMin)
	assert.Equal(t, 5, f.XMax)
	assert.Equal(t, 120, f.YMin)
	assert.Equal(t, 450, f.YMax)

	single := BuildFrame(map[int][]sensor.Reading{0: {{Time: 0, Temp: 200}}})
	assert.Less(t, single.XMin, single.XMax)
	assert.Less(t, single.YMin, single.YMax)
}

func TestRenderTUI(t *testing.T) {
	f := BuildFrame(map[int][]sensor.Reading{0: readings(100, 300, 499), 1: readings(250, 260)})
	out := RenderTUI(f, 60, 16)

	assert.Contains(t, out, Title)
	assert.Contains(t, out, "Sensor 1")
	assert.Contains(t, out, "Sensor 2")
	assert.Contains(t, out, XLabel)
	assert.Len(t, strings.Split(out, "\n"), 16)
}

func TestRenderTUIEmpty(t *testing.T) {
	out := RenderTUI(New(1).Frame(), 40, 10)
	assert.Contains(t, out, "no data")
}

func TestSparkline(t *testing.T) {
	result := RenderSparkline(readings(100, 150, 200, 300, 400, 499), 20, 100, 500, ColorFor(0))
	if len(result) == 0 {
		t.Error("sparkline should not be empty")
	}
	t.Logf("Sparkline: %s", result)
}

func TestSparklineKeepsEveryReading(t *testing.T) {
	var pts []sensor.Reading
	for i := 0; i < 25; i++ {
		pts = append(pts, sensor.Reading{Time: i, Temp: 200 + i})
	}
	result := RenderSparkline(pts, 30, 100, 500, ColorFor(1))
	if strings.Contains(result, "│") {
		t.Error("sparkline must not replace readings with tick marks")
	}
	if n := strings.Count(result, "╌"); n != 5 {
		t.Errorf("expected 5 padding cells, got %d", n)
	}
	blocks := 0
	for _, r := range result {
		if slices.Contains(sparkBlocks, r) {
			blocks++
		}
	}
	if blocks != len(pts) {
		t.Errorf("expected %d blocks, got %d", len(pts), blocks)
	}
	timeline := RenderTimeline(pts, 30)
	if !strings.Contains(timeline, "10") || !strings.Contains(timeline, "20") {
		t.Errorf("expected tick labels in timeline: %q", timeline)
	}
}

func TestRenderPNG(t *testing.T) {
	r, err := NewImageRenderer()
	require.NoError(t, err)

	f := BuildFrame(map[int][]sensor.Reading{0: readings(100, 300, 499), 2: readings(250)})
	img, err := r.Render(f, 640, 400)
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())

	path := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, r.SavePNG(path, f, 640, 400))
	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	cfg, err := png.DecodeConfig(fh)
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 400, cfg.Height)

	_, err = r.Render(f, 100, 100)
	assert.Error(t, err)
}

func TestPlotFollowsFrame(t *testing.T) {
	r, err := NewImageRenderer()
	require.NoError(t, err)

	f := BuildFrame(map[int][]sensor.Reading{0: readings(120, 480), 1: readings(200, 210)})
	p, err := r.Plot(f)
	require.NoError(t, err)

	assert.Equal(t, Title, p.Title.Text)
	assert.Equal(t, XLabel, p.X.Label.Text)
	assert.Equal(t, YLabel, p.Y.Label.Text)
	assert.Equal(t, float64(f.XMin), p.X.Min)
	assert.Equal(t, float64(f.XMax), p.X.Max)
	assert.Equal(t, float64(f.YMin), p.Y.Min)
	assert.Equal(t, float64(f.YMax), p.Y.Max)
	assert.Equal(t, "Go", p.Title.TextStyle.Font.Typeface)
}

func TestPlotEmptyFrame(t *testing.T) {
	r, err := NewImageRenderer()
	require.NoError(t, err)

	img, err := r.Render(New(2).Frame(), 320, 200)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
}
