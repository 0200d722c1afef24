package chart

import (
	"fmt"
	"image"
	"sync"

	"github.com/dustin/go-humanize"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	// dpi matches vgimg's default so Render and SavePNG produce the same
	// pixel size.
	dpi = vgimg.DefaultDPI

	minWidth  = 200
	minHeight = 150
)

var (
	goFont   = font.Font{Typeface: "Go"}
	fontOnce sync.Once
	fontErr  error
)

// useGoFont registers the embedded Go font with the plot font cache and
// makes it the default for titles, labels, ticks and the legend.
func useGoFont() error {
	fontOnce.Do(func() {
		ttf, err := opentype.Parse(goregular.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parsing font: %w", err)
			return
		}
		font.DefaultCache.Add([]font.Face{{Font: goFont, Face: ttf}})
		plot.DefaultFont = goFont
		plotter.DefaultFont = goFont
	})
	return fontErr
}

// ImageRenderer draws frames as line plots.
type ImageRenderer struct{}

// NewImageRenderer prepares the fonts used for every plot.
func NewImageRenderer() (*ImageRenderer, error) {
	if err := useGoFont(); err != nil {
		return nil, err
	}
	return &ImageRenderer{}, nil
}

// Plot converts a frame into a plot: one colored line per sensor, the
// frame's title, axis labels and bounds, an optional grid and a legend
// closed by the total point count.
func (r *ImageRenderer) Plot(f Frame) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = f.XLabel
	p.Y.Label.Text = f.YLabel
	p.Legend.Top = true

	if f.Grid {
		p.Add(plotter.NewGrid())
	}

	for _, l := range f.Lines {
		xys := make(plotter.XYs, len(l.Points))
		for i, pt := range l.Points {
			xys[i].X = float64(pt.Time)
			xys[i].Y = float64(pt.Temp)
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", l.Label, err)
		}
		line.LineStyle.Color = l.Color.RGBA
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(l.Label, line)
	}
	p.Legend.Add(fmt.Sprintf("%s points", humanize.Comma(int64(f.Points()))))

	p.X.Min, p.X.Max = float64(f.XMin), float64(f.XMax)
	p.Y.Min, p.Y.Max = float64(f.YMin), float64(f.YMax)
	return p, nil
}

// Render draws the frame onto a width x height pixel image.
func (r *ImageRenderer) Render(f Frame, width, height int) (image.Image, error) {
	w, h, err := size(width, height)
	if err != nil {
		return nil, err
	}
	p, err := r.Plot(f)
	if err != nil {
		return nil, err
	}
	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(dpi))
	p.Draw(draw.New(c))
	return c.Image(), nil
}

// SavePNG renders the frame and writes it to path. The format follows the
// file extension.
func (r *ImageRenderer) SavePNG(path string, f Frame, width, height int) error {
	w, h, err := size(width, height)
	if err != nil {
		return err
	}
	p, err := r.Plot(f)
	if err != nil {
		return err
	}
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// size converts pixels to plot lengths at dpi.
func size(width, height int) (vg.Length, vg.Length, error) {
	if width < minWidth || height < minHeight {
		return 0, 0, fmt.Errorf("image too small: %dx%d", width, height)
	}
	return vg.Length(width) * vg.Inch / dpi, vg.Length(height) * vg.Inch / dpi, nil
}
