// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/pdiddy/ci-report/internal/textfmt"
)

// pointsPerHundredth converts the configured font sizes, given in
// hundredths of an inch, to points.
const pointsPerHundredth = 0.72

func fontSize(hundredths float64) vg.Length {
	return vg.Points(hundredths * pointsPerHundredth)
}

// build assembles the gonum plot of the report.
func (r *Report) build() (*plot.Plot, error) {
	if len(r.series) == 0 {
		return nil, fmt.Errorf("report has no data: call Plot first")
	}
	fs := r.cfg.FontSizes
	width, _ := r.cfg.PaperSize()

	p := plot.New()

	var title []string
	if r.headerTitle != "" {
		title = append(title, r.headerTitle)
	}
	if h := r.headerText(); h != "" {
		title = append(title, h)
	}
	if r.title != "" {
		title = append(title, "", r.title)
	}
	p.Title.Text = strings.Join(title, textfmt.LineBreak)
	p.Title.TextStyle.Font.Size = fontSize(fs.Annotations)
	p.Title.Padding = vg.Points(8)

	p.Y.Label.Text = "% OF CLASS"
	p.Y.Label.TextStyle.Font.Size = fontSize(fs.YAxisTitle)
	p.Y.Tick.Label.Font.Size = fontSize(fs.AxisLabels)
	p.Y.Min, p.Y.Max = 0, 100

	p.NominalX(r.plotLabels...)
	p.X.Tick.Label.Font.Size = fontSize(fs.AxisLabels)
	if r.binRanges != "" {
		p.X.Label.Text = r.binRanges
		p.X.Label.TextStyle.Font.Size = fontSize(fs.Annotations)
		p.X.Label.Padding = vg.Points(10)
	}

	n := len(r.series)
	group := vg.Length(width) * vg.Inch * 0.8 / vg.Length(len(r.plotLabels))
	barWidth := group * 0.8 / vg.Length(n)

	if r.cfg.AddLegend {
		p.Legend.Top = true
		p.Legend.TextStyle.Font.Size = fontSize(fs.LegendText)
	}

	for i, s := range r.series {
		bars, err := plotter.NewBarChart(plotter.Values(s.Percents), barWidth)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Name, err)
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = 0
		bars.Offset = vg.Length(float64(i)-float64(n-1)/2) * barWidth
		p.Add(bars)
		if r.cfg.AddLegend {
			p.Legend.Add(s.Name, bars)
		}

		if !r.cfg.AddPercents {
			continue
		}
		xys := make(plotter.XYs, len(s.Percents))
		for j, v := range s.Percents {
			xys[j] = plotter.XY{X: float64(j), Y: v}
		}
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: textfmt.FormatPercents(s.Percents)})
		if err != nil {
			return nil, fmt.Errorf("series %q labels: %w", s.Name, err)
		}
		for j := range labels.TextStyle {
			labels.TextStyle[j].XAlign = text.XCenter
			labels.TextStyle[j].Font.Size = fontSize(fs.BarCounts)
		}
		labels.Offset = vg.Point{X: bars.Offset, Y: vg.Points(2)}
		p.Add(labels)
	}
	return p, nil
}

// Save renders the report to path. An empty format uses the configured
// one. Raster formats honor the configured DPI. The file is written to a
// temporary name first and renamed into place.
func (r *Report) Save(path, format string) error {
	if format == "" {
		format = r.cfg.Format
	}
	format = strings.ToLower(format)

	p, err := r.build()
	if err != nil {
		return err
	}

	w, h := r.cfg.PaperSize()
	wt, err := r.canvas(p, vg.Length(w)*vg.Inch, vg.Length(h)*vg.Inch, format)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}

func (r *Report) canvas(p *plot.Plot, w, h vg.Length, format string) (io.WriterTo, error) {
	switch format {
	case "png", "jpg", "jpeg", "tif", "tiff":
		c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(int(r.cfg.DPI)))
		p.Draw(draw.New(c))
		switch format {
		case "png":
			return vgimg.PngCanvas{Canvas: c}, nil
		case "jpg", "jpeg":
			return vgimg.JpegCanvas{Canvas: c}, nil
		default:
			return vgimg.TiffCanvas{Canvas: c}, nil
		}
	case "pdf", "svg", "eps":
		wt, err := p.WriterTo(w, h, format)
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", format, err)
		}
		return wt, nil
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}
