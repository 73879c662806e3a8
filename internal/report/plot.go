package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"
	"image/png"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	phantomimg "github.com/ironsheep/phantom-qa-mcp/internal/imaging"
)

// DistancePlot renders adjacent fiducial distances as a bar chart, one bar
// per pair in row order. A positive nominalMM adds a dashed reference line at
// the expected spacing.
func DistancePlot(distances []float64, nominalMM float64, title string) (*phantomimg.PNGResult, error) {
	if len(distances) == 0 {
		return nil, fmt.Errorf("no distances to plot")
	}

	p := plot.New()
	if title == "" {
		title = "Fiducial spacing"
	}
	p.Title.Text = title
	p.X.Label.Text = "Fiducial pair"
	p.Y.Label.Text = "Distance (mm)"
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(plotter.Values(distances), vg.Points(18))
	if err != nil {
		return nil, fmt.Errorf("failed to create bar chart: %w", err)
	}
	bars.Color = color.RGBA{R: 0, G: 160, B: 200, A: 255}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	names := make([]string, len(distances))
	for i := range distances {
		names[i] = strconv.Itoa(i) + "-" + strconv.Itoa(i+1)
	}
	p.NominalX(names...)

	if nominalMM > 0 {
		ref := plotter.NewFunction(func(float64) float64 { return nominalMM })
		ref.Color = color.RGBA{R: 220, A: 255}
		ref.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		ref.Width = vg.Points(1)
		p.Add(ref)
		p.Legend.Add(fmt.Sprintf("nominal %.1f mm", nominalMM), ref)
		p.Legend.Top = true
	}

	wt, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to render plot: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode plot: %w", err)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("failed to read plot size: %w", err)
	}

	return &phantomimg.PNGResult{
		Width:       cfg.Width,
		Height:      cfg.Height,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
