package report

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// TrendPoint is one stored run reduced to the values plotted over time.
type TrendPoint struct {
	Time   time.Time
	MeanMM float64
	// SNR and CNR are NaN when the run had no SNR measurement.
	SNR float64
	CNR float64
}

// TrendPage renders an HTML line chart of mean fiducial spacing, SNR and CNR
// across runs of one profile. Points are plotted in the order given.
func TrendPage(profileName string, points []TrendPoint) ([]byte, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no runs to plot for profile %q", profileName)
	}

	x := make([]string, len(points))
	mean := make([]opts.LineData, len(points))
	snr := make([]opts.LineData, len(points))
	cnr := make([]opts.LineData, len(points))
	for i, p := range points {
		x[i] = p.Time.UTC().Format("2006-01-02 15:04")
		mean[i] = opts.LineData{Value: p.MeanMM}
		snr[i] = lineValue(p.SNR)
		cnr[i] = lineValue(p.CNR)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Phantom QA trend", Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Phantom QA: " + profileName, Subtitle: fmt.Sprintf("runs=%d", len(points))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "value"}),
	)
	line.SetXAxis(x).
		AddSeries("mean spacing (mm)", mean).
		AddSeries("SNR", snr).
		AddSeries("CNR", cnr)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render trend page: %w", err)
	}
	return buf.Bytes(), nil
}

// lineValue maps NaN to "-", which echarts draws as a gap.
func lineValue(v float64) opts.LineData {
	if math.IsNaN(v) {
		return opts.LineData{Value: "-"}
	}
	return opts.LineData{Value: v}
}
