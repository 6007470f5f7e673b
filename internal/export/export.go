// Package export writes the current heart-rate window to disk as a CSV
// snapshot and an interactive HTML line chart.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cli/browser"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/luki/cardiodash/internal/series"
	"github.com/luki/cardiodash/internal/store"
)

// Result holds the paths written by Snapshot.
type Result struct {
	CSV  string
	HTML string
}

// Snapshot writes samples for a patient into dir, creating it if needed.
func Snapshot(dir, patientID string, samples []series.Sample, now time.Time) (Result, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Result{}, fmt.Errorf("cannot create export dir: %w", err)
	}

	csvPath := filepath.Join(dir, store.FileName(patientID, now))
	if err := store.WriteFile(csvPath, samples); err != nil {
		return Result{}, fmt.Errorf("write csv: %w", err)
	}

	htmlPath := strings.TrimSuffix(csvPath, ".csv") + ".html"
	if err := WriteHTML(htmlPath, patientID, samples); err != nil {
		return Result{}, fmt.Errorf("write html: %w", err)
	}

	return Result{CSV: csvPath, HTML: htmlPath}, nil
}

// BuildChart creates the line chart for samples on the fixed lpm axis with
// the Low and High thresholds marked.
func BuildChart(patientID string, samples []series.Sample) *charts.Line {
	line := charts.NewLine()

	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Heart rate - patient " + patientID,
			Theme:     "macarons",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Heart rate",
			Subtitle: fmt.Sprintf("Patient %s, last %d readings", patientID, len(samples)),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Time",
			AxisLabel: &opts.AxisLabel{
				Rotate: 45,
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:         "lpm",
			NameLocation: "middle",
			NameGap:      40,
			Min:          series.AxisMin,
			Max:          series.AxisMax,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
			Top:  "top",
		}),
	)

	labels := make([]string, len(samples))
	items := make([]opts.LineData, len(samples))
	for i, s := range samples {
		labels[i] = s.ClockLabel()
		items[i] = opts.LineData{Value: s.HeartRate}
	}

	line.SetXAxis(labels).
		AddSeries("Heart rate (lpm)", items,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#dc3545"}),
			charts.WithMarkLineNameYAxisItemOpts(
				opts.MarkLineNameYAxisItem{Name: "Low", YAxis: 60},
				opts.MarkLineNameYAxisItem{Name: "High", YAxis: 100},
			),
		)

	return line
}

// WriteHTML renders the chart for samples to path.
func WriteHTML(path, patientID string, samples []series.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := BuildChart(patientID, samples).Render(f); err != nil {
		return err
	}
	return f.Close()
}

// Open shows an exported file in the default browser.
func Open(path string) error {
	return browser.OpenFile(path)
}
