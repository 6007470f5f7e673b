// Package chart renders the heart-rate window as a terminal area chart on
// a fixed 40-120 lpm axis, with status colouring, a time axis and a gauge.
package chart

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/cardiodash/internal/series"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

const axisWidth = 5 // "120 ┤"

var (
	colorAxis = lipgloss.Color("240")
	colorGrid = lipgloss.Color("236")
	colorTick = lipgloss.Color("239")
)

// RateColor returns the colour of a heart rate by its status.
func RateColor(rate int) lipgloss.Color {
	return StatusColor(series.Classify(rate))
}

// StatusColor returns the colour used for a status.
func StatusColor(s series.Status) lipgloss.Color {
	switch s {
	case series.High:
		return lipgloss.Color("196") // red
	case series.Low:
		return lipgloss.Color("75") // blue
	default:
		return lipgloss.Color("78") // soft green
	}
}

// Line is a chart bound to one set of labels and values. Callers build a
// new Line for a full redraw and call Update for in-place refreshes.
type Line struct {
	labels []string
	values []int
	min    int
	max    int
}

// New creates a chart over labels and values on the fixed lpm axis.
func New(labels []string, values []int) *Line {
	l := &Line{min: series.AxisMin, max: series.AxisMax}
	l.Update(labels, values)
	return l
}

// Update rebinds the chart data without rebuilding the chart.
func (l *Line) Update(labels []string, values []int) {
	l.labels = append(l.labels[:0], labels...)
	l.values = append(l.values[:0], values...)
}

// Len returns the number of plotted points.
func (l *Line) Len() int { return len(l.values) }

// Values returns a copy of the plotted values.
func (l *Line) Values() []int {
	out := make([]int, len(l.values))
	copy(out, l.values)
	return out
}

// Labels returns a copy of the X axis labels.
func (l *Line) Labels() []string {
	out := make([]string, len(l.labels))
	copy(out, l.labels)
	return out
}

// View draws the chart in width x height cells plus one row of time labels.
func (l *Line) View(width, height int) string {
	if height < 2 {
		height = 2
	}
	plotW := width - axisWidth
	if plotW < 1 {
		plotW = 1
	}

	axisS := lipgloss.NewStyle().Foreground(colorAxis)
	gridS := lipgloss.NewStyle().Foreground(colorGrid)

	cols := l.columns(plotW)
	span := float64(l.max - l.min)

	rows := make([]string, 0, height+1)
	for r := height - 1; r >= 0; r-- {
		var sb strings.Builder
		sb.WriteString(axisS.Render(l.axisLabel(r, height)))

		for _, idx := range cols {
			if idx < 0 {
				sb.WriteString(gridS.Render("╌"))
				continue
			}
			v := l.values[idx]
			level := int(float64(v-l.min) / span * float64(height*8))
			if level > height*8 {
				level = height * 8
			}
			if level < 1 {
				level = 1
			}
			fill := level - r*8
			switch {
			case fill <= 0:
				sb.WriteRune(' ')
			default:
				if fill > 8 {
					fill = 8
				}
				style := lipgloss.NewStyle().Foreground(RateColor(v))
				sb.WriteString(style.Render(string(sparkBlocks[fill-1])))
			}
		}
		rows = append(rows, sb.String())
	}

	rows = append(rows, strings.Repeat(" ", axisWidth)+RenderTimeline(l.labels, cols))
	return strings.Join(rows, "\n")
}

// columns maps each plot cell to a sample index, -1 for padding before the
// first sample. Samples are stretched to fill the width.
func (l *Line) columns(plotW int) []int {
	cols := make([]int, plotW)
	n := len(l.values)
	if n == 0 {
		for i := range cols {
			cols[i] = -1
		}
		return cols
	}
	if n > plotW {
		offset := n - plotW
		for i := range cols {
			cols[i] = offset + i
		}
		return cols
	}
	for i := range cols {
		cols[i] = i * n / plotW
	}
	return cols
}

func (l *Line) axisLabel(row, height int) string {
	switch row {
	case height - 1:
		return fmt.Sprintf("%3d ┤", l.max)
	case 0:
		return fmt.Sprintf("%3d ┤", l.min)
	case (height - 1) / 2:
		mid := l.min + (l.max-l.min)*(row*8+4)/(height*8)
		return fmt.Sprintf("%3d ┤", mid)
	default:
		return "    │"
	}
}

// RenderTimeline renders the labels under the plot, one at the first cell
// of each sample as long as it does not overlap the previous one.
func RenderTimeline(labels []string, cols []int) string {
	line := make([]rune, len(cols))
	for i := range line {
		line[i] = ' '
	}

	lastEnd := -2
	prev := -2
	for pos, idx := range cols {
		if idx < 0 || idx == prev || idx >= len(labels) {
			continue
		}
		prev = idx
		label := labels[idx]
		end := pos + len(label)
		if end > len(cols) || pos <= lastEnd+1 {
			continue
		}
		for j, ch := range label {
			line[pos+j] = ch
		}
		lastEnd = end
	}

	return lipgloss.NewStyle().Foreground(colorTick).Render(string(line))
}

// RenderGauge renders a scale bar over the lpm axis with markers at the
// Low and High thresholds and a diamond at pos, which may be fractional
// while the marker is animating.
func RenderGauge(pos float64, rate int, width int) string {
	if width <= 0 {
		return ""
	}
	span := float64(series.AxisMax - series.AxisMin)
	at := func(v float64) int {
		p := int(float64(width-1) * (v - series.AxisMin) / span)
		if p < 0 {
			p = 0
		}
		if p >= width {
			p = width - 1
		}
		return p
	}

	lowPos := at(60)
	highPos := at(100)
	curPos := at(pos)

	var sb strings.Builder
	for i := 0; i < width; i++ {
		switch i {
		case curPos:
			style := lipgloss.NewStyle().Foreground(RateColor(rate)).Bold(true)
			sb.WriteString(style.Render("◆"))
		case lowPos:
			sb.WriteString(lipgloss.NewStyle().Foreground(StatusColor(series.Low)).Render("▪"))
		case highPos:
			sb.WriteString(lipgloss.NewStyle().Foreground(StatusColor(series.High)).Render("▪"))
		default:
			sb.WriteString(lipgloss.NewStyle().Foreground(colorGrid).Render("·"))
		}
	}
	return sb.String()
}

// RenderRate renders a heart rate with its status colour.
func RenderRate(rate int) string {
	style := lipgloss.NewStyle().Foreground(RateColor(rate))
	if series.Classify(rate) == series.High {
		style = style.Bold(true)
	}
	return style.Render(fmt.Sprintf("%3d lpm", rate))
}

// RenderStatus renders the status word of a rate.
func RenderStatus(s series.Status) string {
	return lipgloss.NewStyle().Foreground(StatusColor(s)).Bold(true).Render(s.String())
}
