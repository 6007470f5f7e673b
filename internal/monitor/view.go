package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/cardiodash/internal/chart"
	"github.com/luki/cardiodash/internal/series"
)

const (
	minWidth    = 60
	chartHeight = 8
	chatHeight  = 8
)

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("52")
	colorTitleFg  = lipgloss.Color("210")
	colorBorder   = lipgloss.Color("62")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorValue    = lipgloss.Color("255")
	colorFooterBg = lipgloss.Color("235")
	colorLive     = lipgloss.Color("196")
	colorCrit     = lipgloss.Color("196")
)

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}

	w := m.contentWidth()
	sections := []string{
		m.renderTitleBar(w),
		m.renderStats(w),
		m.renderChart(w),
		m.renderTable(w),
		m.renderChat(w),
		m.renderFooter(w),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) contentWidth() int {
	w := m.width - 2
	if w < minWidth {
		w = minWidth
	}
	return w
}

func (m Model) chatWidth() int {
	return m.contentWidth() - 4
}

func panel(title string, body string, width int) string {
	head := lipgloss.NewStyle().Bold(true).Foreground(colorLabel).Render(title)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(width).
		Render(head + "\n" + body)
}

func (m Model) renderTitleBar(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("♥ CARDIODASH")

	dim := lipgloss.NewStyle().Foreground(colorDim)
	statusParts := []string{
		dim.Render("patient " + m.opts.PatientID),
		dim.Render("up " + fmtDuration(time.Since(m.startTime))),
	}

	if m.state == Simulating {
		statusParts = append(statusParts, lipgloss.NewStyle().Foreground(colorLive).Bold(true).Render("LIVE"))
	} else {
		statusParts = append(statusParts, dim.Render(m.state.String()))
	}
	if last, ok := m.buffer.Last(); ok && !last.Time.IsZero() {
		statusParts = append(statusParts, dim.Render(last.ClockLabel()))
	}

	sep := dim.Render(" │ ")
	right := strings.Join(statusParts, sep)

	gap := width - lipgloss.Width(logo) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + strings.Repeat(" ", gap) + right)
}

func (m Model) renderStats(width int) string {
	boxW := (width-8)/4 - 2
	if boxW < 10 {
		boxW = 10
	}

	box := func(label, value string) string {
		valStyle := lipgloss.NewStyle().Bold(true).Foreground(colorValue)
		if value == errorMark {
			valStyle = valStyle.Foreground(colorCrit)
		}
		body := lipgloss.NewStyle().Foreground(colorDim).Render(label) + "\n" + valStyle.Render(value)
		if value != placeholder && value != errorMark {
			body += lipgloss.NewStyle().Foreground(colorDim).Render(" lpm")
		}
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			Width(boxW).
			Render(body)
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top,
		box("Current", m.stats.Current),
		box("Average", m.stats.Average),
		box("Max", m.stats.Max),
		box("Min", m.stats.Min),
	)

	if last, ok := m.buffer.Last(); ok {
		gauge := chart.RenderGauge(m.gaugePos, last.HeartRate, width-24)
		legend := lipgloss.NewStyle().Foreground(colorDim).Render(fmt.Sprintf(" %d-%d lpm ", series.AxisMin, series.AxisMax))
		row += "\n " + gauge + legend + chart.RenderStatus(last.Status())
	}
	return row
}

func (m Model) renderChart(width int) string {
	inner := width - 4
	dim := lipgloss.NewStyle().Foreground(colorDim)

	var body string
	switch {
	case m.state == Loading:
		body = dim.Render("Loading...")
	case m.line == nil:
		body = dim.Render("No chart available.")
	default:
		body = m.line.View(inner, chartHeight)
	}
	return panel("Heart rate (lpm)", body, width)
}

func (m Model) renderTable(width int) string {
	dim := lipgloss.NewStyle().Foreground(colorDim)

	var lines []string
	switch {
	case m.state == Loading:
		lines = append(lines, dim.Render("Loading..."))
	case m.state == LoadFailed:
		lines = append(lines, lipgloss.NewStyle().Foreground(colorCrit).Render(loadErrorText(m.loadErr)))
	case m.buffer.Len() == 0:
		lines = append(lines, dim.Render("No readings recorded"))
	default:
		lines = append(lines, dim.Render(fmt.Sprintf("%-21s %-9s %s", "Time", "Rate", "Status")))
		for _, r := range series.Table(m.buffer) {
			lines = append(lines, fmt.Sprintf("%-21s %s   %s", r.Time, chart.RenderRate(r.HeartRate), chart.RenderStatus(r.Status)))
		}
	}
	return panel("History", strings.Join(lines, "\n"), width)
}

func (m Model) renderChat(width int) string {
	title := "CardioBot"
	if m.chat.Focused() {
		title += lipgloss.NewStyle().Foreground(colorDim).Render("  (esc to leave)")
	}
	return panel(title, m.chat.View(), width)
}

func (m Model) renderFooter(width int) string {
	left := m.help.View(m.keys)
	right := lipgloss.NewStyle().Foreground(colorDim).Render(m.status)

	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(left + strings.Repeat(" ", gap) + right)
}

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
