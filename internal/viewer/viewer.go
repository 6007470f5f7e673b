// Package viewer implements the snapshot browser TUI: exported CSV
// snapshots are replayed with a time cursor and a chart window ending at
// the cursor.
package viewer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/luki/cardiodash/internal/chart"
	"github.com/luki/cardiodash/internal/series"
	"github.com/luki/cardiodash/internal/store"
)

// ErrNoSnapshots is returned when dir holds no snapshot for the patient.
var ErrNoSnapshots = errors.New("no snapshots found")

// Run launches the snapshot browser over the exports in dir.
func Run(dir, patientID string) error {
	files, err := store.ListSnapshots(dir, patientID)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %s", ErrNoSnapshots, dir)
	}

	p := tea.NewProgram(New(files), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("52")
	colorTitleFg  = lipgloss.Color("217")
	colorBorder   = lipgloss.Color("62")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
	colorAccent   = lipgloss.Color("214")
	colorCrit     = lipgloss.Color("196")
)

const chartHeight = 8

// ── Model ────────────────────────────────────────────────────────────

// Model browses a list of snapshot files, newest first.
type Model struct {
	files   []string
	fileIdx int
	samples []series.Sample
	cursor  int
	width   int
	height  int
	err     error
}

// New opens the first (newest) file of files.
func New(files []string) Model {
	m := Model{files: files}
	m.loadFile()
	return m
}

func (m *Model) loadFile() {
	samples, err := store.LoadFile(m.files[m.fileIdx])
	if err != nil {
		m.samples = nil
		m.cursor = 0
		m.err = err
		return
	}
	m.samples = samples
	m.err = nil
	m.cursor = len(samples) - 1
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// File returns the path of the snapshot being shown.
func (m Model) File() string { return m.files[m.fileIdx] }

// Cursor returns the selected sample, if any.
func (m Model) Cursor() (series.Sample, bool) {
	if m.cursor < 0 || m.cursor >= len(m.samples) {
		return series.Sample{}, false
	}
	return m.samples[m.cursor], true
}

// Window returns up to series.Capacity samples ending at the cursor.
func (m Model) Window() []series.Sample {
	if len(m.samples) == 0 {
		return nil
	}
	end := m.cursor + 1
	start := end - series.Capacity
	if start < 0 {
		start = 0
	}
	return m.samples[start:end]
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "left", "h":
			if m.cursor > 0 {
				m.cursor--
			}
		case "right", "l":
			if m.cursor < len(m.samples)-1 {
				m.cursor++
			}
		case "shift+left", "H":
			m.cursor -= series.TableRows
			if m.cursor < 0 {
				m.cursor = 0
			}
		case "shift+right", "L":
			m.cursor += series.TableRows
			if m.cursor >= len(m.samples) {
				m.cursor = len(m.samples) - 1
			}
			if m.cursor < 0 {
				m.cursor = 0
			}
		case "home":
			m.cursor = 0
		case "end":
			if len(m.samples) > 0 {
				m.cursor = len(m.samples) - 1
			}

		case "[":
			if m.fileIdx < len(m.files)-1 {
				m.fileIdx++
				m.loadFile()
			}
		case "]":
			if m.fileIdx > 0 {
				m.fileIdx--
				m.loadFile()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "  Loading..."
	}

	contentWidth := m.width - 2
	if contentWidth < 40 {
		contentWidth = 40
	}

	sections := []string{m.renderTitle(contentWidth)}

	switch {
	case m.err != nil:
		sections = append(sections, lipgloss.NewStyle().
			Foreground(colorCrit).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("ERROR: %v", m.err)))
	case len(m.samples) == 0:
		sections = append(sections, lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(2, 0).
			Align(lipgloss.Center).
			Width(contentWidth).
			Render("No readings in this snapshot."))
	default:
		sections = append(sections, m.renderCursorInfo(contentWidth), m.renderChart(contentWidth))
	}

	sections = append(sections, m.renderFooter(contentWidth))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTitle(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("♥ CARDIODASH SNAPSHOTS")

	name := lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true).
		Render(filepath.Base(m.File()))

	nav := lipgloss.NewStyle().
		Foreground(colorDim).
		Render(fmt.Sprintf("  [ %d/%d ]", m.fileIdx+1, len(m.files)))

	info := ""
	if n := len(m.samples); n > 0 {
		info = lipgloss.NewStyle().
			Foreground(colorDim).
			Render(fmt.Sprintf("  %s - %s  (%d readings)",
				m.samples[0].ClockLabel(), m.samples[n-1].ClockLabel(), n))
	}

	right := name + nav + info

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

func (m Model) renderCursorInfo(width int) string {
	s, ok := m.Cursor()
	if !ok {
		return ""
	}

	ts := lipgloss.NewStyle().
		Foreground(colorAccent).
		Bold(true).
		Render(s.ClockLabel())

	pos := lipgloss.NewStyle().
		Foreground(colorDim).
		Render(fmt.Sprintf("  %d/%d  ", m.cursor+1, len(m.samples)))

	reading := chart.RenderRate(s.HeartRate) + " " + chart.RenderStatus(s.Status())

	barWidth := width - lipgloss.Width(ts+pos+reading) - 6
	if barWidth < 10 {
		barWidth = 10
	}

	return lipgloss.NewStyle().
		Padding(0, 1).
		Render(ts + pos + reading + "  " + m.renderScrubber(barWidth))
}

// renderScrubber draws the cursor position over the snapshot, with a
// tick wherever the classification changes.
func (m Model) renderScrubber(width int) string {
	n := len(m.samples)
	if n == 0 || width <= 0 {
		return ""
	}

	pos := 0
	if n > 1 {
		pos = m.cursor * (width - 1) / (n - 1)
	}
	if pos >= width {
		pos = width - 1
	}

	var sb strings.Builder
	dimS := lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	curS := lipgloss.NewStyle().Foreground(colorAccent).Bold(true)

	for i := 0; i < width; i++ {
		if i == pos {
			sb.WriteString(curS.Render("◆"))
			continue
		}
		idx := 0
		if n > 1 && width > 1 {
			idx = i * (n - 1) / (width - 1)
		}
		if idx > 0 && m.samples[idx].Status() != m.samples[idx-1].Status() {
			st := m.samples[idx].Status()
			sb.WriteString(lipgloss.NewStyle().Foreground(chart.StatusColor(st)).Render("│"))
			continue
		}
		sb.WriteString(dimS.Render("─"))
	}

	return sb.String()
}

func (m Model) renderChart(width int) string {
	window := m.Window()
	labels := make([]string, len(window))
	values := make([]int, len(window))
	for i, s := range window {
		labels[i] = s.ClockLabel()
		values[i] = s.HeartRate
	}

	body := chart.New(labels, values).View(width-4, chartHeight)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Width(width - 2).
		Render(body)
}

func (m Model) renderFooter(width int) string {
	dimS := lipgloss.NewStyle().Foreground(colorDim)
	keyS := lipgloss.NewStyle().Foreground(colorLabel)

	keys := dimS.Render("q") + keyS.Render(":quit") +
		dimS.Render("  h/l") + keyS.Render(":scrub") +
		dimS.Render("  H/L") + keyS.Render(fmt.Sprintf(":skip %d", series.TableRows)) +
		dimS.Render("  home/end") + keyS.Render(":jump") +
		dimS.Render("  [/]") + keyS.Render(":snapshot")

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(keys)
}
