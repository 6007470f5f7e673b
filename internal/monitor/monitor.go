// Package monitor implements the live heart-rate dashboard TUI using
// BubbleTea: an area chart over the last readings, a history table, the
// patient's aggregate stats and the CardioBot chat panel.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"

	"github.com/luki/cardiodash/internal/api"
	"github.com/luki/cardiodash/internal/chart"
	"github.com/luki/cardiodash/internal/chat"
	"github.com/luki/cardiodash/internal/export"
	"github.com/luki/cardiodash/internal/series"
)

const (
	placeholder = "--"
	errorMark   = "Error"

	animFPS = 30
)

// State is the lifecycle of one dashboard load.
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
	LoadFailed
	Simulating
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case LoadFailed:
		return "load failed"
	case Simulating:
		return "live"
	default:
		return "uninitialized"
	}
}

// Backend is the part of the API the dashboard reads from.
type Backend interface {
	History(ctx context.Context, patientID string) ([]api.Record, error)
	Stats(ctx context.Context, patientID string) (api.Stats, error)
}

// Options configure a dashboard.
type Options struct {
	PatientID string
	Backend   Backend
	Chat      *chat.Session // required
	// Source feeds the simulator; nil disables it.
	Source    SampleSource
	Timeout   time.Duration
	SimDelay  time.Duration
	SimPeriod time.Duration
	ExportDir string
}

// ── Messages ─────────────────────────────────────────────────────────

type historyMsg struct {
	gen     int
	samples []series.Sample
	err     error
}

type statsMsg struct {
	gen   int
	stats api.Stats
	err   error
}

type simStartMsg struct{ gen int }

type simTickMsg struct {
	gen int
	t   time.Time
}

type animTickMsg time.Time

type exportMsg struct {
	res export.Result
	err error
}

// StatsView is what the four stat displays show.
type StatsView struct {
	Current string
	Average string
	Max     string
	Min     string
}

func emptyStats() StatsView {
	return StatsView{Current: placeholder, Average: placeholder, Max: placeholder, Min: placeholder}
}

func failedStats() StatsView {
	return StatsView{Current: errorMark, Average: errorMark, Max: errorMark, Min: errorMark}
}

// ── Model ────────────────────────────────────────────────────────────

// Model is the BubbleTea model for the dashboard.
type Model struct {
	opts  Options
	state State
	gen   int

	buffer  *series.Buffer
	line    *chart.Line
	stats   StatsView
	loadErr error

	chat   chat.Panel
	keys   keyMap
	help   help.Model
	status string

	spring    harmonica.Spring
	gaugePos  float64
	gaugeVel  float64
	gaugeGoal float64
	animating bool

	width     int
	height    int
	startTime time.Time
}

// New creates a dashboard ready to load its first window.
func New(opts Options) Model {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.SimDelay <= 0 {
		opts.SimDelay = 3 * time.Second
	}
	if opts.SimPeriod <= 0 {
		opts.SimPeriod = 5 * time.Second
	}

	return Model{
		opts:      opts,
		state:     Loading,
		gen:       1,
		buffer:    series.NewBuffer(series.Capacity),
		stats:     emptyStats(),
		chat:      chat.NewPanel(opts.Chat, opts.Timeout),
		keys:      defaultKeys(),
		help:      help.New(),
		spring:    harmonica.NewSpring(harmonica.FPS(animFPS), 6.0, 1.0),
		startTime: time.Now(),
	}
}

// State returns the current lifecycle state.
func (m Model) State() State { return m.state }

// Buffer returns the series window driving the chart.
func (m Model) Buffer() *series.Buffer { return m.buffer }

// Stats returns the stat displays.
func (m Model) Stats() StatsView { return m.stats }

// Chart returns the chart, or nil when none is drawn.
func (m Model) Chart() *chart.Line { return m.line }

// ── Commands ─────────────────────────────────────────────────────────

func (m Model) loadHistory() tea.Cmd {
	gen, backend, id, timeout := m.gen, m.opts.Backend, m.opts.PatientID, m.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		records, err := backend.History(ctx, id)
		if err != nil {
			return historyMsg{gen: gen, err: err}
		}
		samples := make([]series.Sample, len(records))
		for i, r := range records {
			samples[i] = r.Sample()
		}
		return historyMsg{gen: gen, samples: samples}
	}
}

func (m Model) loadStats() tea.Cmd {
	gen, backend, id, timeout := m.gen, m.opts.Backend, m.opts.PatientID, m.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		st, err := backend.Stats(ctx, id)
		return statsMsg{gen: gen, stats: st, err: err}
	}
}

func simStartCmd(gen int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return simStartMsg{gen: gen}
	})
}

func simTickCmd(gen int, period time.Duration) tea.Cmd {
	return tea.Tick(period, func(t time.Time) tea.Msg {
		return simTickMsg{gen: gen, t: t}
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(time.Second/animFPS, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}

func exportCmd(dir, patientID string, samples []series.Sample) tea.Cmd {
	return func() tea.Msg {
		res, err := export.Snapshot(dir, patientID, samples, time.Now())
		return exportMsg{res: res, err: err}
	}
}

// ── Init / Update ────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return m.loadHistory()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.chat.SetSize(m.chatWidth(), chatHeight)

	case historyMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		return m.applyHistory(msg)

	case statsMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.applyStats(msg)

	case simStartMsg:
		if msg.gen != m.gen || m.state != Ready || m.buffer.Len() == 0 {
			return m, nil
		}
		log.Printf("starting simulated feed for patient %s", m.opts.PatientID)
		m.state = Simulating
		return m, simTickCmd(m.gen, m.opts.SimPeriod)

	case simTickMsg:
		if msg.gen != m.gen || m.state != Simulating {
			return m, nil
		}
		cmd := m.appendSample(m.opts.Source.Next())
		return m, tea.Batch(cmd, simTickCmd(m.gen, m.opts.SimPeriod))

	case animTickMsg:
		return m, m.stepGauge()

	case exportMsg:
		if msg.err != nil {
			log.Printf("export failed: %v", msg.err)
			m.status = "export failed: " + msg.err.Error()
		} else {
			m.status = "exported " + msg.res.CSV
		}

	case chat.ResponseMsg, spinner.TickMsg:
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.chat.Focused() {
		if key.Matches(msg, m.keys.Blur) {
			m.chat.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Chat):
		return m, m.chat.Focus()
	case key.Matches(msg, m.keys.Reload):
		return m, m.reload()
	case key.Matches(msg, m.keys.Export):
		if m.opts.ExportDir == "" || m.buffer.Len() == 0 {
			m.status = "nothing to export"
			return m, nil
		}
		m.status = "exporting..."
		return m, exportCmd(m.opts.ExportDir, m.opts.PatientID, m.buffer.Samples())
	case key.Matches(msg, m.keys.Quick):
		i, _ := strconv.Atoi(msg.String())
		return m, m.chat.Submit(chat.QuickQuestions[i-1])
	}

	var cmd tea.Cmd
	m.chat, cmd = m.chat.Update(msg)
	return m, cmd
}

// reload tears down the current window and starts a fresh load. Pending
// simulator ticks of the previous generation are dropped when they fire.
func (m *Model) reload() tea.Cmd {
	m.gen++
	m.state = Loading
	m.loadErr = nil
	m.stats = emptyStats()
	m.status = ""
	return m.loadHistory()
}

func (m Model) applyHistory(msg historyMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		log.Printf("loading history for patient %s: %v", m.opts.PatientID, msg.err)
		m.state = LoadFailed
		m.loadErr = msg.err
		m.buffer = series.NewBuffer(series.Capacity)
		m.line = nil
		return m, m.loadStats()
	}

	m.buffer = series.Seed(msg.samples, series.Capacity)
	m.render()
	m.state = Ready
	if last, ok := m.buffer.Last(); ok {
		m.gaugePos = float64(last.HeartRate)
		m.gaugeGoal = m.gaugePos
		m.gaugeVel = 0
	}

	cmds := []tea.Cmd{m.loadStats()}
	if m.opts.Source != nil && m.buffer.Len() > 0 {
		cmds = append(cmds, simStartCmd(m.gen, m.opts.SimDelay))
	}
	return m, tea.Batch(cmds...)
}

// render rebuilds the chart from the buffer, dropping the previous one.
func (m *Model) render() {
	m.line = chart.New(m.buffer.Labels(), m.buffer.Values())
}

func (m *Model) applyStats(msg statsMsg) {
	if msg.err != nil {
		log.Printf("loading stats for patient %s: %v", m.opts.PatientID, msg.err)
		m.stats = failedStats()
		return
	}
	m.stats = FormatStats(msg.stats, m.buffer)
}

// FormatStats renders a stats snapshot. Current is the newest sample in b.
func FormatStats(st api.Stats, b *series.Buffer) StatsView {
	v := StatsView{
		Average: placeholder,
		Max:     formatNumber(st.Max),
		Min:     formatNumber(st.Min),
		Current: placeholder,
	}
	if st.Average != nil && *st.Average != 0 {
		v.Average = strconv.Itoa(int(math.Round(*st.Average)))
	}
	if last, ok := b.Last(); ok {
		v.Current = strconv.Itoa(last.HeartRate)
	}
	return v
}

func formatNumber(f *float64) string {
	if f == nil || *f == 0 {
		return placeholder
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// appendSample pushes one live reading and refreshes the chart in place.
func (m *Model) appendSample(s series.Sample) tea.Cmd {
	m.buffer.Push(s)
	if m.line == nil {
		m.render()
	} else {
		m.line.Update(m.buffer.Labels(), m.buffer.Values())
	}
	m.stats.Current = strconv.Itoa(s.HeartRate)

	m.gaugeGoal = float64(s.HeartRate)
	if m.animating {
		return nil
	}
	m.animating = true
	return animTickCmd()
}

func (m *Model) stepGauge() tea.Cmd {
	m.gaugePos, m.gaugeVel = m.spring.Update(m.gaugePos, m.gaugeVel, m.gaugeGoal)
	if math.Abs(m.gaugePos-m.gaugeGoal) < 0.05 && math.Abs(m.gaugeVel) < 0.05 {
		m.gaugePos = m.gaugeGoal
		m.gaugeVel = 0
		m.animating = false
		return nil
	}
	return animTickCmd()
}

func loadErrorText(err error) string {
	var fe *api.FetchError
	if errors.As(err, &fe) {
		return fmt.Sprintf("Error loading data: HTTP error %d", fe.Status)
	}
	return "Error loading data: " + err.Error()
}
