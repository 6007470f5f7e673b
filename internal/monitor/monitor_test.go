package monitor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/luki/cardiodash/internal/api"
	"github.com/luki/cardiodash/internal/chat"
	"github.com/luki/cardiodash/internal/series"
)

var base = time.Date(2026, 2, 21, 14, 0, 0, 0, time.Local)

type fakeBackend struct {
	records  []api.Record
	histErr  error
	stats    api.Stats
	statsErr error
}

func (f *fakeBackend) History(ctx context.Context, id string) ([]api.Record, error) {
	return f.records, f.histErr
}

func (f *fakeBackend) Stats(ctx context.Context, id string) (api.Stats, error) {
	return f.stats, f.statsErr
}

type fixedSource struct {
	rates []int
	i     int
}

func (f *fixedSource) Next() series.Sample {
	r := f.rates[f.i%len(f.rates)]
	f.i++
	return series.Sample{HeartRate: r, Time: base.Add(time.Hour + time.Duration(f.i)*5*time.Second)}
}

type silentAsker struct{}

func (silentAsker) Ask(ctx context.Context, msg string) (string, error) { return "ok", nil }

// newestFirst returns n records with rates 60..60+n-1, the highest (and
// newest) first, one second apart.
func newestFirst(n int) []api.Record {
	recs := make([]api.Record, 0, n)
	for i := n - 1; i >= 0; i-- {
		recs = append(recs, api.Record{
			HeartRate:  60 + i,
			RecordedAt: base.Add(time.Duration(i) * time.Second).Format("2006-01-02T15:04:05"),
		})
	}
	return recs
}

func f64(v float64) *float64 { return &v }

func newModel(b Backend, src SampleSource) Model {
	return New(Options{
		PatientID: "42",
		Backend:   b,
		Chat:      chat.NewSession(silentAsker{}),
		Source:    src,
		Timeout:   time.Second,
	})
}

// load runs the history fetch and the stats fetch that follows it.
func load(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(m.Init()())
	m = next.(Model)
	next, _ = m.Update(m.loadStats()())
	return next.(Model)
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 60})
	return next.(Model)
}

func press(m Model, k string) (Model, tea.Cmd) {
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	return next.(Model), cmd
}

func TestLoadKeepsMostRecentTwenty(t *testing.T) {
	m := load(t, newModel(&fakeBackend{records: newestFirst(25)}, nil))

	if m.State() != Ready {
		t.Fatalf("state: got %s, want ready", m.State())
	}
	if m.Chart() == nil {
		t.Fatal("expected a chart after a successful load")
	}

	vals := m.Chart().Values()
	if len(vals) != 20 {
		t.Fatalf("chart points: got %d, want 20", len(vals))
	}
	for i, v := range vals {
		if want := 65 + i; v != want {
			t.Errorf("point %d: got %d, want %d", i, v, want)
		}
	}
	if labels := m.Chart().Labels(); labels[0] != "14:00:05" {
		t.Errorf("first label: got %q", labels[0])
	}

	rows := series.Table(m.Buffer())
	if len(rows) != 10 || rows[0].HeartRate != 84 {
		t.Errorf("table: got %d rows, first %+v", len(rows), rows[0])
	}
}

func TestStatsRounding(t *testing.T) {
	b := &fakeBackend{
		records: newestFirst(3),
		stats:   api.Stats{Average: f64(72.6), Max: f64(110), Min: f64(55.5)},
	}
	m := load(t, newModel(b, nil))

	want := StatsView{Current: "62", Average: "73", Max: "110", Min: "55.5"}
	if got := m.Stats(); got != want {
		t.Errorf("stats: got %+v, want %+v", got, want)
	}
}

func TestStatsAbsentValues(t *testing.T) {
	m := load(t, newModel(&fakeBackend{stats: api.Stats{Average: f64(0)}}, nil))

	want := StatsView{Current: "--", Average: "--", Max: "--", Min: "--"}
	if got := m.Stats(); got != want {
		t.Errorf("stats: got %+v, want %+v", got, want)
	}
}

func TestStatsFailureKeepsHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/estadisticas/") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"ritmo":104,"fecha_registro":"2026-02-21T14:00:02"},{"ritmo":71,"fecha_registro":"2026-02-21T14:00:01"}]`))
	}))
	defer srv.Close()

	m := sized(load(t, newModel(api.New(srv.URL, time.Second), nil)))

	want := StatsView{Current: "Error", Average: "Error", Max: "Error", Min: "Error"}
	if got := m.Stats(); got != want {
		t.Errorf("stats: got %+v, want %+v", got, want)
	}
	if m.Buffer().Len() != 2 {
		t.Errorf("buffer: got %d samples, want 2", m.Buffer().Len())
	}

	view := ansi.Strip(m.View())
	for _, s := range []string{"2026-02-21 14:00:02", "104 lpm", "High", " 71 lpm"} {
		if !strings.Contains(view, s) {
			t.Errorf("view missing %q", s)
		}
	}
}

func TestHistoryFailure(t *testing.T) {
	b := &fakeBackend{histErr: &api.FetchError{Status: 503}, stats: api.Stats{Average: f64(70)}}
	m := sized(load(t, newModel(b, &fixedSource{rates: []int{70}})))

	if m.State() != LoadFailed {
		t.Fatalf("state: got %s, want load failed", m.State())
	}
	if m.Chart() != nil {
		t.Error("no chart should be drawn after a failed load")
	}
	if m.Stats().Average != "70" {
		t.Errorf("stats should load independently, got %+v", m.Stats())
	}

	view := ansi.Strip(m.View())
	if !strings.Contains(view, "Error loading data: HTTP error 503") {
		t.Errorf("expected error row in view:\n%s", view)
	}

	next, cmd := m.Update(simStartMsg{gen: 1})
	if cmd != nil || next.(Model).State() != LoadFailed {
		t.Error("simulator must not start after a failed load")
	}
}

func TestSimulatorAppendsAndCaps(t *testing.T) {
	src := &fixedSource{rates: []int{101, 59, 77}}
	m := load(t, newModel(&fakeBackend{records: newestFirst(20)}, src))
	line := m.Chart()

	next, cmd := m.Update(simStartMsg{gen: 1})
	m = next.(Model)
	if m.State() != Simulating || cmd == nil {
		t.Fatalf("state: got %s, want live with a tick scheduled", m.State())
	}

	for i := 0; i < 3; i++ {
		next, cmd = m.Update(simTickMsg{gen: 1})
		m = next.(Model)
		if cmd == nil {
			t.Fatal("expected the next tick to be scheduled")
		}
	}

	if m.Buffer().Len() != series.Capacity {
		t.Errorf("buffer: got %d, want %d", m.Buffer().Len(), series.Capacity)
	}
	if m.Chart() != line {
		t.Error("chart should be updated in place, not rebuilt")
	}
	vals := line.Values()
	if vals[0] != 63 || vals[19] != 77 {
		t.Errorf("chart values: got first %d last %d, want 63 and 77", vals[0], vals[19])
	}
	if m.Stats().Current != "77" {
		t.Errorf("current: got %q, want 77", m.Stats().Current)
	}

	rows := series.Table(m.Buffer())
	if len(rows) != 10 || rows[0].HeartRate != 77 || rows[1].Status != series.Low || rows[2].Status != series.High {
		t.Errorf("table head: got %+v", rows[:3])
	}
}

func TestSimulatorNeedsBaseline(t *testing.T) {
	m := load(t, newModel(&fakeBackend{}, &fixedSource{rates: []int{70}}))

	if m.State() != Ready || m.Buffer().Len() != 0 {
		t.Fatalf("state: got %s with %d samples", m.State(), m.Buffer().Len())
	}
	next, cmd := m.Update(simStartMsg{gen: 1})
	if cmd != nil || next.(Model).State() != Ready {
		t.Error("simulator must not start on an empty buffer")
	}

	view := ansi.Strip(sized(m).View())
	if !strings.Contains(view, "No readings recorded") {
		t.Error("expected empty-table row")
	}
}

func TestReloadDropsStaleTicks(t *testing.T) {
	src := &fixedSource{rates: []int{90}}
	m := load(t, newModel(&fakeBackend{records: newestFirst(5)}, src))
	next, _ := m.Update(simStartMsg{gen: 1})
	m = next.(Model)

	m, cmd := press(m, "r")
	if cmd == nil || m.State() != Loading {
		t.Fatalf("reload: state %s", m.State())
	}

	next, cmd = m.Update(simTickMsg{gen: 1})
	m = next.(Model)
	if cmd != nil {
		t.Error("stale tick must not reschedule itself")
	}
	if src.i != 0 {
		t.Errorf("stale tick consumed %d samples", src.i)
	}

	next, _ = m.Update(historyMsg{gen: 1, err: errors.New("late")})
	if next.(Model).State() != Loading {
		t.Error("stale history result must be ignored")
	}
}

func TestQuickQuestion(t *testing.T) {
	m := newModel(&fakeBackend{}, nil)
	m, cmd := press(m, "1")
	if cmd == nil {
		t.Fatal("expected a chat request")
	}
	turns := m.opts.Chat.Turns()
	if len(turns) != 1 || turns[0].Text != chat.QuickQuestions[0] {
		t.Errorf("turns: got %+v", turns)
	}

	// A second quick question while the first is in flight is dropped.
	press(m, "2")
	if n := len(m.opts.Chat.Turns()); n != 1 {
		t.Errorf("expected 1 turn, got %d", n)
	}
}

func TestExportWritesSnapshot(t *testing.T) {
	m := load(t, newModel(&fakeBackend{records: newestFirst(4)}, nil))
	m.opts.ExportDir = t.TempDir()

	m, cmd := press(m, "e")
	if cmd == nil {
		t.Fatal("expected an export command")
	}
	next, _ := m.Update(cmd())
	m = next.(Model)
	if !strings.HasPrefix(m.status, "exported ") {
		t.Errorf("status: got %q", m.status)
	}
}

func TestRandomSourceRange(t *testing.T) {
	src := NewRandomSource(1)
	for i := 0; i < 500; i++ {
		s := src.Next()
		if s.HeartRate < 60 || s.HeartRate >= 100 {
			t.Fatalf("rate out of range: %d", s.HeartRate)
		}
		if s.Time.IsZero() {
			t.Fatal("expected a timestamp")
		}
	}
}

func TestEscLeavesChat(t *testing.T) {
	m := newModel(&fakeBackend{}, nil)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	if !m.chat.Focused() {
		t.Fatal("tab should focus the chat input")
	}

	// While focused, letters are typed into the chat instead of acting as keys.
	m, _ = press(m, "q")
	if !m.chat.Focused() {
		t.Fatal("q should be typed into the chat")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	if m.chat.Focused() {
		t.Error("esc should leave the chat input")
	}
}
