package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second)
}

func TestHistory(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ritmo/42" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		w.Write([]byte(`[{"ritmo":88,"fecha_registro":"2026-02-21T14:00:10"},{"ritmo":72}]`))
	})

	records, err := c.History(context.Background(), "42")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	s := records[0].Sample()
	want := time.Date(2026, 2, 21, 14, 0, 10, 0, time.Local)
	if s.HeartRate != 88 || !s.Time.Equal(want) {
		t.Errorf("first sample: got %+v", s)
	}
	if !records[1].Sample().Time.IsZero() {
		t.Error("expected zero time for record without fecha_registro")
	}
}

func TestHistoryErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		check   func(error) bool
		message string
	}{
		{
			name:   "http status",
			status: http.StatusInternalServerError,
			body:   `{"error":"boom"}`,
			check: func(err error) bool {
				var fe *FetchError
				return errors.As(err, &fe) && fe.Status == 500 && fe.Message == "boom"
			},
		},
		{
			name:   "error field",
			status: http.StatusOK,
			body:   `{"error":"Paciente no encontrado"}`,
			check: func(err error) bool {
				var pe *PayloadError
				return errors.As(err, &pe) && pe.Message == "Paciente no encontrado"
			},
		},
		{
			name:   "garbage",
			status: http.StatusOK,
			body:   `not json`,
			check: func(err error) bool {
				var pe *PayloadError
				return errors.As(err, &pe)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.History(context.Background(), "1")
			if err == nil || !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, time.Second)
	_, err := c.Stats(context.Background(), "1")
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestStats(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/estadisticas/7" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		w.Write([]byte(`{"promedio":72.6,"maximo":110,"minimo":55}`))
	})

	st, err := c.Stats(context.Background(), "7")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Average == nil || *st.Average != 72.6 {
		t.Errorf("Average: got %v", st.Average)
	}
	if st.Max == nil || *st.Max != 110 || st.Min == nil || *st.Min != 55 {
		t.Errorf("Max/Min: got %v/%v", st.Max, st.Min)
	}
}

func TestStatsPayloadError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"sin datos"}`))
	})
	_, err := c.Stats(context.Background(), "7")
	var pe *PayloadError
	if !errors.As(err, &pe) || pe.Message != "sin datos" {
		t.Errorf("expected PayloadError, got %v", err)
	}
}

func TestAsk(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != DefaultChatPath {
			t.Errorf("request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type: %q", ct)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		json.NewEncoder(w).Encode(chatResponse{Response: "echo: " + req.Message})
	})

	got, err := c.Ask(context.Background(), "hola")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got != "echo: hola" {
		t.Errorf("Ask: got %q", got)
	}
}

func TestAskHTTPError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Mensaje vacío"}`))
	})

	_, err := c.Ask(context.Background(), "x")
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Status != 400 || fe.Message != "Mensaje vacío" {
		t.Errorf("expected FetchError 400, got %v", err)
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		zero bool
	}{
		{"2026-02-21T14:00:10Z", false},
		{"2026-02-21T14:00:10.123456", false},
		{"2026-02-21 14:00:10", false},
		{"", true},
		{"yesterday", true},
	}
	for _, tt := range tests {
		if got := ParseTime(tt.in); got.IsZero() != tt.zero {
			t.Errorf("ParseTime(%q) = %v, zero want %v", tt.in, got, tt.zero)
		}
	}
}
