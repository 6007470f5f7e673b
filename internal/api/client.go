// Package api is the HTTP client for the patient monitoring backend: heart
// rate history, aggregate statistics and the chatbot analysis endpoint.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/luki/cardiodash/internal/series"
)

// DefaultChatPath is where the backend mounts the chatbot analysis endpoint.
const DefaultChatPath = "/user/api/chatbot-analysis"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Record is one heart-rate row as returned by the history endpoint.
type Record struct {
	HeartRate  int    `json:"ritmo"`
	RecordedAt string `json:"fecha_registro,omitempty"`
}

// Sample converts the record, leaving Time zero when the timestamp is
// absent or unparseable.
func (r Record) Sample() series.Sample {
	return series.Sample{HeartRate: r.HeartRate, Time: ParseTime(r.RecordedAt)}
}

// ParseTime parses the ISO-8601 variants the backend emits. Timestamps
// without a zone are read as local time.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Stats is the aggregate snapshot for a patient. Nil fields were not sent.
type Stats struct {
	Average *float64 `json:"promedio"`
	Max     *float64 `json:"maximo"`
	Min     *float64 `json:"minimo"`
}

type errorBody struct {
	Error string `json:"error"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// Client talks to one backend.
type Client struct {
	BaseURL  string
	ChatPath string
	HTTP     *http.Client
}

// New creates a client for the backend at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		ChatPath: DefaultChatPath,
		HTTP:     &http.Client{Timeout: timeout},
	}
}

// History fetches the heart-rate records of a patient, newest first.
func (c *Client) History(ctx context.Context, patientID string) ([]Record, error) {
	body, err := c.get(ctx, "/api/ritmo/"+url.PathEscape(patientID))
	if err != nil {
		return nil, err
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}
	return nil, payloadError(body)
}

// Stats fetches the aggregate statistics of a patient.
func (c *Client) Stats(ctx context.Context, patientID string) (Stats, error) {
	body, err := c.get(ctx, "/api/estadisticas/"+url.PathEscape(patientID))
	if err != nil {
		return Stats{}, err
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return Stats{}, &PayloadError{Message: fmt.Sprintf("decode stats: %v", err)}
	}
	if eb.Error != "" {
		return Stats{}, &PayloadError{Message: eb.Error}
	}

	var st Stats
	if err := json.Unmarshal(body, &st); err != nil {
		return Stats{}, &PayloadError{Message: fmt.Sprintf("decode stats: %v", err)}
	}
	return st, nil
}

// Ask sends one message to the chatbot analysis endpoint and returns its answer.
func (c *Client) Ask(ctx context.Context, message string) (string, error) {
	payload, err := json.Marshal(chatRequest{Message: message})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+c.ChatPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var cr chatResponse
	decodeErr := json.Unmarshal(body, &cr)
	if status < 200 || status > 299 {
		return "", &FetchError{Status: status, Message: cr.Error}
	}
	if decodeErr != nil {
		return "", &PayloadError{Message: fmt.Sprintf("decode chat response: %v", decodeErr)}
	}
	if cr.Error != "" {
		return "", &PayloadError{Message: cr.Error}
	}
	return cr.Response, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		var eb errorBody
		_ = json.Unmarshal(body, &eb)
		return nil, &FetchError{Status: status, Message: eb.Error}
	}
	return body, nil
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return 0, nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &NetworkError{Err: err}
	}
	return resp.StatusCode, body, nil
}

func payloadError(body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		return &PayloadError{Message: eb.Error}
	}
	return &PayloadError{Message: "unexpected history payload"}
}
