package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds the HTTP endpoint settings. Zero values get defaults at
// construction.
type Config struct {
	// URL is the statement endpoint. Required.
	URL string
	// Token, when set, is sent as a bearer token.
	Token string
	// Headers are added to every request.
	Headers map[string]string
	// Timeout bounds one round trip. Defaults to 30s.
	Timeout time.Duration
	// Logger, when set, receives per-request debug lines. The library
	// is otherwise silent.
	Logger logrus.FieldLogger
}

// ParseURL builds a Config from an endpoint URL. Userinfo, when
// present, becomes the bearer token: https://token@db.example.com/sql.
func ParseURL(raw string) (Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("transport: bad endpoint url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Config{}, fmt.Errorf("transport: endpoint scheme must be http or https, got %q", u.Scheme)
	}
	cfg := Config{}
	if u.User != nil {
		cfg.Token = u.User.Username()
		u.User = nil
	}
	cfg.URL = u.String()
	return cfg, nil
}

// HTTP submits statements as JSON POSTs to a single endpoint.
type HTTP struct {
	cfg    Config
	client *http.Client
}

// NewHTTP creates an HTTP transport.
func NewHTTP(cfg Config) (*HTTP, error) {
	if cfg.URL == "" {
		return nil, errors.New("transport: endpoint url is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTP{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Send submits one statement.
func (t *HTTP) Send(ctx context.Context, req *Request) (*Result, error) {
	var out Result
	if err := t.post(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendBatch submits the statements as one round trip and returns their
// results in order.
func (t *HTTP) SendBatch(ctx context.Context, reqs []*Request) ([]*Result, error) {
	var out batchResult
	if err := t.post(ctx, batchRequest{Queries: reqs}, &out); err != nil {
		return nil, err
	}
	if len(out.Results) != len(reqs) {
		return nil, fmt.Errorf("transport: sent %d statements, got %d results", len(reqs), len(out.Results))
	}
	return out.Results, nil
}

func (t *HTTP) post(ctx context.Context, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("transport: encode request: %w", err)
	}
	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("transport: build request: %w", err)
	}
	hr.Header.Set("Content-Type", "application/json")
	if t.cfg.Token != "" {
		hr.Header.Set("Authorization", "Bearer "+t.cfg.Token)
	}
	for k, v := range t.cfg.Headers {
		hr.Header.Set(k, v)
	}

	if t.cfg.Logger != nil {
		t.cfg.Logger.WithFields(logrus.Fields{
			"url":   t.cfg.URL,
			"bytes": len(body),
		}).Debug("submitting statement")
	}

	resp, err := t.client.Do(hr)
	if err != nil {
		return fmt.Errorf("transport: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("transport: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Body: string(raw)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("transport: decode response: %w", err)
	}
	return nil
}

var _ Transport = (*HTTP)(nil)
