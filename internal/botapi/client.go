// Package botapi talks to the trading bot backend: its HTTP config API and
// its websocket push stream.
package botapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sdibella/deriv-dashboard/internal/config"
	"github.com/sdibella/deriv-dashboard/internal/model"
)

// Client is the request/response side of the bot API.
type Client struct {
	http    *http.Client
	baseURL string
}

func NewClient(cfg *config.Config) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(cfg.BotAPIURL, "/"),
	}
}

// Ack is the backend's reply to a write.
type Ack struct {
	Success model.Flag `json:"success"`
	Message model.Text `json:"message"`
}

// FetchConfig loads the user configuration.
func (c *Client) FetchConfig(ctx context.Context) (model.Config, error) {
	var cfg model.Config
	if err := c.get(ctx, "/api/config", &cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// SaveConfig posts the full configuration. It succeeds only when the backend
// acknowledges with success=true.
func (c *Client) SaveConfig(ctx context.Context, cfg model.Config) error {
	var ack Ack
	if err := c.post(ctx, "/api/config", cfg, &ack); err != nil {
		return err
	}
	if !ack.Success {
		msg := string(ack.Message)
		if msg == "" {
			msg = "not acknowledged"
		}
		return fmt.Errorf("config rejected: %s", msg)
	}
	return nil
}

// FetchStatus returns the raw status document (running flag, account fields,
// open trades).
func (c *Client) FetchStatus(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/api/status", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// The backend serves its log archive here.
const pathDownloadLogs = "/api/download_logs"

// LogsURL is the backend's log download link.
func (c *Client) LogsURL() string {
	return c.baseURL + pathDownloadLogs
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.doRequest(req, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.doRequest(req, out)
}

func (c *Client) doRequest(req *http.Request, out any) error {
	slog.Debug("bot request", "method", req.Method, "url", req.URL.String())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bot request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		slog.Error("bot API error", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("bot API error %d: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w (body: %s)", err, string(body))
		}
	}
	return nil
}
