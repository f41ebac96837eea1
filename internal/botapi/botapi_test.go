package botapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sdibella/deriv-dashboard/internal/config"
	"github.com/sdibella/deriv-dashboard/internal/model"
)

func newTestClient(url string) *Client {
	return NewClient(&config.Config{BotAPIURL: url, HTTPTimeout: 2 * time.Second})
}

func TestFetchConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/config" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		io.WriteString(w, `{"active_strategy":"strategy_7","strat7_mid_tf":"OFF","symbols":["R_100","R_100",""]}`)
	}))
	defer srv.Close()

	cfg, err := newTestClient(srv.URL).FetchConfig(context.Background())
	if err != nil {
		t.Fatalf("FetchConfig() error: %v", err)
	}
	if cfg.ActiveStrategy != "strategy_7" || !cfg.Strat7MidTF.Off() || cfg.Strat7SmallTF != 60 {
		t.Errorf("FetchConfig() = %+v", cfg)
	}
	if len(cfg.Symbols) != 1 {
		t.Errorf("Symbols = %v, want [R_100]", cfg.Symbols)
	}
}

func TestSaveConfig(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"acknowledged", http.StatusOK, `{"success":true,"message":"ok"}`, false},
		{"rejected", http.StatusOK, `{"success":false,"message":"invalid token"}`, true},
		{"no ack", http.StatusOK, `{}`, true},
		{"server error", http.StatusInternalServerError, `boom`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got model.Config
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("method = %s", r.Method)
				}
				json.NewDecoder(r.Body).Decode(&got)
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			cfg := model.DefaultConfig()
			cfg.Symbols = model.Symbols{"R_75"}
			err := newTestClient(srv.URL).SaveConfig(context.Background(), cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SaveConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !got.Symbols.Contains("R_75") {
				t.Errorf("posted symbols = %v", got.Symbols)
			}
		})
	}
}

func TestFetchStatusAndLogsURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"running":true}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL + "/")
	raw, err := c.FetchStatus(context.Background())
	if err != nil {
		t.Fatalf("FetchStatus() error: %v", err)
	}
	if string(raw) != `{"running":true}` {
		t.Errorf("FetchStatus() = %s", raw)
	}
	if c.LogsURL() != srv.URL+"/api/download_logs" {
		t.Errorf("LogsURL() = %s", c.LogsURL())
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		retry int
		want  time.Duration
	}{
		{-1, time.Second},
		{0, time.Second},
		{3, 8 * time.Second},
		{6, maxDelay},
		{100, maxDelay},
	}
	for _, tt := range tests {
		if got := Backoff(tt.retry); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.retry, got, tt.want)
		}
	}
}

type received struct {
	event string
	data  string
}

func TestWSClientDeliversAndSends(t *testing.T) {
	upgrader := websocket.Upgrader{}
	commands := make(chan Command, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"bot_status","data":{"running":true}}`))
		for {
			var cmd Command
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			commands <- cmd
		}
	}))
	defer srv.Close()

	var mu sync.Mutex
	var got []received
	events := make(chan struct{}, 8)
	handler := func(_ context.Context, event string, data json.RawMessage) error {
		mu.Lock()
		got = append(got, received{event, string(data)})
		mu.Unlock()
		events <- struct{}{}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ws := NewWSClient("ws"+strings.TrimPrefix(srv.URL, "http"), handler)
	go ws.Run(ctx)

	for i := 0; i < 2; i++ {
		select {
		case <-events:
		case <-time.After(3 * time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	mu.Lock()
	if got[0].event != EventConnectionStatus || got[0].data != `{"connected":true}` {
		t.Errorf("first event = %+v", got[0])
	}
	if got[1].event != "bot_status" || got[1].data != `{"running":true}` {
		t.Errorf("second event = %+v", got[1])
	}
	mu.Unlock()

	id, err := ws.CloseTrade("12345")
	if err != nil {
		t.Fatalf("CloseTrade() error: %v", err)
	}
	select {
	case cmd := <-commands:
		if cmd.Event != CmdCloseTrade || cmd.ID != id {
			t.Errorf("command = %+v, want close_trade id %s", cmd, id)
		}
		data, _ := cmd.Data.(map[string]any)
		if data["contract_id"] != "12345" {
			t.Errorf("contract_id = %v", data["contract_id"])
		}
	case <-time.After(3 * time.Second):
		t.Fatal("command not received")
	}
}

func TestWSClientSendWhileDisconnected(t *testing.T) {
	ws := NewWSClient("ws://127.0.0.1:1/ws", func(context.Context, string, json.RawMessage) error { return nil })
	if _, err := ws.StartBot(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("StartBot() error = %v, want ErrNotConnected", err)
	}
	if ws.Connected() {
		t.Error("Connected() = true")
	}
}
