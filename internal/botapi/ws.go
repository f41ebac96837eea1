package botapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sdibella/deriv-dashboard/internal/metrics"
)

// Outbound command names.
const (
	CmdStartBot   = "start_bot"
	CmdStopBot    = "stop_bot"
	CmdCloseTrade = "close_trade"
)

// EventConnectionStatus is emitted by the client itself whenever the stream
// connects or drops.
const EventConnectionStatus = "connection_status"

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	writeWait  = 10 * time.Second
)

var ErrNotConnected = errors.New("bot stream not connected")

// Envelope is one inbound push frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Command is one outbound frame. ID lets the backend correlate replies.
type Command struct {
	Event string `json:"event"`
	ID    string `json:"id"`
	Data  any    `json:"data,omitempty"`
}

// Handler receives every inbound event. A returned error is logged; it does
// not drop the connection.
type Handler func(ctx context.Context, event string, data json.RawMessage) error

// WSClient keeps a websocket to the bot open, delivering push events to a
// Handler and sending commands.
type WSClient struct {
	url     string
	handler Handler
	dialer  *websocket.Dialer

	mu   sync.Mutex // guards conn and serializes writes
	conn *websocket.Conn
}

func NewWSClient(url string, h Handler) *WSClient {
	return &WSClient{
		url:     url,
		handler: h,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Run connects and reconnects with exponential backoff until ctx is done.
func (ws *WSClient) Run(ctx context.Context) error {
	retry := 0
	for {
		connected, err := ws.connect(ctx)
		if connected {
			retry = 0
			if ctx.Err() == nil {
				ws.emitStatus(ctx, false)
			}
		}
		if err != nil && ctx.Err() == nil {
			slog.Warn("bot ws disconnected", "err", err)
		}

		delay := Backoff(retry)
		retry++
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			slog.Info("bot ws reconnecting...", "after", delay)
		}
	}
}

func (ws *WSClient) connect(ctx context.Context) (bool, error) {
	conn, _, err := ws.dialer.DialContext(ctx, ws.url, nil)
	if err != nil {
		return false, fmt.Errorf("ws dial: %w", err)
	}

	ws.mu.Lock()
	ws.conn = conn
	ws.mu.Unlock()

	done := make(chan struct{})
	defer func() {
		close(done)
		ws.mu.Lock()
		ws.conn = nil
		ws.mu.Unlock()
		conn.Close()
	}()

	slog.Info("bot ws connected", "url", ws.url)
	ws.emitStatus(ctx, true)

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go ws.pingLoop(conn, done)

	// Unblock the read below when ctx ends.
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		ws.handleMessage(ctx, msg)
	}
}

func (ws *WSClient) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				slog.Debug("bot ws ping failed", "err", err)
				return
			}
		}
	}
}

func (ws *WSClient) handleMessage(ctx context.Context, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
		metrics.EventsMalformed.WithLabelValues("frame").Inc()
		slog.Warn("bad bot ws frame", "bytes", len(data))
		return
	}
	if err := ws.handler(ctx, env.Event, env.Data); err != nil {
		slog.Warn("bot event not delivered", "event", env.Event, "err", err)
	}
}

func (ws *WSClient) emitStatus(ctx context.Context, connected bool) {
	data, _ := json.Marshal(map[string]bool{"connected": connected})
	if err := ws.handler(ctx, EventConnectionStatus, data); err != nil {
		slog.Debug("connection status not delivered", "err", err)
	}
}

// Connected reports whether the stream is currently open.
func (ws *WSClient) Connected() bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.conn != nil
}

// Send writes one command and returns its id.
func (ws *WSClient) Send(event string, data any) (string, error) {
	cmd := Command{Event: event, ID: uuid.NewString(), Data: data}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.conn == nil {
		return "", ErrNotConnected
	}
	ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.conn.WriteJSON(cmd); err != nil {
		return "", fmt.Errorf("sending %s: %w", event, err)
	}
	metrics.CommandsSent.WithLabelValues(event).Inc()
	slog.Info("bot command sent", "command", event, "id", cmd.ID)
	return cmd.ID, nil
}

func (ws *WSClient) StartBot() (string, error) { return ws.Send(CmdStartBot, nil) }

func (ws *WSClient) StopBot() (string, error) { return ws.Send(CmdStopBot, nil) }

// CloseTrade asks the bot to close one open contract.
func (ws *WSClient) CloseTrade(contractID string) (string, error) {
	return ws.Send(CmdCloseTrade, map[string]string{"contract_id": contractID})
}
