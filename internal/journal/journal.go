package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sdibella/deriv-dashboard/internal/model"
)

// Journal is an append-only JSONL writer for dashboard input events.
type Journal struct {
	f  *os.File
	mu sync.Mutex
}

// New opens (or creates) the journal file in append mode.
func New(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &Journal{f: f}, nil
}

// SessionPath returns the journal file for a session started at t.
func SessionPath(dir string, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("journal-%s.jsonl", t.UTC().Format("20060102-150405")))
}

// Log marshals event to JSON and appends it as a single line.
func (j *Journal) Log(event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err = j.f.Write(data); err != nil {
		return err
	}
	return j.f.Sync()
}

// Close flushes and closes the underlying file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.f.Close()
}

// Entry types.
const (
	TypeSessionStart = "session_start"
	TypePush         = "push"
	TypeConfig       = "config"
)

type SessionStart struct {
	Type   string `json:"type"`
	Time   string `json:"time"`
	APIURL string `json:"api_url"`
	WSURL  string `json:"ws_url"`
}

func NewSessionStart(apiURL, wsURL string) SessionStart {
	return SessionStart{
		Type:   TypeSessionStart,
		Time:   time.Now().UTC().Format(time.RFC3339Nano),
		APIURL: apiURL,
		WSURL:  wsURL,
	}
}

// Push is one inbound push event exactly as received.
type Push struct {
	Type  string          `json:"type"`
	Time  string          `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func NewPush(event string, data json.RawMessage, at time.Time) Push {
	return Push{
		Type:  TypePush,
		Time:  at.UTC().Format(time.RFC3339Nano),
		Event: event,
		Data:  data,
	}
}

// Config records a config applied to the cache. Credentials are not written.
type Config struct {
	Type   string       `json:"type"`
	Time   string       `json:"time"`
	Config model.Config `json:"config"`
}

func NewConfig(cfg model.Config, at time.Time) Config {
	return Config{
		Type:   TypeConfig,
		Time:   at.UTC().Format(time.RFC3339Nano),
		Config: cfg.Redacted(),
	}
}

// At parses an entry timestamp. A malformed value yields the zero time.
func At(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
