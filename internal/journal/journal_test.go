package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sdibella/deriv-dashboard/internal/model"
)

func TestJournalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	path := SessionPath(dir, start)
	if filepath.Base(path) != "journal-20260304-050607.jsonl" {
		t.Fatalf("SessionPath() = %s", path)
	}

	j, err := New(path)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	cfg := model.DefaultConfig()
	cfg.APIToken = "secret"
	cfg.Symbols = model.Symbols{"R_100"}

	at := start.Add(time.Second)
	for _, ev := range []any{
		NewSessionStart("http://bot", "ws://bot/ws"),
		NewConfig(cfg, at),
		NewPush("screener_update", json.RawMessage(`{"symbol":"R_100","data":{"confidence":80}}`), at),
	} {
		if err := j.Log(ev); err != nil {
			t.Fatalf("Log() error: %v", err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	entries, err := ParseJournal(path)
	if err != nil {
		t.Fatalf("ParseJournal() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	if entries[0].SessionStart == nil || entries[0].SessionStart.WSURL != "ws://bot/ws" {
		t.Errorf("entries[0] = %+v", entries[0])
	}

	c := entries[1].Config
	if c == nil {
		t.Fatal("entries[1].Config is nil")
	}
	if c.Config.APIToken != "" {
		t.Error("API token written to journal")
	}
	if !c.Config.Symbols.Contains("R_100") || !At(c.Time).Equal(at) {
		t.Errorf("config entry = %+v", c)
	}

	p := entries[2].Push
	if p == nil || p.Event != "screener_update" {
		t.Fatalf("entries[2] = %+v", entries[2])
	}
	var upd model.ScreenerUpdate
	if !model.Decode(p.Data, &upd) || upd.Symbol != "R_100" || upd.Data.Confidence != 80 {
		t.Errorf("push data = %s", p.Data)
	}
}

func TestParseJournalSkipsUnknownTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "j.jsonl")
	data := `{"type":"trade","ticker":"X"}

{"type":"push","time":"2026-01-01T00:00:00Z","event":"bot_status","data":{"running":true}}
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	entries, err := ParseJournal(path)
	if err != nil {
		t.Fatalf("ParseJournal() error: %v", err)
	}
	if len(entries) != 1 || entries[0].Push == nil {
		t.Errorf("entries = %+v, want one push", entries)
	}
}

func TestParseJournalBadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "j.jsonl")
	if err := os.WriteFile(path, []byte("not json\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseJournal(path); err == nil {
		t.Error("ParseJournal() error = nil, want error")
	}
}

func TestDiscoverSessions(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"journal-20260101-090000.jsonl",
		"journal-20260102-090000.jsonl",
		"notes.txt",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	sessions, err := DiscoverSessions(dir)
	if err != nil {
		t.Fatalf("DiscoverSessions() error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("len(sessions) = %d, want 2", len(sessions))
	}
	if sessions[0].Filename != "journal-20260102-090000.jsonl" {
		t.Errorf("newest first: got %s", sessions[0].Filename)
	}
}
