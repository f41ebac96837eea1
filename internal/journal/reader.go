package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"time"
)

// SessionInfo describes one journal file in a directory.
type SessionInfo struct {
	Filename  string    `json:"filename"`
	StartTime time.Time `json:"start_time"`
	Display   string    `json:"display"` // e.g. "Feb 10, 2:15 PM"
}

// journalFilePattern matches journal-YYYYMMDD-HHMMSS.jsonl
var journalFilePattern = regexp.MustCompile(`^journal-(\d{8})-(\d{6})\.jsonl$`)

// DiscoverSessions scans dir and returns all journal files sorted by start
// time descending (newest first).
func DiscoverSessions(dir string) ([]SessionInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal directory %s: %w", dir, err)
	}

	var sessions []SessionInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matches := journalFilePattern.FindStringSubmatch(entry.Name())
		if matches == nil {
			continue
		}
		startTime, err := time.Parse("20060102150405", matches[1]+matches[2])
		if err != nil {
			continue
		}
		sessions = append(sessions, SessionInfo{
			Filename:  entry.Name(),
			StartTime: startTime,
			Display:   startTime.Format("Jan 2, 3:04 PM"),
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
	return sessions, nil
}

// Entry is one parsed journal line. Exactly one of the pointers is set.
type Entry struct {
	Type         string
	SessionStart *SessionStart
	Push         *Push
	Config       *Config
}

// maxLine bounds a single journal line; screener payloads can be large.
const maxLine = 4 << 20

// ParseJournal reads a JSONL journal file. Lines of unknown type are skipped.
func ParseJournal(filename string) ([]Entry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file %s: %w", filename, err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var typeOnly struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(line, &typeOnly); err != nil {
			return nil, fmt.Errorf("failed to parse type field at line %d: %w", lineNum, err)
		}

		entry := Entry{Type: typeOnly.Type}
		switch typeOnly.Type {
		case TypeSessionStart:
			var ss SessionStart
			if err := json.Unmarshal(line, &ss); err != nil {
				return nil, fmt.Errorf("failed to parse session_start at line %d: %w", lineNum, err)
			}
			entry.SessionStart = &ss
		case TypePush:
			var p Push
			if err := json.Unmarshal(line, &p); err != nil {
				return nil, fmt.Errorf("failed to parse push at line %d: %w", lineNum, err)
			}
			entry.Push = &p
		case TypeConfig:
			var c Config
			if err := json.Unmarshal(line, &c); err != nil {
				return nil, fmt.Errorf("failed to parse config at line %d: %w", lineNum, err)
			}
			entry.Config = &c
		default:
			continue
		}
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading journal file: %w", err)
	}
	return entries, nil
}
