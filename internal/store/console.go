package store

import "github.com/sdibella/deriv-dashboard/internal/model"

// DefaultConsoleLimit matches the backend's own console buffer.
const DefaultConsoleLimit = 500

// Console keeps the most recent console lines and the current notification.
type Console struct {
	limit  int
	lines  []model.LogLine
	notice *model.Notice
}

// NewConsole creates a console holding at most limit lines.
func NewConsole(limit int) *Console {
	if limit <= 0 {
		limit = DefaultConsoleLimit
	}
	return &Console{limit: limit}
}

// Append adds a line, dropping the oldest once the limit is reached.
func (c *Console) Append(line model.LogLine) {
	c.lines = append(c.lines, line)
	if over := len(c.lines) - c.limit; over > 0 {
		c.lines = append(c.lines[:0:0], c.lines[over:]...)
	}
}

// Clear empties the console.
func (c *Console) Clear() { c.lines = nil }

// Lines returns a copy of the buffered lines, oldest first.
func (c *Console) Lines() []model.LogLine {
	return append([]model.LogLine(nil), c.lines...)
}

// SetNotice replaces the current notification.
func (c *Console) SetNotice(n model.Notice) { c.notice = &n }

// Notice returns the current notification, if any.
func (c *Console) Notice() (model.Notice, bool) {
	if c.notice == nil {
		return model.Notice{}, false
	}
	return *c.notice, true
}
