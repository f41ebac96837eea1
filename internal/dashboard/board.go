package dashboard

import (
	"sync"

	"github.com/sdibella/deriv-dashboard/internal/view"
)

// Board holds the last rendered view model for HTTP readers. The engine
// writes it through Render; handlers read it concurrently.
type Board struct {
	mu    sync.RWMutex
	model view.Model
	ready bool
}

func NewBoard() *Board { return &Board{} }

// Render publishes m. The engine never mutates a model after rendering it,
// so it is stored as is.
func (b *Board) Render(m view.Model) {
	b.mu.Lock()
	b.model = m
	b.ready = true
	b.mu.Unlock()
}

// Snapshot returns the current model and whether anything was rendered yet.
func (b *Board) Snapshot() (view.Model, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model, b.ready
}
