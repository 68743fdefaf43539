package orchestrator

import (
	"fmt"
	"sync"
)

// DuplicateError reports that a request repeated the id of the last
// successful download. It is a policy rejection, not a fault.
type DuplicateError struct {
	ID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("media %s was just downloaded, wait before requesting it again", e.ID)
}

// Guard remembers the id of the last successfully completed download
// and rejects an immediate repeat. A single slot on purpose: only the
// preceding success counts, not a history.
type Guard struct {
	mu     sync.Mutex
	lastID string
}

func NewGuard() *Guard {
	return &Guard{}
}

// Check is the read-only comparison performed before a transfer
// starts.
func (g *Guard) Check(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id != "" && id == g.lastID {
		return &DuplicateError{ID: id}
	}
	return nil
}

// Remember stores id. Called only after a transfer fully succeeds; a
// failed transfer leaves the slot unchanged so the same id can be
// retried immediately.
func (g *Guard) Remember(id string) {
	g.mu.Lock()
	g.lastID = id
	g.mu.Unlock()
}

// Last returns the currently stored id.
func (g *Guard) Last() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastID
}
