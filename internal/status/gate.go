package status

import (
	"context"
	"log/slog"
	"sync"

	"bookwatch/internal/logging"
)

// Gate suppresses repeated rescans for completion data already reacted to.
// State is tracked per monitored entity.
type Gate struct {
	mu     sync.Mutex
	last   map[string]string
	busy   map[string]bool
	logger *slog.Logger
}

// NewGate constructs an empty gate.
func NewGate(logger *slog.Logger) *Gate {
	return &Gate{
		last:   make(map[string]string),
		busy:   make(map[string]bool),
		logger: logging.NewComponentLogger(logger, "status-gate"),
	}
}

// Observe runs rescan when signature is non-empty, differs from the last
// signature seen for entityID, and no rescan for entityID is in flight. The
// signature is recorded before rescan runs, so a failed rescan is not retried
// for the same data. It reports whether rescan was invoked.
func (g *Gate) Observe(ctx context.Context, entityID, signature string, rescan func(context.Context) error) (bool, error) {
	if signature == "" || rescan == nil {
		return false, nil
	}

	g.mu.Lock()
	if g.last[entityID] == signature {
		g.mu.Unlock()
		return false, nil
	}
	if g.busy[entityID] {
		g.mu.Unlock()
		g.logger.Debug("rescan already in flight",
			logging.String(logging.FieldEntityID, entityID),
			logging.String(logging.FieldEventType, "rescan_collapsed"),
		)
		return false, nil
	}
	g.last[entityID] = signature
	g.busy[entityID] = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.busy[entityID] = false
		g.mu.Unlock()
	}()

	g.logger.Info("completed downloads detected; rescanning",
		logging.String(logging.FieldEntityID, entityID),
		logging.String(logging.FieldEventType, "rescan_triggered"),
	)
	return true, rescan(ctx)
}

// Last returns the signature most recently accepted for entityID.
func (g *Gate) Last(entityID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last[entityID]
}

// Reset forgets the signature for entityID.
func (g *Gate) Reset(entityID string) {
	g.mu.Lock()
	delete(g.last, entityID)
	g.mu.Unlock()
}
