package compose

import (
	"context"
	"sync"
	"time"

	"github.com/itchan-dev/forllm/shared/logger"
)

type entry struct {
	w       *Workspace
	touched time.Time
}

// Manager keeps the open workspaces of the process by id.
type Manager struct {
	deps Deps
	now  func() time.Time

	mu         sync.Mutex
	workspaces map[string]*entry
}

func NewManager(deps Deps) *Manager {
	return &Manager{deps: deps, now: time.Now, workspaces: make(map[string]*entry)}
}

func (m *Manager) Open(kind Kind) *Workspace {
	w := New(kind, m.deps)
	m.mu.Lock()
	m.workspaces[w.ID] = &entry{w: w, touched: m.now()}
	m.mu.Unlock()
	logger.Log.Debug("workspace opened", "workspace", w.ID, "kind", kind)
	return w
}

// Get returns the workspace and marks it as in use.
func (m *Manager) Get(id string) (*Workspace, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.workspaces[id]
	if !ok {
		return nil, false
	}
	e.touched = m.now()
	return e.w, true
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workspaces)
}

// Close abandons the workspace and discards its staged files.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	e, ok := m.workspaces[id]
	delete(m.workspaces, id)
	m.mu.Unlock()
	if ok {
		abandon(e.w)
	}
	return ok
}

// abandon closes the estimator before clearing the stager, so the stager's
// change hook issues no estimate for a dead workspace.
func abandon(w *Workspace) {
	w.Close()
	w.Stager.Clear()
}

// Sweep abandons every workspace not used for longer than idle and
// returns how many were closed.
func (m *Manager) Sweep(idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	var stale []*Workspace
	m.mu.Lock()
	for id, e := range m.workspaces {
		if e.touched.Before(cutoff) {
			stale = append(stale, e.w)
			delete(m.workspaces, id)
		}
	}
	m.mu.Unlock()

	for _, w := range stale {
		abandon(w)
		logger.Log.Debug("idle workspace abandoned", "component", "compose", "workspace", w.ID)
	}
	return len(stale)
}

// StartIdleSweep periodically abandons workspaces idle for longer than idle,
// until ctx is done.
func (m *Manager) StartIdleSweep(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	logger.Log.Info("started idle workspace sweep",
		"component", "compose",
		"interval", interval,
		"idle_ttl", idle)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(idle); n > 0 {
					logger.Log.Info("abandoned idle workspaces",
						"component", "compose",
						"count", n)
				}
			case <-ctx.Done():
				logger.Log.Info("idle workspace sweep shutting down gracefully",
					"component", "compose")
				return
			}
		}
	}()
}

// CloseAll is called on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.workspaces
	m.workspaces = make(map[string]*entry)
	m.mu.Unlock()
	for _, e := range all {
		abandon(e.w)
	}
}
