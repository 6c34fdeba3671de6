package tokens

import (
	"strconv"
	"sync"
)

// Snapshot is what an editor's budget panel shows.
type Snapshot struct {
	View        View   `json:"view"`
	Total       string `json:"total"`
	Window      string `json:"window"`
	Unavailable bool   `json:"unavailable"`
	Ready       bool   `json:"ready"`
}

// MemoryDisplay keeps the latest estimate for callers that poll it.
type MemoryDisplay struct {
	mu      sync.RWMutex
	current Snapshot
}

func (d *MemoryDisplay) Show(v View) {
	d.mu.Lock()
	d.current = Snapshot{
		View:   v,
		Total:  strconv.Itoa(v.Breakdown.TotalEstimatedTokens),
		Window: strconv.Itoa(v.Breakdown.ModelContextWindow),
		Ready:  true,
	}
	d.mu.Unlock()
}

func (d *MemoryDisplay) ShowUnavailable(err error) {
	d.mu.Lock()
	d.current = Snapshot{
		Total:       "Error",
		Window:      "N/A",
		Unavailable: true,
		Ready:       true,
	}
	d.mu.Unlock()
}

func (d *MemoryDisplay) Current() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}
