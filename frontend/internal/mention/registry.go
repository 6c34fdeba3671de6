package mention

import (
	"context"
	"sync"

	"github.com/itchan-dev/forllm/shared/domain"
)

const noResultsPlaceholder = "No matching personas"

// Suggestions is what the shared overlay shows for the active session.
type Suggestions struct {
	Owner       string           `json:"owner"`
	Query       string           `json:"query"`
	Personas    []domain.Persona `json:"personas"`
	Selected    int              `json:"selected"`
	Placeholder string           `json:"placeholder,omitempty"`
}

// Overlay is the single suggestion list shared by every editor.
type Overlay interface {
	Show(s Suggestions)
	Hide()
}

// Registry allows at most one composing session at a time and owns the overlay.
// Activating a session in one editor cancels the session of the previous one.
type Registry struct {
	mu      sync.Mutex
	active  *Controller
	overlay Overlay
}

func NewRegistry(overlay Overlay) *Registry {
	if overlay == nil {
		overlay = &MemoryOverlay{}
	}
	return &Registry{overlay: overlay}
}

// Active returns the controller whose session is composing, or nil.
func (r *Registry) Active() *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *Registry) activate(ctx context.Context, c *Controller) {
	r.mu.Lock()
	prev := r.active
	r.active = c
	r.mu.Unlock()

	if prev != nil && prev != c {
		prev.Handle(ctx, Cancel{})
	}
}

func (r *Registry) release(c *Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != c {
		return
	}
	r.active = nil
	r.overlay.Hide()
}

func (r *Registry) show(c *Controller, s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != c {
		return
	}
	sg := Suggestions{
		Owner:    c.ID(),
		Query:    s.Query,
		Personas: s.Results,
		Selected: s.SelectedIndex,
	}
	if len(s.Results) == 0 {
		sg.Placeholder = noResultsPlaceholder
	}
	r.overlay.Show(sg)
}

// MemoryOverlay keeps the last shown suggestions for callers that poll them.
type MemoryOverlay struct {
	mu      sync.RWMutex
	current Suggestions
	visible bool
}

func (o *MemoryOverlay) Show(s Suggestions) {
	o.mu.Lock()
	o.current = s
	o.visible = true
	o.mu.Unlock()
}

func (o *MemoryOverlay) Hide() {
	o.mu.Lock()
	o.current = Suggestions{}
	o.visible = false
	o.mu.Unlock()
}

// Current returns the visible suggestions, if any.
func (o *MemoryOverlay) Current() (Suggestions, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current, o.visible
}
