package mention

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/itchan-dev/forllm/frontend/internal/editor"
	"github.com/itchan-dev/forllm/shared/domain"
	"github.com/itchan-dev/forllm/shared/logger"
)

const DefaultBlurGrace = 200 * time.Millisecond

// Source finds personas matching a query. personas.Cache implements it.
type Source interface {
	Search(ctx context.Context, query string) ([]domain.Persona, error)
}

type Options struct {
	BlurGrace   time.Duration
	MaxQueryLen int
}

// Controller binds the mention state machine to one editor.
// Lookups run in the background; Wait blocks until they have been applied.
type Controller struct {
	id       string
	buf      editor.Buffer
	source   Source
	registry *Registry
	rules    Rules
	grace    time.Duration

	mu        sync.Mutex
	state     State
	blurTimer *time.Timer
	lookups   sync.WaitGroup
}

func NewController(buf editor.Buffer, source Source, registry *Registry, opts Options) *Controller {
	grace := opts.BlurGrace
	if grace <= 0 {
		grace = DefaultBlurGrace
	}
	return &Controller{
		id:       uuid.NewString(),
		buf:      buf,
		source:   source,
		registry: registry,
		rules:    Rules{MaxQueryLen: opts.MaxQueryLen},
		grace:    grace,
		state:    State{SelectedIndex: -1},
	}
}

func (c *Controller) ID() string { return c.id }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Handle feeds ev through the state machine and applies the resulting effects.
// It reports whether the editor's default handling of the key must be suppressed.
func (c *Controller) Handle(ctx context.Context, ev Event) bool {
	c.mu.Lock()
	prev := c.state
	next, effects := c.rules.Transition(prev, ev, c.buf)
	c.state = next
	c.mu.Unlock()

	if prev.Mode != next.Mode {
		logger.Log.Debug("mention session changed",
			"component", "mention",
			"editor", c.id,
			"mode", next.Mode.String())
	}
	return c.apply(ctx, next, effects)
}

func (c *Controller) apply(ctx context.Context, s State, effects []Effect) bool {
	prevent := false
	for _, effect := range effects {
		switch e := effect.(type) {
		case Activated:
			c.registry.activate(ctx, c)
		case Lookup:
			c.lookup(ctx, e.Query)
		case Commit:
			c.buf.Replace(e.From, e.To, e.Persona.MentionTag())
			c.buf.Focus()
		case PreventDefault:
			prevent = true
		case ShowOverlay:
			c.registry.show(c, s)
		case HideOverlay:
			c.stopBlurTimer()
			c.registry.release(c)
		case ScheduleBlur:
			c.scheduleBlur(ctx, e.Generation)
		}
	}
	return prevent
}

func (c *Controller) lookup(ctx context.Context, query string) {
	ctx = context.WithoutCancel(ctx)
	c.lookups.Add(1)
	go func() {
		defer c.lookups.Done()
		personas, err := c.source.Search(ctx, query)
		if err != nil {
			logger.Log.Warn("persona lookup failed",
				"component", "mention",
				"query", query,
				"error", err)
		}
		c.Handle(ctx, Results{Query: query, Personas: personas, Err: err})
	}()
}

func (c *Controller) scheduleBlur(ctx context.Context, generation uint64) {
	ctx = context.WithoutCancel(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blurTimer != nil {
		c.blurTimer.Stop()
	}
	c.blurTimer = time.AfterFunc(c.grace, func() {
		c.Handle(ctx, BlurExpired{Generation: generation})
	})
}

func (c *Controller) stopBlurTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blurTimer != nil {
		c.blurTimer.Stop()
		c.blurTimer = nil
	}
}

// Wait blocks until every lookup started so far has delivered its results.
func (c *Controller) Wait() {
	c.lookups.Wait()
}

// Close cancels the session and stops pending timers.
func (c *Controller) Close() {
	c.Handle(context.Background(), Cancel{})
	c.stopBlurTimer()
	c.Wait()
}
