package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/itchan-dev/forllm/shared/api"
	"github.com/itchan-dev/forllm/shared/domain"
	"github.com/itchan-dev/forllm/shared/logger"
	"github.com/itchan-dev/forllm/shared/metrics"
)

const DefaultDebounce = 750 * time.Millisecond

type Gateway interface {
	EstimateTokens(ctx context.Context, req api.EstimateTokensRequest) (domain.TokenBreakdown, error)
}

// Display receives every estimate that is still current when it arrives.
type Display interface {
	Show(v View)
	ShowUnavailable(err error)
}

// Selection is the state of an editor's persona selector.
type Selection struct {
	Present   bool
	Visible   bool
	IsDefault bool
	PersonaId domain.PersonaId
}

// RequestId returns the persona id to send, or nil when the server should use its default.
func (s Selection) RequestId() *int64 {
	if !s.Present || !s.Visible || s.IsDefault || s.PersonaId == 0 {
		return nil
	}
	id := s.PersonaId
	return &id
}

type Options struct {
	Debounce   time.Duration
	Thresholds Thresholds
}

// Estimator keeps the token estimate of one editor up to date.
// Draft edits are debounced; persona and attachment changes recompute at once.
// Only the response to the most recently issued request reaches the display.
type Estimator struct {
	gateway    Gateway
	display    Display
	extractor  *Extractor
	debouncer  *Debouncer
	thresholds Thresholds

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	draft       string
	selection   Selection
	attachments []domain.StagedAttachment
	issued      uint64
	inflight    sync.WaitGroup
}

func NewEstimator(gateway Gateway, display Display, extractor *Extractor, opts Options) *Estimator {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Estimator{
		gateway:    gateway,
		display:    display,
		extractor:  extractor,
		debouncer:  NewDebouncer(opts.Debounce),
		thresholds: opts.Thresholds,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// DraftChanged records the new draft and restarts the debounce timer.
// An unchanged draft (cursor movement, modifier keys) is ignored.
func (e *Estimator) DraftChanged(text string) {
	e.mu.Lock()
	if text == e.draft || e.ctx.Err() != nil {
		e.mu.Unlock()
		return
	}
	e.draft = text
	e.mu.Unlock()
	e.debouncer.Debounce(e.issue)
}

func (e *Estimator) PersonaChanged(sel Selection) {
	e.mu.Lock()
	e.selection = sel
	e.mu.Unlock()
	e.debouncer.Immediate(e.issue)
}

// AttachmentsChanged is the stager's change hook.
func (e *Estimator) AttachmentsChanged(files []domain.StagedAttachment) {
	e.mu.Lock()
	e.attachments = append([]domain.StagedAttachment(nil), files...)
	e.mu.Unlock()
	e.extractor.Invalidate()
	e.debouncer.Immediate(e.issue)
}

func (e *Estimator) issue() {
	e.mu.Lock()
	if e.ctx.Err() != nil {
		e.mu.Unlock()
		return
	}
	e.issued++
	seq := e.issued
	draft := e.draft
	personaId := e.selection.RequestId()
	files := e.attachments
	e.inflight.Add(1)
	e.mu.Unlock()

	req := api.EstimateTokensRequest{
		CurrentPostText:   draft,
		SelectedPersonaId: personaId,
		AttachmentsText:   e.extractor.Text(files),
	}
	go func() {
		defer e.inflight.Done()
		breakdown, err := e.gateway.EstimateTokens(e.ctx, req)
		e.deliver(seq, breakdown, err)
	}()
}

func (e *Estimator) deliver(seq uint64, breakdown domain.TokenBreakdown, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if seq != e.issued {
		metrics.EstimateDiscarded()
		logger.Log.Debug("discarding superseded token estimate",
			"component", "token_estimator",
			"seq", seq,
			"latest", e.issued)
		return
	}
	if err != nil {
		logger.Log.Warn("token estimation failed",
			"component", "token_estimator",
			"error", err)
		e.display.ShowUnavailable(err)
		return
	}
	e.display.Show(e.thresholds.View(breakdown))
}

// Wait blocks until every issued request has been answered.
func (e *Estimator) Wait() {
	e.inflight.Wait()
}

// Close stops the debounce timer and abandons in-flight requests.
// Changes reported after Close issue nothing.
func (e *Estimator) Close() {
	e.debouncer.Cancel()
	e.mu.Lock()
	e.cancel()
	e.mu.Unlock()
	e.Wait()
}
