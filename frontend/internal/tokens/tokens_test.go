package tokens

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/itchan-dev/forllm/shared/api"
	"github.com/itchan-dev/forllm/shared/domain"
	"github.com/itchan-dev/forllm/shared/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// Mock gateway for testing - records every request
type mockGateway struct {
	mu         sync.Mutex
	requests   []api.EstimateTokensRequest
	estimateFn func(ctx context.Context, req api.EstimateTokensRequest) (domain.TokenBreakdown, error)
}

func (m *mockGateway) EstimateTokens(ctx context.Context, req api.EstimateTokensRequest) (domain.TokenBreakdown, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.estimateFn != nil {
		return m.estimateFn(ctx, req)
	}
	return domain.TokenBreakdown{
		PostContentTokens:    len(req.CurrentPostText),
		TotalEstimatedTokens: len(req.CurrentPostText),
		ModelContextWindow:   100,
		ModelName:            "llama3",
	}, nil
}

func (m *mockGateway) Requests() []api.EstimateTokensRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]api.EstimateTokensRequest(nil), m.requests...)
}

func newTestEstimator(gw Gateway, debounce time.Duration) (*Estimator, *MemoryDisplay) {
	display := &MemoryDisplay{}
	policy := validation.NewTextPolicy([]string{"text/plain", "text/markdown"}, []string{".txt", ".md", ".go"})
	e := NewEstimator(gw, display, NewExtractor(policy), Options{Debounce: debounce})
	return e, display
}

func TestDebouncer(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(30 * time.Millisecond)

	for i := 0; i < 5; i++ {
		d.Debounce(func() { calls.Add(1) })
	}
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	d.Debounce(func() { calls.Add(1) })
	d.Cancel()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	d.Debounce(func() { calls.Add(100) })
	d.Immediate(func() { calls.Add(1) })
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEstimator_RapidEditsCollapse(t *testing.T) {
	gw := &mockGateway{}
	e, display := newTestEstimator(gw, 50*time.Millisecond)
	defer e.Close()

	for _, text := range []string{"h", "he", "hel", "hell", "hello"} {
		e.DraftChanged(text)
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return len(gw.Requests()) == 1 }, time.Second, 5*time.Millisecond)
	e.Wait()
	time.Sleep(80 * time.Millisecond)

	requests := gw.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "hello", requests[0].CurrentPostText)
	assert.Equal(t, "5", display.Current().Total)
}

func TestEstimator_StaleResponseDiscarded(t *testing.T) {
	releaseA := make(chan struct{})
	gw := &mockGateway{estimateFn: func(ctx context.Context, req api.EstimateTokensRequest) (domain.TokenBreakdown, error) {
		if req.CurrentPostText == "A" {
			<-releaseA
			return domain.TokenBreakdown{TotalEstimatedTokens: 11, ModelContextWindow: 100}, nil
		}
		return domain.TokenBreakdown{TotalEstimatedTokens: 22, ModelContextWindow: 100}, nil
	}}
	e, display := newTestEstimator(gw, time.Hour)
	defer e.Close()

	e.DraftChanged("A")
	e.PersonaChanged(Selection{})
	e.DraftChanged("B")
	e.PersonaChanged(Selection{})

	assert.Eventually(t, func() bool { return display.Current().Total == "22" }, time.Second, 5*time.Millisecond)
	close(releaseA)
	e.Wait()

	assert.Equal(t, "22", display.Current().Total)
	assert.Len(t, gw.Requests(), 2)
}

func TestEstimator_ErrorThenRecovery(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	gw := &mockGateway{estimateFn: func(ctx context.Context, req api.EstimateTokensRequest) (domain.TokenBreakdown, error) {
		if fail.Load() {
			return domain.TokenBreakdown{}, assert.AnError
		}
		return domain.TokenBreakdown{TotalEstimatedTokens: 91, ModelContextWindow: 100}, nil
	}}
	e, display := newTestEstimator(gw, time.Hour)
	defer e.Close()

	e.PersonaChanged(Selection{})
	e.Wait()
	snap := display.Current()
	assert.True(t, snap.Unavailable)
	assert.Equal(t, "Error", snap.Total)
	assert.Equal(t, "N/A", snap.Window)

	fail.Store(false)
	e.PersonaChanged(Selection{})
	e.Wait()
	snap = display.Current()
	assert.False(t, snap.Unavailable)
	assert.Equal(t, "91", snap.Total)
	assert.Equal(t, Critical, snap.View.Band)
}

func TestEstimator_UnchangedDraftIssuesNothing(t *testing.T) {
	gw := &mockGateway{}
	e, _ := newTestEstimator(gw, 10*time.Millisecond)
	defer e.Close()

	e.DraftChanged("hello")
	assert.Eventually(t, func() bool { return len(gw.Requests()) == 1 }, time.Second, 5*time.Millisecond)
	e.Wait()

	e.DraftChanged("hello")
	e.DraftChanged("hello")
	time.Sleep(40 * time.Millisecond)
	e.Wait()
	assert.Len(t, gw.Requests(), 1)
}

func TestEstimator_ClosedIssuesNothing(t *testing.T) {
	gw := &mockGateway{}
	e, _ := newTestEstimator(gw, time.Hour)

	e.Close()
	e.AttachmentsChanged(nil)
	e.PersonaChanged(Selection{Present: true, Visible: true, PersonaId: 3})
	e.DraftChanged("late")
	e.Wait()

	assert.Empty(t, gw.Requests())
}

func TestSelection_RequestId(t *testing.T) {
	tests := []struct {
		name     string
		sel      Selection
		expected *int64
	}{
		{"no selector", Selection{PersonaId: 5}, nil},
		{"hidden", Selection{Present: true, PersonaId: 5}, nil},
		{"default", Selection{Present: true, Visible: true, IsDefault: true, PersonaId: 5}, nil},
		{"nothing picked", Selection{Present: true, Visible: true}, nil},
		{"picked", Selection{Present: true, Visible: true, PersonaId: 5}, ptr(int64(5))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.sel.RequestId())
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestEstimator_PersonaChangeIsImmediate(t *testing.T) {
	gw := &mockGateway{}
	e, _ := newTestEstimator(gw, time.Hour)
	defer e.Close()

	e.DraftChanged("draft")
	e.PersonaChanged(Selection{Present: true, Visible: true, PersonaId: 42})
	e.Wait()

	requests := gw.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "draft", requests[0].CurrentPostText)
	require.NotNil(t, requests[0].SelectedPersonaId)
	assert.Equal(t, int64(42), *requests[0].SelectedPersonaId)
}

// countingBlob counts how often its content is read
type countingBlob struct {
	domain.BytesBlob
	opens atomic.Int32
}

func (b *countingBlob) Open() (io.ReadCloser, error) {
	b.opens.Add(1)
	return b.BytesBlob.Open()
}

func staged(id domain.LocalId, blob domain.Blob) domain.StagedAttachment {
	return domain.StagedAttachment{LocalId: id, File: blob}
}

func TestEstimator_AttachmentText(t *testing.T) {
	gw := &mockGateway{}
	e, _ := newTestEstimator(gw, time.Hour)
	defer e.Close()

	notes := &countingBlob{BytesBlob: domain.BytesBlob{Filename: "notes.md", MimeType: "text/markdown", Data: []byte("# plan")}}
	code := &countingBlob{BytesBlob: domain.BytesBlob{Filename: "main.go", MimeType: "application/octet-stream", Data: []byte("package main")}}
	image := &countingBlob{BytesBlob: domain.BytesBlob{Filename: "cat.txt", MimeType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}}

	e.AttachmentsChanged([]domain.StagedAttachment{staged(1, notes), staged(2, code), staged(3, image)})
	e.Wait()

	requests := gw.Requests()
	require.Len(t, requests, 1)
	text := requests[0].AttachmentsText
	assert.Contains(t, text, "--- Attachment: notes.md ---")
	assert.Contains(t, text, "# plan")
	assert.Contains(t, text, "package main")
	assert.NotContains(t, text, "cat.txt")
	assert.Less(t, strings.Index(text, "# plan"), strings.Index(text, "package main"))
	assert.Equal(t, int32(0), image.opens.Load())

	// same files, persona change only: cached text is reused
	e.PersonaChanged(Selection{})
	e.Wait()
	assert.Equal(t, int32(1), notes.opens.Load())
}

func TestExtractor_CacheByFingerprint(t *testing.T) {
	x := NewExtractor(validation.NewTextPolicy([]string{"text/plain"}, nil))
	a := &countingBlob{BytesBlob: domain.BytesBlob{Filename: "a.txt", MimeType: "text/plain", Data: []byte("one")}}
	b := &countingBlob{BytesBlob: domain.BytesBlob{Filename: "b.txt", MimeType: "text/plain", Data: []byte("two")}}

	first := x.Text([]domain.StagedAttachment{staged(1, a)})
	assert.Equal(t, first, x.Text([]domain.StagedAttachment{staged(1, a)}))
	assert.Equal(t, int32(1), a.opens.Load())

	both := x.Text([]domain.StagedAttachment{staged(1, a), staged(2, b)})
	assert.Contains(t, both, "two")
	assert.Equal(t, int32(2), a.opens.Load())

	x.Invalidate()
	x.Text([]domain.StagedAttachment{staged(1, a), staged(2, b)})
	assert.Equal(t, int32(3), a.opens.Load())
}

func TestExtractor_ByteOrderMarks(t *testing.T) {
	x := NewExtractor(validation.NewTextPolicy([]string{"text/plain"}, nil))

	utf8BOM := &domain.BytesBlob{Filename: "a.txt", MimeType: "text/plain", Data: []byte("\xef\xbb\xbfhello")}
	text := x.Text([]domain.StagedAttachment{staged(1, utf8BOM)})
	assert.True(t, strings.HasSuffix(text, "\n\nhello"), "got %q", text)

	utf16 := &domain.BytesBlob{Filename: "b.txt", MimeType: "text/plain", Data: []byte{0xff, 0xfe, 'h', 0, 'i', 0}}
	text = x.Text([]domain.StagedAttachment{staged(1, utf16)})
	assert.True(t, strings.HasSuffix(text, "\n\nhi"), "got %q", text)
}

func TestSaturation(t *testing.T) {
	tests := []struct {
		total, window int
		percent       float64
		band          Band
	}{
		{91, 100, 91, Critical},
		{50, 100, 50, Nominal},
		{70, 100, 70, Warning},
		{89, 100, 89, Warning},
		{90, 100, 90, Critical},
		{150, 100, 100, Critical},
		{10, 0, 0, Nominal},
		{10, -5, 0, Nominal},
	}
	for _, tt := range tests {
		pct := Saturation(tt.total, tt.window)
		assert.InDelta(t, tt.percent, pct, 0.001, "%d/%d", tt.total, tt.window)
		assert.Equal(t, tt.band, DefaultThresholds.Band(pct), "%d/%d", tt.total, tt.window)
	}

	custom := Thresholds{WarningPct: 50, CriticalPct: 60}
	assert.Equal(t, Warning, custom.View(domain.TokenBreakdown{TotalEstimatedTokens: 55, ModelContextWindow: 100}).Band)
}
