package mention

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/itchan-dev/forllm/frontend/internal/editor"
	"github.com/itchan-dev/forllm/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// Mock source for testing
type mockSource struct {
	searchFunc func(ctx context.Context, query string) ([]domain.Persona, error)
	calls      atomic.Int32
}

func (m *mockSource) Search(ctx context.Context, query string) ([]domain.Persona, error) {
	m.calls.Add(1)
	if m.searchFunc != nil {
		return m.searchFunc(ctx, query)
	}
	var matches []domain.Persona
	for _, p := range []domain.Persona{ada, grace, linus} {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

func newTestController(buf editor.Buffer, source Source, registry *Registry) *Controller {
	return NewController(buf, source, registry, Options{BlurGrace: 20 * time.Millisecond})
}

func typeInto(c *Controller, buf *editor.TextBuffer, text string) {
	for _, r := range text {
		buf.Insert(string(r))
		c.Handle(context.Background(), KeyUp{Key: string(r)})
	}
	c.Wait()
}

func TestController_CommitWritesMentionTag(t *testing.T) {
	overlay := &MemoryOverlay{}
	registry := NewRegistry(overlay)
	buf := editor.NewTextBuffer("ask ")
	c := newTestController(buf, &mockSource{}, registry)

	typeInto(c, buf, "@ad")
	require.Equal(t, []domain.Persona{ada}, c.State().Results)

	shown, visible := overlay.Current()
	require.True(t, visible)
	assert.Equal(t, c.ID(), shown.Owner)
	assert.Equal(t, "ad", shown.Query)

	assert.True(t, c.Handle(context.Background(), KeyDown{Key: "ArrowDown"}))
	assert.True(t, c.Handle(context.Background(), KeyDown{Key: "Enter"}))

	assert.Equal(t, "ask @[Ada](42)", buf.Value())
	assert.Equal(t, editor.Position{Line: 0, Column: 14}, buf.Cursor())
	assert.True(t, buf.Focused())
	assert.False(t, c.State().Active())
	assert.Nil(t, registry.Active())
	_, visible = overlay.Current()
	assert.False(t, visible)
}

func TestController_CommitAtBareAnchor(t *testing.T) {
	buf := editor.NewTextBuffer("")
	c := newTestController(buf, &mockSource{}, NewRegistry(nil))

	typeInto(c, buf, "@")
	require.Len(t, c.State().Results, 3)
	c.Handle(context.Background(), Click{Index: 0})

	assert.Equal(t, "@[Ada](42)", buf.Value())
}

func TestController_DefaultOnlySuppressedWhileComposing(t *testing.T) {
	buf := editor.NewTextBuffer("")
	c := newTestController(buf, &mockSource{}, NewRegistry(nil))

	assert.False(t, c.Handle(context.Background(), KeyDown{Key: "Enter"}))
	typeInto(c, buf, "@")
	assert.True(t, c.Handle(context.Background(), KeyDown{Key: "Escape"}))
	assert.False(t, c.Handle(context.Background(), KeyDown{Key: "Escape"}))
}

func TestController_LookupFailureShowsPlaceholder(t *testing.T) {
	overlay := &MemoryOverlay{}
	source := &mockSource{searchFunc: func(ctx context.Context, query string) ([]domain.Persona, error) {
		return nil, assert.AnError
	}}
	buf := editor.NewTextBuffer("")
	c := newTestController(buf, source, NewRegistry(overlay))

	typeInto(c, buf, "@a")

	assert.True(t, c.State().Active())
	assert.True(t, c.State().LookupFailed)
	shown, visible := overlay.Current()
	require.True(t, visible)
	assert.Equal(t, noResultsPlaceholder, shown.Placeholder)
	assert.Empty(t, shown.Personas)
}

func TestController_StaleLookupDropped(t *testing.T) {
	release := make(chan struct{})
	source := &mockSource{searchFunc: func(ctx context.Context, query string) ([]domain.Persona, error) {
		if query == "" {
			<-release
			return []domain.Persona{ada, grace, linus}, nil
		}
		return []domain.Persona{grace}, nil
	}}
	buf := editor.NewTextBuffer("")
	c := newTestController(buf, source, NewRegistry(nil))

	buf.Insert("@")
	c.Handle(context.Background(), KeyUp{Key: "@"})
	buf.Insert("g")
	c.Handle(context.Background(), KeyUp{Key: "g"})
	close(release)
	c.Wait()

	assert.Equal(t, "g", c.State().Query)
	assert.Equal(t, []domain.Persona{grace}, c.State().Results)
}

func TestRegistry_SingleActiveSession(t *testing.T) {
	overlay := &MemoryOverlay{}
	registry := NewRegistry(overlay)
	bufA := editor.NewTextBuffer("")
	bufB := editor.NewTextBuffer("")
	a := newTestController(bufA, &mockSource{}, registry)
	b := newTestController(bufB, &mockSource{}, registry)

	typeInto(a, bufA, "@")
	require.Same(t, a, registry.Active())

	typeInto(b, bufB, "@li")
	assert.Same(t, b, registry.Active())
	assert.False(t, a.State().Active())
	assert.True(t, b.State().Active())
	assert.Equal(t, "@", bufA.Value())

	shown, visible := overlay.Current()
	require.True(t, visible)
	assert.Equal(t, b.ID(), shown.Owner)
	assert.Equal(t, []domain.Persona{linus}, shown.Personas)

	// cancelling the replaced session must not hide the new one's overlay
	a.Handle(context.Background(), Cancel{})
	_, visible = overlay.Current()
	assert.True(t, visible)
}

func TestController_BlurGrace(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("cancels after grace", func(t *testing.T) {
		buf := editor.NewTextBuffer("")
		c := newTestController(buf, &mockSource{}, NewRegistry(nil))
		typeInto(c, buf, "@a")

		c.Handle(context.Background(), Blur{})
		assert.True(t, c.State().Active())
		assert.Eventually(t, func() bool { return !c.State().Active() }, time.Second, 5*time.Millisecond)
		assert.Equal(t, "@a", buf.Value())
	})

	t.Run("blur into overlay keeps session", func(t *testing.T) {
		buf := editor.NewTextBuffer("")
		c := newTestController(buf, &mockSource{}, NewRegistry(nil))
		typeInto(c, buf, "@")

		c.Handle(context.Background(), Blur{IntoOverlay: true})
		time.Sleep(60 * time.Millisecond)
		assert.True(t, c.State().Active())
		c.Close()
	})

	t.Run("click within grace commits", func(t *testing.T) {
		buf := editor.NewTextBuffer("")
		c := newTestController(buf, &mockSource{}, NewRegistry(nil))
		typeInto(c, buf, "@gr")

		c.Handle(context.Background(), Blur{})
		c.Handle(context.Background(), Click{Index: 0})
		time.Sleep(60 * time.Millisecond)

		assert.Equal(t, "@[Grace](7)", buf.Value())
		assert.False(t, c.State().Active())
	})

	t.Run("typing within grace keeps session", func(t *testing.T) {
		buf := editor.NewTextBuffer("")
		c := newTestController(buf, &mockSource{}, NewRegistry(nil))
		typeInto(c, buf, "@")

		c.Handle(context.Background(), Blur{})
		typeInto(c, buf, "a")
		time.Sleep(60 * time.Millisecond)
		assert.True(t, c.State().Active())
		c.Close()
	})
}
