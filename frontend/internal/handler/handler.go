package handler

import (
	"context"
	"net/http"

	"github.com/itchan-dev/forllm/frontend/internal/compose"
	"github.com/itchan-dev/forllm/frontend/internal/markdown"
	"github.com/itchan-dev/forllm/frontend/internal/mention"
	"github.com/itchan-dev/forllm/frontend/internal/thread"
	"github.com/itchan-dev/forllm/shared/config"
	"github.com/itchan-dev/forllm/shared/domain"
)

// Forum is the part of the API client the page handlers call directly.
type Forum interface {
	ListSubforums(ctx context.Context) ([]domain.Subforum, error)
	CreateSubforum(ctx context.Context, name string) (domain.Subforum, error)
	ListTopics(ctx context.Context, subforumId domain.SubforumId) ([]domain.Topic, error)
	GetTopicPosts(ctx context.Context, topicId domain.TopicId) ([]domain.Post, error)
	RequestLLM(ctx context.Context, postId domain.PostId) error
}

type PersonaSearcher interface {
	Search(ctx context.Context, query string) ([]domain.Persona, error)
}

type Handler struct {
	Forum         Forum
	Personas      PersonaSearcher
	TextProcessor *markdown.TextProcessor
	Renderer      *thread.Renderer
	Workspaces    *compose.Manager
	Overlay       *mention.MemoryOverlay
	Public        config.Public
}

func New(forum Forum, personas PersonaSearcher, textProcessor *markdown.TextProcessor, workspaces *compose.Manager, overlay *mention.MemoryOverlay, publicCfg config.Public) *Handler {
	return &Handler{
		Forum:         forum,
		Personas:      personas,
		TextProcessor: textProcessor,
		Renderer:      thread.NewRenderer(textProcessor),
		Workspaces:    workspaces,
		Overlay:       overlay,
		Public:        publicCfg,
	}
}

// Health is a liveness probe endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
