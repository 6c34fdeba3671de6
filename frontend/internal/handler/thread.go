package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/forllm/frontend/internal/thread"
	internal_errors "github.com/itchan-dev/forllm/shared/errors"
	"github.com/itchan-dev/forllm/shared/logger"
	"github.com/itchan-dev/forllm/shared/utils"
)

// parseId reads a positive integer URL parameter.
func parseId(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &internal_errors.ValidationError{Field: param, Message: fmt.Sprintf("invalid id %q", raw)}
	}
	return id, nil
}

func (h *Handler) ThreadGetHandler(w http.ResponseWriter, r *http.Request) {
	topicId, err := parseId(r, "topic")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	posts, err := h.Forum.GetTopicPosts(r.Context(), topicId)
	if err != nil {
		logger.Log.Error("failed to load topic", "topic_id", topicId, "error", err)
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if len(posts) > 0 && checkNotModified(w, r, lastModified(posts)) {
		return
	}

	roots, err := thread.Build(posts)
	if err != nil {
		logger.Log.Error("failed to build thread", "topic_id", topicId, "error", err)
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	rendered, err := h.Renderer.Render(roots)
	if err != nil {
		logger.Log.Error("failed to render thread", "topic_id", topicId, "error", err)
		http.Error(w, "Internal Server Error rendering thread", http.StatusInternalServerError)
		return
	}

	data := pageData{Title: fmt.Sprintf("Topic %d", topicId), TopicId: topicId}
	if len(roots) > 0 {
		data.Posts = rendered
	}
	renderPage(w, http.StatusOK, data)
}

// RequestLLMHandler asks the API to queue an LLM answer to a post.
func (h *Handler) RequestLLMHandler(w http.ResponseWriter, r *http.Request) {
	postId, err := parseId(r, "post")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.Forum.RequestLLM(r.Context(), postId); err != nil {
		logger.Log.Error("failed to request LLM response", "post_id", postId, "error", err)
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
