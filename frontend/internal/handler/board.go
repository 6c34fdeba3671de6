package handler

import (
	"net/http"
	"strings"

	"github.com/itchan-dev/forllm/shared/api"
	internal_errors "github.com/itchan-dev/forllm/shared/errors"
	"github.com/itchan-dev/forllm/shared/logger"
	"github.com/itchan-dev/forllm/shared/utils"
)

func (h *Handler) GetSubforums(w http.ResponseWriter, r *http.Request) {
	subforums, err := h.Forum.ListSubforums(r.Context())
	if err != nil {
		logger.Log.Error("failed to list subforums", "error", err)
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	resp := make([]api.SubforumResponse, 0, len(subforums))
	for _, s := range subforums {
		resp = append(resp, api.SubforumResponse{SubforumId: s.Id, Name: s.Name})
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) CreateSubforum(w http.ResponseWriter, r *http.Request) {
	var req api.CreateSubforumRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		utils.WriteErrorAndStatusCode(w, &internal_errors.ValidationError{Field: "name", Message: "subforum name is empty"})
		return
	}
	subforum, err := h.Forum.CreateSubforum(r.Context(), name)
	if err != nil {
		logger.Log.Error("failed to create subforum", "name", name, "error", err)
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.SubforumResponse{SubforumId: subforum.Id, Name: subforum.Name})
}

func (h *Handler) GetTopics(w http.ResponseWriter, r *http.Request) {
	subforumId, err := parseId(r, "subforum")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	topics, err := h.Forum.ListTopics(r.Context(), subforumId)
	if err != nil {
		logger.Log.Error("failed to list topics", "subforum_id", subforumId, "error", err)
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	resp := make([]api.TopicResponse, 0, len(topics))
	for _, t := range topics {
		resp = append(resp, api.TopicResponse{
			TopicId:    t.Id,
			Title:      t.Title,
			Username:   t.Username,
			PostCount:  t.PostCount,
			CreatedAt:  api.Timestamp{Time: t.CreatedAt},
			LastPostAt: api.Timestamp{Time: t.LastPostAt},
		})
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}
