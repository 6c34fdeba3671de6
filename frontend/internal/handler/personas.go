package handler

import (
	"net/http"

	"github.com/itchan-dev/forllm/shared/api"
	"github.com/itchan-dev/forllm/shared/logger"
	"github.com/itchan-dev/forllm/shared/utils"
)

// SuggestPersonas answers GET /personas/suggest?q= with the matching active personas.
func (h *Handler) SuggestPersonas(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	found, err := h.Personas.Search(r.Context(), query)
	if err != nil {
		logger.Log.Warn("persona suggestions unavailable", "query", query, "error", err)
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	resp := make([]api.PersonaResponse, 0, len(found))
	for _, p := range found {
		resp = append(resp, api.PersonaResponse{
			PersonaId:            p.Id,
			Name:                 p.Name,
			IsDefaultForSubforum: api.Flag(p.IsDefaultForSubforum),
		})
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

// Preview renders a draft the way it will look once posted.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req api.PreviewRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	html, err := h.TextProcessor.Preview(req.Content)
	if err != nil {
		logger.Log.Error("failed to render preview", "error", err)
		http.Error(w, "Internal error: cannot render preview", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.PreviewResponse{
		HTML:       string(html),
		HasPayload: h.TextProcessor.HasPayload(req.Content),
	})
}
