package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/forllm/frontend/internal/attachments"
	"github.com/itchan-dev/forllm/frontend/internal/compose"
	"github.com/itchan-dev/forllm/frontend/internal/mention"
	"github.com/itchan-dev/forllm/frontend/internal/tokens"
	"github.com/itchan-dev/forllm/shared/api"
	"github.com/itchan-dev/forllm/shared/domain"
	internal_errors "github.com/itchan-dev/forllm/shared/errors"
	"github.com/itchan-dev/forllm/shared/logger"
	"github.com/itchan-dev/forllm/shared/utils"
	"github.com/itchan-dev/forllm/shared/validation"
)

const maxUploadBytes = 32 << 20

type cursorView struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type mentionView struct {
	Mode     string `json:"mode"`
	Query    string `json:"query"`
	Selected int    `json:"selected"`
}

// workspaceView is the JSON snapshot of a workspace returned by every compose route.
type workspaceView struct {
	Id          string               `json:"id"`
	Kind        compose.Kind         `json:"kind"`
	Draft       string               `json:"draft"`
	Cursor      cursorView           `json:"cursor"`
	Mention     mentionView          `json:"mention"`
	Suggestions *mention.Suggestions `json:"suggestions,omitempty"`
	Budget      tokens.Snapshot      `json:"budget"`
	Attachments []attachments.Row    `json:"attachments"`
	Prevented   bool                 `json:"prevented,omitempty"`
}

func (h *Handler) view(ws *compose.Workspace) workspaceView {
	state := ws.Mention.State()
	cursor := ws.Buffer.Cursor()
	v := workspaceView{
		Id:          ws.ID,
		Kind:        ws.Kind,
		Draft:       ws.Buffer.Value(),
		Cursor:      cursorView{Line: cursor.Line, Column: cursor.Column},
		Mention:     mentionView{Mode: state.Mode.String(), Query: state.Query, Selected: state.SelectedIndex},
		Budget:      ws.Budget.Current(),
		Attachments: ws.Stager.Rows(),
	}
	if h.Overlay != nil {
		if sg, ok := h.Overlay.Current(); ok && sg.Owner == ws.Mention.ID() {
			v.Suggestions = &sg
		}
	}
	return v
}

func (h *Handler) workspace(w http.ResponseWriter, r *http.Request) (*compose.Workspace, bool) {
	id := chi.URLParam(r, "workspace")
	ws, ok := h.Workspaces.Get(id)
	if !ok {
		http.Error(w, fmt.Sprintf("Workspace %s not found", id), http.StatusNotFound)
		return nil, false
	}
	return ws, true
}

func (h *Handler) OpenWorkspace(w http.ResponseWriter, r *http.Request) {
	var req api.OpenWorkspaceRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	ws := h.Workspaces.Open(compose.Kind(req.Kind))
	utils.WriteJSON(w, http.StatusCreated, h.view(ws))
}

func (h *Handler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.view(ws))
}

func (h *Handler) CloseWorkspace(w http.ResponseWriter, r *http.Request) {
	if !h.Workspaces.Close(chi.URLParam(r, "workspace")) {
		http.Error(w, "Workspace not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Keys plays typed text and named keys into the editor. The answer reflects
// any persona lookups the keys started.
func (h *Handler) Keys(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var req api.KeysRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	ctx := r.Context()
	ws.Buffer.Focus()
	ws.Type(ctx, req.Text)
	prevented := false
	for _, key := range req.Keys {
		if ws.Key(ctx, key) {
			prevented = true
		}
	}
	ws.Mention.Wait()

	v := h.view(ws)
	v.Prevented = prevented
	utils.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) Blur(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var req api.BlurRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	ws.Buffer.Blur()
	ws.HandleBlur(r.Context(), req.IntoOverlay)
	utils.WriteJSON(w, http.StatusOK, h.view(ws))
}

func (h *Handler) PickSuggestion(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var req api.PickRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	ws.PickSuggestion(r.Context(), *req.Index)
	utils.WriteJSON(w, http.StatusOK, h.view(ws))
}

func (h *Handler) SelectPersona(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var req api.SelectPersonaRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	ws.SelectPersona(tokens.Selection{
		Present:   req.SelectorPresent,
		Visible:   req.Visible,
		IsDefault: req.IsDefault,
		PersonaId: req.PersonaId,
	})
	utils.WriteJSON(w, http.StatusOK, h.view(ws))
}

// StageAttachment keeps an uploaded file in the workspace until the post is submitted.
func (h *Handler) StageAttachment(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.WriteErrorAndStatusCode(w, &internal_errors.ValidationError{Field: "file", Message: "invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, &internal_errors.ValidationError{Field: "file", Message: "file is missing"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Log.Error("failed to read staged file", "filename", header.Filename, "error", err)
		http.Error(w, "Internal error: cannot read file", http.StatusInternalServerError)
		return
	}
	localId, err := ws.Stager.Stage(&domain.BytesBlob{
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if prompt := r.FormValue("user_prompt"); prompt != "" {
		if err := ws.Stager.SetPrompt(localId, prompt); err != nil {
			utils.WriteErrorAndStatusCode(w, err)
			return
		}
	}
	utils.WriteJSON(w, http.StatusCreated, h.view(ws))
}

func (h *Handler) MoveAttachment(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	localId, err := parseId(r, "local")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var req api.MoveAttachmentRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	dir := attachments.Up
	if req.Direction == "down" {
		dir = attachments.Down
	}
	if err := ws.Stager.Reorder(localId, dir); err != nil {
		writeStagerError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.view(ws))
}

func (h *Handler) RemoveAttachment(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	localId, err := parseId(r, "local")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := ws.Stager.Remove(localId); err != nil {
		writeStagerError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.view(ws))
}

func (h *Handler) SetAttachmentPrompt(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	localId, err := parseId(r, "local")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var req api.AttachmentPromptRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := ws.Stager.SetPrompt(localId, req.UserPrompt); err != nil {
		writeStagerError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.view(ws))
}

// writeStagerError answers 404 for local ids the stager does not hold.
func writeStagerError(w http.ResponseWriter, err error) {
	if errors.Is(err, validation.ErrUnknownAttachment) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	utils.WriteErrorAndStatusCode(w, err)
}

// Submit creates the reply or topic and then uploads the staged files.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var req api.SubmitRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var (
		submitted compose.Submitted
		err       error
	)
	switch ws.Kind {
	case compose.NewTopic:
		if req.SubforumId <= 0 {
			utils.WriteErrorAndStatusCode(w, &internal_errors.ValidationError{Field: "subforum_id", Message: "subforum is required"})
			return
		}
		submitted, err = ws.SubmitTopic(r.Context(), req.SubforumId, req.Title)
	default:
		if req.TopicId <= 0 {
			utils.WriteErrorAndStatusCode(w, &internal_errors.ValidationError{Field: "topic_id", Message: "topic is required"})
			return
		}
		submitted, err = ws.SubmitReply(r.Context(), req.TopicId, req.ParentPostId)
	}
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, submitted)
}

func (h *Handler) TagPersona(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var req api.ComposeTagPersonaRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	msg, err := ws.TagPersona(r.Context(), req.PostId, req.PersonaId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.TagPersonaResponse{Message: msg})
}
