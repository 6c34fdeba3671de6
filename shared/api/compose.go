package api

// DTOs of the frontend's own HTTP surface: previews and compose workspaces.

type PreviewRequest struct {
	Content string `json:"content"`
}

type PreviewResponse struct {
	HTML       string `json:"html"`
	HasPayload bool   `json:"has_payload"`
}

type OpenWorkspaceRequest struct {
	Kind string `json:"kind" validate:"required,oneof=new-topic reply"`
}

// KeysRequest plays Text rune by rune, then each named key in Keys.
type KeysRequest struct {
	Text string   `json:"text"`
	Keys []string `json:"keys"`
}

type BlurRequest struct {
	IntoOverlay bool `json:"into_overlay"`
}

type PickRequest struct {
	Index *int `json:"index" validate:"required,gte=0"`
}

type SelectPersonaRequest struct {
	SelectorPresent bool  `json:"selector_present"`
	Visible         bool  `json:"visible"`
	IsDefault       bool  `json:"is_default"`
	PersonaId       int64 `json:"persona_id"`
}

type MoveAttachmentRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

type AttachmentPromptRequest struct {
	UserPrompt string `json:"user_prompt"`
}

// SubmitRequest carries TopicId (and optionally ParentPostId) for replies,
// SubforumId and Title for new topics.
type SubmitRequest struct {
	TopicId      int64  `json:"topic_id"`
	ParentPostId *int64 `json:"parent_post_id"`
	SubforumId   int64  `json:"subforum_id"`
	Title        string `json:"title"`
}

type ComposeTagPersonaRequest struct {
	PostId    int64 `json:"post_id" validate:"required"`
	PersonaId int64 `json:"persona_id"`
}
