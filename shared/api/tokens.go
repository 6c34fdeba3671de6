package api

import (
	"github.com/itchan-dev/forllm/shared/domain"
)

// EstimateTokensRequest is sent to /api/prompts/estimate_tokens.
// SelectedPersonaId is null unless a non-default persona is picked.
type EstimateTokensRequest struct {
	CurrentPostText   string `json:"current_post_text"`
	SelectedPersonaId *int64 `json:"selected_persona_id"`
	AttachmentsText   string `json:"attachments_text"`
}

type TokenBreakdownResponse struct {
	PostContentTokens    int    `json:"post_content_tokens" validate:"gte=0"`
	PersonaPromptTokens  int    `json:"persona_prompt_tokens" validate:"gte=0"`
	SystemPromptTokens   int    `json:"system_prompt_tokens" validate:"gte=0"`
	AttachmentsTokens    int    `json:"attachments_tokens" validate:"gte=0"`
	ChatHistoryTokens    int    `json:"chat_history_tokens" validate:"gte=0"`
	TotalEstimatedTokens *int   `json:"total_estimated_tokens" validate:"required,gte=0"`
	ModelContextWindow   *int   `json:"model_context_window" validate:"required,gte=0"`
	ModelName            string `json:"model_name"`
	PersonaName          string `json:"persona_name"`
}

func (t TokenBreakdownResponse) ToDomain() domain.TokenBreakdown {
	b := domain.TokenBreakdown{
		PostContentTokens:   t.PostContentTokens,
		PersonaPromptTokens: t.PersonaPromptTokens,
		SystemPromptTokens:  t.SystemPromptTokens,
		AttachmentsTokens:   t.AttachmentsTokens,
		ChatHistoryTokens:   t.ChatHistoryTokens,
		ModelName:           t.ModelName,
		PersonaName:         t.PersonaName,
	}
	if t.TotalEstimatedTokens != nil {
		b.TotalEstimatedTokens = *t.TotalEstimatedTokens
	}
	if t.ModelContextWindow != nil {
		b.ModelContextWindow = *t.ModelContextWindow
	}
	return b
}
