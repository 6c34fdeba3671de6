package api

import (
	"github.com/itchan-dev/forllm/shared/domain"
)

// Request DTOs

type CreatePostRequest struct {
	Content      string `json:"content" validate:"required"`
	ParentPostId *int64 `json:"parent_post_id"`
}

// Response DTOs

type PostResponse struct {
	PostId        int64                `json:"post_id" validate:"required"`
	TopicId       int64                `json:"topic_id"`
	ParentPostId  OptionalId           `json:"parent_post_id"`
	Username      string               `json:"username"`
	CreatedAt     Timestamp            `json:"created_at"`
	Content       string               `json:"content"`
	IsLLMResponse Flag                 `json:"is_llm_response"`
	LLMModelId    *string              `json:"llm_model_id"`
	LLMPersonaId  OptionalId           `json:"llm_persona_id"`
	Attachments   []AttachmentResponse `json:"attachments" validate:"dive"`
}

func (p PostResponse) ToDomain() domain.Post {
	p.ParentPostId.warnDropped("parent_post_id", p.PostId)
	p.LLMPersonaId.warnDropped("llm_persona_id", p.PostId)
	post := domain.Post{
		Id:                p.PostId,
		TopicId:           p.TopicId,
		ParentId:          p.ParentPostId.Value,
		AuthorDisplayName: p.Username,
		CreatedAt:         p.CreatedAt.Time,
		ContentHTML:       p.Content,
		IsLLMResponse:     bool(p.IsLLMResponse),
		LLMModelId:        p.LLMModelId,
		LLMPersonaId:      p.LLMPersonaId.Value,
	}
	for _, a := range p.Attachments {
		post.Attachments = append(post.Attachments, a.ToDomain())
	}
	return post
}

// AttachmentResponse describes a stored attachment.
type AttachmentResponse struct {
	AttachmentId int64  `json:"attachment_id" validate:"required"`
	PostId       int64  `json:"post_id"`
	Filename     string `json:"filename" validate:"required"`
	MimeType     string `json:"mime_type"`
	Filesize     int64  `json:"filesize"`
	UserPrompt   string `json:"user_prompt"`
	OrderInPost  int    `json:"order_in_post"`
}

func (a AttachmentResponse) ToDomain() domain.Attachment {
	return domain.Attachment{
		Id:          a.AttachmentId,
		PostId:      a.PostId,
		Filename:    a.Filename,
		MimeType:    a.MimeType,
		SizeBytes:   a.Filesize,
		UserPrompt:  a.UserPrompt,
		OrderInPost: a.OrderInPost,
	}
}

type UpdateAttachmentRequest struct {
	UserPrompt string `json:"user_prompt"`
}
