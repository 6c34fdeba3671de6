package api

import (
	"github.com/itchan-dev/forllm/shared/domain"
)

// Request DTOs

type CreateTopicRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// Response DTOs

type TopicResponse struct {
	TopicId    int64     `json:"topic_id" validate:"required"`
	Title      string    `json:"title" validate:"required"`
	Username   string    `json:"username"`
	PostCount  int       `json:"post_count"`
	CreatedAt  Timestamp `json:"created_at"`
	LastPostAt Timestamp `json:"last_post_at"`
}

func (t TopicResponse) ToDomain(subforumId domain.SubforumId) domain.Topic {
	return domain.Topic{
		Id:         t.TopicId,
		SubforumId: subforumId,
		Title:      t.Title,
		Username:   t.Username,
		PostCount:  t.PostCount,
		CreatedAt:  t.CreatedAt.Time,
		LastPostAt: t.LastPostAt.Time,
	}
}

type CreateTopicResponse struct {
	TopicId       int64  `json:"topic_id" validate:"required"`
	Title         string `json:"title"`
	InitialPostId int64  `json:"initial_post_id" validate:"required"`
}

func (c CreateTopicResponse) ToDomain() domain.CreatedTopic {
	return domain.CreatedTopic{Id: c.TopicId, Title: c.Title, InitialPostId: c.InitialPostId}
}

// RequestLLMResponse acknowledges a queued LLM request.
type RequestLLMResponse struct {
	Message   string `json:"message"`
	RequestId int64  `json:"request_id"`
}
