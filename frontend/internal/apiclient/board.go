package apiclient

import (
	"context"
	"fmt"

	"github.com/itchan-dev/forllm/shared/api"
	"github.com/itchan-dev/forllm/shared/domain"
)

// === Subforum Methods ===

func (c *APIClient) ListSubforums(ctx context.Context) ([]domain.Subforum, error) {
	var response []api.SubforumResponse
	if err := c.callJSON(ctx, "list_subforums", "GET", "/api/subforums", nil, &response); err != nil {
		return nil, fmt.Errorf("failed to list subforums: %w", err)
	}
	subforums := make([]domain.Subforum, 0, len(response))
	for _, s := range response {
		subforums = append(subforums, s.ToDomain())
	}
	return subforums, nil
}

// CreateSubforum adds a subforum; the API answers 409 when the name is taken.
func (c *APIClient) CreateSubforum(ctx context.Context, name string) (domain.Subforum, error) {
	var response api.SubforumResponse
	if err := c.callJSON(ctx, "create_subforum", "POST", "/api/subforums", api.CreateSubforumRequest{Name: name}, &response); err != nil {
		return domain.Subforum{}, fmt.Errorf("failed to create subforum: %w", err)
	}
	return response.ToDomain(), nil
}

func (c *APIClient) ListTopics(ctx context.Context, subforumId domain.SubforumId) ([]domain.Topic, error) {
	var response []api.TopicResponse
	path := fmt.Sprintf("/api/subforums/%d/topics", subforumId)
	if err := c.callJSON(ctx, "list_topics", "GET", path, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to list topics of subforum %d: %w", subforumId, err)
	}
	topics := make([]domain.Topic, 0, len(response))
	for _, t := range response {
		topics = append(topics, t.ToDomain(subforumId))
	}
	return topics, nil
}

func (c *APIClient) CreateTopic(ctx context.Context, subforumId domain.SubforumId, data api.CreateTopicRequest) (domain.CreatedTopic, error) {
	var response api.CreateTopicResponse
	path := fmt.Sprintf("/api/subforums/%d/topics", subforumId)
	if err := c.callJSON(ctx, "create_topic", "POST", path, data, &response); err != nil {
		return domain.CreatedTopic{}, fmt.Errorf("failed to create topic: %w", err)
	}
	return response.ToDomain(), nil
}
