package apiclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/itchan-dev/forllm/shared/api"
	"github.com/itchan-dev/forllm/shared/domain"
	internal_errors "github.com/itchan-dev/forllm/shared/errors"
)

// GetTopicPosts returns the flat post list of a topic. A payload that is not
// an array of posts comes back as *errors.InvalidInputError.
func (c *APIClient) GetTopicPosts(ctx context.Context, topicId domain.TopicId) ([]domain.Post, error) {
	var response []api.PostResponse
	path := fmt.Sprintf("/api/topics/%d/posts", topicId)
	if err := c.callJSON(ctx, "topic_posts", "GET", path, nil, &response); err != nil {
		if errors.Is(err, ErrNoContent) {
			return []domain.Post{}, nil
		}
		return nil, fmt.Errorf("failed to load posts of topic %d: %w", topicId, err)
	}
	if response == nil {
		return nil, &internal_errors.InvalidInputError{Message: "posts payload is not a list"}
	}
	posts := make([]domain.Post, 0, len(response))
	for _, p := range response {
		posts = append(posts, p.ToDomain())
	}
	return posts, nil
}

func (c *APIClient) CreateReply(ctx context.Context, topicId domain.TopicId, data api.CreatePostRequest) (domain.Post, error) {
	var response api.PostResponse
	path := fmt.Sprintf("/api/topics/%d/posts", topicId)
	if err := c.callJSON(ctx, "create_post", "POST", path, data, &response); err != nil {
		return domain.Post{}, fmt.Errorf("failed to create reply: %w", err)
	}
	return response.ToDomain(), nil
}

// RequestLLM queues an LLM response to the post; the API answers 202.
func (c *APIClient) RequestLLM(ctx context.Context, postId domain.PostId) error {
	path := fmt.Sprintf("/api/posts/%d/request_llm", postId)
	if err := c.callJSON(ctx, "request_llm", "POST", path, nil, nil); err != nil {
		return fmt.Errorf("failed to request LLM response for post %d: %w", postId, err)
	}
	return nil
}
