package apiclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/itchan-dev/forllm/shared/api"
	"github.com/itchan-dev/forllm/shared/domain"
)

func (c *APIClient) ListActivePersonas(ctx context.Context) ([]domain.Persona, error) {
	var response []api.PersonaResponse
	if err := c.callJSON(ctx, "list_personas", "GET", "/api/personas/list_active", nil, &response); err != nil {
		return nil, fmt.Errorf("failed to list personas: %w", err)
	}
	personas := make([]domain.Persona, 0, len(response))
	for _, p := range response {
		personas = append(personas, p.ToDomain())
	}
	return personas, nil
}

// TagPersona asks the API to have the persona respond to a post.
func (c *APIClient) TagPersona(ctx context.Context, postId domain.PostId, personaId domain.PersonaId) (string, error) {
	var response api.TagPersonaResponse
	path := fmt.Sprintf("/api/posts/%d/tag_persona", postId)
	err := c.callJSON(ctx, "tag_persona", "POST", path, api.TagPersonaRequest{PersonaId: personaId}, &response)
	if err != nil && !errors.Is(err, ErrNoContent) {
		return "", fmt.Errorf("failed to tag persona %d on post %d: %w", personaId, postId, err)
	}
	return response.Message, nil
}
