package apiclient

import (
	"context"
	"fmt"

	"github.com/itchan-dev/forllm/shared/api"
	"github.com/itchan-dev/forllm/shared/domain"
)

func (c *APIClient) EstimateTokens(ctx context.Context, req api.EstimateTokensRequest) (domain.TokenBreakdown, error) {
	var response api.TokenBreakdownResponse
	if err := c.callJSON(ctx, "estimate_tokens", "POST", "/api/prompts/estimate_tokens", req, &response); err != nil {
		return domain.TokenBreakdown{}, fmt.Errorf("failed to estimate tokens: %w", err)
	}
	return response.ToDomain(), nil
}
