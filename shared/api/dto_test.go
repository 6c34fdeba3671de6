package api

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/itchan-dev/forllm/shared/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostResponse_SqliteShapedRow(t *testing.T) {
	body := `{
		"post_id": 7,
		"topic_id": 2,
		"parent_post_id": 3,
		"username": "LocalUser",
		"created_at": "2024-05-01 10:11:12",
		"content": "<p>hi</p>",
		"is_llm_response": 1,
		"llm_model_id": "llama3",
		"llm_persona_id": "helpful_assistant"
	}`

	var resp PostResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	post := resp.ToDomain()

	assert.Equal(t, int64(7), post.Id)
	require.NotNil(t, post.ParentId)
	assert.Equal(t, int64(3), *post.ParentId)
	assert.True(t, post.IsLLMResponse)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 11, 12, 0, time.UTC), post.CreatedAt)
	require.NotNil(t, post.LLMModelId)
	assert.Equal(t, "llama3", *post.LLMModelId)
	// label-style persona ids are not numeric ids
	assert.Nil(t, post.LLMPersonaId)
}

func TestPostResponse_RootAndRFC3339(t *testing.T) {
	body := `{"post_id": 1, "parent_post_id": null, "created_at": "2024-05-01T10:11:12Z", "is_llm_response": false, "llm_persona_id": 42}`

	var resp PostResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	post := resp.ToDomain()

	assert.Nil(t, post.ParentId)
	assert.False(t, post.IsLLMResponse)
	require.NotNil(t, post.LLMPersonaId)
	assert.Equal(t, int64(42), *post.LLMPersonaId)
}

func TestFlag_Rejects(t *testing.T) {
	var f Flag
	assert.Error(t, json.Unmarshal([]byte(`"maybe"`), &f))
}

func TestTimestamp_Rejects(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`12`), &ts))
}

func TestEstimateTokensRequest_NullPersona(t *testing.T) {
	data, err := json.Marshal(EstimateTokensRequest{CurrentPostText: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"current_post_text":"x","selected_persona_id":null,"attachments_text":""}`, string(data))
}

func TestPostResponse_WarnsOnDroppedId(t *testing.T) {
	var logs bytes.Buffer
	logger.InitializeWriter(&logs, "warn", true)
	t.Cleanup(func() { logger.Initialize("info", false) })

	var resp PostResponse
	require.NoError(t, json.Unmarshal([]byte(`{"post_id": 7, "parent_post_id": "abc", "llm_persona_id": 42}`), &resp))
	post := resp.ToDomain()

	assert.Nil(t, post.ParentId)
	require.NotNil(t, post.LLMPersonaId)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "non-numeric id ignored", entry["msg"])
	assert.Equal(t, "parent_post_id", entry["field"])
	assert.Equal(t, "abc", entry["value"])
	assert.Equal(t, float64(7), entry["post_id"])

	logs.Reset()
	require.NoError(t, json.Unmarshal([]byte(`{"post_id": 8, "parent_post_id": 3}`), &resp))
	resp.ToDomain()
	assert.Empty(t, logs.String())
}
