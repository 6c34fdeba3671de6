package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postsJSON = `[
	{"post_id": 2, "parent_post_id": 1, "username": "bob", "created_at": "2024-01-01 10:05:00", "content": "ask @[Ada](42)"},
	{"post_id": 1, "username": "alice", "created_at": "2024-01-01 10:00:00", "content": "<p>hello</p>"},
	{"post_id": 3, "parent_post_id": 2, "username": "Ada", "created_at": "2024-01-01 10:06:00", "content": "answer", "is_llm_response": 1, "llm_model_id": "llama3", "llm_persona_id": 42}
]`

func writePosts(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "posts.json")
	require.NoError(t, os.WriteFile(path, []byte(postsJSON), 0o644))
	return path
}

func runThreadWith(t *testing.T, file string, outline bool) string {
	t.Helper()
	threadFile, threadOutline = file, outline
	defer func() { threadFile, threadOutline = "", false }()

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, runThread(cmd, nil))
	return out.String()
}

func TestThreadCmd_Outline(t *testing.T) {
	out := runThreadWith(t, writePosts(t), true)

	assert.Equal(t, "#1 alice 2024-01-01 10:00\n"+
		"  #2 bob 2024-01-01 10:05\n"+
		"    #3 Ada [LLM] 2024-01-01 10:06\n", out)
}

func TestThreadCmd_HTML(t *testing.T) {
	out := runThreadWith(t, writePosts(t), false)

	assert.Contains(t, out, `<span class="persona-tag" data-persona-id="42" title="Persona ID: 42">@Ada</span>`)
	assert.Contains(t, out, "(LLM: llama3 / Persona: 42)")
	assert.Less(t, bytes.Index([]byte(out), []byte(`id="post-1"`)), bytes.Index([]byte(out), []byte(`id="post-3"`)))
}

func TestThreadCmd_Errors(t *testing.T) {
	t.Run("no topic and no file", func(t *testing.T) {
		err := runThread(&cobra.Command{}, nil)
		assert.ErrorContains(t, err, "either a topic id or --file is required")
	})

	t.Run("invalid topic id", func(t *testing.T) {
		err := runThread(&cobra.Command{}, []string{"abc"})
		assert.ErrorContains(t, err, "invalid topic id")
	})

	t.Run("file is not a list", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "posts.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"post_id": 1}`), 0o644))
		threadFile = path
		defer func() { threadFile = "" }()

		err := runThread(&cobra.Command{}, nil)
		assert.Error(t, err)
	})
}

// withForumAPI points the config folder at a fake forum API for one test.
func withForumAPI(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "public.yaml"), []byte("api_base_url: "+srv.URL+"\n"), 0o644))
	prev := configFolder
	configFolder = dir
	t.Cleanup(func() { configFolder = prev })
}

func runTopicsWith(t *testing.T, create string, args ...string) (string, error) {
	t.Helper()
	topicsCreate = create
	defer func() { topicsCreate = "" }()

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)
	err := runTopics(cmd, args)
	return out.String(), err
}

func TestTopicsCmd(t *testing.T) {
	var created []string
	withForumAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/subforums":
			w.Write([]byte(`[{"subforum_id": 1, "name": "General"}]`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/subforums":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			created = append(created, body["name"])
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"subforum_id": 2, "name": "` + body["name"] + `"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/subforums/1/topics":
			w.Write([]byte(`[{"topic_id": 3, "title": "Hello", "username": "alice", "post_count": 2, "created_at": "2024-01-01 10:00:00"}]`))
		default:
			http.NotFound(w, r)
		}
	})

	out, err := runTopicsWith(t, "")
	require.NoError(t, err)
	assert.Equal(t, "1\tGeneral\n", out)

	out, err = runTopicsWith(t, "", "1")
	require.NoError(t, err)
	assert.Equal(t, "3\tHello\talice\t2 posts\n", out)

	out, err = runTopicsWith(t, " Go ")
	require.NoError(t, err)
	assert.Equal(t, "2\tGo\n", out)
	assert.Equal(t, []string{"Go"}, created)

	_, err = runTopicsWith(t, "   ")
	assert.ErrorContains(t, err, "subforum name is empty")
	assert.Len(t, created, 1)
}
